package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/swiftex-io/lintex-legolas/pkg/app/core/ledger"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/order"
	"github.com/swiftex-io/lintex-legolas/pkg/app/exchange"
	"github.com/swiftex-io/lintex-legolas/pkg/app/notify"
	"github.com/swiftex-io/lintex-legolas/pkg/metrics"
	"github.com/swiftex-io/lintex-legolas/pkg/storage"
	"github.com/swiftex-io/lintex-legolas/pkg/util"
)

type recordingJournal struct {
	mu     sync.Mutex
	events []string
}

func (j *recordingJournal) Append(event string, _ map[string]any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
	return nil
}

func (j *recordingJournal) Events() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type testEnv struct {
	server  *Server
	x       *exchange.Exchange
	journal *recordingJournal
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	// hub goroutines may still log at debug after the test returns
	logger := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	m := metrics.New()
	c := clock.NewMock()
	c.Set(time.Unix(1700000000, 0))
	x := exchange.New(exchange.Config{
		Clock:    c,
		IDs:      &util.CounterIDs{},
		Sessions: storage.NewInMemoryStore(),
		Metrics:  m,
		Logger:   logger,
	})
	j := &recordingJournal{}
	s := NewServer(x, Options{Journal: j, Metrics: m, Logger: logger, Origins: []string{"http://localhost:3000"}, MockSeed: 1})
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return &testEnv{server: s, x: x, journal: j, handler: s.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLimitOrderLifecycle(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, http.StatusOK, e.do(t, "POST", "/api/v1/session/guest", "").Code)

	rec := e.do(t, "POST", "/api/v1/orders", `{"symbol":"BTC/USDT","side":"buy","type":"limit","price":"60000","amount":"0.1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	placed := decodeBody[PlaceOrderResponse](t, rec)
	require.True(t, placed.Accepted)
	require.NotNil(t, placed.Order)
	assert.Equal(t, order.Open, placed.Order.Status)

	open := decodeBody[[]order.Order](t, e.do(t, "GET", "/api/v1/orders?status=open", ""))
	require.Len(t, open, 1)

	rec = e.do(t, "POST", "/api/v1/ticks", `{"BTCUSDT": 59000, "ETHUSDT": {"price": 3000, "change24h": 1.2}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, TickResponse{Symbols: 2, OpenOrders: 0}, decodeBody[TickResponse](t, rec))

	trades := decodeBody[[]order.Trade](t, e.do(t, "GET", "/api/v1/trades", ""))
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(placed.Order.Price))

	all := decodeBody[[]order.Order](t, e.do(t, "GET", "/api/v1/orders", ""))
	require.Len(t, all, 1)
	assert.Equal(t, order.Filled, all[0].Status)

	notes := decodeBody[[]notify.Notification](t, e.do(t, "GET", "/api/v1/notifications", ""))
	require.Len(t, notes, 2)
	assert.Equal(t, "Limit Order Filled", notes[0].Title)

	assert.Equal(t, []string{"SESSION_GUEST", "ORDER_PLACE"}, e.journal.Events())
}

func TestPlaceOrderErrors(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"symbol":`, http.StatusBadRequest},
		{"missing symbol", `{"side":"buy","type":"limit","price":"1","amount":"1"}`, http.StatusBadRequest},
		{"bad side", `{"symbol":"BTC/USDT","side":"hold","type":"limit","price":"1","amount":"1"}`, http.StatusBadRequest},
		{"unfunded", `{"symbol":"BTC/USDT","side":"buy","type":"limit","price":"60000","amount":"1"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"symbol":"BTC/USDT","side":"buy","type":"market","price":"60000","amount":"0"}`, http.StatusUnprocessableEntity},
		{"unknown asset", `{"symbol":"DOGE/USDT","side":"buy","type":"market","price":"1","amount":"1"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, "POST", "/api/v1/orders", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code == http.StatusUnprocessableEntity {
				assert.False(t, decodeBody[PlaceOrderResponse](t, rec).Accepted)
			}
		})
	}
	assert.Empty(t, e.x.Orders())
}

func TestCancelOrder(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/api/v1/session/guest", "")
	placed := decodeBody[PlaceOrderResponse](t,
		e.do(t, "POST", "/api/v1/orders", `{"symbol":"ETH/USDT","side":"sell","type":"limit","price":"4000","amount":"0.1"}`))
	require.True(t, placed.Accepted)

	got := decodeBody[CancelOrderResponse](t, e.do(t, "POST", "/api/v1/orders/"+placed.Order.ID+"/cancel", ""))
	assert.True(t, got.Canceled)

	got = decodeBody[CancelOrderResponse](t, e.do(t, "POST", "/api/v1/orders/"+placed.Order.ID+"/cancel", ""))
	assert.False(t, got.Canceled)
	assert.Empty(t, e.x.OpenOrders())
}

func TestBalances(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, "POST", "/api/v1/balances/deposit", `{"symbol":"USDT","amount":"100"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), exchange.ErrNoSession.Error())

	e.do(t, "POST", "/api/v1/session/guest", "")
	rec = e.do(t, "POST", "/api/v1/balances/deposit", `{"symbol":"USDT","amount":"100"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	balances := decodeBody[[]BalanceInfo](t, rec)
	var usdt BalanceInfo
	for _, b := range balances {
		if b.Symbol == "USDT" {
			usdt = b
		}
	}
	assert.Equal(t, "10100", usdt.Balance.String())
	assert.True(t, usdt.Reserved.IsZero())

	rec = e.do(t, "POST", "/api/v1/balances/withdraw", `{"symbol":"USDT","amount":"20000"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(t, "POST", "/api/v1/balances/deposit", `{"amount":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepositRejections(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/api/v1/session/guest", "")

	for _, body := range []string{`{"symbol":"USDT","amount":"0"}`, `{"symbol":"DOGE","amount":"1"}`} {
		rec := e.do(t, "POST", "/api/v1/balances/deposit", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
		assert.Contains(t, rec.Body.String(), "amount must be positive and asset listed", body)
	}
	assert.NotContains(t, e.journal.Events(), "BALANCE_DEPOSIT")
}

func TestDepositDuringSignOutReportsSession(t *testing.T) {
	e := newTestEnv(t)

	for i := 0; i < 50; i++ {
		e.do(t, "POST", "/api/v1/session/guest", "")

		var wg sync.WaitGroup
		var rec *httptest.ResponseRecorder
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec = e.do(t, "POST", "/api/v1/balances/deposit", `{"symbol":"USDT","amount":"1"}`)
		}()
		go func() {
			defer wg.Done()
			e.do(t, "DELETE", "/api/v1/session", "")
		}()
		wg.Wait()

		if rec.Code != http.StatusOK {
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), exchange.ErrNoSession.Error())
		}
	}
}

func TestDepositMessage(t *testing.T) {
	assert.Equal(t, exchange.ErrNoSession.Error(), depositMessage(exchange.ErrNoSession))
	assert.Equal(t, "amount must be positive and asset listed", depositMessage(fmt.Errorf("credit: %w", ledger.ErrUnknownAsset)))
	assert.Equal(t, "boom", depositMessage(errors.New("boom")))
}

func TestTicksRejectMalformed(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, "POST", "/api/v1/ticks", `{"BTCUSDT": {"change24h": 1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersStatusFilter(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, http.StatusBadRequest, e.do(t, "GET", "/api/v1/orders?status=pending", "").Code)
}

func TestNotificationsDismiss(t *testing.T) {
	e := newTestEnv(t)
	n := e.x.Notify(notify.Notice{Title: "Hello", Message: "world", Level: notify.Info})

	assert.Equal(t, http.StatusNoContent, e.do(t, "DELETE", "/api/v1/notifications/"+n.ID, "").Code)
	assert.Equal(t, http.StatusNoContent, e.do(t, "DELETE", "/api/v1/notifications/"+n.ID, "").Code)
	assert.Empty(t, e.x.Notifications())
}

func TestFavoritesAndMarkets(t *testing.T) {
	e := newTestEnv(t)

	fav := decodeBody[FavoriteResponse](t, e.do(t, "POST", "/api/v1/favorites/toggle", `{"symbol":"SOL"}`))
	assert.True(t, fav.Favorite)
	assert.Equal(t, []string{"SOL"}, fav.Favorites)

	markets := decodeBody[[]MarketInfo](t, e.do(t, "GET", "/api/v1/markets", ""))
	require.NotEmpty(t, markets)
	for _, m := range markets {
		assert.NotEqual(t, "USDT", m.Symbol)
		assert.Len(t, m.Sparkline, sparklinePoints)
		assert.Equal(t, m.Symbol == "SOL", m.Favorite, m.Symbol)
	}

	assert.Equal(t, []string{"SOL"}, decodeBody[[]string](t, e.do(t, "GET", "/api/v1/favorites", "")))
}

func TestDepth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, "GET", "/api/v1/markets/BTC-USDT/depth", "")
	require.Equal(t, http.StatusOK, rec.Code)
	depth := decodeBody[DepthSnapshot](t, rec)
	assert.Equal(t, "BTC/USDT", depth.Symbol)
	assert.Len(t, depth.Bars, depthBars)

	assert.Equal(t, http.StatusNotFound, e.do(t, "GET", "/api/v1/markets/DOGE/depth", "").Code)
}

func TestSessionEndpoints(t *testing.T) {
	e := newTestEnv(t)

	assert.Nil(t, decodeBody[SessionInfo](t, e.do(t, "GET", "/api/v1/session", "")).User)

	guest := decodeBody[SessionInfo](t, e.do(t, "POST", "/api/v1/session/guest", ""))
	require.NotNil(t, guest.User)
	assert.True(t, guest.User.Guest)

	assert.Equal(t, http.StatusNoContent, e.do(t, "DELETE", "/api/v1/session", "").Code)
	assert.Nil(t, decodeBody[SessionInfo](t, e.do(t, "GET", "/api/v1/session", "")).User)
}

func TestReferralEndpoint(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, "GET", "/api/v1/referral", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tier":"Rookie"`)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "GET", "/health", "")

	rec := e.do(t, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lintex_http_requests_total{code="200",handler="health",method="GET"} 1`)
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest("GET", "/api/v1/balances", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func subscribed(h *Hub, channel string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.IsSubscribed(channel) {
			return true
		}
	}
	return false
}

func TestWebSocketNotifications(t *testing.T) {
	e := newTestEnv(t)
	ts := httptest.NewServer(e.handler)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSSubscribeRequest{Op: "subscribe", Channels: []string{ChannelNotifications}}))
	require.Eventually(t, func() bool { return subscribed(e.server.Hub(), ChannelNotifications) }, time.Second, 5*time.Millisecond)

	e.x.Notify(notify.Notice{Title: "Order Placed", Message: "BUY 1 BTC", Level: notify.Info})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string              `json:"type"`
		Data NotificationsUpdate `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ChannelNotifications, msg.Type)
	require.Len(t, msg.Data.Items, 1)
	assert.Equal(t, "Order Placed", msg.Data.Items[0].Title)
}
