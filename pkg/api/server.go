package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/swiftex-io/lintex-legolas/pkg/app/core/ledger"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/order"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/tick"
	"github.com/swiftex-io/lintex-legolas/pkg/app/exchange"
	"github.com/swiftex-io/lintex-legolas/pkg/app/mockdata"
	"github.com/swiftex-io/lintex-legolas/pkg/app/notify"
	"github.com/swiftex-io/lintex-legolas/pkg/metrics"
	"github.com/swiftex-io/lintex-legolas/pkg/storage"
)

const (
	sparklinePoints = 13
	depthBars       = 24
)

// Options configures a Server. Zero values get working defaults.
type Options struct {
	Journal  storage.Journal
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Origins  []string
	MockSeed int64
}

// Server handles REST API and WebSocket connections
type Server struct {
	x        *exchange.Exchange
	router   *mux.Router
	hub      *Hub
	journal  storage.Journal
	metrics  *metrics.Metrics
	mock     *mockdata.Generator
	validate *validator.Validate
	logger   *zap.Logger
	origins  []string

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates the API server and subscribes the WebSocket hub to
// exchange and notification changes. The hub runs until Shutdown.
func NewServer(x *exchange.Exchange, opts Options) *Server {
	if opts.Journal == nil {
		opts.Journal = storage.NewNopJournal()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Server{
		x:        x,
		router:   mux.NewRouter(),
		hub:      NewHub(opts.Logger),
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		mock:     mockdata.NewGenerator(opts.MockSeed),
		validate: v,
		logger:   opts.Logger,
		origins:  opts.Origins,
	}

	x.OnUpdate = s.broadcastUpdate
	x.Bus().OnChange = func(list []notify.Notification) {
		s.hub.BroadcastToChannel(ChannelNotifications, NotificationsUpdate{Items: list})
	}

	s.setupRoutes()
	go s.hub.Run()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Market endpoints
	s.handle(api, "/markets", "markets", s.handleGetMarkets).Methods("GET")
	s.handle(api, "/markets/{symbol}/depth", "depth", s.handleGetDepth).Methods("GET")

	// Balance endpoints
	s.handle(api, "/balances", "balances", s.handleGetBalances).Methods("GET")
	s.handle(api, "/balances/deposit", "deposit", s.handleDeposit).Methods("POST")
	s.handle(api, "/balances/withdraw", "withdraw", s.handleWithdraw).Methods("POST")

	// Order endpoints
	s.handle(api, "/orders", "orders", s.handleGetOrders).Methods("GET")
	s.handle(api, "/orders", "place_order", s.handlePlaceOrder).Methods("POST")
	s.handle(api, "/orders/{id}/cancel", "cancel_order", s.handleCancelOrder).Methods("POST")
	s.handle(api, "/trades", "trades", s.handleGetTrades).Methods("GET")
	s.handle(api, "/ticks", "ticks", s.handleTicks).Methods("POST")

	// Notifications
	s.handle(api, "/notifications", "notifications", s.handleGetNotifications).Methods("GET")
	s.handle(api, "/notifications/{id}", "dismiss_notification", s.handleDismissNotification).Methods("DELETE")

	// Watchlist and referral
	s.handle(api, "/favorites", "favorites", s.handleGetFavorites).Methods("GET")
	s.handle(api, "/favorites/toggle", "toggle_favorite", s.handleToggleFavorite).Methods("POST")
	s.handle(api, "/referral", "referral", s.handleGetReferral).Methods("GET")

	// Session
	s.handle(api, "/session", "session", s.handleGetSession).Methods("GET")
	s.handle(api, "/session/guest", "guest_session", s.handleEnterAsGuest).Methods("POST")
	s.handle(api, "/session", "sign_out", s.handleSignOut).Methods("DELETE")

	// WebSocket endpoint; not instrumented since the upgrade needs the raw writer
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	s.handle(s.router, "/health", "health", s.handleHealth).Methods("GET")
}

func (s *Server) handle(r *mux.Router, path, name string, h http.HandlerFunc) *mux.Route {
	return r.Handle(path, s.metrics.Instrument(name, h))
}

// Handler returns the router behind the CORS middleware
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *Hub { return s.hub }

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("api_server_starting", zap.String("addr", addr), zap.Strings("cors_origins", s.origins))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// every WebSocket client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	assets := s.x.Balances()
	response := make([]MarketInfo, 0, len(assets))
	for _, a := range assets {
		if a.Symbol == "USDT" {
			continue
		}
		response = append(response, MarketInfo{
			Symbol:    a.Symbol,
			Pair:      a.Symbol + "/USDT",
			Name:      a.Name,
			Price:     a.Price,
			Change24h: a.Change24h,
			MarketCap: s.mock.MarketCap(),
			Turnover:  s.mock.Turnover(),
			Sparkline: s.mock.Sparkline(sparklinePoints),
			Favorite:  s.x.IsFavorite(a.Symbol),
		})
	}

	respondJSON(w, response)
}

func (s *Server) handleGetDepth(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	base, _ := order.SplitPair(strings.ReplaceAll(symbol, "-", "/"))

	if !s.x.Catalog().Exists(base) {
		respondError(w, http.StatusNotFound, "market not found", symbol)
		return
	}

	respondJSON(w, DepthSnapshot{
		Symbol:    base + "/USDT",
		Bars:      s.mock.Depth(depthBars),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	s.respondBalances(w)
}

func (s *Server) respondBalances(w http.ResponseWriter) {
	assets := s.x.Balances()
	response := make([]BalanceInfo, len(assets))
	for i, a := range assets {
		response[i] = BalanceInfo{Asset: a, Reserved: a.Reserved()}
	}
	respondJSON(w, response)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req BalanceRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.x.Deposit(req.Symbol, req.Amount); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "deposit rejected", depositMessage(err))
		return
	}

	s.logTransaction("BALANCE_DEPOSIT", map[string]interface{}{
		"symbol": req.Symbol,
		"amount": req.Amount.String(),
	})
	s.respondBalances(w)
}

func depositMessage(err error) string {
	switch {
	case errors.Is(err, exchange.ErrNoSession):
		return exchange.ErrNoSession.Error()
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrUnknownAsset):
		return "amount must be positive and asset listed"
	default:
		return err.Error()
	}
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req BalanceRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.x.Withdraw(req.Symbol, req.Amount); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "withdraw rejected", err.Error())
		return
	}

	s.logTransaction("BALANCE_WITHDRAW", map[string]interface{}{
		"symbol": req.Symbol,
		"amount": req.Amount.String(),
	})
	s.respondBalances(w)
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	switch status := r.URL.Query().Get("status"); status {
	case "open":
		respondJSON(w, s.x.OpenOrders())
	case "", "all":
		respondJSON(w, s.x.Orders())
	default:
		respondError(w, http.StatusBadRequest, "invalid status filter", "expected open or all, got "+status)
	}
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if !s.decode(w, r, &req) {
		return
	}

	o, err := s.x.PlaceOrder(req.Spec())
	if err != nil {
		s.logTransaction("ORDER_REJECTED", map[string]interface{}{
			"symbol": req.Symbol,
			"side":   req.Side,
			"type":   req.Type,
			"reason": err.Error(),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(PlaceOrderResponse{Accepted: false, Message: err.Error()})
		return
	}

	s.logTransaction("ORDER_PLACE", map[string]interface{}{
		"order_id": o.ID,
		"symbol":   o.Symbol,
		"side":     o.Side,
		"type":     o.Type,
		"price":    o.Price.String(),
		"amount":   o.Amount.String(),
		"status":   o.Status,
	})
	respondJSON(w, PlaceOrderResponse{Accepted: true, Order: &o})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	canceled := s.x.Cancel(id)

	if canceled {
		s.logTransaction("ORDER_CANCEL", map[string]interface{}{"order_id": id})
	}
	respondJSON(w, CancelOrderResponse{OrderID: id, Canceled: canceled})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.x.Trades())
}

func (s *Server) handleTicks(w http.ResponseWriter, r *http.Request) {
	var ticks tick.Set
	if err := json.NewDecoder(r.Body).Decode(&ticks); err != nil {
		respondError(w, http.StatusBadRequest, "invalid tick payload", err.Error())
		return
	}

	s.x.Evaluate(ticks)
	respondJSON(w, TickResponse{Symbols: len(ticks), OpenOrders: len(s.x.OpenOrders())})
}

func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.x.Notifications())
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	s.x.RemoveNotification(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetFavorites(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.x.Favorites())
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if !s.decode(w, r, &req) {
		return
	}

	fav := s.x.ToggleFavorite(req.Symbol)
	respondJSON(w, FavoriteResponse{Symbol: req.Symbol, Favorite: fav, Favorites: s.x.Favorites()})
}

func (s *Server) handleGetReferral(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.x.Referral())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, SessionInfo{User: s.x.User()})
}

func (s *Server) handleEnterAsGuest(w http.ResponseWriter, r *http.Request) {
	u, err := s.x.EnterAsGuest()
	if err != nil {
		// The session is live in memory even if it could not be persisted
		s.logger.Warn("guest_session_persist_failed", zap.String("user_id", u.ID), zap.Error(err))
	}

	s.logTransaction("SESSION_GUEST", map[string]interface{}{"user_id": u.ID})
	respondJSON(w, SessionInfo{User: &u})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.x.SignOut(r.Context()); err != nil {
		s.logger.Warn("sign_out_incomplete", zap.Error(err))
	}

	s.logTransaction("SESSION_SIGN_OUT", map[string]interface{}{})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]interface{}{
		"status":     "ok",
		"ws_clients": s.hub.ClientCount(),
	})
}

// ==============================
// Broadcasts
// ==============================

func (s *Server) broadcastUpdate(u exchange.Update) {
	s.hub.BroadcastToChannel(ChannelBalances, u.Balances)
	s.hub.BroadcastToChannel(ChannelOrders, u.OpenOrders)
	if len(u.Trades) > 0 {
		s.hub.BroadcastToChannel(ChannelTrades, u.Trades)
	}
}

// ==============================
// Helper Functions
// ==============================

// decode reads a JSON body into dst and validates it, answering 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, len(fieldErrs))
			for i, fe := range fieldErrs {
				fields[i] = fe.Field() + ":" + fe.Tag()
			}
			respondError(w, http.StatusBadRequest, "validation failed", strings.Join(fields, ","))
			return false
		}
		respondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}

// logTransaction appends a command to the audit journal
func (s *Server) logTransaction(eventType string, data map[string]interface{}) {
	if err := s.journal.Append(eventType, data); err != nil {
		s.logger.Warn("journal_append_failed", zap.String("event", eventType), zap.Error(err))
	}
}
