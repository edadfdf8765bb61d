package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreIsolatedPerInstance(t *testing.T) {
	a, b := New(), New()
	a.OrdersPlaced.WithLabelValues("limit", "buy").Inc()
	a.OpenOrders.Set(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.OrdersPlaced.WithLabelValues("limit", "buy")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.OrdersPlaced.WithLabelValues("limit", "buy")))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.OpenOrders))
}

func TestInstrumentAndHandler(t *testing.T) {
	m := New()
	h := m.Instrument("teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("teapot", "GET", "418")))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "lintex_http_requests_total"))
}
