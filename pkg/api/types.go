package api

import (
	"github.com/shopspring/decimal"

	"github.com/swiftex-io/lintex-legolas/pkg/app/core/ledger"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/order"
	"github.com/swiftex-io/lintex-legolas/pkg/app/mockdata"
	"github.com/swiftex-io/lintex-legolas/pkg/app/notify"
	"github.com/swiftex-io/lintex-legolas/pkg/identity"
)

// API request and response types for REST endpoints and WebSocket messages

// ==============================
// REST Response Types
// ==============================

// MarketInfo is one row of the market listing
type MarketInfo struct {
	Symbol    string           `json:"symbol"` // e.g., "BTC"
	Pair      string           `json:"pair"`   // e.g., "BTC/USDT"
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	Change24h decimal.Decimal  `json:"change24h"`
	MarketCap decimal.Decimal  `json:"marketCap"` // billions, synthetic
	Turnover  decimal.Decimal  `json:"turnover"`  // billions, synthetic
	Sparkline []mockdata.Point `json:"sparkline"`
	Favorite  bool             `json:"favorite"`
}

// DepthSnapshot is the synthetic depth strip for one market
type DepthSnapshot struct {
	Symbol    string              `json:"symbol"`
	Bars      []mockdata.DepthBar `json:"bars"`
	Timestamp int64               `json:"timestamp"` // Unix milliseconds
}

// BalanceInfo is an asset row with the reserved amount spelled out
type BalanceInfo struct {
	ledger.Asset
	Reserved decimal.Decimal `json:"reserved"`
}

// PlaceOrderResponse reports whether an order was accepted
type PlaceOrderResponse struct {
	Accepted bool         `json:"accepted"`
	Order    *order.Order `json:"order,omitempty"`
	Message  string       `json:"message,omitempty"` // rejection reason
}

// CancelOrderResponse reports whether a cancel changed anything
type CancelOrderResponse struct {
	OrderID  string `json:"orderId"`
	Canceled bool   `json:"canceled"`
}

// TickResponse summarises one evaluation pass
type TickResponse struct {
	Symbols    int `json:"symbols"`
	OpenOrders int `json:"openOrders"`
}

// SessionInfo is the current session; User is nil when signed out
type SessionInfo struct {
	User *identity.User `json:"user"`
}

// FavoriteResponse is the result of a toggle
type FavoriteResponse struct {
	Symbol    string   `json:"symbol"`
	Favorite  bool     `json:"favorite"`
	Favorites []string `json:"favorites"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// REST Request Types
// ==============================

// PlaceOrderRequest is the payload for POST /api/v1/orders
type PlaceOrderRequest struct {
	Symbol     string              `json:"symbol" validate:"required"`
	Side       order.Side          `json:"side" validate:"required,oneof=buy sell"`
	Type       order.Type          `json:"type" validate:"required,oneof=market limit"`
	Price      decimal.Decimal     `json:"price"`
	Amount     decimal.Decimal     `json:"amount"`
	TakeProfit decimal.NullDecimal `json:"tpPrice"`
	StopLoss   decimal.NullDecimal `json:"slPrice"`
}

func (r PlaceOrderRequest) Spec() order.Spec {
	return order.Spec{
		Symbol:     r.Symbol,
		Side:       r.Side,
		Type:       r.Type,
		Price:      r.Price,
		Amount:     r.Amount,
		TakeProfit: r.TakeProfit,
		StopLoss:   r.StopLoss,
	}
}

// BalanceRequest is the payload for deposit and withdraw
type BalanceRequest struct {
	Symbol string          `json:"symbol" validate:"required,alphanum"`
	Amount decimal.Decimal `json:"amount"`
}

// FavoriteRequest is the payload for POST /api/v1/favorites/toggle
type FavoriteRequest struct {
	Symbol string `json:"symbol" validate:"required"`
}

// ==============================
// WebSocket Message Types
// ==============================

// Channels a client may subscribe to
const (
	ChannelNotifications = "notifications"
	ChannelOrders        = "orders"
	ChannelBalances      = "balances"
	ChannelTrades        = "trades"
)

// WSMessage is the envelope of every pushed message
type WSMessage struct {
	Type string      `json:"type"` // channel name
	Data interface{} `json:"data"`
}

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["notifications", "orders"]
}

// NotificationsUpdate carries the full live notification list
type NotificationsUpdate struct {
	Items []notify.Notification `json:"items"`
}
