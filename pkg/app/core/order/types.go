package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidSpec = errors.New("invalid order")

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Opposite returns the side a protective exit takes
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) Valid() bool { return s == Buy || s == Sell }

// Upper renders the side the way notifications show it ("BUY", "SELL")
func (s Side) Upper() string { return strings.ToUpper(string(s)) }

type Type string

const (
	Market Type = "market"
	Limit  Type = "limit"
	TPSL   Type = "tpsl"
)

type Status string

const (
	Open     Status = "open"
	Filled   Status = "filled"
	Canceled Status = "canceled"
)

// Terminal reports whether no further transition is possible
func (s Status) Terminal() bool { return s == Filled || s == Canceled }

// Order is both a live open order and its audit record in the history.
type Order struct {
	ID         string              `json:"id"`
	Symbol     string              `json:"symbol"` // pair, e.g. "BTC/USDT"
	Side       Side                `json:"side"`
	Type       Type                `json:"type"`
	Price      decimal.Decimal     `json:"price"`
	Amount     decimal.Decimal     `json:"amount"`
	Filled     decimal.Decimal     `json:"filled"`
	Status     Status              `json:"status"`
	Time       time.Time           `json:"time"`
	TakeProfit decimal.NullDecimal `json:"tpPrice"`
	StopLoss   decimal.NullDecimal `json:"slPrice"`
}

// HasProtection reports whether a filled entry must spawn a tpsl exit
func (o Order) HasProtection() bool {
	return o.TakeProfit.Valid || o.StopLoss.Valid
}

func (o Order) Base() string {
	base, _ := SplitPair(o.Symbol)
	return base
}

func (o Order) Quote() string {
	_, quote := SplitPair(o.Symbol)
	return quote
}

// Notional is price * amount in the quote asset
func (o Order) Notional() decimal.Decimal { return o.Price.Mul(o.Amount) }

// Trade is an immutable execution record.
type Trade struct {
	ID     string          `json:"id"`
	Pair   string          `json:"pair"`
	Side   Side            `json:"type"`
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
	Time   time.Time       `json:"time"`
}

// SplitPair splits "BTC/USDT" into its base and quote. A bare symbol is
// treated as quoted in USDT.
func SplitPair(pair string) (base, quote string) {
	base, quote, found := strings.Cut(pair, "/")
	if !found || quote == "" {
		return pair, "USDT"
	}
	return base, quote
}

// Spec is a placement request before it becomes an order.
type Spec struct {
	Symbol     string
	Side       Side
	Type       Type
	Price      decimal.Decimal
	Amount     decimal.Decimal
	TakeProfit decimal.NullDecimal
	StopLoss   decimal.NullDecimal
}

// Validate checks the request shape; funding checks happen in the engine
func (s Spec) Validate() error {
	base, quote := SplitPair(s.Symbol)
	if base == "" || quote == "" || base == quote {
		return fmt.Errorf("%w: bad symbol %q", ErrInvalidSpec, s.Symbol)
	}
	if !s.Side.Valid() {
		return fmt.Errorf("%w: bad side %q", ErrInvalidSpec, s.Side)
	}
	if s.Type != Market && s.Type != Limit {
		return fmt.Errorf("%w: type %q cannot be placed", ErrInvalidSpec, s.Type)
	}
	if !s.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidSpec)
	}
	if !s.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidSpec)
	}
	if s.TakeProfit.Valid && !s.TakeProfit.Decimal.IsPositive() {
		return fmt.Errorf("%w: take profit must be positive", ErrInvalidSpec)
	}
	if s.StopLoss.Valid && !s.StopLoss.Decimal.IsPositive() {
		return fmt.Errorf("%w: stop loss must be positive", ErrInvalidSpec)
	}
	return nil
}
