package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/swiftex-io/lintex-legolas/pkg/app/core/engine"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/ledger"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/market"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/order"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/tick"
	"github.com/swiftex-io/lintex-legolas/pkg/app/notify"
	"github.com/swiftex-io/lintex-legolas/pkg/app/referral"
	"github.com/swiftex-io/lintex-legolas/pkg/identity"
	"github.com/swiftex-io/lintex-legolas/pkg/metrics"
	"github.com/swiftex-io/lintex-legolas/pkg/storage"
	"github.com/swiftex-io/lintex-legolas/pkg/util"
)

var ErrNoSession = errors.New("no active session")

// Starting balances for guests. A fresh guest gets 10000 USDT and 0.1 of
// everything else; a restored guest gets 10000 USDT and 0.245 BTC.
var (
	guestQuote    = decimal.NewFromInt(10000)
	freshGuestAlt = decimal.RequireFromString("0.1")
	restoredBTC   = decimal.RequireFromString("0.245")
)

// Config wires an Exchange. Zero values get working defaults.
type Config struct {
	Catalog        *market.Catalog
	Clock          util.Clock
	IDs            util.IDGenerator
	Provider       identity.Provider
	Sessions       storage.SessionStore
	Sounds         SoundPlayer
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	NotifyTTL      time.Duration
	NotifyCapacity int
}

// Update is published after every command that changed engine state.
type Update struct {
	Balances   []ledger.Asset
	OpenOrders []order.Order
	Trades     []order.Trade // executions produced by this command
}

// Exchange is the single trader's simulated venue: the order engine plus
// the session, favorites and notification plumbing around it.
type Exchange struct {
	mu        sync.Mutex
	engine    *engine.Engine
	catalog   *market.Catalog
	bus       *notify.Bus
	provider  identity.Provider
	sessions  storage.SessionStore
	referral  *referral.Program
	sounds    SoundPlayer
	metrics   *metrics.Metrics
	logger    *zap.Logger
	ids       util.IDGenerator
	user      *identity.User
	favorites []string

	// OnUpdate is called with the new state after a command changed it
	OnUpdate func(Update)
}

func New(cfg Config) *Exchange {
	if cfg.Catalog == nil {
		cfg.Catalog = market.DefaultCatalog()
	}
	if cfg.Clock == nil {
		cfg.Clock = util.NewClock()
	}
	if cfg.IDs == nil {
		cfg.IDs = util.UUIDs{}
	}
	if cfg.Provider == nil {
		cfg.Provider = identity.Anonymous{}
	}
	if cfg.Sessions == nil {
		cfg.Sessions = storage.NewInMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Sounds == nil {
		cfg.Sounds = NewLogSoundPlayer(cfg.Logger)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}

	env := engine.Env{IDs: cfg.IDs, Clock: cfg.Clock}
	return &Exchange{
		engine:   engine.New(env, cfg.Catalog.DefaultBook()),
		catalog:  cfg.Catalog,
		bus:      notify.NewBus(cfg.Clock, cfg.IDs, cfg.NotifyTTL, cfg.NotifyCapacity, cfg.Logger),
		provider: cfg.Provider,
		sessions: cfg.Sessions,
		referral: referral.NewProgram(),
		sounds:   cfg.Sounds,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		ids:      cfg.IDs,
	}
}

// ==============================
// Session lifecycle
// ==============================

// Initialize restores a stored guest session, or asks the identity
// provider for an authenticated one.
func (x *Exchange) Initialize(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	guest, err := x.sessions.LoadGuest()
	if err != nil {
		x.logger.Warn("session_restore_failed", zap.Error(err))
	}
	if guest != nil {
		x.user = guest
		x.engine.Reset(x.catalog.Book(func(l market.Listing) decimal.Decimal {
			switch l.Symbol {
			case "USDT":
				return guestQuote
			case "BTC":
				return restoredBTC
			default:
				return decimal.Zero
			}
		}))
		x.logger.Info("guest_session_restored", zap.String("user_id", guest.ID))
		x.publishLocked(nil)
		return nil
	}

	u, err := x.provider.Session(ctx)
	if err != nil {
		return fmt.Errorf("identity session: %w", err)
	}
	if u != nil {
		x.setUserLocked(*u)
		x.logger.Info("session_restored", zap.String("user_id", u.ID))
	}
	return nil
}

// EnterAsGuest starts a new guest session with demo balances and persists it.
func (x *Exchange) EnterAsGuest() (identity.User, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	u := identity.NewGuest(x.ids)
	x.user = &u
	x.engine.Reset(x.catalog.Book(func(l market.Listing) decimal.Decimal {
		if l.Symbol == "USDT" {
			return guestQuote
		}
		return freshGuestAlt
	}))
	x.logger.Info("guest_session_started", zap.String("user_id", u.ID))
	x.publishLocked(nil)

	if err := x.sessions.SaveGuest(u); err != nil {
		return u, fmt.Errorf("persist guest session: %w", err)
	}
	return u, nil
}

// SetUser records an authenticated user reported by the identity provider
func (x *Exchange) SetUser(u identity.User) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.setUserLocked(u)
}

func (x *Exchange) setUserLocked(u identity.User) {
	u.Guest = false
	if u.Nickname == "" {
		u.Nickname = identity.NicknameFromEmail(u.Email)
	}
	x.user = &u
}

// SignOut ends the session, forgets the stored guest and resets balances,
// orders and history to the catalog defaults.
func (x *Exchange) SignOut(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	var errs []error
	if err := x.provider.SignOut(ctx); err != nil {
		errs = append(errs, fmt.Errorf("identity sign out: %w", err))
	}
	if err := x.sessions.ClearGuest(); err != nil {
		errs = append(errs, fmt.Errorf("clear guest session: %w", err))
	}

	x.user = nil
	x.engine.Reset(x.catalog.DefaultBook())
	x.referral.Reset()
	x.logger.Info("signed_out")
	x.publishLocked(nil)
	return errors.Join(errs...)
}

// User returns the current session user, or nil
func (x *Exchange) User() *identity.User {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.user == nil {
		return nil
	}
	u := *x.user
	return &u
}

// ==============================
// Balance ledger
// ==============================

// Deposit credits an asset. It returns ErrNoSession without a signed-in
// user and the ledger error for a non-positive amount or unknown asset.
func (x *Exchange) Deposit(symbol string, amount decimal.Decimal) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.user == nil {
		return ErrNoSession
	}
	if err := x.engine.Deposit(symbol, amount); err != nil {
		x.logger.Debug("deposit_ignored", zap.String("symbol", symbol), zap.Error(err))
		return err
	}
	x.publishLocked(nil)
	return nil
}

// Withdraw debits unreserved funds; it fails if amount exceeds available
func (x *Exchange) Withdraw(symbol string, amount decimal.Decimal) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.engine.Withdraw(symbol, amount); err != nil {
		return err
	}
	x.publishLocked(nil)
	return nil
}

// ==============================
// Order engine
// ==============================

// Place submits an order and reports whether it was accepted
func (x *Exchange) Place(spec order.Spec) bool {
	_, err := x.PlaceOrder(spec)
	return err == nil
}

// PlaceOrder submits an order and returns it as created
func (x *Exchange) PlaceOrder(spec order.Spec) (order.Order, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	out, err := x.engine.Place(spec)
	if err != nil {
		x.metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		x.logger.Info("order_rejected",
			zap.String("symbol", spec.Symbol),
			zap.String("side", string(spec.Side)),
			zap.String("type", string(spec.Type)),
			zap.Error(err))
		return order.Order{}, err
	}

	x.metrics.OrdersPlaced.WithLabelValues(string(spec.Type), string(spec.Side)).Inc()
	x.logger.Info("order_placed",
		zap.String("order_id", out.Order.ID),
		zap.String("symbol", out.Order.Symbol),
		zap.String("side", string(out.Order.Side)),
		zap.String("type", string(out.Order.Type)),
		zap.String("price", out.Order.Price.String()),
		zap.String("amount", out.Order.Amount.String()))
	x.performLocked(out)
	return *out.Order, nil
}

// ExecuteTrade is the one-click market order used by the quick trade panel
func (x *Exchange) ExecuteTrade(pair string, side order.Side, price, amount decimal.Decimal) bool {
	return x.Place(order.Spec{Symbol: pair, Side: side, Type: order.Market, Price: price, Amount: amount})
}

// Cancel withdraws an open order and reports whether anything changed
func (x *Exchange) Cancel(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := x.engine.Cancel(id)
	if !out.Changed {
		return false
	}
	x.logger.Info("order_canceled", zap.String("order_id", id))
	x.performLocked(out)
	return true
}

// Evaluate runs a tick set through the engine
func (x *Exchange) Evaluate(ticks tick.Set) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.metrics.TicksEvaluated.Inc()
	out := x.engine.Evaluate(ticks)
	if !out.Changed {
		return
	}
	for _, e := range out.Executions {
		x.logger.Info("order_executed",
			zap.String("order_id", e.Order.ID),
			zap.String("reason", string(e.Reason)))
	}
	x.performLocked(out)
}

// performLocked carries out the effects of a transition and publishes the
// new state.
func (x *Exchange) performLocked(out engine.Outcome) {
	for _, eff := range out.Effects {
		switch e := eff.(type) {
		case engine.Notify:
			x.bus.Push(e.Notice)
			x.metrics.Notifications.WithLabelValues(string(e.Level)).Inc()
		case engine.PlaySound:
			x.sounds.Play(e.Sound)
		}
	}
	for _, e := range out.Executions {
		x.metrics.Executions.WithLabelValues(string(e.Reason)).Inc()
	}
	if n := len(out.Canceled); n > 0 {
		x.metrics.OrdersCanceled.Add(float64(n))
	}
	x.publishLocked(out.Trades)
}

func (x *Exchange) publishLocked(trades []order.Trade) {
	st := x.engine.State()
	x.metrics.OpenOrders.Set(float64(len(st.OpenOrders())))
	if x.OnUpdate != nil {
		x.OnUpdate(Update{Balances: st.Balances(), OpenOrders: st.OpenOrders(), Trades: trades})
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrUnknownAsset):
		return "unknown_asset"
	case errors.Is(err, order.ErrInvalidSpec):
		return "invalid"
	default:
		return "other"
	}
}

// ==============================
// Read side
// ==============================

func (x *Exchange) Balances() []ledger.Asset  { return x.engine.State().Balances() }
func (x *Exchange) OpenOrders() []order.Order { return x.engine.State().OpenOrders() }
func (x *Exchange) Orders() []order.Order     { return x.engine.State().Orders() }
func (x *Exchange) Trades() []order.Trade     { return x.engine.State().Trades() }
func (x *Exchange) Catalog() *market.Catalog  { return x.catalog }
func (x *Exchange) Bus() *notify.Bus          { return x.bus }

// Notifications returns the live notifications, newest first
func (x *Exchange) Notifications() []notify.Notification { return x.bus.List() }

// RemoveNotification dismisses a notification; unknown ids are ignored
func (x *Exchange) RemoveNotification(id string) bool { return x.bus.Remove(id) }

// Notify pushes a notification that did not come from the engine
func (x *Exchange) Notify(n notify.Notice) notify.Notification {
	x.metrics.Notifications.WithLabelValues(string(n.Level)).Inc()
	return x.bus.Push(n)
}

// Referral summarises the referral standing for the current session
func (x *Exchange) Referral() referral.Summary { return x.referral.Summary() }

// ReferralProgram exposes the program for recording referees
func (x *Exchange) ReferralProgram() *referral.Program { return x.referral }
