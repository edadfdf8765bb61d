package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"github.com/swiftex-io/lintex-legolas/pkg/app/core/history"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/ledger"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/order"
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/tick"
	"github.com/swiftex-io/lintex-legolas/pkg/app/notify"
	"github.com/swiftex-io/lintex-legolas/pkg/util"
)

// Env carries the collaborators a transition needs.
type Env struct {
	IDs   util.IDGenerator
	Clock util.Clock
}

// State is an immutable snapshot of the trading state. Every transition
// returns a new State and leaves the receiver untouched, so a *State can be
// shared freely once published.
type State struct {
	balances *ledger.Book
	open     *btree.Map[uint64, order.Order] // insertion sequence -> open order
	openSeq  map[string]uint64               // order id -> insertion sequence
	seq      uint64
	history  *history.Ledger
}

// NewState starts a state with the given balances and no orders
func NewState(balances *ledger.Book) *State {
	return &State{
		balances: balances.Clone(),
		open:     btree.NewMap[uint64, order.Order](32),
		openSeq:  make(map[string]uint64),
		history:  history.New(),
	}
}

func (s *State) clone() *State {
	seq := make(map[string]uint64, len(s.openSeq))
	for k, v := range s.openSeq {
		seq[k] = v
	}
	return &State{
		balances: s.balances.Clone(),
		open:     s.open.Copy(),
		openSeq:  seq,
		seq:      s.seq,
		history:  s.history.Clone(),
	}
}

// Balances returns every asset row in catalog order
func (s *State) Balances() []ledger.Asset { return s.balances.Assets() }

// Asset returns a single asset row
func (s *State) Asset(symbol string) (ledger.Asset, bool) { return s.balances.Get(symbol) }

// OpenOrders returns open orders in insertion order
func (s *State) OpenOrders() []order.Order {
	out := make([]order.Order, 0, s.open.Len())
	s.open.Scan(func(_ uint64, o order.Order) bool {
		out = append(out, o)
		return true
	})
	return out
}

// OpenOrder looks up an open order by id
func (s *State) OpenOrder(id string) (order.Order, bool) {
	seq, ok := s.openSeq[id]
	if !ok {
		return order.Order{}, false
	}
	return s.open.Get(seq)
}

// Orders returns every order ever created, newest first
func (s *State) Orders() []order.Order { return s.history.Orders() }

// Trades returns every execution, newest first
func (s *State) Trades() []order.Trade { return s.history.Trades() }

// Validate checks the ledger invariant on every asset
func (s *State) Validate() error { return s.balances.Validate() }

func (s *State) addOpen(o order.Order) {
	s.seq++
	s.open.Set(s.seq, o)
	s.openSeq[o.ID] = s.seq
}

// putOpen stores o under an existing sequence key. Spawned exits reuse
// their parent's key so they keep its place in the open set.
func (s *State) putOpen(seq uint64, o order.Order) {
	s.open.Set(seq, o)
	s.openSeq[o.ID] = seq
}

func (s *State) removeOpen(id string) {
	if seq, ok := s.openSeq[id]; ok {
		s.open.Delete(seq)
		delete(s.openSeq, id)
	}
}

// Deposit credits an asset. Unknown assets and non-positive amounts are errors.
func (s *State) Deposit(symbol string, amount decimal.Decimal) (*State, error) {
	next := s.clone()
	if err := next.balances.Credit(symbol, amount); err != nil {
		return s, fmt.Errorf("deposit: %w", err)
	}
	return next, nil
}

// Withdraw debits unreserved funds; it fails when amount exceeds available.
func (s *State) Withdraw(symbol string, amount decimal.Decimal) (*State, error) {
	next := s.clone()
	if err := next.balances.Debit(symbol, amount); err != nil {
		return s, fmt.Errorf("withdraw: %w", err)
	}
	return next, nil
}

// Place validates and accepts a new order. On error the receiver is
// returned unchanged.
func (s *State) Place(env Env, spec order.Spec) (*State, Outcome, error) {
	if err := spec.Validate(); err != nil {
		return s, Outcome{}, err
	}

	base, quote := order.SplitPair(spec.Symbol)
	if !s.balances.Has(base) {
		return s, Outcome{}, fmt.Errorf("%w: %s", ledger.ErrUnknownAsset, base)
	}
	if !s.balances.Has(quote) {
		return s, Outcome{}, fmt.Errorf("%w: %s", ledger.ErrUnknownAsset, quote)
	}

	cost := spec.Price.Mul(spec.Amount)
	if spec.Side == order.Buy && !s.balances.HasAvailable(quote, cost) {
		return s, Outcome{}, fmt.Errorf("%w: buy needs %s %s", ledger.ErrInsufficientFunds, cost, quote)
	}
	if spec.Side == order.Sell && !s.balances.HasAvailable(base, spec.Amount) {
		return s, Outcome{}, fmt.Errorf("%w: sell needs %s %s", ledger.ErrInsufficientFunds, spec.Amount, base)
	}

	now := env.Clock.Now()
	o := order.Order{
		ID:         env.IDs.NextID(),
		Symbol:     spec.Symbol,
		Side:       spec.Side,
		Type:       spec.Type,
		Price:      spec.Price,
		Amount:     spec.Amount,
		Filled:     decimal.Zero,
		Status:     order.Open,
		Time:       now,
		TakeProfit: spec.TakeProfit,
		StopLoss:   spec.StopLoss,
	}

	next := s.clone()
	var out Outcome
	var err error
	if spec.Type == order.Market {
		err = next.executeMarket(env, &o, &out, now)
	} else {
		err = next.acceptLimit(&o, &out)
	}
	if err != nil {
		return s, Outcome{}, err
	}

	out.Changed = true
	out.Order = &o
	return next, out, nil
}

func (s *State) executeMarket(env Env, o *order.Order, out *Outcome, now time.Time) error {
	base, quote := order.SplitPair(o.Symbol)
	if err := s.swap(o.Side, base, quote, o.Amount, o.Notional()); err != nil {
		return err
	}

	o.Filled = o.Amount
	o.Status = order.Filled
	s.history.Record(*o)

	t := order.Trade{ID: o.ID, Pair: o.Symbol, Side: o.Side, Price: o.Price, Amount: o.Amount, Time: now}
	s.history.AppendTrade(t)
	out.Trades = append(out.Trades, t)
	out.Executions = append(out.Executions, Execution{Order: *o, Reason: ReasonMarket})

	out.sound(SoundFilled)
	out.notify("Order Filled",
		fmt.Sprintf("%s %s %s @ %s", o.Side.Upper(), o.Amount, base, formatPrice(o.Price)),
		notify.Success)

	if o.HasProtection() {
		exit := protectiveExit(*o, "tpsl-exit-mkt-"+env.IDs.NextID(), now)
		s.addOpen(exit)
		s.history.Record(exit)
		out.Spawned = append(out.Spawned, exit)
		out.notify("TP/SL Protection Active",
			fmt.Sprintf("Conditional exit order created for %s", base),
			notify.Info)
	}
	return nil
}

func (s *State) acceptLimit(o *order.Order, out *Outcome) error {
	base, quote := order.SplitPair(o.Symbol)
	var err error
	if o.Side == order.Buy {
		err = s.balances.Reserve(quote, o.Notional())
	} else {
		err = s.balances.Reserve(base, o.Amount)
	}
	if err != nil {
		return err
	}

	s.addOpen(*o)
	s.history.Record(*o)

	out.sound(SoundPlaced)
	out.notify("Order Placed",
		fmt.Sprintf("Limit %s %s %s @ %s", o.Side.Upper(), o.Amount, base, formatPrice(o.Price)),
		notify.Info)
	return nil
}

// Cancel withdraws an open order. Unknown or already terminal ids are a no-op.
func (s *State) Cancel(id string) (*State, Outcome) {
	o, ok := s.OpenOrder(id)
	if !ok {
		return s, Outcome{}
	}

	next := s.clone()
	base, quote := order.SplitPair(o.Symbol)
	if o.Type == order.Limit {
		// the reservation was taken at placement so release cannot fail
		if o.Side == order.Buy {
			_ = next.balances.Release(quote, o.Notional())
		} else {
			_ = next.balances.Release(base, o.Amount)
		}
	}

	next.removeOpen(id)
	next.history.Update(id, func(r *order.Order) { r.Status = order.Canceled })
	o.Status = order.Canceled

	var out Outcome
	out.Changed = true
	out.Canceled = append(out.Canceled, o)
	msg := fmt.Sprintf("%s %s %s canceled.", o.Side.Upper(), o.Amount, base)
	if o.Type == order.TPSL {
		msg = "TP/SL Protection canceled."
	}
	out.notify("Order Canceled", msg, notify.Warning)
	return next, out
}

// Evaluate runs every open order against the ticks in insertion order, then
// refreshes asset prices. Exits spawned during the pass take the filled
// limit's place in the open set and are only evaluated on the next call.
func (s *State) Evaluate(env Env, ticks tick.Set) (*State, Outcome) {
	next := s.clone()
	now := env.Clock.Now()

	type spawnedExit struct {
		seq  uint64
		exit order.Order
	}
	var out Outcome
	var spawned []spawnedExit
	for _, o := range s.OpenOrders() {
		tk, ok := ticks.Lookup(o.Base())
		if !ok {
			continue
		}
		switch o.Type {
		case order.TPSL:
			next.evaluateExit(o, tk.Price, now, &out)
		case order.Limit:
			seq := s.openSeq[o.ID]
			if exit, ok := next.evaluateLimit(o, tk.Price, now, &out); ok {
				spawned = append(spawned, spawnedExit{seq: seq, exit: exit})
			}
		}
	}

	for _, sp := range spawned {
		next.putOpen(sp.seq, sp.exit)
		next.history.Record(sp.exit)
		out.Spawned = append(out.Spawned, sp.exit)
	}

	executed := len(out.Executions) > 0 || len(out.Canceled) > 0
	marked := false
	for _, a := range next.balances.Assets() {
		tk, ok := ticks.Lookup(a.Symbol)
		if !ok {
			continue
		}
		var change *decimal.Decimal
		if tk.Change24h.Valid {
			change = &tk.Change24h.Decimal
		}
		next.balances.Mark(a.Symbol, tk.Price, change)
		marked = true
	}

	if len(out.Executions) > 0 {
		out.sound(SoundFilled)
	}
	if !executed && !marked {
		return s, Outcome{}
	}
	out.Changed = true
	return next, out
}

// exitTrigger decides whether a protective exit fires at price. Take profit
// is checked before stop loss.
func exitTrigger(o order.Order, price decimal.Decimal) (Reason, bool) {
	tp, sl := o.TakeProfit, o.StopLoss
	if o.Side == order.Sell {
		if tp.Valid && price.GreaterThanOrEqual(tp.Decimal) {
			return ReasonTakeProfit, true
		}
		if sl.Valid && price.LessThanOrEqual(sl.Decimal) {
			return ReasonStopLoss, true
		}
		return "", false
	}
	if tp.Valid && price.LessThanOrEqual(tp.Decimal) {
		return ReasonTakeProfit, true
	}
	if sl.Valid && price.GreaterThanOrEqual(sl.Decimal) {
		return ReasonStopLoss, true
	}
	return "", false
}

func (s *State) evaluateExit(o order.Order, price decimal.Decimal, now time.Time, out *Outcome) {
	reason, ok := exitTrigger(o, price)
	if !ok {
		return
	}

	base, quote := order.SplitPair(o.Symbol)
	if err := s.swap(o.Side, base, quote, o.Amount, price.Mul(o.Amount)); err != nil {
		// the position the exit protected is no longer held
		s.removeOpen(o.ID)
		s.history.Update(o.ID, func(r *order.Order) { r.Status = order.Canceled })
		o.Status = order.Canceled
		out.Canceled = append(out.Canceled, o)
		out.notify("TP/SL Protection Canceled",
			fmt.Sprintf("Insufficient funds to close %s %s", o.Amount, base),
			notify.Warning)
		return
	}

	s.removeOpen(o.ID)
	s.history.Update(o.ID, func(r *order.Order) {
		r.Status = order.Filled
		r.Filled = r.Amount
	})
	o.Status = order.Filled
	o.Filled = o.Amount

	t := order.Trade{ID: "exit-" + o.ID, Pair: o.Symbol, Side: o.Side, Price: price, Amount: o.Amount, Time: now}
	s.history.AppendTrade(t)
	out.Trades = append(out.Trades, t)
	out.Executions = append(out.Executions, Execution{Order: o, Reason: reason})

	title, level := "Take Profit Triggered", notify.Success
	if reason == ReasonStopLoss {
		title, level = "Stop Loss Triggered", notify.Warning
	}
	out.notify(title, fmt.Sprintf("Closed %s %s @ %s", o.Amount, base, formatPrice(price)), level)
}

func (s *State) evaluateLimit(o order.Order, price decimal.Decimal, now time.Time, out *Outcome) (order.Order, bool) {
	crossed := (o.Side == order.Buy && price.LessThanOrEqual(o.Price)) ||
		(o.Side == order.Sell && price.GreaterThanOrEqual(o.Price))
	if !crossed {
		return order.Order{}, false
	}

	// settles at the limit price; the reservation funds the fill
	base, quote := order.SplitPair(o.Symbol)
	if o.Side == order.Buy {
		_ = s.balances.Consume(quote, o.Notional())
		_ = s.balances.Credit(base, o.Amount)
	} else {
		_ = s.balances.Consume(base, o.Amount)
		_ = s.balances.Credit(quote, o.Notional())
	}

	s.removeOpen(o.ID)
	s.history.Update(o.ID, func(r *order.Order) {
		r.Status = order.Filled
		r.Filled = r.Amount
	})
	o.Status = order.Filled
	o.Filled = o.Amount

	t := order.Trade{ID: o.ID, Pair: o.Symbol, Side: o.Side, Price: o.Price, Amount: o.Amount, Time: now}
	s.history.AppendTrade(t)
	out.Trades = append(out.Trades, t)
	out.Executions = append(out.Executions, Execution{Order: o, Reason: ReasonLimit})
	out.notify("Limit Order Filled",
		fmt.Sprintf("%s %s %s @ %s", o.Side.Upper(), o.Amount, base, formatPrice(o.Price)),
		notify.Success)

	if !o.HasProtection() {
		return order.Order{}, false
	}
	out.notify("TP/SL Protection Active",
		fmt.Sprintf("Conditional exit order created for %s", base),
		notify.Info)
	return protectiveExit(o, "tpsl-exit-"+o.ID, now), true
}

// swap exchanges unreserved funds: a buy pays quote and receives base, a
// sell the reverse. Nothing changes on error.
func (s *State) swap(side order.Side, base, quote string, amount, notional decimal.Decimal) error {
	pay, payAmt, recv, recvAmt := quote, notional, base, amount
	if side == order.Sell {
		pay, payAmt, recv, recvAmt = base, amount, quote, notional
	}
	if err := s.balances.Debit(pay, payAmt); err != nil {
		return err
	}
	if err := s.balances.Credit(recv, recvAmt); err != nil {
		// restore the debit so the book is left as it was
		_ = s.balances.Credit(pay, payAmt)
		return err
	}
	return nil
}

// protectiveExit builds the tpsl order that closes a filled entry.
func protectiveExit(entry order.Order, id string, now time.Time) order.Order {
	return order.Order{
		ID:         id,
		Symbol:     entry.Symbol,
		Side:       entry.Side.Opposite(),
		Type:       order.TPSL,
		Price:      entry.Price,
		Amount:     entry.Amount,
		Filled:     decimal.Zero,
		Status:     order.Open,
		Time:       now,
		TakeProfit: entry.TakeProfit,
		StopLoss:   entry.StopLoss,
	}
}
