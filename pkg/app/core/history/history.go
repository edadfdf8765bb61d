package history

import (
	"github.com/swiftex-io/lintex-legolas/pkg/app/core/order"
)

// Ledger is the append-only trade log plus the record of every order ever
// created. Orders are updated in place by id and never removed.
type Ledger struct {
	trades []order.Trade // oldest first
	orders []order.Order // oldest first
	index  map[string]int
}

func New() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		trades: make([]order.Trade, len(l.trades)),
		orders: make([]order.Order, len(l.orders)),
		index:  make(map[string]int, len(l.index)),
	}
	copy(c.trades, l.trades)
	copy(c.orders, l.orders)
	for k, v := range l.index {
		c.index[k] = v
	}
	return c
}

func (l *Ledger) AppendTrade(t order.Trade) {
	l.trades = append(l.trades, t)
}

// Record adds a new order. A record with an existing id replaces the old one.
func (l *Ledger) Record(o order.Order) {
	if i, ok := l.index[o.ID]; ok {
		l.orders[i] = o
		return
	}
	l.index[o.ID] = len(l.orders)
	l.orders = append(l.orders, o)
}

// Update applies fn to the record with the given id and reports whether it exists
func (l *Ledger) Update(id string, fn func(*order.Order)) bool {
	i, ok := l.index[id]
	if !ok {
		return false
	}
	fn(&l.orders[i])
	return true
}

func (l *Ledger) Order(id string) (order.Order, bool) {
	i, ok := l.index[id]
	if !ok {
		return order.Order{}, false
	}
	return l.orders[i], true
}

// Trades returns trades newest first
func (l *Ledger) Trades() []order.Trade {
	out := make([]order.Trade, len(l.trades))
	for i, t := range l.trades {
		out[len(l.trades)-1-i] = t
	}
	return out
}

// Orders returns every recorded order newest first
func (l *Ledger) Orders() []order.Order {
	out := make([]order.Order, len(l.orders))
	for i, o := range l.orders {
		out[len(l.orders)-1-i] = o
	}
	return out
}

func (l *Ledger) TradeCount() int { return len(l.trades) }
func (l *Ledger) OrderCount() int { return len(l.orders) }
