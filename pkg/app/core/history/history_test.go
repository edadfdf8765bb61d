package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftex-io/lintex-legolas/pkg/app/core/order"
)

func TestTradesNewestFirst(t *testing.T) {
	l := New()
	l.AppendTrade(order.Trade{ID: "a"})
	l.AppendTrade(order.Trade{ID: "b"})
	l.AppendTrade(order.Trade{ID: "c"})

	var ids []string
	for _, tr := range l.Trades() {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)
	assert.Equal(t, 3, l.TradeCount())
}

func TestRecordAndUpdate(t *testing.T) {
	l := New()
	l.Record(order.Order{ID: "1", Status: order.Open})
	l.Record(order.Order{ID: "2", Status: order.Open})

	require.True(t, l.Update("1", func(o *order.Order) { o.Status = order.Canceled }))
	assert.False(t, l.Update("missing", func(o *order.Order) {}))

	o, ok := l.Order("1")
	require.True(t, ok)
	assert.Equal(t, order.Canceled, o.Status)

	orders := l.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "2", orders[0].ID)
	assert.Equal(t, "1", orders[1].ID)
}

func TestRecordReplacesExistingID(t *testing.T) {
	l := New()
	l.Record(order.Order{ID: "1", Status: order.Open})
	l.Record(order.Order{ID: "1", Status: order.Filled})

	assert.Equal(t, 1, l.OrderCount())
	o, _ := l.Order("1")
	assert.Equal(t, order.Filled, o.Status)
}

func TestCloneIsIndependent(t *testing.T) {
	l := New()
	l.Record(order.Order{ID: "1", Status: order.Open})
	c := l.Clone()
	c.Update("1", func(o *order.Order) { o.Status = order.Filled })
	c.AppendTrade(order.Trade{ID: "1"})

	o, _ := l.Order("1")
	assert.Equal(t, order.Open, o.Status)
	assert.Zero(t, l.TradeCount())
}
