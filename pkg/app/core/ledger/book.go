package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Book holds the trader's assets in catalog order.
// Mutating methods validate first and leave the book untouched on error.
type Book struct {
	assets []Asset
	index  map[string]int
}

// NewBook creates a book from the given rows; later duplicates are ignored
func NewBook(assets []Asset) *Book {
	b := &Book{index: make(map[string]int, len(assets))}
	for _, a := range assets {
		if _, dup := b.index[a.Symbol]; dup {
			continue
		}
		b.index[a.Symbol] = len(b.assets)
		b.assets = append(b.assets, a)
	}
	return b
}

// Clone returns an independent copy. Decimals are immutable values so a shallow
// slice copy is enough.
func (b *Book) Clone() *Book {
	c := &Book{
		assets: make([]Asset, len(b.assets)),
		index:  make(map[string]int, len(b.index)),
	}
	copy(c.assets, b.assets)
	for k, v := range b.index {
		c.index[k] = v
	}
	return c
}

func (b *Book) Get(symbol string) (Asset, bool) {
	i, ok := b.index[symbol]
	if !ok {
		return Asset{}, false
	}
	return b.assets[i], true
}

func (b *Book) Has(symbol string) bool {
	_, ok := b.index[symbol]
	return ok
}

// Assets returns a copy of every row in catalog order
func (b *Book) Assets() []Asset {
	out := make([]Asset, len(b.assets))
	copy(out, b.assets)
	return out
}

// Symbols returns the asset symbols in catalog order
func (b *Book) Symbols() []string {
	out := make([]string, len(b.assets))
	for i, a := range b.assets {
		out[i] = a.Symbol
	}
	return out
}

// HasAvailable reports whether at least amount of symbol is unreserved
func (b *Book) HasAvailable(symbol string, amount decimal.Decimal) bool {
	a, ok := b.Get(symbol)
	return ok && a.Available.GreaterThanOrEqual(amount)
}

func (b *Book) row(symbol string, amount decimal.Decimal) (*Asset, error) {
	i, ok := b.index[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, symbol)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s %s", ErrInvalidAmount, symbol, amount)
	}
	return &b.assets[i], nil
}

// Credit adds amount to both balance and available
func (b *Book) Credit(symbol string, amount decimal.Decimal) error {
	a, err := b.row(symbol, amount)
	if err != nil {
		return err
	}
	a.Balance = a.Balance.Add(amount)
	a.Available = a.Available.Add(amount)
	return nil
}

// Debit removes unreserved funds from both balance and available
func (b *Book) Debit(symbol string, amount decimal.Decimal) error {
	a, err := b.row(symbol, amount)
	if err != nil {
		return err
	}
	if a.Available.LessThan(amount) {
		return fmt.Errorf("%w: %s have %s, need %s", ErrInsufficientFunds, symbol, a.Available, amount)
	}
	a.Balance = a.Balance.Sub(amount)
	a.Available = a.Available.Sub(amount)
	return nil
}

// Reserve moves amount out of available for an open order; balance is unchanged
func (b *Book) Reserve(symbol string, amount decimal.Decimal) error {
	a, err := b.row(symbol, amount)
	if err != nil {
		return err
	}
	if a.Available.LessThan(amount) {
		return fmt.Errorf("%w: %s have %s, need %s", ErrInsufficientFunds, symbol, a.Available, amount)
	}
	a.Available = a.Available.Sub(amount)
	return nil
}

// Release returns a reservation to available
func (b *Book) Release(symbol string, amount decimal.Decimal) error {
	a, err := b.row(symbol, amount)
	if err != nil {
		return err
	}
	if a.Reserved().LessThan(amount) {
		return fmt.Errorf("release %s %s exceeds reserved %s", symbol, amount, a.Reserved())
	}
	a.Available = a.Available.Add(amount)
	return nil
}

// Consume spends a previous reservation: balance drops, available stays
func (b *Book) Consume(symbol string, amount decimal.Decimal) error {
	a, err := b.row(symbol, amount)
	if err != nil {
		return err
	}
	if a.Reserved().LessThan(amount) {
		return fmt.Errorf("%w: %s reserved %s, need %s", ErrInsufficientFunds, symbol, a.Reserved(), amount)
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Mark refreshes the display price; change is left alone when nil
func (b *Book) Mark(symbol string, price decimal.Decimal, change *decimal.Decimal) {
	i, ok := b.index[symbol]
	if !ok {
		return
	}
	b.assets[i].Price = price
	if change != nil {
		b.assets[i].Change24h = *change
	}
}

// Validate checks every row's invariant
func (b *Book) Validate() error {
	for _, a := range b.assets {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}
