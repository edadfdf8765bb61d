package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownAsset      = errors.New("unknown asset")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Asset is one row of the balance ledger.
// Balance is the total holding, Available is what is not reserved by open orders.
type Asset struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Available decimal.Decimal `json:"available"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change24h"`
}

// Reserved returns the amount currently held by open orders
func (a Asset) Reserved() decimal.Decimal {
	return a.Balance.Sub(a.Available)
}

// Validate checks the ledger invariant 0 <= available <= balance
func (a Asset) Validate() error {
	if a.Available.IsNegative() {
		return fmt.Errorf("%s: negative available: %s", a.Symbol, a.Available)
	}
	if a.Available.GreaterThan(a.Balance) {
		return fmt.Errorf("%s: available (%s) exceeds balance (%s)", a.Symbol, a.Available, a.Balance)
	}
	return nil
}
