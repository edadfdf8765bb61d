package market

import (
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/swiftex-io/lintex-legolas/pkg/app/core/ledger"
)

// Listing describes one tradable asset and its starting ledger row.
type Listing struct {
	Symbol    string          `yaml:"symbol" json:"symbol"`
	Name      string          `yaml:"name" json:"name"`
	Price     decimal.Decimal `yaml:"price" json:"price"`
	Change24h decimal.Decimal `yaml:"change24h" json:"change24h"`
	Balance   decimal.Decimal `yaml:"balance" json:"balance"`
}

// Catalog manages the listed assets in a thread-safe manner.
// Listing order is preserved; it is the order balances are shown in.
type Catalog struct {
	mu       sync.RWMutex
	listings []Listing
	index    map[string]int
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// DefaultCatalog lists the assets available when no catalog file is given
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, l := range []Listing{
		{Symbol: "BTC", Name: "Bitcoin", Price: dec("64250.5"), Change24h: dec("2.45")},
		{Symbol: "ETH", Name: "Ethereum", Price: dec("3450.2"), Change24h: dec("1.12")},
		{Symbol: "SOL", Name: "Solana", Price: dec("145.8"), Change24h: dec("-0.85")},
		{Symbol: "BNB", Name: "BNB", Price: dec("590.4"), Change24h: dec("0.34")},
		{Symbol: "XRP", Name: "XRP", Price: dec("0.52"), Change24h: dec("-1.21")},
		{Symbol: "USDT", Name: "Tether", Price: dec("1"), Change24h: decimal.Zero},
	} {
		_ = c.Register(l)
	}
	return c
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Register adds a listing. Returns error if the symbol is empty or taken.
func (c *Catalog) Register(l Listing) error {
	if l.Symbol == "" {
		return fmt.Errorf("cannot register listing without symbol")
	}
	if l.Balance.IsNegative() {
		return fmt.Errorf("listing %s has negative balance", l.Symbol)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.index[l.Symbol]; exists {
		return fmt.Errorf("listing %s already registered", l.Symbol)
	}
	c.index[l.Symbol] = len(c.listings)
	c.listings = append(c.listings, l)
	return nil
}

// Get retrieves a listing by symbol
func (c *Catalog) Get(symbol string) (Listing, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, exists := c.index[symbol]
	if !exists {
		return Listing{}, fmt.Errorf("listing %s not found", symbol)
	}
	return c.listings[i], nil
}

// List returns a copy of all listings in registration order
func (c *Catalog) List() []Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Listing, len(c.listings))
	copy(out, c.listings)
	return out
}

func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listings)
}

func (c *Catalog) Exists(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.index[symbol]
	return exists
}

// Book builds a ledger where every asset starts at balance(symbol).
func (c *Catalog) Book(balance func(Listing) decimal.Decimal) *ledger.Book {
	listings := c.List()
	assets := make([]ledger.Asset, len(listings))
	for i, l := range listings {
		b := balance(l)
		assets[i] = ledger.Asset{
			Symbol:    l.Symbol,
			Name:      l.Name,
			Balance:   b,
			Available: b,
			Price:     l.Price,
			Change24h: l.Change24h,
		}
	}
	return ledger.NewBook(assets)
}

// DefaultBook uses the balances from the catalog itself
func (c *Catalog) DefaultBook() *ledger.Book {
	return c.Book(func(l Listing) decimal.Decimal { return l.Balance })
}

type catalogFile struct {
	Assets []Listing `yaml:"assets"`
}

// LoadCatalog reads a YAML catalog:
//
//	assets:
//	  - symbol: BTC
//	    name: Bitcoin
//	    price: 64000
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Assets) == 0 {
		return nil, fmt.Errorf("catalog %s lists no assets", path)
	}

	c := NewCatalog()
	for _, l := range f.Assets {
		if err := c.Register(l); err != nil {
			return nil, err
		}
	}
	if !c.Exists("USDT") {
		return nil, fmt.Errorf("catalog %s must list USDT", path)
	}
	return c, nil
}
