package market

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, 6, c.Count())
	assert.True(t, c.Exists("USDT"))

	btc, err := c.Get("BTC")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", btc.Name)

	_, err = c.Get("DOGE")
	assert.Error(t, err)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(Listing{Symbol: "BTC"}))
	assert.Error(t, c.Register(Listing{Symbol: "BTC"}))
	assert.Error(t, c.Register(Listing{}))
	assert.Error(t, c.Register(Listing{Symbol: "ETH", Balance: decimal.NewFromInt(-1)}))
}

func TestBook(t *testing.T) {
	c := DefaultCatalog()
	b := c.Book(func(l Listing) decimal.Decimal {
		if l.Symbol == "USDT" {
			return decimal.NewFromInt(10000)
		}
		return decimal.Zero
	})

	usdt, ok := b.Get("USDT")
	require.True(t, ok)
	assert.True(t, usdt.Available.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, []string{"BTC", "ETH", "SOL", "BNB", "XRP", "USDT"}, b.Symbols())
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
assets:
  - symbol: BTC
    name: Bitcoin
    price: 64000
    change24h: "1.5"
  - symbol: USDT
    name: Tether
    price: 1
    balance: 250
`), 0644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count())

	btc, _ := c.Get("BTC")
	assert.True(t, btc.Price.Equal(decimal.NewFromInt(64000)))
	assert.True(t, btc.Change24h.Equal(decimal.RequireFromString("1.5")))

	usdt, ok := c.DefaultBook().Get("USDT")
	require.True(t, ok)
	assert.True(t, usdt.Balance.Equal(decimal.NewFromInt(250)))
}

func TestLoadCatalogErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
		return p
	}

	_, err := LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadCatalog(write("empty.yaml", "assets: []\n"))
	assert.Error(t, err)

	_, err = LoadCatalog(write("nousdt.yaml", "assets:\n  - symbol: BTC\n"))
	assert.Error(t, err)

	_, err = LoadCatalog(write("dup.yaml", "assets:\n  - symbol: USDT\n  - symbol: USDT\n"))
	assert.Error(t, err)
}
