package exchange

import (
	"strings"
)

// ToggleFavorite adds or removes a market from the watchlist and reports
// whether it is now a favorite. "BTC" and "BTC/USDT" are kept as given.
func (x *Exchange) ToggleFavorite(symbol string) bool {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return false
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for i, f := range x.favorites {
		if f == symbol {
			x.favorites = append(x.favorites[:i:i], x.favorites[i+1:]...)
			return false
		}
	}
	x.favorites = append(x.favorites, symbol)
	return true
}

// IsFavorite matches either the bare symbol or its USDT pair
func (x *Exchange) IsFavorite(symbol string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	base := strings.TrimSuffix(symbol, "/USDT")
	for _, f := range x.favorites {
		if f == base || f == base+"/USDT" {
			return true
		}
	}
	return false
}

// Favorites returns the watchlist in the order items were added
func (x *Exchange) Favorites() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]string, len(x.favorites))
	copy(out, x.favorites)
	return out
}
