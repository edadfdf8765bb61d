package referral

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Stats is the trader's referral standing.
type Stats struct {
	Code     string          `json:"referralCode"`
	Count    int             `json:"referralCount"`
	Volume   decimal.Decimal `json:"referralVolume"`
	Earnings decimal.Decimal `json:"referralEarnings"`
	XP       int             `json:"referralXP"`
}

// Summary is what the referral page renders.
type Summary struct {
	Stats
	Tier     Tier      `json:"tier"`
	Benefits Benefits  `json:"benefits"`
	Next     *Progress `json:"next,omitempty"`
}

// Program holds the referral stats for the current session.
type Program struct {
	mu    sync.RWMutex
	stats Stats
}

func NewProgram() *Program {
	p := &Program{}
	p.Reset()
	return p
}

// Reset returns the stats to a fresh account
func (p *Program) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = Stats{
		Code:     DefaultCode,
		Volume:   decimal.Zero,
		Earnings: decimal.Zero,
	}
}

// Record registers a referee and the volume they brought
func (p *Program) Record(volume, earnings decimal.Decimal, xp int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Count++
	p.stats.Volume = p.stats.Volume.Add(volume)
	p.stats.Earnings = p.stats.Earnings.Add(earnings)
	p.stats.XP += xp
}

func (p *Program) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

func (p *Program) Summary() Summary {
	s := p.Stats()
	tier := TierFor(s.Count)
	benefits, _ := BenefitsOf(tier)
	out := Summary{Stats: s, Tier: tier, Benefits: benefits}
	if next, ok := NextTier(s.Count, s.Volume); ok {
		out.Next = &next
	}
	return out
}
