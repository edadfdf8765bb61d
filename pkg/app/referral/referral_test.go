package referral

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		count int
		want  Tier
	}{
		{0, Rookie},
		{1, Bronze},
		{10, Bronze},
		{11, Silver},
		{50, Silver},
		{51, Gold},
		{200, Gold},
		{201, Platinum},
		{10000, Platinum},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.count), "count=%d", tt.count)
	}
}

func TestTierTableMatchesThresholds(t *testing.T) {
	for _, b := range Tiers {
		assert.Equal(t, b.Tier, TierFor(b.Requirement), b.Tier)
	}
	gold, ok := BenefitsOf(Gold)
	require.True(t, ok)
	assert.Equal(t, 50, gold.Commission)
	assert.Equal(t, "$3,200", gold.AvgEarn)
}

func TestNextTier(t *testing.T) {
	p, ok := NextTier(0, decimal.Zero)
	require.True(t, ok)
	assert.Equal(t, Bronze, p.Next)
	assert.Equal(t, 1, p.RefsNeeded)
	assert.True(t, p.VolNeeded.IsZero())
	assert.Equal(t, 1, p.GoalsCount)

	p, ok = NextTier(5, decimal.NewFromInt(200))
	require.True(t, ok)
	assert.Equal(t, Silver, p.Next)
	assert.Equal(t, 6, p.RefsNeeded)
	assert.True(t, p.VolNeeded.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, 2, p.GoalsCount)

	p, ok = NextTier(20, decimal.NewFromInt(60000))
	require.True(t, ok)
	assert.Equal(t, Gold, p.Next)
	assert.True(t, p.VolNeeded.IsZero())
	assert.Equal(t, 1, p.GoalsCount)

	_, ok = NextTier(300, decimal.Zero)
	assert.False(t, ok)
}

func TestProgram(t *testing.T) {
	p := NewProgram()
	s := p.Summary()
	assert.Equal(t, DefaultCode, s.Code)
	assert.Equal(t, Rookie, s.Tier)
	require.NotNil(t, s.Next)

	p.Record(decimal.NewFromInt(500), decimal.NewFromInt(5), 100)
	s = p.Summary()
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, Bronze, s.Tier)
	assert.Equal(t, 100, s.XP)
	assert.Equal(t, Silver, s.Next.Next)

	p.Reset()
	assert.Zero(t, p.Stats().Count)
}
