package referral

import (
	"github.com/shopspring/decimal"
)

type Tier string

const (
	Rookie   Tier = "Rookie"
	Bronze   Tier = "Bronze"
	Silver   Tier = "Silver"
	Gold     Tier = "Gold"
	Platinum Tier = "Platinum"
)

// DefaultCode is the shareable code shown to every trader.
const DefaultCode = "LINTEX_PRO_88"

// Benefits are the perks unlocked at a tier and what it takes to reach it.
type Benefits struct {
	Tier           Tier            `json:"tier"`
	Commission     int             `json:"commission"`  // percent of referee fees
	FeeDiscount    int             `json:"feeDiscount"` // percent
	APRBoost       decimal.Decimal `json:"aprBoost"`
	Perks          []string        `json:"perks"`
	Color          string          `json:"color"`
	Requirement    int             `json:"requirement"`
	VolRequirement decimal.Decimal `json:"volRequirement"`
	AvgEarn        string          `json:"avgEarn"`
}

// Tiers lists every tier from lowest to highest.
var Tiers = []Benefits{
	{Tier: Rookie, Commission: 10, FeeDiscount: 0, APRBoost: decimal.Zero,
		Perks: []string{"Standard Support"}, Color: "#71717a",
		Requirement: 0, VolRequirement: decimal.Zero, AvgEarn: "$0"},
	{Tier: Bronze, Commission: 20, FeeDiscount: 5, APRBoost: decimal.RequireFromString("0.2"),
		Perks: []string{"Bronze Badge"}, Color: "#CD7F32",
		Requirement: 1, VolRequirement: decimal.Zero, AvgEarn: "$50"},
	{Tier: Silver, Commission: 30, FeeDiscount: 15, APRBoost: decimal.RequireFromString("0.8"),
		Perks: []string{"Priority Support", "API Boost"}, Color: "#C0C0C0",
		Requirement: 11, VolRequirement: decimal.NewFromInt(1000), AvgEarn: "$450"},
	{Tier: Gold, Commission: 50, FeeDiscount: 30, APRBoost: decimal.NewFromInt(2),
		Perks: []string{"Exclusive Events", "Early Access"}, Color: "#FFD700",
		Requirement: 51, VolRequirement: decimal.NewFromInt(50000), AvgEarn: "$3,200"},
	{Tier: Platinum, Commission: 75, FeeDiscount: 50, APRBoost: decimal.NewFromInt(5),
		Perks: []string{"VIP Support", "Custom Rates", "VIP Merch"}, Color: "#E5E4E2",
		Requirement: 201, VolRequirement: decimal.NewFromInt(500000), AvgEarn: "$15,000"},
}

// TierFor maps a referral count to a tier. Only the count decides the tier;
// volume requirements are goals shown on the way to the next one.
func TierFor(count int) Tier {
	switch {
	case count >= 201:
		return Platinum
	case count >= 51:
		return Gold
	case count >= 11:
		return Silver
	case count >= 1:
		return Bronze
	default:
		return Rookie
	}
}

// BenefitsOf returns the table row for a tier
func BenefitsOf(t Tier) (Benefits, bool) {
	for _, b := range Tiers {
		if b.Tier == t {
			return b, true
		}
	}
	return Benefits{}, false
}

// Progress is the distance from the current standing to the next tier.
type Progress struct {
	Next       Tier            `json:"name"`
	RefsNeeded int             `json:"refsNeeded"`
	VolNeeded  decimal.Decimal `json:"volNeeded"`
	TotalRefs  int             `json:"totalRefs"`
	TotalVol   decimal.Decimal `json:"totalVol"`
	Refs       int             `json:"currentRefs"`
	Vol        decimal.Decimal `json:"currentVol"`
	GoalsCount int             `json:"goalsCount"` // goals still open, 0..2
}

// NextTier reports progress towards the tier above the current one.
// Returns false at the top tier.
func NextTier(count int, volume decimal.Decimal) (Progress, bool) {
	current := TierFor(count)
	idx := -1
	for i, b := range Tiers {
		if b.Tier == current {
			idx = i
		}
	}
	if idx < 0 || idx >= len(Tiers)-1 {
		return Progress{}, false
	}

	next := Tiers[idx+1]
	refs := next.Requirement - count
	if refs < 0 {
		refs = 0
	}
	vol := decimal.Max(decimal.Zero, next.VolRequirement.Sub(volume))

	goals := 0
	if refs > 0 {
		goals++
	}
	if vol.IsPositive() {
		goals++
	}

	return Progress{
		Next:       next.Tier,
		RefsNeeded: refs,
		VolNeeded:  vol,
		TotalRefs:  next.Requirement,
		TotalVol:   next.VolRequirement,
		Refs:       count,
		Vol:        volume,
		GoalsCount: goals,
	}, true
}
