package models

import "fmt"

// Tier is the discrete capability level a portal has reached
type Tier string

const (
	TierBasic    Tier = "Basic"    // score below the advanced threshold
	TierAdvanced Tier = "Advanced" // middle band
	TierMastery  Tier = "Mastery"  // score at or above the mastery threshold
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierBasic, TierAdvanced, TierMastery}

// Rank orders tiers so that Basic < Advanced < Mastery.
// Unknown tiers rank below Basic.
func (t Tier) Rank() int {
	switch t {
	case TierBasic:
		return 0
	case TierAdvanced:
		return 1
	case TierMastery:
		return 2
	default:
		return -1
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// ParseTier converts a stored stage string into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown evolution stage %q", s)
	}
	return t, nil
}
