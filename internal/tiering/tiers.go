// Package tiering maps portal evolution scores to tiers and tiers to
// capability sets.
package tiering

import (
	"fmt"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/constants"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
)

// TierConfig maps evolution scores to tiers.
type TierConfig struct {
	// AdvancedThreshold: score >= this gets TierAdvanced. Default: 41.
	AdvancedThreshold float64 `json:"advanced_threshold" yaml:"advanced_threshold"`

	// MasteryThreshold: score >= this gets TierMastery. Default: 81.
	MasteryThreshold float64 `json:"mastery_threshold" yaml:"mastery_threshold"`
}

// DefaultTierConfig returns the default tier thresholds.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		AdvancedThreshold: constants.AdvancedTierThreshold,
		MasteryThreshold:  constants.MasteryTierThreshold,
	}
}

// Validate checks that thresholds are ordered and inside the score domain.
func (c TierConfig) Validate() error {
	if c.AdvancedThreshold <= constants.MinScore {
		return fmt.Errorf("advanced_threshold must be greater than %v, got %v", constants.MinScore, c.AdvancedThreshold)
	}
	if c.MasteryThreshold <= c.AdvancedThreshold {
		return fmt.Errorf("mastery_threshold (%v) must be greater than advanced_threshold (%v)", c.MasteryThreshold, c.AdvancedThreshold)
	}
	if c.MasteryThreshold > constants.MaxScore {
		return fmt.Errorf("mastery_threshold must be at most %v, got %v", constants.MaxScore, c.MasteryThreshold)
	}
	return nil
}

// Resolver maps scores to tiers using a TierConfig.
// It is immutable and safe for concurrent use.
type Resolver struct {
	config TierConfig
}

// NewResolver creates a resolver with the given configuration.
func NewResolver(config TierConfig) *Resolver {
	return &Resolver{config: config}
}

// Config returns the thresholds the resolver was built with.
func (r *Resolver) Config() TierConfig {
	return r.config
}

// Resolve returns the tier implied by score.
func (r *Resolver) Resolve(score float64) models.Tier {
	switch {
	case score >= r.config.MasteryThreshold:
		return models.TierMastery
	case score >= r.config.AdvancedThreshold:
		return models.TierAdvanced
	default:
		return models.TierBasic
	}
}

var defaultResolver = NewResolver(DefaultTierConfig())

// ResolveTier maps a score to a tier using the default thresholds.
func ResolveTier(score float64) models.Tier {
	return defaultResolver.Resolve(score)
}

// Default returns the shared resolver using default thresholds.
func Default() *Resolver {
	return defaultResolver
}
