// Package constants provides named constants used throughout the Lumaura codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

import "time"

// Score domain constants
const (
	// MinScore is the lowest evolution score a portal can hold.
	MinScore = 0.0

	// MaxScore is the highest evolution score a portal can hold.
	MaxScore = 100.0

	// ActivityScoreIncrement is the fixed score nudge applied per recorded activity.
	ActivityScoreIncrement = 0.1
)

// Tier thresholds. Scores are compared with >=, so 40.9 is still Basic
// and 80.9 is still Advanced.
const (
	// AdvancedTierThreshold is the minimum score for the Advanced tier.
	AdvancedTierThreshold = 41.0

	// MasteryTierThreshold is the minimum score for the Mastery tier.
	MasteryTierThreshold = 81.0
)

// Recommendation constants
const (
	// RecommendationIDPrefix prefixes every sequential recommendation id.
	RecommendationIDPrefix = "rec-"

	// MinImplementationBoost is the lower bound of the score boost drawn
	// when a recommendation is implemented.
	MinImplementationBoost = 0.5

	// MaxImplementationBoost is the upper bound of the implementation boost.
	MaxImplementationBoost = 2.0
)

// Persistence constants
const (
	// DefaultSaveProbability is the chance that a recorded activity
	// triggers a snapshot write.
	DefaultSaveProbability = 0.1

	// DefaultDataDir is where snapshots, journals and audit logs live.
	DefaultDataDir = "data/portal_evolution"

	// DefaultSnapshotFile is the snapshot file name inside DefaultDataDir.
	DefaultSnapshotFile = "evolution_data.json"

	// DefaultActivityCapacity is how many recent activities each portal retains.
	DefaultActivityCapacity = 100
)

// Background generator timing
const (
	ActivityMinInterval        = 1 * time.Second
	ActivityMaxInterval        = 5 * time.Second
	ActivityIdleBackoff        = 10 * time.Second
	ActivityErrorBackoff       = 10 * time.Second
	RecommendationMinInterval  = 30 * time.Second
	RecommendationMaxInterval  = 120 * time.Second
	RecommendationErrorBackoff = 30 * time.Second

	// RecommendationProbability is the per-iteration chance of proposing
	// a new recommendation.
	RecommendationProbability = 0.1
)

// Input limits
const (
	// MaxActivityLength bounds manually submitted activity descriptions.
	MaxActivityLength = 500

	// MaxDetailsLength bounds recommendation details.
	MaxDetailsLength = 1000

	// DefaultMaxTokens is the default completion budget for AI routes.
	DefaultMaxTokens = 500
)
