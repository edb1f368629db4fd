package models

import (
	"time"
)

// RecommendationStatus tracks the lifecycle of a recommendation.
// The only transition is pending -> implemented.
type RecommendationStatus string

const (
	RecommendationPending     RecommendationStatus = "pending"
	RecommendationImplemented RecommendationStatus = "implemented"
)

// RecommendationType labels the kind of improvement being suggested
type RecommendationType string

const (
	RecommendationSystemUpgrade          RecommendationType = "System Upgrade"
	RecommendationCollaboration          RecommendationType = "Collaboration Opportunity"
	RecommendationOptimizationStrategy   RecommendationType = "Optimization Strategy"
	RecommendationResourceAllocation     RecommendationType = "Resource Allocation"
	RecommendationIntegrationEnhancement RecommendationType = "Integration Enhancement"
)

// RecommendationTypes is the vocabulary used for generated recommendations.
var RecommendationTypes = []RecommendationType{
	RecommendationSystemUpgrade,
	RecommendationCollaboration,
	RecommendationOptimizationStrategy,
	RecommendationResourceAllocation,
	RecommendationIntegrationEnhancement,
}

// Recommendation is a suggestion from one portal to another that boosts
// the target's score once implemented.
type Recommendation struct {
	ID            string               `json:"id" yaml:"id"`
	SourcePortal  string               `json:"source_portal" yaml:"source_portal"`
	TargetPortal  string               `json:"target_portal" yaml:"target_portal"`
	Type          RecommendationType   `json:"type" yaml:"type"`
	Details       string               `json:"details" yaml:"details"`
	Status        RecommendationStatus `json:"status" yaml:"status"`
	CreatedAt     time.Time            `json:"created_at" yaml:"created_at"`
	ImplementedAt *time.Time           `json:"implemented_at,omitempty" yaml:"implemented_at,omitempty"`
}

// Pending reports whether the recommendation can still be implemented.
func (r *Recommendation) Pending() bool {
	return r.Status == RecommendationPending
}
