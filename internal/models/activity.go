package models

import "time"

// Activity is a single entry in a portal's activity history
type Activity struct {
	Description string    `json:"description" yaml:"description"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// PortalStatus is a read-only projection of a portal's current state.
// Field names follow the JSON payloads served by the API.
type PortalStatus struct {
	Name         string              `json:"name" yaml:"name"`
	DisplayName  string              `json:"display_name" yaml:"display_name"`
	Score        float64             `json:"evolution_score" yaml:"evolution_score"`
	Tier         Tier                `json:"evolution_stage" yaml:"evolution_stage"`
	Capabilities map[Capability]bool `json:"capabilities" yaml:"capabilities"`
	LastActivity *Activity           `json:"last_activity" yaml:"last_activity"`
	CreatedAt    time.Time           `json:"created_at" yaml:"created_at"`

	// ActivityCount is the total number of activities ever recorded,
	// including those evicted from the retained history.
	ActivityCount int `json:"activities_count" yaml:"activities_count"`
}
