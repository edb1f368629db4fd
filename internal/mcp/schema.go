package mcp

import (
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
)

// PortalListInput defines the input for portal_list tool.
type PortalListInput struct{}

// PortalListOutput defines the output for portal_list tool.
type PortalListOutput struct {
	Portals map[string]models.PortalStatus `json:"portals" jsonschema:"Status of every portal keyed by name"`
	Count   int                            `json:"count" jsonschema:"Number of portals"`
}

// PortalStatusInput defines the input for portal_status tool.
type PortalStatusInput struct {
	Name  string `json:"name" jsonschema:"Portal name, e.g. xuvebanker"`
	Limit int    `json:"limit,omitempty" jsonschema:"Recent activities to include (default 10)"`
}

// PortalStatusOutput defines the output for portal_status tool.
type PortalStatusOutput struct {
	Portal           models.PortalStatus `json:"portal" jsonschema:"Current portal status"`
	RecentActivities []models.Activity   `json:"recent_activities" jsonschema:"Most recent activities, oldest first"`
}

// PortalRecordActivityInput defines the input for portal_record_activity tool.
type PortalRecordActivityInput struct {
	Name     string `json:"name" jsonschema:"Portal name"`
	Activity string `json:"activity" jsonschema:"Description of what the portal did"`
}

// PortalRecordActivityOutput defines the output for portal_record_activity tool.
type PortalRecordActivityOutput struct {
	Activity models.Activity `json:"activity" jsonschema:"The recorded activity"`
	Score    float64         `json:"evolution_score" jsonschema:"Portal score after the activity"`
	Stage    models.Tier     `json:"evolution_stage" jsonschema:"Portal tier after the activity"`
}

// PortalRecommendationsInput defines the input for portal_recommendations tool.
type PortalRecommendationsInput struct {
	Name string `json:"name" jsonschema:"Target portal name"`
}

// PortalRecommendationsOutput defines the output for portal_recommendations tool.
type PortalRecommendationsOutput struct {
	Recommendations []models.Recommendation `json:"recommendations" jsonschema:"Recommendations targeting the portal"`
	Count           int                     `json:"count" jsonschema:"Number of recommendations"`
	Pending         int                     `json:"pending" jsonschema:"How many are still pending"`
}

// PortalRecommendInput defines the input for portal_recommend tool.
type PortalRecommendInput struct {
	Source  string `json:"source_portal" jsonschema:"Portal making the recommendation"`
	Target  string `json:"target_portal" jsonschema:"Portal receiving the recommendation; must differ from the source"`
	Type    string `json:"type" jsonschema:"Recommendation type, e.g. Collaboration Opportunity"`
	Details string `json:"details,omitempty" jsonschema:"Free-form details"`
}

// PortalRecommendOutput defines the output for portal_recommend tool.
type PortalRecommendOutput struct {
	Recommendation models.Recommendation `json:"recommendation" jsonschema:"The created recommendation"`
}

// PortalImplementInput defines the input for portal_implement tool.
type PortalImplementInput struct {
	RecommendationID string `json:"recommendation_id" jsonschema:"Id of a pending recommendation, e.g. rec-3"`
}

// PortalImplementOutput defines the output for portal_implement tool.
type PortalImplementOutput struct {
	Result  evolution.ImplementResult `json:"result" jsonschema:"Boost applied and the target's new tier"`
	Message string                    `json:"message" jsonschema:"Human-readable result message"`
}

// PortalSnapshotInput defines the input for portal_snapshot tool.
type PortalSnapshotInput struct{}

// PortalSnapshotOutput defines the output for portal_snapshot tool.
type PortalSnapshotOutput struct {
	PortalCount int       `json:"portal_count" jsonschema:"Portals in the saved snapshot"`
	SavedAt     time.Time `json:"saved_at" jsonschema:"When the snapshot was taken"`
	Message     string    `json:"message" jsonschema:"Human-readable result message"`
}

// PortalBackupInput defines the input for portal_backup tool.
type PortalBackupInput struct {
	OutputPath string `json:"output_path,omitempty" jsonschema:"File name or path inside the backup directory (default: timestamped)"`
}

// PortalBackupOutput defines the output for portal_backup tool.
type PortalBackupOutput struct {
	Path                string `json:"path" jsonschema:"Path to the backup file"`
	PortalCount         int    `json:"portal_count" jsonschema:"Portals backed up"`
	RecommendationCount int    `json:"recommendation_count" jsonschema:"Recommendations backed up"`
	Version             int    `json:"version" jsonschema:"Backup format version (1=plain JSON, 2=compressed)"`
	Compressed          bool   `json:"compressed" jsonschema:"Whether the backup is gzip compressed"`
	SizeBytes           int64  `json:"size_bytes" jsonschema:"File size in bytes"`
	Pruned              int    `json:"pruned" jsonschema:"Old backups removed by retention"`
	Message             string `json:"message" jsonschema:"Human-readable result message"`
}
