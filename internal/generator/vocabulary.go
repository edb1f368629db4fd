package generator

import (
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
)

var actions = []string{
	"Analyzing", "Processing", "Generating", "Optimizing", "Managing",
	"Tracking", "Monitoring", "Automating", "Building", "Controlling",
	"Coordinating", "Scheduling", "Curating", "Testing", "Routing",
	"Personalizing", "Matching", "Identifying", "Calculating", "Creating",
}

var targets = []string{
	"metrics", "data", "content", "reports", "resources", "asset inventory",
	"performance metrics", "security threats", "encryption keys", "backup processes",
	"marketing metrics", "audience metrics", "creative trends", "campaign strategies",
	"partnership proposals", "relationship data", "sponsor metrics", "job opportunities",
	"skill requirements", "workforce analytics", "status reports", "error patterns",
	"system resources", "delivery schedules", "tutorial sequences", "knowledge retention",
	"legal requirements", "policy updates", "regulatory changes", "legal documentation",
	"navigation systems", "notification sequences", "dashboard displays", "user experiences",
	"membership data", "social relationships", "engagement metrics", "community connections",
	"health recommendations", "wellness metrics", "work-life balance", "routine tasks",
	"habit formation systems", "processes", "workflows", "operations", "deployments",
	"scaling operations", "sound assets", "audio patterns", "sonic branding", "voice content",
	"educational content", "training materials", "onboarding progress", "assistance",
	"feedback", "partnership opportunities", "ROI projections",
}

var contexts = []string{
	"for API services", "for platform services", "for system operations",
	"for content distribution", "for security protocols", "for transaction processing",
	"for blockchain integration", "for smart contracts", "for wallet integrations",
	"for token holders", "for community members", "for enterprise clients",
	"for partner networks", "for mobile interface", "for desktop portal",
	"for developer resources", "for user profiles", "for user experience",
	"for XUVE ecosystem", "for data analytics",
}

// Describe composes "{action} {target} {context}" from the fixed
// vocabularies, drawing action, target and context in that order.
func Describe(r evolution.Rand) string {
	return pick(r, actions) + " " + pick(r, targets) + " " + pick(r, contexts)
}

func pick(r evolution.Rand, words []string) string {
	return words[r.IntN(len(words))]
}
