package tiering

import (
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
)

// capabilityLevels holds the capabilities unlocked at each tier for one archetype.
// Lists are not cumulative; Capabilities merges them.
type capabilityLevels struct {
	basic    []models.Capability
	advanced []models.Capability
	mastery  []models.Capability
}

// capabilityTable is keyed by archetype. Every archetype unlocks three
// capabilities per tier.
var capabilityTable = map[models.Archetype]capabilityLevels{
	models.ArchetypeBanker: {
		basic:    []models.Capability{"transaction_tracking", "balance_reporting", "expense_categorization"},
		advanced: []models.Capability{"cash_flow_forecasting", "multi_currency_settlement", "fraud_detection"},
		mastery:  []models.Capability{"autonomous_treasury", "cross_ecosystem_payments", "neural_risk_modeling"},
	},
	models.ArchetypeMark: {
		basic:    []models.Capability{"campaign_tracking", "audience_analysis", "content_recommendations"},
		advanced: []models.Capability{"predictive_analytics", "multi_channel_orchestration", "personalization_engine"},
		mastery:  []models.Capability{"autonomous_marketing", "cross_ecosystem_integration", "neural_brand_optimization"},
	},
	models.ArchetypeTeam: {
		basic:    []models.Capability{"workspace_management", "task_assignment", "team_messaging"},
		advanced: []models.Capability{"workload_balancing", "performance_insights", "meeting_summarization"},
		mastery:  []models.Capability{"autonomous_team_orchestration", "cross_portal_collaboration", "neural_productivity_tuning"},
	},
	models.ArchetypeVault: {
		basic:    []models.Capability{"asset_inventory", "encrypted_storage", "access_logging"},
		advanced: []models.Capability{"threat_detection", "key_rotation", "backup_verification"},
		mastery:  []models.Capability{"autonomous_security_response", "zero_trust_enforcement", "neural_anomaly_detection"},
	},
	models.ArchetypeOps: {
		basic:    []models.Capability{"status_monitoring", "error_reporting", "resource_tracking"},
		advanced: []models.Capability{"auto_scaling", "incident_correlation", "deployment_pipelines"},
		mastery:  []models.Capability{"self_healing_infrastructure", "cross_ecosystem_observability", "neural_capacity_planning"},
	},
	models.ArchetypeCode: {
		basic:    []models.Capability{"project_management", "code_snippets", "syntax_checking"},
		advanced: []models.Capability{"code_generation", "automated_review", "test_scaffolding"},
		mastery:  []models.Capability{"autonomous_refactoring", "cross_repository_reasoning", "neural_architecture_design"},
	},
	models.ArchetypeCast: {
		basic:    []models.Capability{"episode_publishing", "listener_tracking", "show_notes"},
		advanced: []models.Capability{"audience_segmentation", "cross_platform_distribution", "automated_clipping"},
		mastery:  []models.Capability{"autonomous_programming", "cross_ecosystem_syndication", "neural_voice_production"},
	},
	models.ArchetypeMirror: {
		basic:    []models.Capability{"profile_reflection", "mood_journaling", "insight_prompts"},
		advanced: []models.Capability{"behavior_pattern_analysis", "goal_alignment", "sentiment_tracking"},
		mastery:  []models.Capability{"autonomous_self_coaching", "cross_portal_identity", "neural_persona_modeling"},
	},
	models.ArchetypeHome: {
		basic:    []models.Capability{"dashboard_display", "navigation_shortcuts", "notification_center"},
		advanced: []models.Capability{"adaptive_layouts", "contextual_widgets", "smart_notifications"},
		mastery:  []models.Capability{"autonomous_experience_curation", "cross_portal_launchpad", "neural_intent_prediction"},
	},
	models.ArchetypeWisdom: {
		basic:    []models.Capability{"knowledge_base", "article_search", "topic_tagging"},
		advanced: []models.Capability{"semantic_retrieval", "expert_matching", "knowledge_graphs"},
		mastery:  []models.Capability{"autonomous_research", "cross_ecosystem_synthesis", "neural_insight_generation"},
	},
	models.ArchetypeTeach: {
		basic:    []models.Capability{"course_catalog", "lesson_tracking", "quiz_builder"},
		advanced: []models.Capability{"adaptive_learning_paths", "retention_analysis", "tutorial_sequencing"},
		mastery:  []models.Capability{"autonomous_tutoring", "cross_portal_certification", "neural_curriculum_design"},
	},
	models.ArchetypeRitual: {
		basic:    []models.Capability{"routine_scheduling", "habit_tracking", "reminder_delivery"},
		advanced: []models.Capability{"habit_formation_systems", "streak_analytics", "routine_optimization"},
		mastery:  []models.Capability{"autonomous_routine_design", "cross_portal_rhythms", "neural_habit_reinforcement"},
	},
	models.ArchetypeOnboard: {
		basic:    []models.Capability{"welcome_flows", "progress_checklists", "account_setup"},
		advanced: []models.Capability{"personalized_onboarding", "dropoff_detection", "guided_tours"},
		mastery:  []models.Capability{"autonomous_activation", "cross_portal_introductions", "neural_journey_mapping"},
	},
	models.ArchetypeWell: {
		basic:    []models.Capability{"wellness_tracking", "health_tips", "activity_logging"},
		advanced: []models.Capability{"health_recommendations", "stress_detection", "balance_scoring"},
		mastery:  []models.Capability{"autonomous_wellness_coaching", "cross_portal_balance", "neural_health_forecasting"},
	},
	models.ArchetypeFamily: {
		basic:    []models.Capability{"shared_calendars", "member_profiles", "family_messaging"},
		advanced: []models.Capability{"relationship_insights", "event_coordination", "shared_budgeting"},
		mastery:  []models.Capability{"autonomous_household_planning", "cross_portal_family_sync", "neural_relationship_care"},
	},
	models.ArchetypeJobs: {
		basic:    []models.Capability{"job_listings", "resume_storage", "application_tracking"},
		advanced: []models.Capability{"skill_matching", "workforce_analytics", "interview_preparation"},
		mastery:  []models.Capability{"autonomous_talent_matching", "cross_ecosystem_hiring", "neural_career_pathing"},
	},
	models.ArchetypeFleet: {
		basic:    []models.Capability{"vehicle_registry", "delivery_scheduling", "route_display"},
		advanced: []models.Capability{"route_optimization", "predictive_maintenance", "load_balancing"},
		mastery:  []models.Capability{"autonomous_dispatch", "cross_ecosystem_logistics", "neural_demand_forecasting"},
	},
	models.ArchetypeSponsorship: {
		basic:    []models.Capability{"sponsor_directory", "proposal_tracking", "sponsor_metrics"},
		advanced: []models.Capability{"partner_matching", "roi_projections", "deal_pipeline"},
		mastery:  []models.Capability{"autonomous_deal_making", "cross_ecosystem_partnerships", "neural_value_modeling"},
	},
	models.ArchetypeSound: {
		basic:    []models.Capability{"sound_library", "audio_tagging", "playback_control"},
		advanced: []models.Capability{"audio_pattern_analysis", "sonic_branding", "voice_synthesis"},
		mastery:  []models.Capability{"autonomous_composition", "cross_portal_soundscapes", "neural_audio_mastering"},
	},
	models.ArchetypeCreator: {
		basic:    []models.Capability{"content_drafting", "asset_management", "publishing_calendar"},
		advanced: []models.Capability{"trend_detection", "creative_collaboration", "monetization_insights"},
		mastery:  []models.Capability{"autonomous_content_studio", "cross_ecosystem_distribution", "neural_creative_direction"},
	},
	models.ArchetypePulse: {
		basic:    []models.Capability{"engagement_metrics", "community_feed", "poll_creation"},
		advanced: []models.Capability{"sentiment_analysis", "community_health_scoring", "trend_alerts"},
		mastery:  []models.Capability{"autonomous_community_management", "cross_portal_pulse", "neural_engagement_prediction"},
	},
	models.ArchetypeLegal: {
		basic:    []models.Capability{"document_storage", "policy_library", "compliance_checklists"},
		advanced: []models.Capability{"regulatory_monitoring", "contract_analysis", "policy_updates"},
		mastery:  []models.Capability{"autonomous_compliance", "cross_jurisdiction_mapping", "neural_legal_reasoning"},
	},
}

// KnownArchetype reports whether a capability table exists for the archetype.
func KnownArchetype(a models.Archetype) bool {
	_, ok := capabilityTable[a]
	return ok
}

// Capabilities returns the cumulative capabilities unlocked at tier for the
// archetype, lowest tier first. Unknown archetypes or tiers yield nil.
// The returned slice is owned by the caller.
func Capabilities(a models.Archetype, tier models.Tier) []models.Capability {
	levels, ok := capabilityTable[a]
	if !ok || !tier.Valid() {
		return nil
	}

	caps := make([]models.Capability, 0, 9)
	caps = append(caps, levels.basic...)
	if tier.Rank() >= models.TierAdvanced.Rank() {
		caps = append(caps, levels.advanced...)
	}
	if tier.Rank() >= models.TierMastery.Rank() {
		caps = append(caps, levels.mastery...)
	}
	return caps
}

// CapabilityFlags returns the capabilities for (archetype, tier) as a flag map,
// the shape served in portal status payloads.
func CapabilityFlags(a models.Archetype, tier models.Tier) map[models.Capability]bool {
	caps := Capabilities(a, tier)
	flags := make(map[models.Capability]bool, len(caps))
	for _, c := range caps {
		flags[c] = true
	}
	return flags
}
