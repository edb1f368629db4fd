package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/backup"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/pathutil"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/ratelimit"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/sanitize"
)

const (
	overviewURI     = "lumaura://portals/overview"
	portalURIPrefix = "lumaura://portals/"
)

// registerTools registers all portal MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "portal_list",
		Description: "List every portal with its evolution score, tier and capabilities",
	}, s.handlePortalList)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "portal_status",
		Description: "Get one portal's status and its most recent activities",
	}, s.handlePortalStatus)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "portal_record_activity",
		Description: "Record an activity for a portal, nudging its evolution score",
	}, s.handlePortalRecordActivity)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "portal_recommendations",
		Description: "List recommendations targeting a portal",
	}, s.handlePortalRecommendations)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "portal_recommend",
		Description: "Create a pending recommendation from one portal to another",
	}, s.handlePortalRecommend)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "portal_implement",
		Description: "Implement a pending recommendation, boosting the target portal's score",
	}, s.handlePortalImplement)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "portal_snapshot",
		Description: "Persist the current evolution state now",
	}, s.handlePortalSnapshot)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "portal_backup",
		Description: "Write a backup of portal scores and recommendations, then apply retention",
	}, s.handlePortalBackup)
}

// registerResources registers read-only portal views.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         overviewURI,
		Name:        "lumaura-portal-overview",
		Description: "Every portal's tier and score, highest first.",
		MIMEType:    "text/markdown",
	}, s.handleOverviewResource)

	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: portalURIPrefix + "{name}",
		Name:        "lumaura-portal",
		Description: "Status, capabilities and recent activity for one portal.",
		MIMEType:    "text/markdown",
	}, s.handlePortalResource)
}

func (s *Server) handleOverviewResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	statuses := s.engine.AllStatuses()
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := statuses[names[i]], statuses[names[j]]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return names[i] < names[j]
	})

	var sb strings.Builder
	sb.WriteString("# Portal evolution\n\n")
	sb.WriteString("| Portal | Tier | Score | Activities |\n|---|---|---|---|\n")
	for _, name := range names {
		st := statuses[name]
		sb.WriteString(fmt.Sprintf("| %s | %s | %.1f | %d |\n", st.DisplayName, st.Tier, st.Score, st.ActivityCount))
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{URI: overviewURI, MIMEType: "text/markdown", Text: sb.String()},
		},
	}, nil
}

func (s *Server) handlePortalResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	if !strings.HasPrefix(uri, portalURIPrefix) {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}
	name := sanitize.PortalName(strings.TrimPrefix(uri, portalURIPrefix))

	st, err := s.engine.PortalStatus(name)
	if err != nil {
		return nil, sdk.ResourceNotFoundError(uri)
	}
	recent, _ := s.engine.RecentActivities(name, 5)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", st.DisplayName))
	sb.WriteString(fmt.Sprintf("**Tier:** %s\n", st.Tier))
	sb.WriteString(fmt.Sprintf("**Score:** %.2f\n", st.Score))
	sb.WriteString(fmt.Sprintf("**Activities:** %d\n\n", st.ActivityCount))

	caps := make([]string, 0, len(st.Capabilities))
	for c, on := range st.Capabilities {
		if on {
			caps = append(caps, string(c))
		}
	}
	sort.Strings(caps)
	sb.WriteString("## Capabilities\n\n")
	for _, c := range caps {
		sb.WriteString("- " + c + "\n")
	}

	if len(recent) > 0 {
		sb.WriteString("\n## Recent activity\n\n")
		for _, a := range recent {
			sb.WriteString(fmt.Sprintf("- %s %s\n", a.Timestamp.Format(time.RFC3339), a.Description))
		}
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{URI: uri, MIMEType: "text/markdown", Text: sb.String()},
		},
	}, nil
}

// handlePortalList implements the portal_list tool.
func (s *Server) handlePortalList(ctx context.Context, req *sdk.CallToolRequest, args PortalListInput) (_ *sdk.CallToolResult, _ PortalListOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("portal_list", start, retErr, sanitizeToolParams(map[string]interface{}{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "portal_list"); err != nil {
		return nil, PortalListOutput{}, err
	}

	statuses := s.engine.AllStatuses()
	return nil, PortalListOutput{Portals: statuses, Count: len(statuses)}, nil
}

// handlePortalStatus implements the portal_status tool.
func (s *Server) handlePortalStatus(ctx context.Context, req *sdk.CallToolRequest, args PortalStatusInput) (_ *sdk.CallToolResult, _ PortalStatusOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("portal_status", start, retErr, sanitizeToolParams(map[string]interface{}{
			"name": args.Name, "limit": args.Limit,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "portal_status"); err != nil {
		return nil, PortalStatusOutput{}, err
	}

	name := sanitize.PortalName(args.Name)
	if name == "" {
		return nil, PortalStatusOutput{}, fmt.Errorf("'name' parameter is required")
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}

	st, err := s.engine.PortalStatus(name)
	if err != nil {
		return nil, PortalStatusOutput{}, err
	}
	recent, err := s.engine.RecentActivities(name, limit)
	if err != nil {
		return nil, PortalStatusOutput{}, err
	}
	if recent == nil {
		recent = []models.Activity{}
	}
	return nil, PortalStatusOutput{Portal: st, RecentActivities: recent}, nil
}

// handlePortalRecordActivity implements the portal_record_activity tool.
func (s *Server) handlePortalRecordActivity(ctx context.Context, req *sdk.CallToolRequest, args PortalRecordActivityInput) (_ *sdk.CallToolResult, _ PortalRecordActivityOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("portal_record_activity", start, retErr, sanitizeToolParams(map[string]interface{}{
			"name": args.Name, "activity": args.Activity,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "portal_record_activity"); err != nil {
		return nil, PortalRecordActivityOutput{}, err
	}

	name := sanitize.PortalName(args.Name)
	activity := sanitize.ActivityDescription(args.Activity)
	if name == "" || activity == "" {
		return nil, PortalRecordActivityOutput{}, fmt.Errorf("'name' and 'activity' parameters are required")
	}

	a, err := s.engine.RecordPortalActivity(ctx, name, activity)
	if err != nil {
		return nil, PortalRecordActivityOutput{}, err
	}
	st, err := s.engine.PortalStatus(name)
	if err != nil {
		return nil, PortalRecordActivityOutput{}, err
	}
	return nil, PortalRecordActivityOutput{Activity: a, Score: st.Score, Stage: st.Tier}, nil
}

// handlePortalRecommendations implements the portal_recommendations tool.
func (s *Server) handlePortalRecommendations(ctx context.Context, req *sdk.CallToolRequest, args PortalRecommendationsInput) (_ *sdk.CallToolResult, _ PortalRecommendationsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("portal_recommendations", start, retErr, sanitizeToolParams(map[string]interface{}{
			"name": args.Name,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "portal_recommendations"); err != nil {
		return nil, PortalRecommendationsOutput{}, err
	}

	name := sanitize.PortalName(args.Name)
	if !s.engine.HasPortal(name) {
		return nil, PortalRecommendationsOutput{}, fmt.Errorf("%s: %w", args.Name, evolution.ErrPortalNotFound)
	}

	recs := s.engine.RecommendationsFor(name)
	if recs == nil {
		recs = []models.Recommendation{}
	}
	pending := 0
	for i := range recs {
		if recs[i].Pending() {
			pending++
		}
	}
	return nil, PortalRecommendationsOutput{Recommendations: recs, Count: len(recs), Pending: pending}, nil
}

// handlePortalRecommend implements the portal_recommend tool.
func (s *Server) handlePortalRecommend(ctx context.Context, req *sdk.CallToolRequest, args PortalRecommendInput) (_ *sdk.CallToolResult, _ PortalRecommendOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("portal_recommend", start, retErr, sanitizeToolParams(map[string]interface{}{
			"source_portal": args.Source, "target_portal": args.Target, "type": args.Type, "details": args.Details,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "portal_recommend"); err != nil {
		return nil, PortalRecommendOutput{}, err
	}

	source := sanitize.PortalName(args.Source)
	target := sanitize.PortalName(args.Target)
	if err := evolution.ValidateRecommendation(source, target, args.Type, s.engine.HasPortal); err != nil {
		return nil, PortalRecommendOutput{}, err
	}

	rec, err := s.engine.CreateRecommendation(ctx, source, target,
		models.RecommendationType(strings.TrimSpace(args.Type)), sanitize.Details(args.Details))
	if err != nil {
		return nil, PortalRecommendOutput{}, err
	}
	return nil, PortalRecommendOutput{Recommendation: rec}, nil
}

// handlePortalImplement implements the portal_implement tool.
func (s *Server) handlePortalImplement(ctx context.Context, req *sdk.CallToolRequest, args PortalImplementInput) (_ *sdk.CallToolResult, _ PortalImplementOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("portal_implement", start, retErr, sanitizeToolParams(map[string]interface{}{
			"recommendation_id": args.RecommendationID,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "portal_implement"); err != nil {
		return nil, PortalImplementOutput{}, err
	}

	id := strings.TrimSpace(args.RecommendationID)
	if id == "" {
		return nil, PortalImplementOutput{}, fmt.Errorf("'recommendation_id' parameter is required")
	}

	result, err := s.engine.ImplementRecommendation(ctx, id)
	if err != nil {
		if errors.Is(err, evolution.ErrRecommendationNotFound) {
			return nil, PortalImplementOutput{}, evolution.ErrRecommendationNotFound
		}
		return nil, PortalImplementOutput{}, err
	}
	return nil, PortalImplementOutput{
		Result:  result,
		Message: fmt.Sprintf("Implemented %s: %s +%.2f, now %s", id, result.Portal, result.Boost, result.NewStage),
	}, nil
}

// handlePortalSnapshot implements the portal_snapshot tool.
func (s *Server) handlePortalSnapshot(ctx context.Context, req *sdk.CallToolRequest, args PortalSnapshotInput) (_ *sdk.CallToolResult, _ PortalSnapshotOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("portal_snapshot", start, retErr, sanitizeToolParams(map[string]interface{}{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "portal_snapshot"); err != nil {
		return nil, PortalSnapshotOutput{}, err
	}

	if err := s.engine.Save(ctx); err != nil {
		return nil, PortalSnapshotOutput{}, fmt.Errorf("snapshot failed: %w", err)
	}
	snap := s.engine.Snapshot()
	return nil, PortalSnapshotOutput{
		PortalCount: len(snap.Portals),
		SavedAt:     snap.LastSaved,
		Message:     fmt.Sprintf("Saved %d portals", len(snap.Portals)),
	}, nil
}

// handlePortalBackup implements the portal_backup tool.
func (s *Server) handlePortalBackup(ctx context.Context, req *sdk.CallToolRequest, args PortalBackupInput) (_ *sdk.CallToolResult, _ PortalBackupOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("portal_backup", start, retErr, sanitizeToolParams(map[string]interface{}{
			"output_path": args.OutputPath,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "portal_backup"); err != nil {
		return nil, PortalBackupOutput{}, err
	}

	outputPath := backup.GenerateBackupPath(s.cfg.BackupDir, s.now(), s.cfg.Compress)
	if args.OutputPath != "" {
		// User-supplied names stay inside the allowed backup directories
		resolved, err := pathutil.ResolveBackupFile(args.OutputPath, s.cfg.BackupDir)
		if err != nil {
			return nil, PortalBackupOutput{}, fmt.Errorf("backup path rejected: %w", err)
		}
		outputPath = resolved
	}

	if err := s.engine.Save(ctx); err != nil {
		s.logger.Warn("snapshot save before backup failed", "error", err)
	}
	p, err := backup.Backup(ctx, s.engine, outputPath, s.cfg.Compress)
	if err != nil {
		return nil, PortalBackupOutput{}, fmt.Errorf("backup failed: %w", err)
	}

	deleted, err := backup.ApplyRetention(filepath.Dir(outputPath), s.cfg.Retention)
	if err != nil {
		s.logger.Warn("failed to apply retention", "error", err)
	}

	var sizeBytes int64
	if info, err := os.Stat(outputPath); err == nil {
		sizeBytes = info.Size()
	}

	return nil, PortalBackupOutput{
		Path:                outputPath,
		PortalCount:         len(p.Snapshot.Portals),
		RecommendationCount: len(p.Recommendations),
		Version:             p.Version,
		Compressed:          p.Version == backup.FormatV2,
		SizeBytes:           sizeBytes,
		Pruned:              len(deleted),
		Message: fmt.Sprintf("Backup created: %d portals, %d recommendations -> %s",
			len(p.Snapshot.Portals), len(p.Recommendations), pathutil.RedactPath(outputPath)),
	}, nil
}
