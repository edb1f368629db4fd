// Package mcp provides an MCP (Model Context Protocol) server exposing portal
// evolution as tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/backup"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/logging"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/ratelimit"
)

// Engine is the evolution state the tools operate on.
// *evolution.Coordinator implements it.
type Engine interface {
	backup.Source
	HasPortal(name string) bool
	PortalNames() []string
	PortalStatus(name string) (models.PortalStatus, error)
	AllStatuses() map[string]models.PortalStatus
	RecentActivities(name string, limit int) ([]models.Activity, error)
	RecordPortalActivity(ctx context.Context, name, description string) (models.Activity, error)
	CreateRecommendation(ctx context.Context, source, target string, typ models.RecommendationType, details string) (models.Recommendation, error)
	ImplementRecommendation(ctx context.Context, id string) (evolution.ImplementResult, error)
	RecommendationsFor(name string) []models.Recommendation
	Save(ctx context.Context) error
}

// Server wraps the MCP SDK server with the portal tools.
type Server struct {
	server       *sdk.Server
	engine       Engine
	cfg          Config
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
	now          func() time.Time
}

// Config holds server configuration.
type Config struct {
	Name      string // Server name (e.g., "lumaura")
	Version   string // Server version
	DataDir   string // audit.jsonl is written here; empty disables auditing
	BackupDir string // portal_backup target directory

	// Compress selects V2 backups for portal_backup.
	Compress bool

	// Retention prunes BackupDir after portal_backup. Nil keeps everything.
	Retention backup.RetentionPolicy

	Logger *slog.Logger
}

// NewServer creates an MCP server bound to engine.
func NewServer(engine Engine, cfg *Config) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Name == "" {
		cfg.Name = "lumaura"
	}
	if cfg.BackupDir == "" {
		dir, err := backup.DefaultBackupDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get backup directory: %w", err)
		}
		cfg.BackupDir = dir
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		engine:       engine,
		cfg:          *cfg,
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  NewAuditLogger(cfg.DataDir),
		logger:       logger,
		now:          time.Now,
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()
	return err
}

// Close releases the audit log. The engine is owned by the caller.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
