package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve portal tools over MCP (stdio)",
		Long: `Run an MCP server on stdin/stdout exposing portal status,
activity recording, recommendations, snapshots and backups as tools.

Tool calls are audited to <data_dir>/audit.jsonl. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			eng := newEngine(cfg, st, logger, nil)
			defer eng.shutdown(cfg.Server.ShutdownTimeout)

			if err := eng.Initialize(ctx); err != nil {
				return fmt.Errorf("failed to initialize evolution: %w", err)
			}

			policy, err := retentionPolicy(cfg)
			if err != nil {
				return err
			}
			server, err := mcp.NewServer(eng, &mcp.Config{
				Name:      "lumaura",
				Version:   version,
				DataDir:   cfg.Store.DataDir,
				BackupDir: cfg.BackupDir(),
				Compress:  cfg.Backup.Compress,
				Retention: policy,
				Logger:    logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			return server.Run(ctx)
		},
	}
}
