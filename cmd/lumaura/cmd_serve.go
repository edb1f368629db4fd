package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/backup"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/collaboration"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/config"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/generator"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/httpapi"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/metrics"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/report"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, background generators and scheduled backups",
		Long: `Start the evolution engine and serve it over HTTP.

The activity and recommendation generators run when generator.enabled is
set. Scheduled backups run when backup.schedule is a cron expression.
A final snapshot is saved on SIGINT or SIGTERM.

Examples:
  lumaura serve
  lumaura serve --addr :8080 --no-generators`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			if off, _ := cmd.Flags().GetBool("no-generators"); off {
				cfg.Generator.Enabled = false
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().Bool("no-generators", false, "Do not start the synthetic activity loops")
	return cmd
}

func generatorConfig(cfg *config.Config) generator.Config {
	gc := generator.DefaultConfig()
	gc.ActivityMinInterval = cfg.Generator.ActivityMinInterval
	gc.ActivityMaxInterval = cfg.Generator.ActivityMaxInterval
	gc.RecommendationMinInterval = cfg.Generator.RecommendationMinInterval
	gc.RecommendationMaxInterval = cfg.Generator.RecommendationMaxInterval
	gc.RecommendationProbability = cfg.Generator.RecommendationProbability
	return gc
}

// serve runs until ctx is cancelled or a component fails.
func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)
	collector := metrics.New()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	eng := newEngine(cfg, st, logger, collector)
	defer func() {
		if err := eng.shutdown(cfg.Server.ShutdownTimeout); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	var tasks []evolution.Task
	if cfg.Generator.Enabled {
		gen := generator.New(eng, generatorConfig(cfg),
			generator.WithRand(newRand(cfg)),
			generator.WithLogger(logger),
			generator.WithObserver(collector))
		tasks = gen.Tasks()
	}
	if err := eng.Initialize(ctx, tasks...); err != nil {
		return fmt.Errorf("failed to initialize evolution: %w", err)
	}

	workspaces, err := collaboration.NewStore(cfg.CollaborationDir(), collaboration.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open collaboration store: %w", err)
	}

	router := newRouter(cfg, logger, collector)
	srv := httpapi.New(eng,
		httpapi.WithAI(router),
		httpapi.WithCollaboration(workspaces),
		httpapi.WithReports(report.New(eng, router, report.WithLogger(logger))),
		httpapi.WithMetrics(collector),
		httpapi.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		httpapi.WithLogger(logger),
		httpapi.WithVersion(version),
		httpapi.WithAddr(cfg.Server.Addr),
		httpapi.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	policy, err := retentionPolicy(cfg)
	if err != nil {
		return err
	}
	sched, err := backup.NewScheduler(eng, cfg.BackupDir(), cfg.Backup.Schedule,
		backup.WithCompression(cfg.Backup.Compress),
		backup.WithRetention(policy),
		backup.WithSchedulerLogger(logger),
		backup.WithSchedulerObserver(collector))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	g.Go(func() error { return sched.Run(gctx) })

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("lumaura stopped")
	return err
}
