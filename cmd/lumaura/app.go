package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/backup"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/config"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/llm"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/logging"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/metrics"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/store"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/tiering"
)

// loadConfig reads --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
}

func openStore(ctx context.Context, cfg *config.Config) (store.SnapshotStore, error) {
	st, err := store.Open(ctx, store.Options{
		Backend: cfg.Store.Backend,
		DataDir: cfg.Store.DataDir,
		Path:    cfg.Store.Path,
		Redis: store.RedisOptions{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Key:      cfg.Store.Redis.Key,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// engine is a coordinator with the resources it owns.
type engine struct {
	*evolution.Coordinator
	store   store.SnapshotStore
	journal *logging.Journal
}

// newEngine builds an uninitialized coordinator over st. The journal is only
// opened at debug and trace levels.
func newEngine(cfg *config.Config, st store.SnapshotStore, logger *slog.Logger, m *metrics.Collector) *engine {
	var journal *logging.Journal
	if logging.ParseLevel(cfg.Logging.Level) <= slog.LevelDebug {
		journal = logging.OpenJournal(cfg.Store.DataDir)
	}

	opts := []evolution.Option{
		evolution.WithLogger(logger),
		evolution.WithJournal(journal),
		evolution.WithRand(newRand(cfg)),
		evolution.WithSaveProbability(cfg.Evolution.SaveProbability),
		evolution.WithResolver(tiering.NewResolver(cfg.Evolution.Tiers)),
		evolution.WithHistoryCapacity(cfg.Evolution.ActivityCapacity),
	}
	if m != nil {
		opts = append(opts, evolution.WithObserver(m))
	}

	return &engine{
		Coordinator: evolution.New(st, opts...),
		store:       st,
		journal:     journal,
	}
}

// shutdown stops the coordinator, saving a final snapshot, then releases
// the store and journal.
func (e *engine) shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := e.Stop(ctx)
	e.journal.Close()
	if cerr := e.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newRand(cfg *config.Config) evolution.Rand {
	if cfg.Evolution.Seed != 0 {
		return evolution.NewSeededRand(cfg.Evolution.Seed)
	}
	return evolution.NewLockedRand(nil)
}

// newRouter registers every configured AI provider.
func newRouter(cfg *config.Config, logger *slog.Logger, m *metrics.Collector) *llm.Router {
	opts := []llm.RouterOption{
		llm.WithDefaultProvider(cfg.AI.DefaultProvider),
		llm.WithRouterLogger(logger),
	}
	if m != nil {
		opts = append(opts, llm.WithRouterObserver(m))
	}
	if !cfg.AI.Enabled {
		return llm.NewRouter(nil, opts...)
	}

	providerConfig := func(p config.ProviderConfig) llm.Config {
		return llm.Config{APIKey: p.APIKey, Model: p.Model, BaseURL: p.BaseURL, Timeout: cfg.AI.Timeout}
	}
	providers := []llm.Provider{
		llm.NewOpenAIProvider(providerConfig(cfg.AI.OpenAI)),
		llm.NewAnthropicProvider(providerConfig(cfg.AI.Anthropic)),
		llm.NewGeminiProvider(providerConfig(cfg.AI.Gemini)),
	}
	return llm.NewRouter(providers, opts...)
}

func retentionPolicy(cfg *config.Config) (backup.RetentionPolicy, error) {
	return backup.NewPolicy(cfg.Backup.MaxCount, cfg.Backup.MaxAge, cfg.Backup.MaxTotalSize)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
