// Package config provides unified configuration loading for the Lumaura
// evolution service. It supports .env files, YAML files and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/constants"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/tiering"
)

// Config contains all service configuration settings.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `json:"server" yaml:"server"`

	// Evolution configures scoring and persistence sampling.
	Evolution EvolutionConfig `json:"evolution" yaml:"evolution"`

	// Generator configures the background activity and recommendation loops.
	Generator GeneratorConfig `json:"generator" yaml:"generator"`

	// Store selects the snapshot backend.
	Store StoreConfig `json:"store" yaml:"store"`

	// Backup configures scheduled snapshot backups.
	Backup BackupConfig `json:"backup" yaml:"backup"`

	// Collaboration configures the shared workspace store.
	Collaboration CollaborationConfig `json:"collaboration" yaml:"collaboration"`

	// AI configures the text generation providers.
	AI AIConfig `json:"ai" yaml:"ai"`

	// Logging contains settings for operational logging and the event journal.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":5000".
	Addr string `json:"addr" yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// RateLimit is the sustained requests per second allowed per client IP.
	// 0 disables rate limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// RateBurst is the per-client burst size.
	RateBurst int `json:"rate_burst" yaml:"rate_burst"`
}

// EvolutionConfig configures the coordinator.
type EvolutionConfig struct {
	// SaveProbability is the chance that a recorded activity persists a
	// snapshot. 1.0 writes through on every activity.
	SaveProbability float64 `json:"save_probability" yaml:"save_probability"`

	// ActivityCapacity is how many recent activities each portal retains.
	ActivityCapacity int `json:"activity_capacity" yaml:"activity_capacity"`

	// Tiers holds the score thresholds for Advanced and Mastery.
	Tiers tiering.TierConfig `json:"tiers" yaml:"tiers"`

	// Seed makes the random source deterministic when non-zero.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// GeneratorConfig configures the synthetic activity loops.
type GeneratorConfig struct {
	// Enabled starts the loops with the serve command.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ActivityMinInterval and ActivityMaxInterval bound the wait between
	// synthetic activities.
	ActivityMinInterval time.Duration `json:"activity_min_interval" yaml:"activity_min_interval"`
	ActivityMaxInterval time.Duration `json:"activity_max_interval" yaml:"activity_max_interval"`

	// RecommendationMinInterval and RecommendationMaxInterval bound the wait
	// between recommendation rounds.
	RecommendationMinInterval time.Duration `json:"recommendation_min_interval" yaml:"recommendation_min_interval"`
	RecommendationMaxInterval time.Duration `json:"recommendation_max_interval" yaml:"recommendation_max_interval"`

	// RecommendationProbability is the per-round chance of a recommendation.
	RecommendationProbability float64 `json:"recommendation_probability" yaml:"recommendation_probability"`
}

// StoreConfig selects the snapshot backend.
type StoreConfig struct {
	// Backend is one of "file" (default), "sqlite", "redis" or "memory".
	Backend string `json:"backend" yaml:"backend"`

	// DataDir holds snapshots, the journal and the MCP audit log.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Path overrides the backend file inside DataDir.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Redis configures the redis backend.
	Redis RedisConfig `json:"redis" yaml:"redis"`
}

// RedisConfig configures the redis snapshot backend.
type RedisConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	// Password supports ${VAR} syntax for env vars.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	DB  int    `json:"db" yaml:"db"`
	Key string `json:"key" yaml:"key"`
}

// BackupConfig configures snapshot backups.
type BackupConfig struct {
	// Dir is where backups are written. Empty means <data_dir>/backups.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Schedule is a cron expression (robfig/cron syntax, including
	// descriptors like "@hourly"). Empty disables scheduled backups.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`

	// Compress writes gzip V2 backups when true.
	Compress bool `json:"compress" yaml:"compress"`

	// MaxCount keeps at most this many backups. 0 means unlimited.
	MaxCount int `json:"max_count" yaml:"max_count"`

	// MaxAge removes backups older than this, e.g. "30d". Empty means no limit.
	MaxAge string `json:"max_age,omitempty" yaml:"max_age,omitempty"`

	// MaxTotalSize caps the total size of kept backups, e.g. "100MB".
	MaxTotalSize string `json:"max_total_size,omitempty" yaml:"max_total_size,omitempty"`
}

// CollaborationConfig locates the workspace files.
type CollaborationConfig struct {
	// Dir holds one JSON file per workspace. Empty means <data_dir>/collaboration.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// AIConfig configures text generation providers.
type AIConfig struct {
	// Enabled turns AI routes and reports on. When false they use the
	// synthetic fallback.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// DefaultProvider is tried first when a request names no provider:
	// "openai", "anthropic", "gemini", or "" for use-case ordering.
	DefaultProvider string `json:"default_provider,omitempty" yaml:"default_provider,omitempty"`

	// Timeout bounds each provider call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	OpenAI    ProviderConfig `json:"openai" yaml:"openai"`
	Anthropic ProviderConfig `json:"anthropic" yaml:"anthropic"`
	Gemini    ProviderConfig `json:"gemini" yaml:"gemini"`
}

// ProviderConfig configures one AI provider.
type ProviderConfig struct {
	// APIKey is the API key for the provider. Supports ${VAR} syntax for env vars.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the model name.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// BaseURL overrides the API endpoint, e.g. for OpenAI-compatible servers.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// RedactedAPIKey returns the API key with most characters masked.
// Shows first 4 and last 4 characters, e.g., "sk-a...xyz9".
// Returns "" for empty keys and "(set)" for keys shorter than 12 chars.
func (c ProviderConfig) RedactedAPIKey() string {
	return redact(c.APIKey)
}

// String implements fmt.Stringer to prevent accidental API key logging.
func (c ProviderConfig) String() string {
	return fmt.Sprintf("{Model:%s APIKey:%s BaseURL:%s}", c.Model, c.RedactedAPIKey(), c.BaseURL)
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "error", "warn", "info" (default),
	// "debug", or "trace". "debug" and "trace" also open the event journal
	// at <data_dir>/events.jsonl.
	Level string `json:"level" yaml:"level"`

	// Format is "text" (default) or "json".
	Format string `json:"format" yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			ShutdownTimeout: 5 * time.Second,
			RateLimit:       10,
			RateBurst:       20,
		},
		Evolution: EvolutionConfig{
			SaveProbability:  constants.DefaultSaveProbability,
			ActivityCapacity: constants.DefaultActivityCapacity,
			Tiers:            tiering.DefaultTierConfig(),
		},
		Generator: GeneratorConfig{
			Enabled:                   true,
			ActivityMinInterval:       constants.ActivityMinInterval,
			ActivityMaxInterval:       constants.ActivityMaxInterval,
			RecommendationMinInterval: constants.RecommendationMinInterval,
			RecommendationMaxInterval: constants.RecommendationMaxInterval,
			RecommendationProbability: constants.RecommendationProbability,
		},
		Store: StoreConfig{
			Backend: "file",
			DataDir: constants.DefaultDataDir,
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "lumaura:portal_evolution:snapshot",
			},
		},
		Backup: BackupConfig{
			Compress: true,
			MaxCount: 10,
		},
		AI: AIConfig{
			Enabled: true,
			Timeout: 30 * time.Second,
			OpenAI: ProviderConfig{
				Model: "gpt-4o",
			},
			Anthropic: ProviderConfig{
				Model: "claude-3-5-sonnet-20241022",
			},
			Gemini: ProviderConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPaths lists the config files Load tries when no path is given.
func DefaultPaths() []string {
	paths := []string{"lumaura.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".lumaura", "config.yaml"))
	}
	return paths
}

// Load builds the effective configuration.
// Order: defaults -> .env -> YAML file -> environment variables.
// An empty path tries DefaultPaths and silently skips missing files;
// an explicit path must exist.
func Load(path string) (*Config, error) {
	// .env only fills variables that are not already set
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	config := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	} else {
		for _, candidate := range DefaultPaths() {
			if _, statErr := os.Stat(candidate); statErr != nil {
				continue
			}
			fileConfig, err := LoadFromFile(candidate)
			if err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
			config = fileConfig
			break
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file on top of defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Expand environment variables in secrets
	config.AI.OpenAI.APIKey = expandEnvVars(config.AI.OpenAI.APIKey)
	config.AI.Anthropic.APIKey = expandEnvVars(config.AI.Anthropic.APIKey)
	config.AI.Gemini.APIKey = expandEnvVars(config.AI.Gemini.APIKey)
	config.Store.Redis.Password = expandEnvVars(config.Store.Redis.Password)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be non-negative, got %v", c.Server.ShutdownTimeout)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be non-negative, got %f", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("server.rate_burst must be at least 1 when rate limiting, got %d", c.Server.RateBurst)
	}

	if c.Evolution.SaveProbability < 0 || c.Evolution.SaveProbability > 1 {
		return fmt.Errorf("evolution.save_probability must be between 0 and 1, got %f", c.Evolution.SaveProbability)
	}
	if c.Evolution.ActivityCapacity < 1 {
		return fmt.Errorf("evolution.activity_capacity must be at least 1, got %d", c.Evolution.ActivityCapacity)
	}
	if err := c.Evolution.Tiers.Validate(); err != nil {
		return fmt.Errorf("evolution.tiers: %w", err)
	}

	g := c.Generator
	if g.ActivityMinInterval <= 0 || g.ActivityMaxInterval < g.ActivityMinInterval {
		return fmt.Errorf("generator activity interval must satisfy 0 < min <= max, got %v..%v", g.ActivityMinInterval, g.ActivityMaxInterval)
	}
	if g.RecommendationMinInterval <= 0 || g.RecommendationMaxInterval < g.RecommendationMinInterval {
		return fmt.Errorf("generator recommendation interval must satisfy 0 < min <= max, got %v..%v", g.RecommendationMinInterval, g.RecommendationMaxInterval)
	}
	if g.RecommendationProbability <= 0 || g.RecommendationProbability > 1 {
		return fmt.Errorf("generator.recommendation_probability must be in (0, 1], got %f", g.RecommendationProbability)
	}

	validBackends := map[string]bool{"": true, "file": true, "sqlite": true, "redis": true, "memory": true}
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("invalid store backend: %s (valid: file, sqlite, redis, memory)", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr is required for the redis backend")
	}

	if c.Backup.MaxCount < 0 {
		return fmt.Errorf("backup.max_count must be non-negative, got %d", c.Backup.MaxCount)
	}

	validProviders := map[string]bool{"": true, "openai": true, "anthropic": true, "gemini": true}
	if !validProviders[c.AI.DefaultProvider] {
		return fmt.Errorf("invalid AI provider: %s (valid: openai, anthropic, gemini, or empty)", c.AI.DefaultProvider)
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("ai.timeout must be non-negative, got %v", c.AI.Timeout)
	}

	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}
	validFormats := map[string]bool{"": true, "text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	return nil
}

// BackupDir returns the effective backup directory.
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return filepath.Join(c.Store.DataDir, "backups")
}

// CollaborationDir returns the effective workspace directory.
func (c *Config) CollaborationDir() string {
	if c.Collaboration.Dir != "" {
		return c.Collaboration.Dir
	}
	return filepath.Join(c.Store.DataDir, "collaboration")
}

// Redacted returns a copy with every secret masked.
func (c *Config) Redacted() Config {
	redacted := *c
	redacted.AI.OpenAI.APIKey = redact(c.AI.OpenAI.APIKey)
	redacted.AI.Anthropic.APIKey = redact(c.AI.Anthropic.APIKey)
	redacted.AI.Gemini.APIKey = redact(c.AI.Gemini.APIKey)
	redacted.Store.Redis.Password = redact(c.Store.Redis.Password)
	return redacted
}

// String returns a YAML rendering with every secret redacted.
func (c *Config) String() string {
	redacted := c.Redacted()
	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("LUMAURA_ADDR"); v != "" {
		config.Server.Addr = v
	} else if v := os.Getenv("PORT"); v != "" {
		config.Server.Addr = ":" + v
	}

	if v := os.Getenv("LUMAURA_DATA_DIR"); v != "" {
		config.Store.DataDir = v
	}
	if v := os.Getenv("LUMAURA_STORE_BACKEND"); v != "" {
		config.Store.Backend = v
	}
	if v := os.Getenv("LUMAURA_REDIS_ADDR"); v != "" {
		config.Store.Redis.Addr = v
	}
	if v := os.Getenv("LUMAURA_REDIS_PASSWORD"); v != "" {
		config.Store.Redis.Password = v
	}

	if v := os.Getenv("LUMAURA_SAVE_PROBABILITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Evolution.SaveProbability = f
		}
	}
	if v := os.Getenv("LUMAURA_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Evolution.Seed = n
		}
	}

	if v := os.Getenv("LUMAURA_GENERATOR_ENABLED"); v != "" {
		config.Generator.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("LUMAURA_BACKUP_SCHEDULE"); v != "" {
		config.Backup.Schedule = v
	}
	if v := os.Getenv("LUMAURA_BACKUP_DIR"); v != "" {
		config.Backup.Dir = v
	}
	if v := os.Getenv("LUMAURA_COLLABORATION_DIR"); v != "" {
		config.Collaboration.Dir = v
	}

	if v := os.Getenv("LUMAURA_AI_ENABLED"); v != "" {
		config.AI.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("LUMAURA_AI_PROVIDER"); v != "" {
		config.AI.DefaultProvider = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		config.AI.OpenAI.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.AI.Anthropic.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.AI.Gemini.APIKey = v
	}

	if v := os.Getenv("LUMAURA_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("LUMAURA_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) < 12 {
		return "(set)"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
