package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	SyncNone   = "none"
	SyncHTTP   = "http"
	SyncSQLite = "sqlite"
)

type Config struct {
	DataDir    string
	Backend    string
	DBPath     string
	JournalDir string
	Timezone   string
	Location   *time.Location

	Log      LogConfig
	Energy   EnergyConfig
	Forecast ForecastConfig
	AI       AIConfig
	Sync     SyncConfig
	Metrics  MetricsConfig
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// EnergyConfig is the single canonical banding used by the classifier, the
// check-in feedback and the negotiation trigger.
type EnergyConfig struct {
	SurvivalMax  float64
	ExpansionMin float64
}

type ForecastConfig struct {
	MinSamples int
}

type AIConfig struct {
	Enabled           bool
	BaseURL           string
	Model             string
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
}

type SyncConfig struct {
	Target      string
	Endpoint    string
	Token       string
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	QueueSize   int
	BatchSize   int

	// PushesPerSecond paces sink calls; zero disables pacing.
	PushesPerSecond float64
}

type MetricsConfig struct {
	Addr string
}

// DefaultDataDir returns ~/.flux, falling back to ./.flux without a home dir.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flux"
	}
	return filepath.Join(home, ".flux")
}

// NewViper returns a viper instance carrying defaults and FLUX_* env bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("backend", BackendFile)
	v.SetDefault("timezone", "Local")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("energy.survival_max", 30.0)
	v.SetDefault("energy.expansion_min", 70.0)
	v.SetDefault("forecast.min_samples", 5)
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", 15*time.Second)
	v.SetDefault("ai.requests_per_minute", 20)
	v.SetDefault("sync.target", SyncNone)
	v.SetDefault("sync.max_attempts", 5)
	v.SetDefault("sync.backoff_base", 500*time.Millisecond)
	v.SetDefault("sync.backoff_max", 30*time.Second)
	v.SetDefault("sync.queue_size", 256)
	v.SetDefault("sync.batch_size", 32)
	v.SetDefault("sync.pushes_per_second", 2.0)
	v.SetDefault("metrics.addr", "")

	v.SetEnvPrefix("flux")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges flux.yaml into v. An explicit path must exist; otherwise the
// data dir is searched and a missing file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
	v.SetConfigName("flux")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func FromViper(v *viper.Viper) (Config, error) {
	dataDir := strings.TrimSpace(v.GetString("data_dir"))
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := Config{
		DataDir:    dataDir,
		Backend:    strings.ToLower(v.GetString("backend")),
		DBPath:     filepath.Join(dataDir, "flux.db"),
		JournalDir: filepath.Join(dataDir, "journal"),
		Timezone:   v.GetString("timezone"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
		Energy: EnergyConfig{
			SurvivalMax:  v.GetFloat64("energy.survival_max"),
			ExpansionMin: v.GetFloat64("energy.expansion_min"),
		},
		Forecast: ForecastConfig{MinSamples: v.GetInt("forecast.min_samples")},
		AI: AIConfig{
			Enabled:           v.GetBool("ai.enabled"),
			BaseURL:           v.GetString("ai.base_url"),
			Model:             v.GetString("ai.model"),
			APIKey:            v.GetString("ai.api_key"),
			Timeout:           v.GetDuration("ai.timeout"),
			RequestsPerMinute: v.GetInt("ai.requests_per_minute"),
		},
		Sync: SyncConfig{
			Target:      strings.ToLower(v.GetString("sync.target")),
			Endpoint:    v.GetString("sync.endpoint"),
			Token:       v.GetString("sync.token"),
			MaxAttempts: v.GetInt("sync.max_attempts"),
			BackoffBase: v.GetDuration("sync.backoff_base"),
			BackoffMax:  v.GetDuration("sync.backoff_max"),
			QueueSize:   v.GetInt("sync.queue_size"),
			BatchSize:   v.GetInt("sync.batch_size"),

			PushesPerSecond: v.GetFloat64("sync.pushes_per_second"),
		},
		Metrics: MetricsConfig{Addr: v.GetString("metrics.addr")},
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// New returns the default configuration rooted at dataDir.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	v := NewViper()
	v.Set("data_dir", dataDir)
	return FromViper(v)
}

// MirrorPath is the SQLite file the sqlite sync target replicates into.
func (c Config) MirrorPath() string {
	return filepath.Join(c.DataDir, "mirror.db")
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}
	if c.Energy.SurvivalMax < 0 || c.Energy.ExpansionMin > 100 || c.Energy.SurvivalMax >= c.Energy.ExpansionMin {
		return fmt.Errorf("invalid energy banding: survival_max=%v expansion_min=%v", c.Energy.SurvivalMax, c.Energy.ExpansionMin)
	}
	if c.Forecast.MinSamples < 1 {
		return fmt.Errorf("forecast.min_samples must be positive")
	}
	switch c.Sync.Target {
	case SyncNone, SyncSQLite:
	case SyncHTTP:
		if strings.TrimSpace(c.Sync.Endpoint) == "" {
			return fmt.Errorf("sync.endpoint is required for http sync")
		}
	default:
		return fmt.Errorf("unsupported sync target %q", c.Sync.Target)
	}
	if c.AI.Enabled && strings.TrimSpace(c.AI.APIKey) == "" {
		return fmt.Errorf("ai.api_key is required when ai.enabled is set")
	}
	return nil
}
