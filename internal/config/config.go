package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ttlstore/internal/store"
)

// Default values for the configuration file.
const (
	DefaultTTLMs          = 30 * 60 * 1000
	DefaultMinQueueTimeMs = 1000
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Config is the top-level configuration file.
type Config struct {
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

// StoreConfig mirrors the store's construction options.
type StoreConfig struct {
	// EmitEvents is the master switch for notifications (default true).
	EmitEvents bool `yaml:"emit_events"`

	// EmitGetEvents publishes an extra event on every fresh read (default false).
	EmitGetEvents bool `yaml:"emit_get_events"`

	// TTLMs is the default time to live of an entry (default 30 minutes).
	// 0 keeps the store's built-in default.
	TTLMs int64 `yaml:"ttl_ms"`

	// MinQueueTimeMs is the minimum spacing between two sweeps (default 1000).
	MinQueueTimeMs int64 `yaml:"min_queue_time_ms"`

	// MaxQueueTimeMs forces a sweep request at least this often. 0 disables it.
	MaxQueueTimeMs int64 `yaml:"max_queue_time_ms"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: text | json.
	Format string `yaml:"format"`
}

// Load reads and parses the config file at path.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			EmitEvents:     true,
			TTLMs:          DefaultTTLMs,
			MinQueueTimeMs: DefaultMinQueueTimeMs,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

func validate(cfg *Config) error {
	if cfg.Store.TTLMs < 0 {
		return fmt.Errorf("store.ttl_ms must not be negative")
	}
	if cfg.Store.MinQueueTimeMs < 0 {
		return fmt.Errorf("store.min_queue_time_ms must not be negative")
	}
	if cfg.Store.MaxQueueTimeMs < 0 {
		return fmt.Errorf("store.max_queue_time_ms must not be negative")
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return err
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q unknown: want text|json", cfg.Log.Format)
	}
	return nil
}

// Options converts the file settings into store.Config.
// Emitter and Logger are left for the caller to inject.
func (c StoreConfig) Options() store.Config {
	return store.Config{
		EmitEvents:       c.EmitEvents,
		EmitGetEvents:    c.EmitGetEvents,
		TTL:              ms(c.TTLMs),
		MinSweepInterval: ms(c.MinQueueTimeMs),
		MaxSweepInterval: ms(c.MaxQueueTimeMs),
	}
}

func ms(n int64) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// NewLogger builds the slog.Logger described by c, writing to w.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level %q unknown: want debug|info|warn|error", s)
}
