// Package config loads liquiditymap settings from defaults, a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "LIQUIDITYMAP_"

// Config holds liquiditymap configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Log    LogConfig    `toml:"log"`
}

// LayoutConfig controls the force simulation.
type LayoutConfig struct {
	Width        float64  `toml:"width"`
	Height       float64  `toml:"height"`
	Seed         int64    `toml:"seed"`
	TickInterval Duration `toml:"tick_interval"`
	MaxTicks     int      `toml:"max_ticks"` // offline renders only
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Port       int      `toml:"port"`
	SessionTTL Duration `toml:"session_ttl"`
}

// DataConfig points at replacement catalog and relationship files.
type DataConfig struct {
	Catalog       string `toml:"catalog"`
	Relationships string `toml:"relationships"`
	PolicyNodes   bool   `toml:"policy_nodes"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
	Debug bool   `toml:"debug"`
}

// Duration is a time.Duration written as a Go duration string in TOML
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration such as "16ms"
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			Width:        1200,
			Height:       600,
			Seed:         1,
			TickInterval: Duration{16 * time.Millisecond},
			MaxTicks:     1000,
		},
		Server: ServerConfig{
			Port:       8080,
			SessionTTL: Duration{10 * time.Minute},
		},
		Data: DataConfig{PolicyNodes: true},
		Log:  LogConfig{Level: "info"},
	}
}

// ConfigDir returns the liquiditymap config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "liquiditymap")
}

// DefaultPath is where Load looks when no file is named
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load builds the configuration. An explicitly named file must exist; the default
// file is optional. Env files are loaded next (".env" when none are named) and
// LIQUIDITYMAP_* variables override file values.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			envFiles = []string{".env"}
		}
	}
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			}
		}
	}

	float("WIDTH", &c.Layout.Width)
	float("HEIGHT", &c.Layout.Height)
	if v, ok := os.LookupEnv(EnvPrefix + "SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			c.Layout.Seed = n
		}
	}
	duration("TICK_INTERVAL", &c.Layout.TickInterval)
	integer("MAX_TICKS", &c.Layout.MaxTicks)
	integer("PORT", &c.Server.Port)
	duration("SESSION_TTL", &c.Server.SessionTTL)
	str("CATALOG", &c.Data.Catalog)
	str("RELATIONSHIPS", &c.Data.Relationships)
	boolean("POLICY_NODES", &c.Data.PolicyNodes)
	str("LOG_LEVEL", &c.Log.Level)
	boolean("DEBUG", &c.Log.Debug)

	return errors.Join(errs...)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.Layout.Width <= 0 || c.Layout.Height <= 0 {
		errs = append(errs, fmt.Errorf("layout size must be positive, got %gx%g", c.Layout.Width, c.Layout.Height))
	}
	if c.Layout.TickInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Save writes the config to disk.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
