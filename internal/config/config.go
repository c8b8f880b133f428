// Package config loads capex-lab configuration from YAML, .env and CAPEX_* variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"capex-lab/internal/analysis"
	"capex-lab/internal/domain"
	"capex-lab/internal/logging"
	"capex-lab/internal/simulation"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen          string        `yaml:"listen" validate:"required"`
	Mode            string        `yaml:"mode" validate:"omitempty,oneof=debug release test"`
	RequestTimeout  time.Duration `yaml:"request-timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" validate:"gt=0"`
}

// SimulationConfig holds engine tuning and the defaults of an analysis request.
type SimulationConfig struct {
	Workers   int     `yaml:"workers" validate:"gte=0"`
	BlockSize int     `yaml:"block-size" validate:"gte=0"`
	Sampling  string  `yaml:"sampling" validate:"omitempty,oneof=POOLED PER_TRADER"`
	Seed      *uint64 `yaml:"seed"`

	Mode      string                     `yaml:"mode" validate:"oneof=AVERAGE_SIMULATED RANDOMIZED"`
	Params    domain.PopulationParams    `yaml:"params"`
	Financial domain.FinancialParameters `yaml:"financial"`
}

// CacheConfig configures the seeded-result LRU.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size" validate:"required_if=Enabled true,gte=0"`
}

// StorageConfig holds optional export sink DSNs. Empty disables a sink.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres-dsn"`
	ClickhouseDSN string `yaml:"clickhouse-dsn"`
}

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        logging.Config   `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:          ":8080",
			Mode:            "release",
			RequestTimeout:  2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Simulation: SimulationConfig{
			BlockSize: simulation.DefaultBlockSize,
			Sampling:  string(simulation.SamplingPooled),
			Mode:      string(domain.ModeAverageSimulated),
			Params:    domain.PopulationParams{Average: 20, Low: 5, High: 15},
			Financial: domain.DefaultFinancialParameters,
		},
		Cache: CacheConfig{Enabled: true, Size: 128},
		Log:   logging.DefaultConfig(),
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if any),
// then .env, then CAPEX_* environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config yaml: %w", err)
		}
	}

	// Existing variables win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// envOverride binds one CAPEX_* variable to a setter.
type envOverride struct {
	key string
	set func(c *Config, v string) error
}

var envOverrides = []envOverride{
	{"CAPEX_LISTEN", func(c *Config, v string) error { c.Server.Listen = v; return nil }},
	{"CAPEX_GIN_MODE", func(c *Config, v string) error { c.Server.Mode = v; return nil }},
	{"CAPEX_REQUEST_TIMEOUT", func(c *Config, v string) (err error) {
		c.Server.RequestTimeout, err = cast.ToDurationE(v)
		return err
	}},
	{"CAPEX_WORKERS", func(c *Config, v string) (err error) {
		c.Simulation.Workers, err = cast.ToIntE(v)
		return err
	}},
	{"CAPEX_BLOCK_SIZE", func(c *Config, v string) (err error) {
		c.Simulation.BlockSize, err = cast.ToIntE(v)
		return err
	}},
	{"CAPEX_SAMPLING", func(c *Config, v string) error { c.Simulation.Sampling = v; return nil }},
	{"CAPEX_SEED", func(c *Config, v string) error {
		seed, err := ParseSeed(v)
		if err != nil {
			return err
		}
		c.Simulation.Seed = seed
		return nil
	}},
	{"CAPEX_SIMULATIONS", func(c *Config, v string) (err error) {
		c.Simulation.Financial.Simulations, err = cast.ToIntE(v)
		return err
	}},
	{"CAPEX_TRADER_COUNT", func(c *Config, v string) (err error) {
		c.Simulation.Financial.TraderCount, err = cast.ToIntE(v)
		return err
	}},
	{"CAPEX_CACHE_ENABLED", func(c *Config, v string) (err error) {
		c.Cache.Enabled, err = cast.ToBoolE(v)
		return err
	}},
	{"CAPEX_CACHE_SIZE", func(c *Config, v string) (err error) {
		c.Cache.Size, err = cast.ToIntE(v)
		return err
	}},
	{"CAPEX_POSTGRES_DSN", func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil }},
	{"CAPEX_CLICKHOUSE_DSN", func(c *Config, v string) error { c.Storage.ClickhouseDSN = v; return nil }},
	{"CAPEX_LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"CAPEX_LOG_FILE", func(c *Config, v string) error { c.Log.FileName = v; return nil }},
}

// ParseSeed parses a decimal seed over the full uint64 range. Empty means unseeded.
func ParseSeed(s string) (*uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: seed %q: %w", domain.ErrInvalidParameter, s, err)
	}
	return &v, nil
}

// FormatSeed is the inverse of ParseSeed.
func FormatSeed(seed *uint64) string {
	if seed == nil {
		return ""
	}
	return strconv.FormatUint(*seed, 10)
}

// applyEnv applies every set CAPEX_* variable. Parse failures are collected.
func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	var errs error
	for _, o := range envOverrides {
		v, ok := lookup(o.key)
		if !ok || v == "" {
			continue
		}
		if err := o.set(c, v); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", o.key, err))
		}
	}
	return errs
}

// EngineOptions returns engine tuning without a cache or logger.
func (c *Config) EngineOptions() simulation.EngineOptions {
	return simulation.EngineOptions{
		Workers:   c.Simulation.Workers,
		BlockSize: c.Simulation.BlockSize,
	}
}

// AnalysisRequest returns the default analysis request described by the config.
func (c *Config) AnalysisRequest() analysis.Request {
	return analysis.Request{
		Mode:      domain.DistributionMode(c.Simulation.Mode),
		Params:    c.Simulation.Params,
		Financial: c.Simulation.Financial,
		Seed:      c.Simulation.Seed,
		Sampling:  simulation.Sampling(c.Simulation.Sampling),
	}
}
