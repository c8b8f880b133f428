package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capex-lab/internal/domain"
	"capex-lab/internal/simulation"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	req := cfg.AnalysisRequest()
	assert.Equal(t, domain.ModeAverageSimulated, req.Mode)
	assert.Equal(t, simulation.SamplingPooled, req.Sampling)
	assert.Equal(t, 250, req.Financial.TraderCount)
	assert.Nil(t, req.Seed)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9000"
  request-timeout: 30s
simulation:
  workers: 4
  block-size: 100
  seed: 42
  mode: RANDOMIZED
  params:
    low: 3
    high: 12
  financial:
    trader_count: 100
    simulations: 500
    revenue_per_account: 200
    payout_per_success: 1000
    additional_revenue: 0
cache:
  enabled: false
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 4, cfg.Simulation.Workers)
	assert.Equal(t, 100, cfg.EngineOptions().BlockSize)
	require.NotNil(t, cfg.Simulation.Seed)
	assert.Equal(t, uint64(42), *cfg.Simulation.Seed)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)

	req := cfg.AnalysisRequest()
	assert.Equal(t, domain.ModeRandomized, req.Mode)
	assert.Equal(t, domain.PopulationParams{Average: 20, Low: 3, High: 12}, req.Params)
	assert.Equal(t, 500, req.Financial.Simulations)
	require.NoError(t, req.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CAPEX_LISTEN", ":7070")
	t.Setenv("CAPEX_WORKERS", "2")
	t.Setenv("CAPEX_SEED", "18446744073709551615")
	t.Setenv("CAPEX_CACHE_ENABLED", "false")
	t.Setenv("CAPEX_POSTGRES_DSN", "postgres://u:p@localhost/capex")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Listen)
	assert.Equal(t, 2, cfg.Simulation.Workers)
	require.NotNil(t, cfg.Simulation.Seed)
	assert.Equal(t, ^uint64(0), *cfg.Simulation.Seed)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "postgres://u:p@localhost/capex", cfg.Storage.PostgresDSN)
}

func TestApplyEnv_CollectsErrors(t *testing.T) {
	env := map[string]string{
		"CAPEX_WORKERS":    "many",
		"CAPEX_CACHE_SIZE": "lots",
		"CAPEX_SEED":       "-1",
	}
	cfg := Default()
	err := applyEnv(&cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CAPEX_WORKERS")
	assert.Contains(t, err.Error(), "CAPEX_CACHE_SIZE")
	assert.Contains(t, err.Error(), "CAPEX_SEED")
	assert.Nil(t, cfg.Simulation.Seed)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown sampling", "simulation:\n  sampling: EXACT\n"},
		{"unknown mode", "simulation:\n  mode: GAUSSIAN\n"},
		{"negative workers", "simulation:\n  workers: -1\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"empty listen", "server:\n  listen: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed("")
	require.NoError(t, err)
	assert.Nil(t, seed)

	for _, v := range []uint64{0, 1 << 63, ^uint64(0)} {
		s := FormatSeed(&v)
		got, err := ParseSeed(s)
		require.NoError(t, err, s)
		require.NotNil(t, got)
		assert.Equal(t, v, *got)
	}

	_, err = ParseSeed("-1")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	_, err = ParseSeed("18446744073709551616")
	assert.Error(t, err)
}
