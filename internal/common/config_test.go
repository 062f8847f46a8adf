package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Detectors.BreakoutLookback)
	assert.Equal(t, 20, cfg.Detectors.VolumeWindow)
	assert.InDelta(t, 3.0, cfg.Detectors.VolumeSurgeRatio, 1e-12)
	assert.InDelta(t, 5.0, cfg.Detectors.VolumeStrongRatio, 1e-12)
	assert.InDelta(t, 30.0, cfg.Detectors.RSIOversold, 1e-12)
	assert.InDelta(t, 1_000_000.0, cfg.Detectors.InstitutionalFloor, 1e-6)
	assert.Equal(t, 20, cfg.Risk.VolatilityWindow)
	assert.Equal(t, 1, cfg.Risk.HoldingPeriodDays)
	assert.InDelta(t, 0.05, cfg.Risk.RebalanceBand, 1e-12)
	assert.Equal(t, "SPY", cfg.Risk.Benchmark)
	assert.Equal(t, 5, cfg.Stress.TopK)
	assert.Equal(t, 8, cfg.Scan.Concurrency)
	assert.Equal(t, 10000, cfg.Cache.MaxEntries)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketlens.toml")
	content := `environment = "production"
universe = ["ACME", "BOLT"]

[logging]
level = "warn"

[detectors]
breakout_lookback = 80
institutional_floor = 2500000.0

[risk]
benchmark = "VTI"

[cache]
risk_ttl = "30m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, []string{"ACME", "BOLT"}, cfg.Universe)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 80, cfg.Detectors.BreakoutLookback)
	assert.InDelta(t, 2_500_000.0, cfg.Detectors.InstitutionalFloor, 1e-6)
	assert.Equal(t, "VTI", cfg.Risk.Benchmark)
	assert.Equal(t, "30m", cfg.Cache.RiskTTL)

	// unset keys keep their defaults
	assert.InDelta(t, 1.5, cfg.Detectors.BreakoutVolumeRatio, 1e-12)
	assert.Equal(t, "1h", cfg.Cache.OpportunityTTL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MARKETLENS_LOG_LEVEL", "debug")
	t.Setenv("MARKETLENS_DATA_PATH", "/var/lib/marketlens")
	t.Setenv("MARKETLENS_METRICS_ENABLED", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/var/lib/marketlens", cfg.Storage.MarketDataPath)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted rsi bands", func(c *Config) { c.Detectors.RSIOversold = 80; c.Detectors.RSIOverbought = 20 }},
		{"volume ratios inverted", func(c *Config) { c.Detectors.VolumeStrongRatio = 2; c.Detectors.VolumeSurgeRatio = 4 }},
		{"breakout ratio below one", func(c *Config) { c.Detectors.BreakoutVolumeRatio = 0.5 }},
		{"rebalance band out of range", func(c *Config) { c.Risk.RebalanceBand = 1.5 }},
		{"zero concurrency", func(c *Config) { c.Scan.Concurrency = 0 }},
		{"zero top k", func(c *Config) { c.Stress.TopK = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetTTL(t *testing.T) {
	assert.Equal(t, int64(1800), int64(GetTTL("30m", 0).Seconds()))
	assert.Equal(t, int64(60), int64(GetTTL("garbage", GetTTL("1m", 0)).Seconds()))
}
