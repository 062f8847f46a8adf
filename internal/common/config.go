// Package common provides shared utilities for MarketLens
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for MarketLens
type Config struct {
	Environment string           `toml:"environment"`
	Universe    []string         `toml:"universe"` // symbols scanned by the batch scanner
	Logging     LoggingConfig    `toml:"logging"`
	Storage     StorageConfig    `toml:"storage"`
	Cache       CacheConfig      `toml:"cache"`
	Detectors   DetectorConfig   `toml:"detectors"`
	Risk        RiskConfig       `toml:"risk"`
	Alerts      AlertsConfig     `toml:"alerts"`
	Stress      StressConfig     `toml:"stress"`
	Scan        ScanConfig       `toml:"scan"`
	Metrics     MetricsConfig    `toml:"metrics"`
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Level string `toml:"level"`
}

// StorageConfig holds the market data store location
type StorageConfig struct {
	MarketDataPath string `toml:"market_data_path"`
}

// CacheConfig holds per-computation-kind TTLs as duration strings
type CacheConfig struct {
	QuoteTTL       string `toml:"quote_ttl"`
	IndicatorTTL   string `toml:"indicator_ttl"`
	OpportunityTTL string `toml:"opportunity_ttl"`
	RiskTTL        string `toml:"risk_ttl"`
	StressTTL      string `toml:"stress_ttl"`
	MaxEntries     int    `toml:"max_entries"`
}

// GetTTL parses a duration string with a fallback default.
func GetTTL(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// DetectorConfig holds opportunity detector thresholds
type DetectorConfig struct {
	BreakoutLookback      int     `toml:"breakout_lookback"`       // sessions scanned for resistance levels
	BreakoutMinSeparation int     `toml:"breakout_min_separation"` // min sessions between local extrema
	BreakoutVolumeRatio   float64 `toml:"breakout_volume_ratio"`   // volume confirm multiple
	VolumeWindow          int     `toml:"volume_window"`           // average-volume window
	VolumeSurgeRatio      float64 `toml:"volume_surge_ratio"`
	VolumeStrongRatio     float64 `toml:"volume_strong_ratio"`
	VolumeSurgeReturn     float64 `toml:"volume_surge_return"` // same-day return floor, fraction
	RSIOversold           float64 `toml:"rsi_oversold"`
	RSIOverbought         float64 `toml:"rsi_overbought"`
	InstitutionalFloor    float64 `toml:"institutional_floor"` // min trade notional
	IVDiscountRatio       float64 `toml:"iv_discount_ratio"`   // avg IV below this multiple of hist vol
	IVPremiumRatio        float64 `toml:"iv_premium_ratio"`
	HistVolWindow         int     `toml:"hist_vol_window"`
}

// RiskConfig holds risk engine parameters
type RiskConfig struct {
	VolatilityWindow  int     `toml:"volatility_window"`
	HoldingPeriodDays int     `toml:"holding_period_days"`
	RiskFreeRate      float64 `toml:"risk_free_rate"`
	RebalanceBand     float64 `toml:"rebalance_band"` // weight drift threshold, fraction
	Benchmark         string  `toml:"benchmark"`      // symbol betas are regressed against
}

// AlertsConfig holds the alert rule source
type AlertsConfig struct {
	RulesPath string `toml:"rules_path"` // optional YAML rules file; defaults apply when empty
}

// StressConfig holds stress runner parameters
type StressConfig struct {
	ScenariosPath string `toml:"scenarios_path"` // optional YAML scenario file appended to the built-in library
	TopK          int    `toml:"top_k"`
}

// ScanConfig holds batch scan settings
type ScanConfig struct {
	Schedule    string `toml:"schedule"` // cron expression
	Concurrency int    `toml:"concurrency"`
	RatePerSec  int    `toml:"rate_per_sec"`
	Timeout     string `toml:"timeout"`
}

// GetTimeout parses and returns the batch scan timeout
func (c *ScanConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// MetricsConfig holds the Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// LoadConfig reads a TOML config file, applies defaults and environment
// overrides. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Storage.MarketDataPath == "" {
		c.Storage.MarketDataPath = "./data/market"
	}
	if c.Cache.QuoteTTL == "" {
		c.Cache.QuoteTTL = "30s"
	}
	if c.Cache.IndicatorTTL == "" {
		c.Cache.IndicatorTTL = "15m"
	}
	if c.Cache.OpportunityTTL == "" {
		c.Cache.OpportunityTTL = "1h"
	}
	if c.Cache.RiskTTL == "" {
		c.Cache.RiskTTL = "1h"
	}
	if c.Cache.StressTTL == "" {
		c.Cache.StressTTL = "4h"
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 10000
	}

	if c.Detectors.BreakoutLookback == 0 {
		c.Detectors.BreakoutLookback = 50
	}
	if c.Detectors.BreakoutMinSeparation == 0 {
		c.Detectors.BreakoutMinSeparation = 3
	}
	if c.Detectors.BreakoutVolumeRatio == 0 {
		c.Detectors.BreakoutVolumeRatio = 1.5
	}
	if c.Detectors.VolumeWindow == 0 {
		c.Detectors.VolumeWindow = 20
	}
	if c.Detectors.VolumeSurgeRatio == 0 {
		c.Detectors.VolumeSurgeRatio = 3.0
	}
	if c.Detectors.VolumeStrongRatio == 0 {
		c.Detectors.VolumeStrongRatio = 5.0
	}
	if c.Detectors.VolumeSurgeReturn == 0 {
		c.Detectors.VolumeSurgeReturn = 0.05
	}
	if c.Detectors.RSIOversold == 0 {
		c.Detectors.RSIOversold = 30
	}
	if c.Detectors.RSIOverbought == 0 {
		c.Detectors.RSIOverbought = 70
	}
	if c.Detectors.InstitutionalFloor == 0 {
		c.Detectors.InstitutionalFloor = 1_000_000
	}
	if c.Detectors.IVDiscountRatio == 0 {
		c.Detectors.IVDiscountRatio = 0.8
	}
	if c.Detectors.IVPremiumRatio == 0 {
		c.Detectors.IVPremiumRatio = 1.25
	}
	if c.Detectors.HistVolWindow == 0 {
		c.Detectors.HistVolWindow = 30
	}

	if c.Risk.VolatilityWindow == 0 {
		c.Risk.VolatilityWindow = 20
	}
	if c.Risk.HoldingPeriodDays == 0 {
		c.Risk.HoldingPeriodDays = 1
	}
	if c.Risk.RiskFreeRate == 0 {
		c.Risk.RiskFreeRate = 0.02
	}
	if c.Risk.RebalanceBand == 0 {
		c.Risk.RebalanceBand = 0.05
	}
	if c.Risk.Benchmark == "" {
		c.Risk.Benchmark = "SPY"
	}

	if c.Stress.TopK == 0 {
		c.Stress.TopK = 5
	}

	if c.Scan.Schedule == "" {
		c.Scan.Schedule = "0 */30 * * * *" // every 30 minutes
	}
	if c.Scan.Concurrency == 0 {
		c.Scan.Concurrency = 8
	}
	if c.Scan.RatePerSec == 0 {
		c.Scan.RatePerSec = 50
	}
	if c.Scan.Timeout == "" {
		c.Scan.Timeout = "2m"
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MARKETLENS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MARKETLENS_DATA_PATH"); v != "" {
		c.Storage.MarketDataPath = v
	}
	if v := os.Getenv("MARKETLENS_SCAN_SCHEDULE"); v != "" {
		c.Scan.Schedule = v
	}
	if v := os.Getenv("MARKETLENS_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Metrics.Enabled = b
		}
	}
}

// Validate rejects impossible settings early.
func (c *Config) Validate() error {
	if c.Detectors.BreakoutVolumeRatio < 1 {
		return fmt.Errorf("detectors.breakout_volume_ratio must be >= 1, got %v", c.Detectors.BreakoutVolumeRatio)
	}
	if c.Detectors.VolumeStrongRatio < c.Detectors.VolumeSurgeRatio {
		return fmt.Errorf("detectors.volume_strong_ratio must be >= volume_surge_ratio")
	}
	if c.Detectors.RSIOversold >= c.Detectors.RSIOverbought {
		return fmt.Errorf("detectors.rsi_oversold must be below rsi_overbought")
	}
	if c.Risk.RebalanceBand <= 0 || c.Risk.RebalanceBand >= 1 {
		return fmt.Errorf("risk.rebalance_band must be in (0, 1), got %v", c.Risk.RebalanceBand)
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be >= 1")
	}
	if c.Stress.TopK < 1 {
		return fmt.Errorf("stress.top_k must be >= 1")
	}
	return nil
}
