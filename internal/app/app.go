// Package app wires the MarketLens engines into a runnable core
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quantfold/marketlens/internal/alerts"
	"github.com/quantfold/marketlens/internal/cache"
	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/indicators"
	"github.com/quantfold/marketlens/internal/interfaces"
	"github.com/quantfold/marketlens/internal/metrics"
	"github.com/quantfold/marketlens/internal/opportunity"
	"github.com/quantfold/marketlens/internal/risk"
	"github.com/quantfold/marketlens/internal/storage/marketfs"
	"github.com/quantfold/marketlens/internal/stress"
)

// App holds all initialized engines and shared infrastructure. It is the
// core used by cmd/marketlens.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	Store         *marketfs.Store
	Cache         interfaces.ResultCache
	Metrics       *metrics.Recorder
	Indicators    interfaces.IndicatorService
	Opportunities interfaces.OpportunityService
	Risk          interfaces.RiskService
	Alerts        *alerts.Engine
	Stress        interfaces.StressService
	StartupTime   time.Time

	scheduler *scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes config, storage, cache, and every engine. configPath
// may be empty, in which case MARKETLENS_CONFIG and then the binary
// directory are consulted.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("MARKETLENS_CONFIG")
	}
	if configPath == "" {
		candidate := filepath.Join(binDir, "marketlens.toml")
		if _, err := os.Stat(candidate); err == nil {
			configPath = candidate
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !filepath.IsAbs(config.Storage.MarketDataPath) {
		config.Storage.MarketDataPath = filepath.Join(binDir, config.Storage.MarketDataPath)
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := marketfs.NewStore(logger, config.Storage.MarketDataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open market store: %w", err)
	}

	recorder := metrics.New()
	cacheStore := cache.NewMemoryStore(config.Cache.MaxEntries, time.Minute)
	resultCache := cache.New(cacheStore, cache.TTLsFromConfig(config.Cache), logger, cache.WithMetrics(recorder))

	indicatorEngine := indicators.NewEngine(logger)
	opportunitySvc := opportunity.NewService(store, indicatorEngine, resultCache, config.Detectors, config.Scan, logger)
	riskSvc := risk.NewService(store, resultCache, config.Risk, config.Scan, logger)

	rules, err := alerts.LoadRules(config.Alerts.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert rules: %w", err)
	}
	alertEngine := alerts.NewEngine(rules, logger)

	scenarios, err := stress.LoadScenarios(config.Stress.ScenariosPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load stress scenarios: %w", err)
	}
	stressRunner := stress.NewRunner(scenarios, config.Stress, resultCache, logger)

	a := &App{
		Config:        config,
		Logger:        logger,
		Store:         store,
		Cache:         resultCache,
		Metrics:       recorder,
		Indicators:    indicatorEngine,
		Opportunities: opportunitySvc,
		Risk:          riskSvc,
		Alerts:        alertEngine,
		Stress:        stressRunner,
		StartupTime:   time.Now(),
	}
	a.scheduler = newScheduler(a)

	logger.Info().
		Str("environment", config.Environment).
		Int("universe", len(config.Universe)).
		Msg("MarketLens initialized")

	return a, nil
}

// StartScheduler begins the periodic universe scan.
func (a *App) StartScheduler() error {
	return a.scheduler.start()
}

// Close stops background work and releases resources.
func (a *App) Close() error {
	a.scheduler.stop()
	if err := a.Cache.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Cache close failed")
	}
	return a.Store.Close()
}
