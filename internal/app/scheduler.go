package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quantfold/marketlens/internal/alerts"
	"github.com/quantfold/marketlens/internal/models"
	"github.com/quantfold/marketlens/internal/risk"
)

// scheduler runs the periodic universe scan: opportunity detection
// followed by alert evaluation over the same price snapshots.
type scheduler struct {
	app  *App
	cron *cron.Cron
}

func newScheduler(a *App) *scheduler {
	return &scheduler{
		app:  a,
		cron: cron.New(cron.WithSeconds()),
	}
}

func (s *scheduler) start() error {
	_, err := s.cron.AddFunc(s.app.Config.Scan.Schedule, s.runScan)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.app.Logger.Info().Str("schedule", s.app.Config.Scan.Schedule).Msg("Scan scheduler started")
	return nil
}

func (s *scheduler) stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runScan is one scheduled pass over the configured universe.
func (s *scheduler) runScan() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.app.Config.Scan.GetTimeout())
	defer cancel()

	symbols := s.app.Config.Universe
	if len(symbols) == 0 {
		stored, err := s.app.Store.Symbols(ctx)
		if err != nil {
			s.app.Logger.Warn().Err(err).Msg("Scan skipped, cannot list symbols")
			s.app.Metrics.RecordScanError()
			return
		}
		symbols = stored
	}
	if len(symbols) == 0 {
		s.app.Logger.Debug().Msg("Scan skipped, empty universe")
		return
	}

	opportunities, err := s.app.Opportunities.ScanUniverse(ctx, symbols)
	if err != nil {
		s.app.Logger.Warn().Err(err).Msg("Universe scan failed")
		s.app.Metrics.RecordScanError()
		return
	}
	for _, o := range opportunities {
		s.app.Metrics.RecordOpportunity(string(o.Type))
	}

	fired := s.evaluateAlerts(ctx, symbols)

	s.app.Metrics.ObserveScanDuration("universe", time.Since(start).Seconds())
	s.app.Logger.Info().
		Int("symbols", len(symbols)).
		Int("opportunities", len(opportunities)).
		Int("alerts", fired).
		Dur("elapsed", time.Since(start)).
		Msg("Universe scan complete")
}

func (s *scheduler) evaluateAlerts(ctx context.Context, symbols []string) int {
	seriesBySymbol := make(map[string]*models.PriceSeries, len(symbols))
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return 0
		}
		series, err := s.app.Store.GetPriceSeries(ctx, symbol)
		if err != nil {
			continue
		}
		seriesBySymbol[symbol] = series
	}
	if len(seriesBySymbol) == 0 {
		return 0
	}

	correlations := risk.CorrelationMatrix(seriesBySymbol)
	snap := alerts.BuildSnapshot(seriesBySymbol, correlations, 20, time.Now().UTC())

	fired := s.app.Alerts.Evaluate(snap)
	for _, a := range fired {
		s.app.Metrics.RecordAlert(string(a.RuleKind), string(a.Severity))
		s.app.Logger.Info().
			Str("subject", a.Subject).
			Str("kind", string(a.RuleKind)).
			Str("severity", string(a.Severity)).
			Msg(a.Message)
	}
	return len(fired)
}
