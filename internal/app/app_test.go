package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/marketlens/internal/models"
)

func writeTestConfig(t *testing.T, universe string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "marketlens.toml")
	content := fmt.Sprintf(`environment = "test"
universe = [%s]

[logging]
level = "error"

[storage]
market_data_path = %q

[scan]
schedule = "0 0 * * * *"
`, universe, filepath.Join(dir, "market"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewAppWiresEverything(t *testing.T) {
	a, err := NewApp(writeTestConfig(t, `"ACME"`))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Store)
	assert.NotNil(t, a.Cache)
	assert.NotNil(t, a.Metrics)
	assert.NotNil(t, a.Indicators)
	assert.NotNil(t, a.Opportunities)
	assert.NotNil(t, a.Risk)
	assert.NotNil(t, a.Alerts)
	assert.NotNil(t, a.Stress)
	assert.Equal(t, "test", a.Config.Environment)
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marketlens.toml")
	require.NoError(t, os.WriteFile(path, []byte("[detectors]\nrsi_oversold = 80.0\nrsi_overbought = 20.0\n"), 0o644))

	_, err := NewApp(path)
	assert.Error(t, err)
}

func TestScheduledScanRunsEndToEnd(t *testing.T) {
	a, err := NewApp(writeTestConfig(t, `"SURG"`))
	require.NoError(t, err)
	defer a.Close()

	// 40 flat sessions, then a 6x-volume session closing up 6%
	start := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, 41)
	for i := range points {
		points[i] = models.PricePoint{
			Date:   start.AddDate(0, 0, i),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: 100_000,
		}
	}
	points[40].Close = 106
	points[40].High = 107
	points[40].Volume = 600_000
	require.NoError(t, a.Store.SavePriceSeries(context.Background(), &models.PriceSeries{
		Symbol: "SURG",
		Points: points,
	}))

	a.scheduler.runScan()

	opportunities, err := a.Opportunities.ScanSymbol(context.Background(), "SURG")
	require.NoError(t, err)
	assert.NotEmpty(t, opportunities)
}

func TestStartSchedulerRejectsBadSchedule(t *testing.T) {
	a, err := NewApp(writeTestConfig(t, ``))
	require.NoError(t, err)
	defer a.Close()

	a.Config.Scan.Schedule = "not a schedule"
	a.scheduler = newScheduler(a)
	assert.Error(t, a.StartScheduler())
}
