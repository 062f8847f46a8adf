package risk

import (
	"github.com/quantfold/marketlens/internal/models"
)

// DrawdownStats summarizes peak-to-trough behavior of a price series.
type DrawdownStats struct {
	// Max is the most negative peak-to-trough decline observed, as a
	// signed fraction of the peak (-0.25 means a 25% decline).
	Max float64
	// Current is the decline from the running peak to the latest close.
	Current float64
	// Days is the number of consecutive sessions the latest close has
	// spent below the running peak. Zero when the latest close is the peak.
	Days int
}

// Drawdown walks the series once, tracking the running peak close.
func Drawdown(series *models.PriceSeries) (DrawdownStats, error) {
	if series == nil || series.Len() < 2 {
		return DrawdownStats{}, models.ErrInsufficientData
	}

	var stats DrawdownStats
	peak := series.Points[0].Close
	streak := 0
	for _, p := range series.Points {
		if p.Close >= peak {
			peak = p.Close
			streak = 0
			continue
		}
		streak++
		if peak > 0 {
			dd := (p.Close - peak) / peak
			if dd < stats.Max {
				stats.Max = dd
			}
		}
	}

	latest, _ := series.Latest()
	if peak > 0 && latest.Close < peak {
		stats.Current = (latest.Close - peak) / peak
	}
	stats.Days = streak
	return stats, nil
}
