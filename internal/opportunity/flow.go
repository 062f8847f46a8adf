package opportunity

import (
	"math"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/models"
)

// InstitutionalFlowDetector nets the signed notional of block-sized trades.
// Emitted only when at least one trade clears the configured floor.
type InstitutionalFlowDetector struct {
	cfg common.DetectorConfig
}

// Name implements Detector
func (d *InstitutionalFlowDetector) Name() string { return "institutional_flow" }

// fullFlowMultiple of the floor notional scores 1.0.
const fullFlowMultiple = 10.0

// Detect implements Detector
func (d *InstitutionalFlowDetector) Detect(snap *Snapshot) []models.Opportunity {
	var netFlow float64
	var qualifying int
	for _, trade := range snap.Trades {
		if trade.Notional() < d.cfg.InstitutionalFloor {
			continue
		}
		netFlow += trade.SignedNotional()
		qualifying++
	}
	if qualifying == 0 {
		return nil
	}

	sentiment := models.SentimentBullish
	if netFlow <= 0 {
		sentiment = models.SentimentBearish
	}

	symbol := ""
	if snap.Series != nil {
		symbol = snap.Series.Symbol
	} else if len(snap.Trades) > 0 {
		symbol = snap.Trades[0].Symbol
	}

	return []models.Opportunity{{
		Symbol:     symbol,
		Type:       models.OpportunityInstitutionalFlow,
		Confidence: clamp01(math.Abs(netFlow) / (fullFlowMultiple * d.cfg.InstitutionalFloor)),
		DetectedAt: snap.AsOf,
		Sentiment:  sentiment,
		Metrics: map[string]float64{
			"net_flow":          netFlow,
			"qualifying_trades": float64(qualifying),
			"notional_floor":    d.cfg.InstitutionalFloor,
		},
	}}
}
