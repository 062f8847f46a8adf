package risk

import (
	"math"
	"sort"

	"github.com/quantfold/marketlens/internal/models"
)

// RebalanceSuggestions compares current portfolio weights to the supplied
// target weights and flags any position drifted beyond the band (a
// fraction, e.g. 0.05 for five percentage points). Symbols present only in
// the targets are treated as holding zero weight today. Output is sorted
// by symbol for stable presentation.
func RebalanceSuggestions(portfolio *models.Portfolio, targets map[string]float64, band float64) ([]models.RebalanceSuggestion, error) {
	if portfolio == nil {
		return nil, models.ErrInsufficientData
	}
	if band < 0 {
		return nil, models.NewValidationError("band", "must be >= 0")
	}
	weights, ok := portfolio.Weights()
	if !ok {
		return nil, models.ErrUndefined
	}

	symbols := make(map[string]struct{}, len(weights)+len(targets))
	for sym := range weights {
		symbols[sym] = struct{}{}
	}
	for sym := range targets {
		symbols[sym] = struct{}{}
	}

	var suggestions []models.RebalanceSuggestion
	for sym := range symbols {
		current := weights[sym]
		target := targets[sym]
		drift := current - target
		if math.Abs(drift) <= band {
			continue
		}
		action := models.RebalanceIncrease
		if drift > 0 {
			action = models.RebalanceReduce
		}
		suggestions = append(suggestions, models.RebalanceSuggestion{
			Symbol:        sym,
			CurrentWeight: current,
			TargetWeight:  target,
			Action:        action,
			Adjustment:    math.Abs(drift),
		})
	}
	sort.Slice(suggestions, func(i, j int) bool { return suggestions[i].Symbol < suggestions[j].Symbol })
	return suggestions, nil
}
