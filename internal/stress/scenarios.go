// Package stress projects scenario losses over portfolios
package stress

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/quantfold/marketlens/internal/models"
)

// BuiltinScenarios returns the fixed scenario library. Scenario names are
// unique; file-loaded scenarios may not reuse them.
func BuiltinScenarios() []models.StressScenario {
	return []models.StressScenario{
		{
			Name:        "market_correction",
			Description: "Broad equity decline of 20%",
			MarketShock: -0.20,
		},
		{
			Name:        "severe_bear_market",
			Description: "Broad equity decline of 35%",
			MarketShock: -0.35,
		},
		{
			Name:        "tech_selloff",
			Description: "Technology sector drops 30% while the market falls 10%",
			MarketShock: -0.10,
			SectorShocks: map[string]float64{
				"technology": -0.30,
			},
		},
		{
			Name:        "financial_crisis",
			Description: "Financial sector drops 40% with a 15% broad decline",
			MarketShock: -0.15,
			SectorShocks: map[string]float64{
				"financials": -0.40,
			},
		},
		{
			Name:        "rate_shock",
			Description: "Rates rise 2 points, hitting rate-sensitive positions",
			RateShock:   2.0,
		},
		{
			Name:           "liquidity_crunch",
			Description:    "Spreads widen, imposing a 5% exit haircut on top of a 10% decline",
			MarketShock:    -0.10,
			LiquidityShock: 0.05,
		},
	}
}

// LoadScenarios reads extra scenarios from a YAML file and appends them to
// the built-in library. An empty path yields the library alone.
func LoadScenarios(path string) ([]models.StressScenario, error) {
	scenarios := BuiltinScenarios()
	if path == "" {
		return scenarios, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios %s: %w", path, err)
	}
	var doc struct {
		Scenarios []models.StressScenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scenarios %s: %w", path, err)
	}

	names := make(map[string]struct{}, len(scenarios))
	for _, s := range scenarios {
		names[s.Name] = struct{}{}
	}
	for _, s := range doc.Scenarios {
		if s.Name == "" {
			return nil, models.NewValidationError("name", "scenario name is required")
		}
		if _, exists := names[s.Name]; exists {
			return nil, models.NewValidationError("name", fmt.Sprintf("scenario %q already defined", s.Name))
		}
		names[s.Name] = struct{}{}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
