// Package alerts evaluates threshold rules against market snapshots
package alerts

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/quantfold/marketlens/internal/models"
)

// DefaultRules returns the built-in rule set. Callers may replace or
// extend it; the engine only ever sees the rules it was constructed with.
func DefaultRules() []models.AlertRule {
	return []models.AlertRule{
		{Kind: models.RulePriceDrop, Threshold: -0.15, Priority: models.SeverityHigh},
		{Kind: models.RuleVolatilitySpike, Threshold: 3.0, BaselineWindow: 20, Priority: models.SeverityMedium},
		{Kind: models.RuleVolumeSurge, Threshold: 5.0, BaselineWindow: 20, Priority: models.SeverityMedium},
		{Kind: models.RuleHighCorrelation, Threshold: 0.8, Priority: models.SeverityLow},
	}
}

// LoadRules reads a YAML rule file. An empty path yields the defaults.
func LoadRules(path string) ([]models.AlertRule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var doc struct {
		Rules []models.AlertRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}
	for _, r := range doc.Rules {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rules file %s: %w", path, err)
		}
	}
	return doc.Rules, nil
}

func validateRule(r models.AlertRule) error {
	switch r.Kind {
	case models.RulePriceDrop:
		if r.Threshold >= 0 {
			return models.NewValidationError("threshold", "price_drop threshold must be negative")
		}
	case models.RuleVolatilitySpike, models.RuleVolumeSurge:
		if r.Threshold <= 1 {
			return models.NewValidationError("threshold", fmt.Sprintf("%s threshold must be a multiple above 1", r.Kind))
		}
	case models.RuleHighCorrelation:
		if r.Threshold <= 0 || r.Threshold >= 1 {
			return models.NewValidationError("threshold", "high_correlation threshold must be in (0, 1)")
		}
	default:
		return models.NewValidationError("kind", fmt.Sprintf("unknown rule kind %q", r.Kind))
	}
	switch r.Priority {
	case models.SeverityHigh, models.SeverityMedium, models.SeverityLow:
	default:
		return models.NewValidationError("priority", fmt.Sprintf("unknown priority %q", r.Priority))
	}
	return nil
}
