// Package baseline estimates the expected hourly consumption of a home from its coarse size
// category, and provides the rule based predictor used when no trained model is available.
package baseline

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"

	DefaultSmallKWh  = 0.7
	DefaultMediumKWh = 1.2
	DefaultLargeKWh  = 1.8

	DefaultRuleTempRefC      = 24.0
	DefaultRuleKWhPerDegreeC = 0.07
)

var (
	ErrNoDefaultCategory = errors.New("baseline table has no medium entry to fall back to")
	ErrNegativeBaseline  = errors.New("baseline kwh cannot be negative")
)

// Table maps a home size category to its expected hourly consumption in kWh
type Table map[string]float64

// NewDefaultTable returns the small/medium/large table
func NewDefaultTable() Table {
	return Table{
		SizeSmall:  DefaultSmallKWh,
		SizeMedium: DefaultMediumKWh,
		SizeLarge:  DefaultLargeKWh,
	}
}

// Validate requires a non-negative medium entry since it is the fallback for unknown categories
func (t Table) Validate() error {
	if _, exists := t[SizeMedium]; !exists {
		return ErrNoDefaultCategory
	}
	for size, kwh := range t {
		if kwh < 0 || math.IsNaN(kwh) {
			return fmt.Errorf("%q has %.3f, %w", size, kwh, ErrNegativeBaseline)
		}
	}
	return nil
}

// KWhPerHour returns the baseline for the category. Lookup is case insensitive and unknown or
// empty categories resolve to medium.
func (t Table) KWhPerHour(category string) float64 {
	if kwh, exists := t[strings.ToLower(strings.TrimSpace(category))]; exists {
		return kwh
	}
	if kwh, exists := t[SizeMedium]; exists {
		return kwh
	}
	return DefaultMediumKWh
}

// RuleOptions configures the temperature offset heuristic
type RuleOptions struct {
	TempRefC      float64 `json:"temp_ref_c" mapstructure:"temp_ref_c"`
	KWhPerDegreeC float64 `json:"kwh_per_degree_c" mapstructure:"kwh_per_degree_c"`
}

func NewDefaultRuleOptions() RuleOptions {
	return RuleOptions{
		TempRefC:      DefaultRuleTempRefC,
		KWhPerDegreeC: DefaultRuleKWhPerDegreeC,
	}
}

// PredictKWhRule adds a linear cooling bump above the reference temperature to the baseline.
// The result is never negative.
func (r RuleOptions) PredictKWhRule(baselineKWh, tempC float64) float64 {
	bump := 0.0
	if !math.IsNaN(tempC) {
		bump = math.Max(0.0, tempC-r.TempRefC) * r.KWhPerDegreeC
	}
	return math.Max(0.0, baselineKWh+bump)
}
