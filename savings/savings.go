// Package savings converts avoided energy into money and emissions.
package savings

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-powerpulse/tariff"
	"github.com/shopspring/decimal"
)

const (
	DefaultHVACShare         = 0.7
	DefaultPerDegreeRate     = 0.035
	DefaultDeltaF            = 2.0
	DefaultMaxSpikeFraction  = 0.20
	DefaultShiftableKWh      = 1.0
	DefaultGridIntensityGkWh = 450.0

	kwhPlaces  = 3
	costPlaces = 2
)

var (
	ErrNegativeParameter  = errors.New("savings parameter cannot be negative")
	ErrNonFiniteParameter = errors.New("savings parameter must be finite")
)

// Options holds the assumptions behind every savings estimate
type Options struct {
	// HVACShare is the fraction of load attributable to climate control
	HVACShare float64 `json:"hvac_share" mapstructure:"hvac_share"`

	// PerDegreeRate is the fractional climate control savings per °F of setpoint change
	PerDegreeRate float64 `json:"per_degree_rate" mapstructure:"per_degree_rate"`
	DeltaF        float64 `json:"delta_f" mapstructure:"delta_f"`

	// MaxSpikeFraction caps thermostat savings as a fraction of predicted usage
	MaxSpikeFraction float64 `json:"max_spike_fraction" mapstructure:"max_spike_fraction"`

	// ShiftableKWh is one appliance cycle moved out of the peak window
	ShiftableKWh float64 `json:"shiftable_kwh" mapstructure:"shiftable_kwh"`

	GridIntensityGPerKWh float64       `json:"grid_intensity_g_per_kwh" mapstructure:"grid_intensity_g_per_kwh"`
	Tariff               tariff.Tariff `json:"tariff" mapstructure:"tariff"`
}

func NewDefaultOptions() *Options {
	return &Options{
		HVACShare:            DefaultHVACShare,
		PerDegreeRate:        DefaultPerDegreeRate,
		DeltaF:               DefaultDeltaF,
		MaxSpikeFraction:     DefaultMaxSpikeFraction,
		ShiftableKWh:         DefaultShiftableKWh,
		GridIntensityGPerKWh: DefaultGridIntensityGkWh,
		Tariff:               tariff.NewDefaultTariff(),
	}
}

// Validate populates defaults if the receiver is nil and rejects negative or non-finite
// parameters
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	params := map[string]float64{
		"hvac_share":               o.HVACShare,
		"per_degree_rate":          o.PerDegreeRate,
		"delta_f":                  o.DeltaF,
		"max_spike_fraction":       o.MaxSpikeFraction,
		"shiftable_kwh":            o.ShiftableKWh,
		"grid_intensity_g_per_kwh": o.GridIntensityGPerKWh,
	}
	for name, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s is %.3f, %w", name, v, ErrNonFiniteParameter)
		}
		if v < 0 {
			return nil, fmt.Errorf("%s is %.3f, %w", name, v, ErrNegativeParameter)
		}
	}
	if err := o.Tariff.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Savings is the estimated benefit of acting on an event
type Savings struct {
	KWh     float64 `json:"kwh"`
	CO2G    int64   `json:"co2_g"`
	CostUSD float64 `json:"cost_usd"`
}

// Calculator derives savings from the configured assumptions
type Calculator struct {
	opt *Options
}

func NewCalculator(opt *Options) (*Calculator, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Calculator{opt: opt}, nil
}

// ThermostatFraction is the share of usage saved by raising the setpoint, capped at
// MaxSpikeFraction
func (c *Calculator) ThermostatFraction() float64 {
	return math.Min(c.opt.MaxSpikeFraction, c.opt.HVACShare*c.opt.PerDegreeRate*c.opt.DeltaF)
}

// ThermostatKWh is the energy saved by raising the thermostat during a spike
func (c *Calculator) ThermostatKWh(predictedKWh float64) float64 {
	return roundKWh(predictedKWh * c.ThermostatFraction())
}

// ShiftKWh is the energy moved out of the peak window by shifting an appliance cycle
func (c *Calculator) ShiftKWh() float64 {
	return roundKWh(c.opt.ShiftableKWh)
}

// CostUSD prices the energy at the peak or off-peak rate, rounded to cents
func (c *Calculator) CostUSD(kwh float64, peak bool) float64 {
	if !finitePositive(kwh) {
		return 0
	}
	cents := decimal.NewFromFloat(c.opt.Tariff.CentsPerKWh(peak))
	return decimal.NewFromFloat(kwh).
		Mul(cents).
		Div(decimal.NewFromInt(100)).
		Round(costPlaces).
		InexactFloat64()
}

// CO2G is the avoided emissions in whole grams
func (c *Calculator) CO2G(kwh float64) int64 {
	if !finitePositive(kwh) {
		return 0
	}
	return decimal.NewFromFloat(kwh).
		Mul(decimal.NewFromFloat(c.opt.GridIntensityGPerKWh)).
		Round(0).
		IntPart()
}

// For returns the full savings of the energy amount
func (c *Calculator) For(kwh float64, peak bool) Savings {
	kwh = roundKWh(kwh)
	return Savings{
		KWh:     kwh,
		CO2G:    c.CO2G(kwh),
		CostUSD: c.CostUSD(kwh, peak),
	}
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(costPlaces).InexactFloat64()
}

func roundKWh(kwh float64) float64 {
	if !finitePositive(kwh) {
		return 0
	}
	return decimal.NewFromFloat(kwh).Round(kwhPlaces).InexactFloat64()
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
