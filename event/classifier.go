package event

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-powerpulse/forecast"
	"github.com/aouyang1/go-powerpulse/savings"
	"github.com/aouyang1/go-powerpulse/tariff"
)

const (
	// DeviationEpsilon bounds the baseline used as the deviation denominator
	DeviationEpsilon = 1e-6

	DefaultSpikeThreshold = 0.20
)

var ErrInvalidThreshold = errors.New("spike threshold must be a positive finite number")

// Deviation is the relative difference of predicted to baseline consumption. It is zero for a
// non-positive baseline or any non finite input.
func Deviation(predictedKWh, baselineKWh float64) float64 {
	if !finite(predictedKWh) || !finite(baselineKWh) || baselineKWh <= 0 {
		return 0
	}
	return (predictedKWh - baselineKWh) / math.Max(DeviationEpsilon, baselineKWh)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Options configures classification
type Options struct {
	// SpikeThreshold is the deviation at or above which a point is a spike
	SpikeThreshold float64         `json:"spike_threshold" mapstructure:"spike_threshold"`
	Savings        savings.Options `json:"savings" mapstructure:"savings"`
}

func NewDefaultOptions() *Options {
	return &Options{
		SpikeThreshold: DefaultSpikeThreshold,
		Savings:        *savings.NewDefaultOptions(),
	}
}

func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.SpikeThreshold <= 0 || !finite(o.SpikeThreshold) {
		return nil, fmt.Errorf("spike threshold %.3f, %w", o.SpikeThreshold, ErrInvalidThreshold)
	}
	if _, err := o.Savings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid savings options, %w", err)
	}
	return o, nil
}

// Classifier tags forecast points as SPIKE, PEAK or NORMAL and estimates their savings
type Classifier struct {
	opt  *Options
	calc *savings.Calculator
}

func NewClassifier(opt *Options) (*Classifier, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	calc, err := savings.NewCalculator(&opt.Savings)
	if err != nil {
		return nil, err
	}
	return &Classifier{opt: opt, calc: calc}, nil
}

// Classify returns one event per point compared against the baseline
func (c *Classifier) Classify(points []forecast.Point, baselineKWh float64, window tariff.PeakWindow) ([]Event, error) {
	window, err := window.Validate()
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(points))
	for _, p := range points {
		events = append(events, c.ClassifyPoint(p, baselineKWh, window))
	}
	return events, nil
}

// ClassifyPoint classifies a single point. Spikes take priority over the peak window.
func (c *Classifier) ClassifyPoint(p forecast.Point, baselineKWh float64, window tariff.PeakWindow) Event {
	predicted := clamp(p.PredictedKWh)
	base := clamp(baselineKWh)
	dev := Deviation(predicted, base)
	peak := window.Contains(p.Timestamp)

	e := Event{
		At:           p.Timestamp,
		Deviation:    dev,
		PredictedKWh: predicted,
		BaselineKWh:  base,
		IsPeak:       peak,
		Source:       p.Source,
	}
	switch {
	case dev >= c.opt.SpikeThreshold:
		e.Type = TypeSpike
		e.Suggestion = SuggestionRaiseTherm
		e.Reason = fmt.Sprintf("Predicted usage %d%% above baseline", int(math.Round(dev*100)))
		e.Savings = c.calc.For(c.calc.ThermostatKWh(predicted), peak)
	case peak:
		e.Type = TypePeak
		e.Suggestion = SuggestionShiftAppliance
		e.Reason = ReasonPeak
		e.Savings = c.calc.For(c.calc.ShiftKWh(), peak)
	default:
		e.Type = TypeNormal
		e.Suggestion = SuggestionNone
		e.Reason = ReasonNormal
	}
	return e
}

func clamp(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}
