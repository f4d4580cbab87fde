package forecaster

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-powerpulse/baseline"
	"github.com/aouyang1/go-powerpulse/event"
	"github.com/aouyang1/go-powerpulse/forecast"
	"github.com/aouyang1/go-powerpulse/pipeline"
	"github.com/aouyang1/go-powerpulse/timedataset"
)

const (
	DefaultArtifactPath      = "models/ridge_forecaster.json"
	DefaultForecastCachePath = "data/forecast_48h.json"

	// DefaultCumulativeFraction is the share of non-decreasing steps above which a series is
	// treated as a cumulative meter reading
	DefaultCumulativeFraction = 0.95
)

var (
	ErrEmptyCachePath            = errors.New("empty forecast cache path")
	ErrNegativeHorizon           = errors.New("forecast horizon cannot be negative")
	ErrNegativeResample          = errors.New("resample interval cannot be negative")
	ErrInvalidCumulativeFraction = errors.New("cumulative fraction must be within [0, 1]")
)

// Options configures the forecaster end to end. It is the single configuration object that
// every library component derives its own options from.
type Options struct {
	Forecast forecast.Options     `json:"forecast" mapstructure:"forecast"`
	Event    event.Options        `json:"event" mapstructure:"event"`
	Baseline baseline.Table       `json:"baseline" mapstructure:"baseline"`
	Rule     baseline.RuleOptions `json:"rule" mapstructure:"rule"`

	// HomeSize is the default size category used to look up the baseline
	HomeSize string `json:"home_size" mapstructure:"home_size"`

	ArtifactPath      string `json:"artifact_path" mapstructure:"artifact_path"`
	ForecastCachePath string `json:"forecast_cache_path" mapstructure:"forecast_cache_path"`

	// Horizon is the number of steps forecast by default
	Horizon int `json:"horizon" mapstructure:"horizon"`

	DuplicatePolicy timedataset.DuplicatePolicy `json:"duplicate_policy" mapstructure:"duplicate_policy"`

	// ResampleInterval sums consumption into fixed bins before training when positive
	ResampleInterval time.Duration `json:"resample_interval" mapstructure:"resample_interval"`

	// CumulativeFraction enables differencing of cumulative meter readings when positive
	CumulativeFraction float64 `json:"cumulative_fraction" mapstructure:"cumulative_fraction"`

	// TrainIfMissing trains a model on the provided observations when no artifact exists
	TrainIfMissing bool `json:"train_if_missing" mapstructure:"train_if_missing"`

	// RuleFallback forecasts with the baseline rule when no artifact exists
	RuleFallback bool `json:"rule_fallback" mapstructure:"rule_fallback"`
}

// NewDefaultOptions returns the options of a 48 step hourly forecaster with no implicit training
// or fallback
func NewDefaultOptions() *Options {
	return &Options{
		Forecast:           *forecast.NewDefaultOptions(),
		Event:              *event.NewDefaultOptions(),
		Baseline:           baseline.NewDefaultTable(),
		Rule:               baseline.NewDefaultRuleOptions(),
		HomeSize:           baseline.SizeMedium,
		ArtifactPath:       DefaultArtifactPath,
		ForecastCachePath:  DefaultForecastCachePath,
		Horizon:            forecast.DefaultHorizon,
		DuplicatePolicy:    timedataset.KeepLast,
		CumulativeFraction: DefaultCumulativeFraction,
	}
}

// Validate returns a validated copy of the options, populating defaults if the receiver is nil
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.ArtifactPath == "" {
		return nil, pipeline.ErrEmptyArtifactPath
	}
	if o.ForecastCachePath == "" {
		return nil, ErrEmptyCachePath
	}
	if o.Horizon < 0 {
		return nil, fmt.Errorf("horizon of %d steps, %w", o.Horizon, ErrNegativeHorizon)
	}
	if o.ResampleInterval < 0 {
		return nil, fmt.Errorf("resample interval %s, %w", o.ResampleInterval, ErrNegativeResample)
	}
	if o.CumulativeFraction < 0 || o.CumulativeFraction > 1 || math.IsNaN(o.CumulativeFraction) {
		return nil, fmt.Errorf("cumulative fraction %.3f, %w", o.CumulativeFraction, ErrInvalidCumulativeFraction)
	}

	policy, err := o.DuplicatePolicy.Validate()
	if err != nil {
		return nil, err
	}
	fcOpt, err := o.Forecast.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid forecast options, %w", err)
	}
	evOpt, err := o.Event.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid event options, %w", err)
	}

	table := o.Baseline
	if len(table) == 0 {
		table = baseline.NewDefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	out := *o
	out.Forecast = *fcOpt
	out.Event = *evOpt
	out.Baseline = table
	out.DuplicatePolicy = policy
	return &out, nil
}
