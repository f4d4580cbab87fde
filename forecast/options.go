package forecast

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-powerpulse/feature"
	"github.com/aouyang1/go-powerpulse/linearmodel"
)

const (
	DefaultTrainRatio = 0.8
	DefaultGapRows    = 12
	DefaultHorizon    = 48

	// MinDistinctTargets is the fewest distinct target values a series needs to be trainable
	MinDistinctTargets = 3
)

var (
	ErrInvalidTrainRatio = errors.New("train ratio must be within (0, 1)")
	ErrNegativeGapRows   = errors.New("train/test gap cannot be negative")
)

// Options configures training of the forecast pipeline
type Options struct {
	Features feature.Options          `json:"features" mapstructure:"features"`
	Ridge    linearmodel.RidgeOptions `json:"ridge" mapstructure:"ridge"`

	// TrainRatio is the chronological fraction of examples before the test split
	TrainRatio float64 `json:"train_ratio" mapstructure:"train_ratio"`

	// GapRows are removed from the end of the training partition so autocorrelated lag and
	// rolling features do not leak test information
	GapRows int `json:"gap_rows" mapstructure:"gap_rows"`
}

// NewDefaultOptions returns an 80/20 split with a 12 row gap and a moderately regularized ridge
func NewDefaultOptions() *Options {
	return &Options{
		Features:   *feature.NewDefaultOptions(),
		Ridge:      *linearmodel.NewDefaultRidgeOptions(),
		TrainRatio: DefaultTrainRatio,
		GapRows:    DefaultGapRows,
	}
}

// Validate returns a validated copy of the options, populating defaults if the receiver is nil
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.TrainRatio <= 0 || o.TrainRatio >= 1 {
		return nil, fmt.Errorf("train ratio %.3f, %w", o.TrainRatio, ErrInvalidTrainRatio)
	}
	if o.GapRows < 0 {
		return nil, fmt.Errorf("gap of %d rows, %w", o.GapRows, ErrNegativeGapRows)
	}

	features, err := o.Features.Validate()
	if err != nil {
		return nil, err
	}
	ridge, err := o.Ridge.Validate()
	if err != nil {
		return nil, err
	}
	return &Options{
		Features:   *features,
		Ridge:      *ridge,
		TrainRatio: o.TrainRatio,
		GapRows:    o.GapRows,
	}, nil
}
