// Package forecaster trains a recursive ridge model on household consumption, forecasts the
// upcoming horizon and turns the forecast into actionable events with savings estimates.
package forecaster

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-powerpulse/event"
	"github.com/aouyang1/go-powerpulse/forecast"
	"github.com/aouyang1/go-powerpulse/pipeline"
	"github.com/aouyang1/go-powerpulse/tariff"
	"github.com/aouyang1/go-powerpulse/timedataset"
	"github.com/rs/zerolog"
)

var (
	ErrInsufficientData = timedataset.ErrInsufficientData
	ErrModelNotFound    = pipeline.ErrModelNotFound
)

type (
	InsufficientDataError = timedataset.InsufficientDataError
	ModelNotFoundError    = pipeline.ModelNotFoundError
)

// TrainResult reports the evaluation of a freshly trained model and where it was stored
type TrainResult struct {
	MAE          float64 `json:"mae"`
	MAPE         float64 `json:"mape"`
	R2           float64 `json:"r2"`
	TrainRows    int     `json:"train_rows"`
	TestRows     int     `json:"test_rows"`
	ArtifactPath string  `json:"artifact_path"`
	ModelID      string  `json:"model_id"`
}

// Forecaster trains, persists and serves the household forecast model
type Forecaster struct {
	opt        *Options
	logger     zerolog.Logger
	cache      *pipeline.Cache
	classifier *event.Classifier

	nowFunc func() time.Time
}

// New creates a new instance of a Forecaster using the provided options. If no options are
// provided a default is used.
func New(opt *Options, logger zerolog.Logger) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	classifier, err := event.NewClassifier(&opt.Event)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize classifier, %w", err)
	}
	return &Forecaster{
		opt:        opt,
		logger:     logger.With().Str("component", "forecaster").Logger(),
		cache:      pipeline.NewCache(logger),
		classifier: classifier,
		nowFunc:    time.Now,
	}, nil
}

// Options returns the validated options of the forecaster
func (f *Forecaster) Options() Options {
	return *f.opt
}

// Prepare orders and de-duplicates the observations, differences cumulative meter readings and
// resamples when configured
func (f *Forecaster) Prepare(obs []timedataset.Observation) (*timedataset.Dataset, error) {
	ds, err := timedataset.NewDataset(obs, f.opt.DuplicatePolicy)
	if err != nil {
		return nil, err
	}
	if f.opt.CumulativeFraction > 0 && timedataset.IsCumulative(ds.Y(), f.opt.CumulativeFraction) {
		f.logger.Info().Int("rows", ds.Len()).Msg("consumption looks cumulative, differencing")
		ds = ds.Difference()
	}
	if f.opt.ResampleInterval > 0 {
		ds, err = ds.Resample(f.opt.ResampleInterval)
		if err != nil {
			return nil, err
		}
	}
	if ds.Dropped > 0 || ds.Duplicates > 0 {
		f.logger.Warn().
			Int("dropped", ds.Dropped).
			Int("duplicates", ds.Duplicates).
			Msg("discarded observations")
	}
	if ds.Len() == 0 {
		return nil, &timedataset.InsufficientDataError{Reason: "no observations after preparation"}
	}
	return ds, nil
}

// Train fits a new model on the observations, evaluates it on the held out tail and replaces the
// artifact
func (f *Forecaster) Train(obs []timedataset.Observation) (*TrainResult, error) {
	ds, err := f.Prepare(obs)
	if err != nil {
		return nil, err
	}
	_, res, err := f.train(ds)
	return res, err
}

func (f *Forecaster) train(ds *timedataset.Dataset) (*pipeline.Pipeline, *TrainResult, error) {
	p, err := forecast.Train(ds, &f.opt.Forecast)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Model.Save(f.opt.ArtifactPath); err != nil {
		return nil, nil, fmt.Errorf("unable to save model, %w", err)
	}
	f.cache.Invalidate(f.opt.ArtifactPath)

	m := p.Model
	res := &TrainResult{
		TrainRows:    m.TrainRows,
		TestRows:     m.TestRows,
		ArtifactPath: f.opt.ArtifactPath,
		ModelID:      m.ID,
	}
	if m.Scores != nil {
		res.MAE = m.Scores.MAE
		res.MAPE = m.Scores.MAPE
		res.R2 = m.Scores.R2
	}
	f.logger.Info().
		Str("model_id", res.ModelID).
		Int("train_rows", res.TrainRows).
		Int("test_rows", res.TestRows).
		Float64("mae", res.MAE).
		Float64("mape", res.MAPE).
		Float64("r2", res.R2).
		Str("path", res.ArtifactPath).
		Msg("trained model")
	return p, res, nil
}

// Forecast predicts steps points past the last observation with the stored model. A missing model
// is trained on the observations or replaced by the baseline rule when configured, otherwise a
// ModelNotFoundError is returned.
func (f *Forecaster) Forecast(obs []timedataset.Observation, steps int) ([]forecast.Point, error) {
	ds, err := f.Prepare(obs)
	if err != nil {
		return nil, err
	}
	points, _, err := f.forecast(ds, steps, f.opt.HomeSize)
	return points, err
}

func (f *Forecaster) forecast(ds *timedataset.Dataset, steps int, homeSize string) ([]forecast.Point, time.Duration, error) {
	base := f.Baseline(ds, homeSize)

	p, err := f.cache.Load(f.opt.ArtifactPath)
	if err != nil {
		var notFound *pipeline.ModelNotFoundError
		if !errors.As(err, &notFound) {
			return nil, 0, err
		}
		switch {
		case f.opt.TrainIfMissing:
			f.logger.Info().Str("path", notFound.Path).Msg("model not found, training")
			p, _, err = f.train(ds)
			if err != nil {
				return nil, 0, err
			}
		case f.opt.RuleFallback:
			step := ds.T().InferStep()
			f.logger.Warn().
				Str("path", notFound.Path).
				Float64("baseline_kwh", base).
				Msg("model not found, forecasting with baseline rule")
			points, err := forecast.Rule(f.opt.Rule, base, ds, step, steps)
			if err != nil {
				return nil, 0, err
			}
			return forecast.WithBaseline(points, base), step, nil
		default:
			return nil, 0, err
		}
	}

	points, err := forecast.Recursive(p, ds, steps)
	if err != nil {
		return nil, 0, err
	}
	step := p.Model.Step
	if step <= 0 {
		step = timedataset.DefaultStep
	}
	return forecast.WithBaseline(points, base), step, nil
}

// Baseline returns the expected hourly consumption of the home. A baseline reported with the
// observations takes precedence over the size category table.
func (f *Forecaster) Baseline(ds *timedataset.Dataset, homeSize string) float64 {
	if last, ok := ds.LastKnown(); ok && last.BaselineKWhPerHour != nil {
		if v := *last.BaselineKWhPerHour; v >= 0 && !math.IsInf(v, 0) {
			return v
		}
	}
	if homeSize == "" {
		homeSize = f.opt.HomeSize
	}
	return f.opt.Baseline.KWhPerHour(homeSize)
}

// Classify returns one event per forecast point
func (f *Forecaster) Classify(points []forecast.Point, baselineKWh float64, window tariff.PeakWindow) ([]event.Event, error) {
	return f.classifier.Classify(points, baselineKWh, window)
}

// Summarize totals the predicted usage and potential savings of the events
func Summarize(events []event.Event) event.Summary {
	return event.Summarize(events)
}

// PickTopEvent returns the event with the largest kWh savings
func PickTopEvent(events []event.Event) (event.Event, bool) {
	return event.PickTopEvent(events)
}

// Analyze forecasts the configured horizon, classifies every point against the home's baseline
// and summarizes the result
func (f *Forecaster) Analyze(obs []timedataset.Observation, homeSize string) (*Analysis, error) {
	ds, err := f.Prepare(obs)
	if err != nil {
		return nil, err
	}
	points, step, err := f.forecast(ds, f.opt.Horizon, homeSize)
	if err != nil {
		return nil, err
	}
	base := f.Baseline(ds, homeSize)

	events, err := f.Classify(points, base, f.opt.Forecast.Features.PeakWindow)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		HorizonMinutes: int(time.Duration(len(points)) * step / time.Minute),
		BaselineKWh:    base,
		Series:         points,
		Events:         events,
		Summary:        Summarize(events),
	}
	if top, ok := PickTopEvent(events); ok {
		a.TopEvent = &top
	}
	f.logger.Debug().
		Int("points", len(points)).
		Int("spikes", a.Summary.Counts[event.TypeSpike]).
		Int("peaks", a.Summary.Counts[event.TypePeak]).
		Float64("potential_savings_kwh", a.Summary.PotentialSavingsKWh).
		Msg("analyzed forecast")
	return a, nil
}

// Model returns the stored model artifact
func (f *Forecaster) Model() (*pipeline.Model, error) {
	p, err := f.cache.Load(f.opt.ArtifactPath)
	if err != nil {
		return nil, err
	}
	return p.Model, nil
}
