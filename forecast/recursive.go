package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-powerpulse/baseline"
	"github.com/aouyang1/go-powerpulse/feature"
	"github.com/aouyang1/go-powerpulse/pipeline"
	"github.com/aouyang1/go-powerpulse/timedataset"
)

var (
	ErrNegativeSteps       = errors.New("forecast steps cannot be negative")
	ErrNoHistory           = errors.New("no observations to seed the forecast with")
	ErrNonFinitePrediction = errors.New("model produced a non finite prediction")
)

// Source identifies what produced a forecast point
type Source string

const (
	SourceRidge Source = "ridge"
	SourceRule  Source = "rule"
)

// Point is a forecast consumption value for a future timestamp
type Point struct {
	Timestamp    time.Time `json:"timestamp"`
	PredictedKWh float64   `json:"predicted_kwh"`
	BaselineKWh  float64   `json:"baseline_kwh"`
	Source       Source    `json:"source"`
}

// WithBaseline sets the baseline of every point, clamped to be non-negative
func WithBaseline(points []Point, baselineKWh float64) []Point {
	if math.IsNaN(baselineKWh) || baselineKWh < 0 {
		baselineKWh = 0
	}
	for i := range points {
		points[i].BaselineKWh = baselineKWh
	}
	return points
}

// Recursive forecasts steps points past the last observation. Each prediction is pushed into the
// history that derives the lag and rolling features of the next step, while every passthrough
// column is held at its last known value.
func Recursive(p *pipeline.Pipeline, ds *timedataset.Dataset, steps int) ([]Point, error) {
	if steps < 0 {
		return nil, fmt.Errorf("%d steps, %w", steps, ErrNegativeSteps)
	}
	if steps == 0 {
		return []Point{}, nil
	}
	if ds == nil || ds.Len() == 0 {
		return nil, ErrNoHistory
	}

	builder, err := p.Builder()
	if err != nil {
		return nil, err
	}
	step := p.Model.Step
	if step <= 0 {
		step = timedataset.DefaultStep
	}

	rows := builder.Build(ds, step)
	prev := rows[len(rows)-1]
	prev.Obs, _ = ds.LastKnown()
	hist := feature.NewHistory(feature.LongWindow, segmentTail(rows, feature.LongWindow))

	points := make([]Point, 0, steps)
	t := prev.Timestamp
	for i := 0; i < steps; i++ {
		t = t.Add(step)
		row := builder.Next(prev, t, hist)

		pred, err := p.PredictRow(row)
		if err != nil {
			return nil, fmt.Errorf("unable to predict step %d, %w", i+1, err)
		}
		if math.IsNaN(pred) || math.IsInf(pred, 0) {
			return nil, fmt.Errorf("step %d, %w", i+1, ErrNonFinitePrediction)
		}
		pred = math.Max(0.0, pred)

		hist.Push(pred)
		points = append(points, Point{
			Timestamp:    t,
			PredictedKWh: pred,
			Source:       SourceRidge,
		})
		prev = row
	}
	return points, nil
}

// segmentTail returns up to n trailing consumption values of the last segment
func segmentTail(rows []feature.Row, n int) []float64 {
	last := rows[len(rows)-1].Segment
	start := len(rows) - 1
	for start > 0 && len(rows)-start < n && rows[start-1].Segment == last {
		start--
	}
	tail := make([]float64, 0, len(rows)-start)
	for _, row := range rows[start:] {
		tail = append(tail, row.KWh)
	}
	return tail
}

// Rule forecasts steps points from the baseline and the last known outdoor temperature, for use
// when no trained model is available
func Rule(rule baseline.RuleOptions, baselineKWh float64, ds *timedataset.Dataset, step time.Duration, steps int) ([]Point, error) {
	if steps < 0 {
		return nil, fmt.Errorf("%d steps, %w", steps, ErrNegativeSteps)
	}
	if steps == 0 {
		return []Point{}, nil
	}
	if ds == nil || ds.Len() == 0 {
		return nil, ErrNoHistory
	}
	if step <= 0 {
		step = timedataset.DefaultStep
	}

	last, _ := ds.LastKnown()
	tempC := math.NaN()
	if last.TempOutC != nil {
		tempC = *last.TempOutC
	}
	pred := rule.PredictKWhRule(baselineKWh, tempC)

	points := make([]Point, steps)
	t := last.Timestamp
	for i := range points {
		t = t.Add(step)
		points[i] = Point{
			Timestamp:    t,
			PredictedKWh: pred,
			Source:       SourceRule,
		}
	}
	return points, nil
}
