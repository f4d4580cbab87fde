package forecast

import (
	"fmt"

	"github.com/aouyang1/go-powerpulse/feature"
	"github.com/aouyang1/go-powerpulse/pipeline"
	"github.com/aouyang1/go-powerpulse/timedataset"
)

// Split returns the bounds of the chronological train and test partitions of n examples. The
// training partition is [0, trainEnd) and the test partition is [testStart, n).
func Split(n int, ratio float64, gap int) (int, int) {
	split := int(float64(n) * ratio)
	return max(0, split-gap), split
}

// Train fits the forecast pipeline on a chronological split of the dataset and scores it on the
// held out partition. The returned model records the step interval, feature options and scores.
func Train(ds *timedataset.Dataset, opt *Options) (*pipeline.Pipeline, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if ds == nil || ds.Len() == 0 {
		return nil, &timedataset.InsufficientDataError{Reason: "no observations"}
	}

	builder, err := feature.NewBuilder(&opt.Features)
	if err != nil {
		return nil, err
	}
	step := ds.T().InferStep()
	rows := builder.Build(ds, step)
	numeric, categorical := feature.Columns(ds)

	examples, _ := feature.TrainingExamples(rows, numeric, categorical)
	if len(examples) == 0 {
		return nil, &timedataset.InsufficientDataError{Reason: "no rows with defined lags and a next value", Rows: 0}
	}

	targets := feature.Targets(examples)
	if distinct := timedataset.DistinctCount(targets); distinct < MinDistinctTargets {
		return nil, &timedataset.InsufficientDataError{
			Reason: fmt.Sprintf("target has only %d distinct values, cumulative readings may need differencing", distinct),
			Rows:   len(examples),
		}
	}

	trainEnd, testStart := Split(len(examples), opt.TrainRatio, opt.GapRows)
	train, test := examples[:trainEnd], examples[testStart:]
	if len(train) == 0 || len(test) == 0 {
		return nil, &timedataset.InsufficientDataError{
			Reason: fmt.Sprintf("empty partition with %d train and %d test rows", len(train), len(test)),
			Rows:   len(examples),
		}
	}

	p, err := pipeline.Fit(train, numeric, categorical, &opt.Ridge)
	if err != nil {
		return nil, err
	}

	testRows := make([]feature.Row, len(test))
	for i, ex := range test {
		testRows[i] = ex.Row
	}
	predicted, err := p.Predict(testRows)
	if err != nil {
		return nil, fmt.Errorf("unable to predict test partition, %w", err)
	}
	scores, err := pipeline.NewScores(predicted, feature.Targets(test))
	if err != nil {
		return nil, err
	}

	t := ds.T()
	m := p.Model
	m.TrainStart = t.StartTime()
	m.TrainEnd = t.EndTime()
	m.Step = step
	m.TrainRows = len(train)
	m.TestRows = len(test)
	m.Features = builder.Options()
	m.Scores = scores
	return p, nil
}
