// Package pipeline chains preprocessing and ridge regression into a single fitted unit that can be
// persisted as one artifact and restored for inference.
package pipeline

import (
	"fmt"
	"time"

	"github.com/aouyang1/go-powerpulse/feature"
	"github.com/aouyang1/go-powerpulse/linearmodel"
	"github.com/aouyang1/go-powerpulse/preprocess"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// Pipeline is a fitted preprocessing and regression chain backed by its artifact
type Pipeline struct {
	Model *Model

	ridge *linearmodel.RidgeRegression
}

// Fit learns the preprocessing state and ridge weights from the training examples. The returned
// model carries a fresh id and only the fit related fields populated.
func Fit(examples []feature.Example, numeric, categorical []string, opt *linearmodel.RidgeOptions) (*Pipeline, error) {
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	rows := make([]feature.Row, len(examples))
	for i, ex := range examples {
		rows[i] = ex.Row
	}

	pre, err := preprocess.Fit(numeric, categorical, rows)
	if err != nil {
		return nil, fmt.Errorf("unable to fit preprocessing, %w", err)
	}
	x, err := pre.Transform(rows)
	if err != nil {
		return nil, fmt.Errorf("unable to transform training rows, %w", err)
	}
	y := mat.NewDense(len(examples), 1, feature.Targets(examples))

	ridge, err := linearmodel.NewRidgeRegression(opt)
	if err != nil {
		return nil, err
	}
	if err := ridge.Fit(x, y); err != nil {
		return nil, fmt.Errorf("unable to fit ridge regression, %w", err)
	}

	return &Pipeline{
		Model: &Model{
			ID:           uuid.NewString(),
			CreatedAt:    time.Now().UTC(),
			Ridge:        *opt,
			Preprocessor: pre,
			Weights:      newWeights(pre.Labels(), ridge.Intercept(), ridge.Coef()),
		},
		ridge: ridge,
	}, nil
}

// New restores a pipeline from a previously saved model
func New(m *Model) (*Pipeline, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	opt := m.Ridge
	ridge, err := linearmodel.NewRidgeRegressionFromCoef(&opt, m.Weights.Intercept, m.Weights.Coefficients())
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Model: m,
		ridge: ridge,
	}, nil
}

// Builder returns the feature builder configured the same way as during training
func (p *Pipeline) Builder() (*feature.Builder, error) {
	opt := p.Model.Features
	return feature.NewBuilder(&opt)
}

// Predict returns the raw model prediction for every row
func (p *Pipeline) Predict(rows []feature.Row) ([]float64, error) {
	x, err := p.Model.Preprocessor.Transform(rows)
	if err != nil {
		return nil, err
	}
	return p.ridge.Predict(x)
}

// PredictRow returns the raw model prediction for a single row
func (p *Pipeline) PredictRow(row feature.Row) (float64, error) {
	res, err := p.Predict([]feature.Row{row})
	if err != nil {
		return 0, err
	}
	return res[0], nil
}
