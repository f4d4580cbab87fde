package linearmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func denseFromRows(rows [][]float64) *mat.Dense {
	m, n := len(rows), len(rows[0])
	x := mat.NewDense(m, n, nil)
	for i, row := range rows {
		x.SetRow(i, row)
	}
	return x
}

func TestRidgeOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *RidgeOptions
		err      error
		expected *RidgeOptions
	}{
		"nil": {nil, nil, NewDefaultRidgeOptions()},
		"valid": {
			&RidgeOptions{Alpha: 2.0}, nil,
			&RidgeOptions{Alpha: 2.0},
		},
		"negative alpha": {
			&RidgeOptions{Alpha: -0.1}, ErrNegativeAlpha, nil,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, opt)
		})
	}
}

func TestRidgeRegression(t *testing.T) {
	tol := 1e-9
	testData := map[string]struct {
		x         [][]float64
		y         []float64
		opt       *RidgeOptions
		intercept float64
		coef      []float64
	}{
		"unregularized recovers ols": {
			x: [][]float64{
				{0, 0},
				{3, 5},
				{9, 20},
				{12, 6},
				{15, 10},
			},
			y:         []float64{2, 31, 109, 62, 87},
			opt:       &RidgeOptions{Alpha: 0, FitIntercept: true},
			intercept: 2.0,
			coef:      []float64{3.0, 4.0},
		},
		"single feature shrinkage": {
			// centered sxx=2 and sxy=4 so w=4/(2+0.5)
			x:         [][]float64{{1}, {2}, {3}},
			y:         []float64{2, 4, 6},
			intercept: 0.8,
			coef:      []float64{1.6},
		},
		"no intercept": {
			// w = sum(xy)/(sum(xx)+alpha) = 28/(14+0)
			x:         [][]float64{{1}, {2}, {3}},
			y:         []float64{2, 4, 6},
			opt:       &RidgeOptions{Alpha: 0},
			intercept: 0.0,
			coef:      []float64{2.0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			model, err := NewRidgeRegression(td.opt)
			require.Nil(t, err)

			x := denseFromRows(td.x)
			y := mat.NewDense(len(td.y), 1, td.y)
			require.Nil(t, model.Fit(x, y))

			assert.InDelta(t, td.intercept, model.Intercept(), tol, "intercept")
			assert.InDeltaSlice(t, td.coef, model.Coef(), tol, "coefficients")

			restored, err := NewRidgeRegressionFromCoef(td.opt, model.Intercept(), model.Coef())
			require.Nil(t, err)

			expected, err := model.Predict(x)
			require.Nil(t, err)
			res, err := restored.Predict(x)
			require.Nil(t, err)
			assert.Equal(t, expected, res)
		})
	}
}

func TestRidgeShrinksWithAlpha(t *testing.T) {
	x := denseFromRows([][]float64{
		{0, 0},
		{3, 5},
		{9, 20},
		{12, 6},
		{15, 10},
	})
	y := mat.NewDense(5, 1, []float64{2, 31, 109, 62, 87})

	prevNorm := -1.0
	for _, alpha := range []float64{100, 10, 1, 0} {
		model, err := NewRidgeRegression(&RidgeOptions{Alpha: alpha, FitIntercept: true})
		require.Nil(t, err)
		require.Nil(t, model.Fit(x, y))

		norm := floats.Norm(model.Coef(), 2)
		assert.Greater(t, norm, prevNorm, "alpha %.1f", alpha)
		prevNorm = norm
	}
}

func TestRidgeScore(t *testing.T) {
	model, err := NewRidgeRegression(&RidgeOptions{Alpha: 0, FitIntercept: true})
	require.Nil(t, err)

	x := denseFromRows([][]float64{{1}, {2}, {3}, {4}})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})
	require.Nil(t, model.Fit(x, y))

	r2, err := model.Score(x, y)
	require.Nil(t, err)
	assert.InDelta(t, 1.0, r2, 1e-9)
}

func TestRidgeErrors(t *testing.T) {
	model, err := NewRidgeRegression(nil)
	require.Nil(t, err)

	x := denseFromRows([][]float64{{1, 2}, {2, 1}, {3, 3}})

	_, err = model.Predict(x)
	assert.ErrorIs(t, err, ErrNotFit)

	err = model.Fit(x, mat.NewDense(2, 1, []float64{1, 2}))
	assert.ErrorIs(t, err, ErrTargetLenMismatch)

	assert.ErrorIs(t, model.Fit(nil, nil), ErrNoTrainingMatrix)
	assert.ErrorIs(t, model.Fit(x, nil), ErrNoTargetMatrix)

	require.Nil(t, model.Fit(x, mat.NewDense(3, 1, []float64{1, 2, 4})))
	_, err = model.Predict(denseFromRows([][]float64{{1}}))
	assert.ErrorIs(t, err, ErrFeatureLenMismatch)

	_, err = model.Predict(nil)
	assert.ErrorIs(t, err, ErrNoDesignMatrix)

	_, err = NewRidgeRegression(&RidgeOptions{Alpha: -1})
	assert.ErrorIs(t, err, ErrNegativeAlpha)
}
