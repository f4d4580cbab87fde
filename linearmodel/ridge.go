package linearmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultAlpha is a moderate L2 penalty for standardized features
const DefaultAlpha = 0.5

// RidgeOptions represents input options to run the Ridge Regression
type RidgeOptions struct {
	// Alpha is the L2 regularization strength applied to every coefficient except the intercept
	Alpha float64 `json:"alpha" mapstructure:"alpha"`

	// FitIntercept centers the training data and fits an unpenalized intercept if set to true
	FitIntercept bool `json:"fit_intercept" mapstructure:"fit_intercept"`
}

// Validate runs basic validation on Ridge options
func (r *RidgeOptions) Validate() (*RidgeOptions, error) {
	if r == nil {
		r = NewDefaultRidgeOptions()
	}
	if r.Alpha < 0 || math.IsNaN(r.Alpha) {
		return nil, fmt.Errorf("alpha %.3f, %w", r.Alpha, ErrNegativeAlpha)
	}
	return r, nil
}

// NewDefaultRidgeOptions returns a default set of Ridge Regression options
func NewDefaultRidgeOptions() *RidgeOptions {
	return &RidgeOptions{
		Alpha:        DefaultAlpha,
		FitIntercept: true,
	}
}

// RidgeRegression computes L2 regularized least squares in closed form by solving
// (XᵀX + αI)w = Xᵀy with a Cholesky factorization
type RidgeRegression struct {
	opt       *RidgeOptions
	coef      []float64
	intercept float64
}

// NewRidgeRegression initializes a ridge model ready for fitting
func NewRidgeRegression(opt *RidgeOptions) (*RidgeRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &RidgeRegression{
		opt: opt,
	}, nil
}

// NewRidgeRegressionFromCoef restores a previously fit model
func NewRidgeRegressionFromCoef(opt *RidgeOptions, intercept float64, coef []float64) (*RidgeRegression, error) {
	r, err := NewRidgeRegression(opt)
	if err != nil {
		return nil, err
	}
	r.intercept = intercept
	r.coef = append([]float64(nil), coef...)
	return r, nil
}

// Fit the model according to the given training data
func (r *RidgeRegression) Fit(x, y mat.Matrix) error {
	if r.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, n := x.Dims()

	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}

	xc := mat.DenseCopyOf(x)
	yc := mat.Col(nil, 0, y)

	xMean := make([]float64, n)
	var yMean float64
	if r.opt.FitIntercept {
		col := make([]float64, m)
		for j := 0; j < n; j++ {
			mat.Col(col, j, xc)
			xMean[j] = stat.Mean(col, nil)
			floats.AddConst(-xMean[j], col)
			xc.SetCol(j, col)
		}
		yMean = stat.Mean(yc, nil)
		floats.AddConst(-yMean, yc)
	}

	var gram mat.SymDense
	gram.SymOuterK(1.0, xc.T())
	for i := 0; i < n; i++ {
		gram.SetSym(i, i, gram.At(i, i)+r.opt.Alpha)
	}

	var rhs mat.VecDense
	rhs.MulVec(xc.T(), mat.NewVecDense(m, yc))

	var w mat.VecDense
	var chol mat.Cholesky
	if chol.Factorize(&gram) {
		if err := chol.SolveVecTo(&w, &rhs); err != nil {
			return fmt.Errorf("unable to solve ridge system, %w", err)
		}
	} else {
		// only reachable without regularization on rank deficient data
		if err := w.SolveVec(&gram, &rhs); err != nil {
			return fmt.Errorf("unable to solve ridge system, %w", err)
		}
	}

	r.coef = mat.Col(nil, 0, &w)
	r.intercept = 0.0
	if r.opt.FitIntercept {
		r.intercept = yMean - floats.Dot(xMean, r.coef)
	}
	return nil
}

// Predict using the Ridge model
func (r *RidgeRegression) Predict(x mat.Matrix) ([]float64, error) {
	if r.opt == nil {
		return nil, ErrNoOptions
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	if r.coef == nil {
		return nil, ErrNotFit
	}

	m, n := x.Dims()
	if n != len(r.coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, len(r.coef), ErrFeatureLenMismatch)
	}

	var res mat.VecDense
	res.MulVec(x, mat.NewVecDense(n, r.coef))

	out := make([]float64, m)
	for i := range out {
		out[i] = res.AtVec(i) + r.intercept
	}
	return out, nil
}

// Score computes the coefficient of determination of the prediction
func (r *RidgeRegression) Score(x, y mat.Matrix) (float64, error) {
	if r.opt == nil {
		return 0.0, ErrNoOptions
	}
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()

	ym, _ := y.Dims()
	if m != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	res, err := r.Predict(x)
	if err != nil {
		return 0.0, err
	}

	ySlice := mat.Col(nil, 0, y)

	return stat.RSquaredFrom(res, ySlice, nil), nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (r *RidgeRegression) Intercept() float64 {
	return r.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (r *RidgeRegression) Coef() []float64 {
	c := make([]float64, len(r.coef))
	copy(c, r.coef)
	return c
}

// Options returns the options the model was created with
func (r *RidgeRegression) Options() RidgeOptions {
	return *r.opt
}
