// Package preprocess turns feature rows into the standardized and one-hot encoded design matrix
// consumed by the regression model.
package preprocess

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/aouyang1/go-powerpulse/feature"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoRows          = errors.New("no rows to fit preprocessing on")
	ErrMissingValue    = errors.New("row is missing a required column")
	ErrInconsistentFit = errors.New("preprocessing state has mismatched lengths")
)

// Scaler standardizes numeric columns to zero mean and unit population variance
type Scaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

// FitScaler computes the mean and population standard deviation of every column. Columns with
// no variance are scaled by 1.
func FitScaler(columns []string, rows []feature.Row) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	s := &Scaler{
		Columns: append([]string(nil), columns...),
		Mean:    make([]float64, len(columns)),
		Scale:   make([]float64, len(columns)),
	}

	n := float64(len(rows))
	vals := make([]float64, len(rows))
	for j, col := range columns {
		for i, row := range rows {
			v, ok := row.Numeric(col)
			if !ok {
				return nil, fmt.Errorf("%s at %s, %w", col, row.Timestamp, ErrMissingValue)
			}
			vals[i] = v
		}
		mean, std := stat.MeanStdDev(vals, nil)
		// convert the sample estimate to the population standard deviation
		std *= math.Sqrt((n - 1) / n)
		if len(rows) == 1 || std == 0 || math.IsNaN(std) {
			std = 1.0
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

func (s *Scaler) Validate() error {
	if len(s.Mean) != len(s.Columns) || len(s.Scale) != len(s.Columns) {
		return fmt.Errorf("scaler has %d columns, %d means and %d scales, %w",
			len(s.Columns), len(s.Mean), len(s.Scale), ErrInconsistentFit)
	}
	return nil
}

// Transform writes the standardized values of the row into dst
func (s *Scaler) Transform(row feature.Row, dst []float64) error {
	for j, col := range s.Columns {
		v, ok := row.Numeric(col)
		if !ok {
			return fmt.Errorf("%s at %s, %w", col, row.Timestamp, ErrMissingValue)
		}
		dst[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return nil
}

// Encoder one-hot encodes categorical columns. Categories are sorted and values unseen during
// fitting encode to all zeros.
type Encoder struct {
	Columns    []string   `json:"columns"`
	Categories [][]string `json:"categories"`
}

func FitEncoder(columns []string, rows []feature.Row) *Encoder {
	e := &Encoder{
		Columns:    append([]string(nil), columns...),
		Categories: make([][]string, len(columns)),
	}
	for j, col := range columns {
		seen := make(map[string]struct{})
		for _, row := range rows {
			if v, ok := row.Categorical(col); ok {
				seen[v] = struct{}{}
			}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		e.Categories[j] = cats
	}
	return e
}

func (e *Encoder) Validate() error {
	if len(e.Categories) != len(e.Columns) {
		return fmt.Errorf("encoder has %d columns and %d category sets, %w",
			len(e.Columns), len(e.Categories), ErrInconsistentFit)
	}
	return nil
}

// Width is the number of encoded columns
func (e *Encoder) Width() int {
	var n int
	for _, cats := range e.Categories {
		n += len(cats)
	}
	return n
}

// Transform writes the one-hot encoding of the row into dst, which must be zeroed
func (e *Encoder) Transform(row feature.Row, dst []float64) {
	offset := 0
	for j, col := range e.Columns {
		cats := e.Categories[j]
		if v, ok := row.Categorical(col); ok {
			if idx := sort.SearchStrings(cats, v); idx < len(cats) && cats[idx] == v {
				dst[offset+idx] = 1.0
			}
		}
		offset += len(cats)
	}
}

// Preprocessor combines the scaler and encoder into a single design matrix transform
type Preprocessor struct {
	Scaler  *Scaler  `json:"scaler"`
	Encoder *Encoder `json:"encoder"`
}

// Fit learns the scaling and encoding state from the rows
func Fit(numeric, categorical []string, rows []feature.Row) (*Preprocessor, error) {
	scaler, err := FitScaler(numeric, rows)
	if err != nil {
		return nil, err
	}
	return &Preprocessor{
		Scaler:  scaler,
		Encoder: FitEncoder(categorical, rows),
	}, nil
}

func (p *Preprocessor) Validate() error {
	if p == nil || p.Scaler == nil || p.Encoder == nil {
		return fmt.Errorf("preprocessor is not fit, %w", ErrInconsistentFit)
	}
	if err := p.Scaler.Validate(); err != nil {
		return err
	}
	return p.Encoder.Validate()
}

// Width is the number of columns of the design matrix
func (p *Preprocessor) Width() int {
	return len(p.Scaler.Columns) + p.Encoder.Width()
}

// Labels names every design matrix column, categorical columns as column=category
func (p *Preprocessor) Labels() []string {
	labels := make([]string, 0, p.Width())
	labels = append(labels, p.Scaler.Columns...)
	for j, col := range p.Encoder.Columns {
		for _, cat := range p.Encoder.Categories[j] {
			labels = append(labels, col+"="+cat)
		}
	}
	return labels
}

// Transform returns the design matrix with one row per feature row
func (p *Preprocessor) Transform(rows []feature.Row) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	m, n := len(rows), p.Width()
	numWidth := len(p.Scaler.Columns)

	obs := make([]float64, m*n)
	for i, row := range rows {
		dst := obs[i*n : (i+1)*n]
		if err := p.Scaler.Transform(row, dst[:numWidth]); err != nil {
			return nil, err
		}
		p.Encoder.Transform(row, dst[numWidth:])
	}
	return mat.NewDense(m, n, obs), nil
}
