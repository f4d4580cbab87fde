package timedataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrInsufficientData       = errors.New("insufficient data")
	ErrUnknownDuplicatePolicy = errors.New("unknown duplicate timestamp policy")
	ErrNonPositiveInterval    = errors.New("resample interval must be positive")
)

// InsufficientDataError is returned whenever too few usable rows remain to train or forecast.
// It unwraps to ErrInsufficientData.
type InsufficientDataError struct {
	Reason string
	Rows   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data, %s (%d usable rows)", e.Reason, e.Rows)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// DuplicatePolicy decides which observation survives when several share a timestamp
type DuplicatePolicy string

const (
	KeepLast  DuplicatePolicy = "keep_last"
	KeepFirst DuplicatePolicy = "keep_first"
)

// Validate defaults an empty policy to KeepLast and rejects unknown ones
func (p DuplicatePolicy) Validate() (DuplicatePolicy, error) {
	switch p {
	case "":
		return KeepLast, nil
	case KeepLast, KeepFirst:
		return p, nil
	}
	return p, fmt.Errorf("%q, %w", string(p), ErrUnknownDuplicatePolicy)
}

// Dataset is a chronologically ordered series of observations without duplicate timestamps.
// Dropped counts malformed input rows and Duplicates counts rows discarded by the duplicate
// policy.
type Dataset struct {
	Obs        []Observation
	Dropped    int
	Duplicates int
}

// NewDataset validates, sorts and de-duplicates the observations. Malformed observations are
// dropped and counted rather than failing, unless nothing usable remains.
func NewDataset(obs []Observation, policy DuplicatePolicy) (*Dataset, error) {
	policy, err := policy.Validate()
	if err != nil {
		return nil, err
	}

	valid := make([]Observation, 0, len(obs))
	var dropped int
	for _, o := range obs {
		if o.Valid() != nil {
			dropped++
			continue
		}
		valid = append(valid, o)
	}
	if len(valid) == 0 {
		return nil, &InsufficientDataError{Reason: "no valid observations", Rows: 0}
	}

	// stable so that input order decides the duplicate winner
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Timestamp.Before(valid[j].Timestamp)
	})

	deduped := make([]Observation, 0, len(valid))
	for _, o := range valid {
		last := len(deduped) - 1
		if last >= 0 && deduped[last].Timestamp.Equal(o.Timestamp) {
			if policy == KeepLast {
				deduped[last] = o
			}
			continue
		}
		deduped = append(deduped, o)
	}

	return &Dataset{
		Obs:        deduped,
		Dropped:    dropped,
		Duplicates: len(valid) - len(deduped),
	}, nil
}

// Len returns the number of observations
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Obs)
}

// T returns the observation timestamps
func (d *Dataset) T() TimeSlice {
	t := make(TimeSlice, len(d.Obs))
	for i, o := range d.Obs {
		t[i] = o.Timestamp
	}
	return t
}

// Y returns the observed consumption values
func (d *Dataset) Y() []float64 {
	y := make([]float64, len(d.Obs))
	for i, o := range d.Obs {
		y[i] = o.KWh
	}
	return y
}

// Last returns the most recent observation
func (d *Dataset) Last() (Observation, bool) {
	if d.Len() == 0 {
		return Observation{}, false
	}
	return d.Obs[len(d.Obs)-1], true
}

// LastKnown returns the last observation with every absent enrichment column filled from the
// most recent earlier observation that carries it
func (d *Dataset) LastKnown() (Observation, bool) {
	last, ok := d.Last()
	if !ok {
		return last, false
	}
	for i := len(d.Obs) - 2; i >= 0; i-- {
		o := d.Obs[i]
		if last.TempOutC == nil {
			last.TempOutC = o.TempOutC
		}
		if last.Humidity == nil {
			last.Humidity = o.Humidity
		}
		if last.BaselineKWhPerHour == nil {
			last.BaselineKWhPerHour = o.BaselineKWhPerHour
		}
		if last.TariffUSDPerKWh == nil {
			last.TariffUSDPerKWh = o.TariffUSDPerKWh
		}
		if last.HomeSizeSqft == nil {
			last.HomeSizeSqft = o.HomeSizeSqft
		}
		if last.Occupants == nil {
			last.Occupants = o.Occupants
		}
		if last.Season == "" {
			last.Season = o.Season
		}
		if last.HVACType == "" {
			last.HVACType = o.HVACType
		}
		if last.ComfortLevel == "" {
			last.ComfortLevel = o.ComfortLevel
		}
	}
	return last, true
}

// HasNumeric reports whether any observation carries the numeric column
func (d *Dataset) HasNumeric(col string) bool {
	for _, o := range d.Obs {
		if _, ok := o.Numeric(col); ok {
			return true
		}
	}
	return false
}

// HasCategorical reports whether any observation carries the categorical column
func (d *Dataset) HasCategorical(col string) bool {
	for _, o := range d.Obs {
		if _, ok := o.Categorical(col); ok {
			return true
		}
	}
	return false
}

func (d *Dataset) Copy() *Dataset {
	obs := make([]Observation, len(d.Obs))
	copy(obs, d.Obs)
	return &Dataset{
		Obs:        obs,
		Dropped:    d.Dropped,
		Duplicates: d.Duplicates,
	}
}

// IsCumulative reports whether the consumption looks like a cumulative meter reading, that is
// more than the given fraction of consecutive differences are non-negative.
func IsCumulative(y []float64, fraction float64) bool {
	if len(y) < 2 {
		return false
	}
	// the first difference is undefined and counts as a zero step
	nonDecreasing := 1
	for i := 1; i < len(y); i++ {
		if y[i]-y[i-1] >= -1e-9 {
			nonDecreasing++
		}
	}
	return float64(nonDecreasing)/float64(len(y)) > fraction
}

// Difference converts a cumulative meter series into per interval consumption. The first
// observation and any observation following a meter reset are dropped and counted.
func (d *Dataset) Difference() *Dataset {
	out := &Dataset{
		Obs:        make([]Observation, 0, len(d.Obs)),
		Dropped:    d.Dropped,
		Duplicates: d.Duplicates,
	}
	if len(d.Obs) > 0 {
		out.Dropped++
	}
	for i := 1; i < len(d.Obs); i++ {
		delta := d.Obs[i].KWh - d.Obs[i-1].KWh
		if delta < 0 || math.IsNaN(delta) {
			out.Dropped++
			continue
		}
		o := d.Obs[i]
		o.KWh = delta
		out.Obs = append(out.Obs, o)
	}
	return out
}

// Resample sums consumption into fixed bins aligned to the interval. The enrichment columns of
// the last observation in each bin are kept.
func (d *Dataset) Resample(interval time.Duration) (*Dataset, error) {
	if interval <= 0 {
		return nil, ErrNonPositiveInterval
	}

	out := &Dataset{
		Obs:        make([]Observation, 0, len(d.Obs)),
		Dropped:    d.Dropped,
		Duplicates: d.Duplicates,
	}
	for _, o := range d.Obs {
		bin := o.Timestamp.Truncate(interval)
		last := len(out.Obs) - 1
		if last >= 0 && out.Obs[last].Timestamp.Equal(bin) {
			kwh := out.Obs[last].KWh + o.KWh
			out.Obs[last] = o
			out.Obs[last].Timestamp = bin
			out.Obs[last].KWh = kwh
			continue
		}
		o.Timestamp = bin
		out.Obs = append(out.Obs, o)
	}
	return out, nil
}

// DistinctCount returns the number of distinct values
func DistinctCount(y []float64) int {
	seen := make(map[float64]struct{}, len(y))
	for _, v := range y {
		seen[v] = struct{}{}
	}
	return len(seen)
}
