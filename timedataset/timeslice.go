package timedataset

import (
	"errors"
	"sort"
	"time"
)

// DefaultStep is used whenever the sampling interval cannot be inferred from the data
const DefaultStep = time.Hour

var ErrCannotInferFreq = errors.New("cannot infer frequency from fewer than two time points")

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// MedianInterval returns the median interval between consecutive points. An even number of
// intervals averages the two middle ones.
func (t TimeSlice) MedianInterval() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	deltas := make([]float64, 0, len(t)-1)
	for i := 1; i < len(t); i++ {
		deltas = append(deltas, float64(t[i].Sub(t[i-1])))
	}
	sort.Float64s(deltas)

	mid := len(deltas) / 2
	if len(deltas)%2 == 1 {
		return time.Duration(deltas[mid]), nil
	}
	return time.Duration((deltas[mid-1] + deltas[mid]) / 2.0), nil
}

// InferStep returns the median interval, falling back to DefaultStep when the interval is
// undeterminable or not positive.
func (t TimeSlice) InferStep() time.Duration {
	step, err := t.MedianInterval()
	if err != nil || step <= 0 {
		return DefaultStep
	}
	return step
}
