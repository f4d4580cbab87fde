package feature

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// History is a bounded buffer of the most recent consumption values, oldest first
type History struct {
	size   int
	values []float64
}

// NewHistory creates a buffer holding at most size values seeded with the trailing values of seed
func NewHistory(size int, seed []float64) *History {
	if size < 1 {
		size = 1
	}
	h := &History{
		size:   size,
		values: make([]float64, 0, size+1),
	}
	for _, v := range seed {
		h.Push(v)
	}
	return h
}

// Push appends a value evicting the oldest when full
func (h *History) Push(v float64) {
	h.values = append(h.values, v)
	if len(h.values) > h.size {
		h.values = h.values[1:]
	}
}

func (h *History) Len() int {
	return len(h.values)
}

// Values returns a copy of the buffered values
func (h *History) Values() []float64 {
	res := make([]float64, len(h.values))
	copy(res, h.values)
	return res
}

// Last returns the most recent value or NaN if empty
func (h *History) Last() float64 {
	return h.Lag(0)
}

// Lag returns the value k steps before the most recent one, or NaN if the buffer is too short
func (h *History) Lag(k int) float64 {
	idx := len(h.values) - 1 - k
	if k < 0 || idx < 0 {
		return math.NaN()
	}
	return h.values[idx]
}

// Mean averages the trailing window values, using fewer when the buffer holds less
func (h *History) Mean(window int) float64 {
	n := len(h.values)
	if n == 0 || window < 1 {
		return math.NaN()
	}
	if window > n {
		window = n
	}
	return stat.Mean(h.values[n-window:], nil)
}
