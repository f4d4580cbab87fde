package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateT returns n points spaced by interval that end one interval before the minute
// truncated time returned by nowFunc.
func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := time.Unix(nowFunc().Unix()/60*60, 0).Add(-time.Duration(n) * interval).UTC()
	for i := 0; i < n; i++ {
		t = append(t, ct.Add(interval*time.Duration(i)))
	}
	return t
}

// Series is a synthetic consumption series used to build observations
type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// ClampMin raises every value below min up to min
func (s Series) ClampMin(min float64) Series {
	for i := range s {
		if s[i] < min {
			s[i] = min
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateDailyLoadY returns a daily sinusoidal load that peaks at peakHour UTC
func GenerateDailyLoadY(t []time.Time, amp float64, peakHour int) Series {
	n := len(t)
	y := make([]float64, 0, n)
	offset := float64(peakHour)*3600.0 - 86400.0/4.0
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi/86400.0*(float64(t[i].Unix())-offset))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateNoise returns gaussian noise with the given scale drawn from a seeded source so that
// generated datasets are reproducible.
func GenerateNoise(n int, scale float64, seed uint64) Series {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rng.NormFloat64()*scale)
	}
	return Series(y)
}

// GenerateObservations zips the timestamps with the consumption values
func GenerateObservations(t []time.Time, y Series) []Observation {
	n := len(t)
	if len(y) < n {
		n = len(y)
	}
	obs := make([]Observation, 0, n)
	for i := 0; i < n; i++ {
		obs = append(obs, Observation{Timestamp: t[i], KWh: y[i]})
	}
	return obs
}
