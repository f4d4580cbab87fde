package savings

import (
	"math"
	"testing"

	"github.com/aouyang1/go-powerpulse/tariff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		err error
	}{
		"nil": {},
		"negative share": {
			opt: &Options{HVACShare: -0.1},
			err: ErrNegativeParameter,
		},
		"nan intensity": {
			opt: &Options{GridIntensityGPerKWh: math.NaN()},
			err: ErrNonFiniteParameter,
		},
		"inf intensity": {
			opt: &Options{GridIntensityGPerKWh: math.Inf(1)},
			err: ErrNonFiniteParameter,
		},
		"nan tariff": {
			opt: &Options{Tariff: tariff.Tariff{PeakCentsPerKWh: math.NaN()}},
			err: tariff.ErrNonFinitePrice,
		},
		"negative tariff": {
			opt: &Options{Tariff: tariff.Tariff{PeakCentsPerKWh: -1}},
			err: tariff.ErrNegativePrice,
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
			assert.Equal(t, NewDefaultOptions(), opt)
		})
	}
}

func TestThermostatKWh(t *testing.T) {
	testData := map[string]struct {
		opt       *Options
		predicted float64
		expected  float64
	}{
		"default fraction": {
			predicted: 2.0,
			expected:  0.098,
		},
		"capped fraction": {
			opt: &Options{
				HVACShare:     0.7,
				PerDegreeRate: 0.035,
				DeltaF:        20,
				// 0.49 uncapped
				MaxSpikeFraction: 0.2,
			},
			predicted: 2.0,
			expected:  0.4,
		},
		"negative prediction": {
			predicted: -1,
			expected:  0,
		},
		"nan prediction": {
			predicted: math.NaN(),
			expected:  0,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			c, err := NewCalculator(td.opt)
			require.Nil(t, err)
			assert.InDelta(t, td.expected, c.ThermostatKWh(td.predicted), 1e-12)
		})
	}
}

func TestFor(t *testing.T) {
	c, err := NewCalculator(nil)
	require.Nil(t, err)

	testData := map[string]struct {
		kwh      float64
		peak     bool
		expected Savings
	}{
		"peak shift": {
			kwh:      c.ShiftKWh(),
			peak:     true,
			expected: Savings{KWh: 1.0, CO2G: 450, CostUSD: 0.32},
		},
		"off peak": {
			kwh:      1.0,
			expected: Savings{KWh: 1.0, CO2G: 450, CostUSD: 0.12},
		},
		"rounded": {
			kwh:      0.0612,
			peak:     true,
			expected: Savings{KWh: 0.061, CO2G: 27, CostUSD: 0.02},
		},
		"zero": {
			kwh:      0,
			expected: Savings{},
		},
		"negative clamps": {
			kwh:      -3,
			peak:     true,
			expected: Savings{},
		},
		"infinite clamps": {
			kwh:      math.Inf(1),
			expected: Savings{},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, c.For(td.kwh, td.peak))
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, Round2(1.2351))
	assert.Equal(t, 0.0, Round2(math.NaN()))
	assert.Equal(t, 3.0, Round2(3))
}
