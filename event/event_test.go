package event

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1/go-powerpulse/forecast"
	"github.com/aouyang1/go-powerpulse/savings"
	"github.com/aouyang1/go-powerpulse/tariff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	peakTime    = time.Date(2024, 7, 9, 16, 0, 0, 0, time.UTC)
	offPeakTime = time.Date(2024, 7, 9, 9, 0, 0, 0, time.UTC)
)

func TestDeviation(t *testing.T) {
	testData := map[string]struct {
		predicted float64
		baseline  float64
		expected  float64
	}{
		"above":          {1.25, 1.0, 0.25},
		"below":          {0.5, 1.0, -0.5},
		"equal":          {1.2, 1.2, 0},
		"zero baseline":  {3.0, 0, 0},
		"negative base":  {3.0, -1, 0},
		"tiny baseline":  {1.0, 1e-9, (1.0 - 1e-9) / DeviationEpsilon},
		"nan predicted":  {math.NaN(), 1.0, 0},
		"inf baseline":   {1.0, math.Inf(1), 0},
		"zero predicted": {0, 2.0, -1},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			dev := Deviation(td.predicted, td.baseline)
			assert.InDelta(t, td.expected, dev, 1e-9)
			assert.False(t, math.IsNaN(dev) || math.IsInf(dev, 0))
		})
	}
}

func TestClassifyPoint(t *testing.T) {
	c, err := NewClassifier(nil)
	require.Nil(t, err)
	window, err := tariff.NewDefaultPeakWindow().Validate()
	require.Nil(t, err)

	testData := map[string]struct {
		point      forecast.Point
		baseline   float64
		typ        Type
		suggestion Suggestion
		reason     string
		savings    savings.Savings
	}{
		"spike beats peak": {
			point:      forecast.Point{Timestamp: peakTime, PredictedKWh: 1.25},
			baseline:   1.0,
			typ:        TypeSpike,
			suggestion: SuggestionRaiseTherm,
			reason:     "Predicted usage 25% above baseline",
			// 1.25 * 0.049 rounds to 0.061 kWh
			savings: savings.Savings{KWh: 0.061, CO2G: 27, CostUSD: 0.02},
		},
		"spike off peak": {
			point:      forecast.Point{Timestamp: offPeakTime, PredictedKWh: 1.3},
			baseline:   1.0,
			typ:        TypeSpike,
			suggestion: SuggestionRaiseTherm,
			reason:     "Predicted usage 30% above baseline",
			savings:    savings.Savings{KWh: 0.064, CO2G: 29, CostUSD: 0.01},
		},
		"peak window": {
			point:      forecast.Point{Timestamp: peakTime, PredictedKWh: 1.05},
			baseline:   1.0,
			typ:        TypePeak,
			suggestion: SuggestionShiftAppliance,
			reason:     ReasonPeak,
			savings:    savings.Savings{KWh: 1.0, CO2G: 450, CostUSD: 0.32},
		},
		"normal off peak": {
			point:      forecast.Point{Timestamp: offPeakTime, PredictedKWh: 1.0},
			baseline:   1.0,
			typ:        TypeNormal,
			suggestion: SuggestionNone,
			reason:     ReasonNormal,
		},
		"zero baseline is never a spike": {
			point:      forecast.Point{Timestamp: offPeakTime, PredictedKWh: 5.0},
			baseline:   0,
			typ:        TypeNormal,
			suggestion: SuggestionNone,
			reason:     ReasonNormal,
		},
		"nan prediction clamps": {
			point:      forecast.Point{Timestamp: offPeakTime, PredictedKWh: math.NaN()},
			baseline:   1.0,
			typ:        TypeNormal,
			suggestion: SuggestionNone,
			reason:     ReasonNormal,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			e := c.ClassifyPoint(td.point, td.baseline, window)
			assert.Equal(t, td.typ, e.Type)
			assert.Equal(t, td.suggestion, e.Suggestion)
			assert.Equal(t, td.reason, e.Reason)
			assert.Equal(t, td.savings, e.Savings)
			assert.Equal(t, td.point.Timestamp, e.At)
			assert.False(t, math.IsNaN(e.Deviation))
			assert.GreaterOrEqual(t, e.PredictedKWh, 0.0)
		})
	}
}

func TestClassifyConstantConsumption(t *testing.T) {
	c, err := NewClassifier(nil)
	require.Nil(t, err)

	points := make([]forecast.Point, 0, 12)
	for i := 0; i < 12; i++ {
		// midnight through 11:00 stays outside the default peak window
		points = append(points, forecast.Point{
			Timestamp:    time.Date(2024, 7, 9, i, 0, 0, 0, time.UTC),
			PredictedKWh: 1.2,
		})
	}

	events, err := c.Classify(points, 1.2, tariff.NewDefaultPeakWindow())
	require.Nil(t, err)
	require.Len(t, events, len(points))
	for _, e := range events {
		assert.Equal(t, 0.0, e.Deviation)
		assert.Equal(t, TypeNormal, e.Type)
		assert.Equal(t, savings.Savings{}, e.Savings)
	}
}

func TestClassifyErrors(t *testing.T) {
	c, err := NewClassifier(nil)
	require.Nil(t, err)

	_, err = c.Classify(nil, 1.0, tariff.PeakWindow{StartHour: 25})
	assert.ErrorIs(t, err, tariff.ErrInvalidHour)

	events, err := c.Classify(nil, 1.0, tariff.NewDefaultPeakWindow())
	require.Nil(t, err)
	assert.Empty(t, events)

	_, err = NewClassifier(&Options{SpikeThreshold: 0})
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = NewClassifier(&Options{SpikeThreshold: 0.2, Savings: savings.Options{DeltaF: -1}})
	assert.ErrorIs(t, err, savings.ErrNegativeParameter)

	_, err = NewClassifier(&Options{SpikeThreshold: 0.2, Savings: savings.Options{GridIntensityGPerKWh: math.Inf(1)}})
	assert.ErrorIs(t, err, savings.ErrNonFiniteParameter)
}

func TestSummarize(t *testing.T) {
	events := []Event{
		{Type: TypeSpike, PredictedKWh: 1.25, Savings: savings.Savings{KWh: 0.061}},
		{Type: TypePeak, PredictedKWh: 1.05, Savings: savings.Savings{KWh: 1.0}},
		{Type: TypeNormal, PredictedKWh: 1.001},
		{Type: TypeNormal, PredictedKWh: 0.7},
	}

	s := Summarize(events)
	assert.Equal(t, 4.0, s.TodayKWh)
	assert.Equal(t, 1.06, s.PotentialSavingsKWh)
	assert.Equal(t, map[Type]int{TypeSpike: 1, TypePeak: 1, TypeNormal: 2}, s.Counts)

	empty := Summarize(nil)
	assert.Equal(t, 0.0, empty.TodayKWh)
	assert.Equal(t, 0.0, empty.PotentialSavingsKWh)
}

func TestPickTopEvent(t *testing.T) {
	first := Event{Type: TypePeak, At: peakTime, Savings: savings.Savings{KWh: 1.0}}
	second := Event{Type: TypePeak, At: peakTime.Add(time.Hour), Savings: savings.Savings{KWh: 1.0}}
	spike := Event{Type: TypeSpike, At: offPeakTime, Savings: savings.Savings{KWh: 1.0}}
	normal := Event{Type: TypeNormal, At: offPeakTime}
	bigger := Event{Type: TypeSpike, At: offPeakTime, Savings: savings.Savings{KWh: 1.5}}

	testData := map[string]struct {
		events   []Event
		expected Event
		found    bool
	}{
		"empty": {},
		"tie between actionable keeps first": {
			events:   []Event{first, second},
			expected: first,
			found:    true,
		},
		"tie across types keeps first": {
			events:   []Event{spike, first},
			expected: spike,
			found:    true,
		},
		"actionable beats normal at equal savings": {
			events:   []Event{normal, {Type: TypeSpike, At: peakTime}},
			expected: Event{Type: TypeSpike, At: peakTime},
			found:    true,
		},
		"all normal keeps first": {
			events:   []Event{normal, {Type: TypeNormal, At: peakTime}},
			expected: normal,
			found:    true,
		},
		"largest savings wins": {
			events:   []Event{first, normal, bigger, second},
			expected: bigger,
			found:    true,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			top, found := PickTopEvent(td.events)
			assert.Equal(t, td.found, found)
			assert.Equal(t, td.expected, top)
		})
	}
}
