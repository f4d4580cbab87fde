package feature

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1/go-powerpulse/tariff"
	"github.com/aouyang1/go-powerpulse/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday 2024-07-08 13:00 UTC
var start = time.Date(2024, 7, 8, 13, 0, 0, 0, time.UTC)

func hours(offsets ...int) []time.Time {
	t := make([]time.Time, len(offsets))
	for i, h := range offsets {
		t[i] = start.Add(time.Duration(h) * time.Hour)
	}
	return t
}

func newDataset(t *testing.T, ts []time.Time, y []float64) *timedataset.Dataset {
	ds, err := timedataset.NewDataset(timedataset.GenerateObservations(ts, y), timedataset.KeepLast)
	require.Nil(t, err)
	return ds
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *Options
		err      error
		expected float64
	}{
		"nil": {
			opt:      nil,
			expected: DefaultGapFactor,
		},
		"disabled segmentation": {
			opt:      &Options{PeakWindow: tariff.NewDefaultPeakWindow()},
			expected: 0,
		},
		"negative gap factor": {
			opt: &Options{GapFactor: -1},
			err: ErrNegativeGapFactor,
		},
		"bad peak window": {
			opt: &Options{PeakWindow: tariff.PeakWindow{StartHour: 30}},
			err: tariff.ErrInvalidHour,
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
			assert.Equal(t, td.expected, opt.GapFactor)
		})
	}
}

func TestBuild(t *testing.T) {
	b, err := NewBuilder(nil)
	require.Nil(t, err)

	ds := newDataset(t, hours(0, 1, 2, 3, 4), []float64{1, 2, 3, 4, 5})
	rows := b.Build(ds, time.Hour)
	require.Len(t, rows, 5)

	nan := math.NaN()
	expected := []struct {
		hour       int
		peak       bool
		ma3, ma12  float64
		lag1, lag2 float64
	}{
		{13, false, 1, 1, nan, nan},
		{14, false, 1.5, 1.5, 1, nan},
		{15, true, 2, 2, 2, 1},
		{16, true, 3, 2.5, 3, 2},
		{17, true, 4, 3, 4, 3},
	}
	for i, e := range expected {
		row := rows[i]
		assert.Equal(t, e.hour, row.Hour, "hour %d", i)
		assert.Equal(t, 0, row.DayOfWeek, "monday %d", i)
		assert.Equal(t, e.peak, row.IsPeak, "peak %d", i)
		assert.InDelta(t, e.ma3, row.MA3, 1e-12, "ma3 %d", i)
		assert.InDelta(t, e.ma12, row.MA12, 1e-12, "ma12 %d", i)
		if math.IsNaN(e.lag1) {
			assert.True(t, math.IsNaN(row.Lag1), "lag1 %d", i)
		} else {
			assert.Equal(t, e.lag1, row.Lag1, "lag1 %d", i)
		}
		if math.IsNaN(e.lag2) {
			assert.True(t, math.IsNaN(row.Lag2), "lag2 %d", i)
		} else {
			assert.Equal(t, e.lag2, row.Lag2, "lag2 %d", i)
		}
	}
}

func TestBuildLongWindow(t *testing.T) {
	b, err := NewBuilder(nil)
	require.Nil(t, err)

	offsets := make([]int, 14)
	y := make([]float64, 14)
	for i := range offsets {
		offsets[i] = i
		y[i] = float64(i + 1)
	}
	rows := b.Build(newDataset(t, hours(offsets...), y), time.Hour)

	// values 3 through 14
	assert.InDelta(t, 8.5, rows[13].MA12, 1e-12)
	assert.InDelta(t, 13.0, rows[13].MA3, 1e-12)
}

func TestBuildSegments(t *testing.T) {
	testData := map[string]struct {
		gapFactor float64
		expected  []int
	}{
		"segmented":     {DefaultGapFactor, []int{0, 0, 0, 1, 1}},
		"no segmenting": {0, []int{0, 0, 0, 0, 0}},
		"wide factor":   {4, []int{0, 0, 0, 0, 0}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			b, err := NewBuilder(&Options{PeakWindow: tariff.NewDefaultPeakWindow(), GapFactor: td.gapFactor})
			require.Nil(t, err)

			rows := b.Build(newDataset(t, hours(0, 1, 2, 5, 6), []float64{1, 2, 3, 10, 20}), time.Hour)
			segments := make([]int, len(rows))
			for i, row := range rows {
				segments[i] = row.Segment
			}
			assert.Equal(t, td.expected, segments)

			if td.expected[3] == 1 {
				assert.True(t, math.IsNaN(rows[3].Lag1))
				assert.Equal(t, 10.0, rows[3].MA3)
				assert.Equal(t, 15.0, rows[4].MA12)
			}
		})
	}
}

func TestCalendarTimezone(t *testing.T) {
	b, err := NewBuilder(&Options{
		PeakWindow: tariff.PeakWindow{StartHour: 15, EndHour: 19, Timezone: "America/New_York"},
	})
	require.Nil(t, err)

	// 02:00 UTC monday is 22:00 sunday in New York
	hour, dow, peak := b.Calendar(time.Date(2024, 7, 8, 2, 0, 0, 0, time.UTC))
	assert.Equal(t, 22, hour)
	assert.Equal(t, 6, dow)
	assert.False(t, peak)
}

func TestTrainingExamples(t *testing.T) {
	b, err := NewBuilder(nil)
	require.Nil(t, err)

	testData := map[string]struct {
		ts      []time.Time
		y       []float64
		targets []float64
		dropped int
	}{
		"contiguous": {
			ts:      hours(0, 1, 2, 3, 4),
			y:       []float64{1, 2, 3, 4, 5},
			targets: []float64{4, 5},
			dropped: 3,
		},
		"gap separates target": {
			ts:      hours(0, 1, 2, 5, 6),
			y:       []float64{1, 2, 3, 4, 5},
			targets: []float64{},
			dropped: 5,
		},
		"too short": {
			ts:      hours(0, 1),
			y:       []float64{1, 2},
			targets: []float64{},
			dropped: 2,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds := newDataset(t, td.ts, td.y)
			numeric, categorical := Columns(ds)
			examples, dropped := TrainingExamples(b.Build(ds, time.Hour), numeric, categorical)
			assert.Equal(t, td.dropped, dropped)
			assert.Equal(t, td.targets, Targets(examples))
		})
	}
}

func TestTrainingExamplesMissingColumn(t *testing.T) {
	b, err := NewBuilder(nil)
	require.Nil(t, err)

	obs := timedataset.GenerateObservations(hours(0, 1, 2, 3, 4, 5), []float64{1, 2, 3, 4, 5, 6})
	for i := range obs {
		if i != 3 {
			obs[i].TempOutC = timedataset.Float(25)
		}
	}
	ds, err := timedataset.NewDataset(obs, timedataset.KeepLast)
	require.Nil(t, err)

	numeric, categorical := Columns(ds)
	assert.Contains(t, numeric, timedataset.ColTempOutC)

	examples, dropped := TrainingExamples(b.Build(ds, time.Hour), numeric, categorical)
	assert.Equal(t, 4, dropped)
	assert.Equal(t, []float64{4, 6}, Targets(examples))
}

func TestColumns(t *testing.T) {
	obs := timedataset.GenerateObservations(hours(0, 1), []float64{1, 2})
	obs[0].TempOutC = timedataset.Float(20)
	obs[1].Occupants = timedataset.Float(3)
	obs[1].Season = "summer"
	ds, err := timedataset.NewDataset(obs, timedataset.KeepLast)
	require.Nil(t, err)

	numeric, categorical := Columns(ds)
	assert.Equal(t, []string{
		"kwh", "ma3", "ma12", "lag1", "lag2", "temp_out_c", "hour", "dayofweek", "is_peak", "occupants",
	}, numeric)
	assert.Equal(t, []string{"season"}, categorical)
}

func TestNext(t *testing.T) {
	b, err := NewBuilder(nil)
	require.Nil(t, err)

	prev := Row{Segment: 2, Obs: timedataset.Observation{Season: "winter", TempOutC: timedataset.Float(3)}}
	next := start.Add(2 * time.Hour)

	testData := map[string]struct {
		seed                 []float64
		kwh, lag1, lag2, ma3 float64
	}{
		"full history": {[]float64{1, 2, 3}, 3, 3, 2, 2},
		"two values":   {[]float64{4, 6}, 6, 6, 4, 5},
		"single value": {[]float64{5}, 5, 5, 5, 5},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			row := b.Next(prev, next, NewHistory(LongWindow, td.seed))
			assert.Equal(t, next, row.Timestamp)
			assert.Equal(t, 15, row.Hour)
			assert.True(t, row.IsPeak)
			assert.Equal(t, 2, row.Segment)
			assert.Equal(t, td.kwh, row.KWh)
			assert.Equal(t, td.lag1, row.Lag1)
			assert.Equal(t, td.lag2, row.Lag2)
			assert.InDelta(t, td.ma3, row.MA3, 1e-12)

			season, ok := row.Categorical(timedataset.ColSeason)
			assert.True(t, ok)
			assert.Equal(t, "winter", season)
			temp, ok := row.Numeric(timedataset.ColTempOutC)
			assert.True(t, ok)
			assert.Equal(t, 3.0, temp)
		})
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory(3, []float64{1, 2, 3, 4})
	assert.Equal(t, []float64{2, 3, 4}, h.Values())
	assert.Equal(t, 4.0, h.Last())
	assert.Equal(t, 2.0, h.Lag(2))
	assert.True(t, math.IsNaN(h.Lag(3)))

	h.Push(10)
	assert.Equal(t, []float64{3, 4, 10}, h.Values())
	assert.InDelta(t, 7.0, h.Mean(2), 1e-12)
	assert.InDelta(t, 17.0/3.0, h.Mean(12), 1e-12)

	empty := NewHistory(LongWindow, nil)
	assert.Equal(t, 0, empty.Len())
	assert.True(t, math.IsNaN(empty.Last()))
	assert.True(t, math.IsNaN(empty.Mean(ShortWindow)))
}
