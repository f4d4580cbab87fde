package feature

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-powerpulse/tariff"
	"github.com/aouyang1/go-powerpulse/timedataset"
)

// DefaultGapFactor starts a new segment when consecutive observations are more than 1.5 steps
// apart
const DefaultGapFactor = 1.5

var ErrNegativeGapFactor = errors.New("gap factor cannot be negative")

// Options configures feature construction
type Options struct {
	PeakWindow tariff.PeakWindow `json:"peak_window" mapstructure:"peak_window"`

	// GapFactor is the multiple of the step interval beyond which lag and rolling features are
	// restarted. Zero disables segmentation.
	GapFactor float64 `json:"gap_factor" mapstructure:"gap_factor"`
}

func NewDefaultOptions() *Options {
	return &Options{
		PeakWindow: tariff.NewDefaultPeakWindow(),
		GapFactor:  DefaultGapFactor,
	}
}

// Validate returns a copy of the options with the peak window resolved, populating defaults if
// the receiver is nil
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.GapFactor < 0 || math.IsNaN(o.GapFactor) {
		return nil, fmt.Errorf("gap factor %.3f, %w", o.GapFactor, ErrNegativeGapFactor)
	}
	window, err := o.PeakWindow.Validate()
	if err != nil {
		return nil, err
	}
	return &Options{
		PeakWindow: window,
		GapFactor:  o.GapFactor,
	}, nil
}

// Builder derives feature rows from a dataset
type Builder struct {
	opt *Options
}

func NewBuilder(opt *Options) (*Builder, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Builder{opt: opt}, nil
}

// Options returns the validated options of the builder
func (b *Builder) Options() Options {
	return *b.opt
}

// Calendar returns the hour, Monday based day of week and peak flag of the timestamp in the
// peak window's timezone
func (b *Builder) Calendar(t time.Time) (int, int, bool) {
	local := b.opt.PeakWindow.Local(t)
	return local.Hour(), weekday(local), b.opt.PeakWindow.Contains(t)
}

// Segments assigns a segment index to each timestamp, incrementing it wherever the interval to
// the previous timestamp exceeds the gap factor times the step
func (b *Builder) Segments(t timedataset.TimeSlice, step time.Duration) []int {
	seg := make([]int, len(t))
	if b.opt.GapFactor == 0 || step <= 0 {
		return seg
	}
	limit := time.Duration(b.opt.GapFactor * float64(step))
	for i := 1; i < len(t); i++ {
		seg[i] = seg[i-1]
		if t[i].Sub(t[i-1]) > limit {
			seg[i]++
		}
	}
	return seg
}

// Build returns one row per observation. Rolling means are trailing with partial windows and lags
// are NaN for the first two rows of each segment.
func (b *Builder) Build(ds *timedataset.Dataset, step time.Duration) []Row {
	if ds == nil || ds.Len() == 0 {
		return nil
	}
	seg := b.Segments(ds.T(), step)

	rows := make([]Row, ds.Len())
	var hist *History
	for i, obs := range ds.Obs {
		if i == 0 || seg[i] != seg[i-1] {
			hist = NewHistory(LongWindow, nil)
		}
		hist.Push(obs.KWh)

		hour, dow, peak := b.Calendar(obs.Timestamp)
		rows[i] = Row{
			Timestamp: obs.Timestamp,
			Segment:   seg[i],
			Hour:      hour,
			DayOfWeek: dow,
			IsPeak:    peak,
			KWh:       obs.KWh,
			MA3:       hist.Mean(ShortWindow),
			MA12:      hist.Mean(LongWindow),
			Lag1:      hist.Lag(1),
			Lag2:      hist.Lag(2),
			Obs:       obs,
		}
	}
	return rows
}

// Next returns the row for timestamp t given a history whose most recent value is the
// consumption one step before t. Passthrough fields are held at prev.
func (b *Builder) Next(prev Row, t time.Time, hist *History) Row {
	hour, dow, peak := b.Calendar(t)

	// lags are relative to t, so the most recent value is one step back
	lag1 := hist.Last()
	lag2 := hist.Lag(1)
	if math.IsNaN(lag2) {
		lag2 = lag1
	}

	obs := prev.Obs
	obs.Timestamp = t
	obs.KWh = hist.Last()

	return Row{
		Timestamp: t,
		Segment:   prev.Segment,
		Hour:      hour,
		DayOfWeek: dow,
		IsPeak:    peak,
		KWh:       hist.Last(),
		MA3:       hist.Mean(ShortWindow),
		MA12:      hist.Mean(LongWindow),
		Lag1:      lag1,
		Lag2:      lag2,
		Obs:       obs,
	}
}
