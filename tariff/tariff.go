// Package tariff describes the daily peak pricing window and the per kWh prices that apply
// inside and outside of it.
package tariff

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	DefaultPeakStartHour = 15
	DefaultPeakEndHour   = 19

	DefaultPeakCentsPerKWh    = 32.0
	DefaultOffPeakCentsPerKWh = 12.0
)

var (
	ErrInvalidHour     = errors.New("peak window hour must be within [0, 23]")
	ErrInvalidLocation = errors.New("unknown peak window timezone")
	ErrNegativePrice   = errors.New("tariff price cannot be negative")
	ErrNonFinitePrice  = errors.New("tariff price must be finite")
)

// PeakWindow is the inclusive daily hour range where usage is peak priced. Hours are evaluated
// in Timezone when set, otherwise in the location of the timestamp itself. A window whose start
// is after its end wraps around midnight.
type PeakWindow struct {
	StartHour int    `json:"start_hour" mapstructure:"start_hour"`
	EndHour   int    `json:"end_hour" mapstructure:"end_hour"`
	Timezone  string `json:"timezone,omitempty" mapstructure:"timezone"`

	// SkipHolidays disables peak pricing on observed US federal holidays
	SkipHolidays bool `json:"skip_holidays,omitempty" mapstructure:"skip_holidays"`

	loc *time.Location
}

// NewDefaultPeakWindow returns the 15:00 through 19:59 window
func NewDefaultPeakWindow() PeakWindow {
	return PeakWindow{
		StartHour: DefaultPeakStartHour,
		EndHour:   DefaultPeakEndHour,
	}
}

// Validate checks the hour bounds and resolves the timezone
func (p PeakWindow) Validate() (PeakWindow, error) {
	if p.StartHour < 0 || p.StartHour > 23 {
		return p, fmt.Errorf("start hour %d, %w", p.StartHour, ErrInvalidHour)
	}
	if p.EndHour < 0 || p.EndHour > 23 {
		return p, fmt.Errorf("end hour %d, %w", p.EndHour, ErrInvalidHour)
	}
	p.loc = nil
	if p.Timezone != "" {
		loc, err := time.LoadLocation(p.Timezone)
		if err != nil {
			return p, fmt.Errorf("%q, %w", p.Timezone, ErrInvalidLocation)
		}
		p.loc = loc
	}
	return p, nil
}

// Local converts the timestamp into the window's timezone
func (p PeakWindow) Local(t time.Time) time.Time {
	if p.loc != nil {
		return t.In(p.loc)
	}
	if p.Timezone != "" {
		if loc, err := time.LoadLocation(p.Timezone); err == nil {
			return t.In(loc)
		}
	}
	return t
}

// ContainsHour reports whether the hour falls inside the window
func (p PeakWindow) ContainsHour(hour int) bool {
	if p.StartHour <= p.EndHour {
		return hour >= p.StartHour && hour <= p.EndHour
	}
	return hour >= p.StartHour || hour <= p.EndHour
}

// Contains reports whether the timestamp is peak priced
func (p PeakWindow) Contains(t time.Time) bool {
	local := p.Local(t)
	if !p.ContainsHour(local.Hour()) {
		return false
	}
	if p.SkipHolidays && IsHoliday(local) {
		return false
	}
	return true
}

// Tariff holds the per kWh price inside and outside of the peak window
type Tariff struct {
	PeakCentsPerKWh    float64 `json:"peak_cents_per_kwh" mapstructure:"peak_cents_per_kwh"`
	OffPeakCentsPerKWh float64 `json:"off_peak_cents_per_kwh" mapstructure:"off_peak_cents_per_kwh"`
}

func NewDefaultTariff() Tariff {
	return Tariff{
		PeakCentsPerKWh:    DefaultPeakCentsPerKWh,
		OffPeakCentsPerKWh: DefaultOffPeakCentsPerKWh,
	}
}

func (t Tariff) Validate() error {
	for _, c := range []float64{t.PeakCentsPerKWh, t.OffPeakCentsPerKWh} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%.3f cents, %w", c, ErrNonFinitePrice)
		}
		if c < 0 {
			return ErrNegativePrice
		}
	}
	return nil
}

// CentsPerKWh returns the applicable price
func (t Tariff) CentsPerKWh(peak bool) float64 {
	if peak {
		return t.PeakCentsPerKWh
	}
	return t.OffPeakCentsPerKWh
}
