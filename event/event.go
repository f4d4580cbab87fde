// Package event classifies forecast points against a baseline into actionable events and
// summarizes the potential savings.
package event

import (
	"time"

	"github.com/aouyang1/go-powerpulse/forecast"
	"github.com/aouyang1/go-powerpulse/savings"
)

// Type of an event
type Type string

const (
	TypeSpike  Type = "SPIKE"
	TypePeak   Type = "PEAK"
	TypeNormal Type = "NORMAL"
)

// Suggestion is the action recommended for an event
type Suggestion string

const (
	SuggestionRaiseTherm     Suggestion = "RAISE_THERM"
	SuggestionShiftAppliance Suggestion = "SHIFT_APPLIANCE"
	SuggestionNone           Suggestion = "NONE"
)

const (
	ReasonPeak   = "Peak tariff window"
	ReasonNormal = "Within expected range"
)

// Event is the classification of a single forecast point
type Event struct {
	Type       Type            `json:"type"`
	At         time.Time       `json:"at"`
	Suggestion Suggestion      `json:"suggestion"`
	Savings    savings.Savings `json:"savings"`
	Reason     string          `json:"reason"`

	Deviation    float64         `json:"deviation"`
	PredictedKWh float64         `json:"predicted_kwh"`
	BaselineKWh  float64         `json:"baseline_kwh"`
	IsPeak       bool            `json:"is_peak"`
	Source       forecast.Source `json:"source"`
}

// Summary aggregates the events of a forecast horizon
type Summary struct {
	TodayKWh            float64      `json:"today_kwh"`
	PotentialSavingsKWh float64      `json:"potential_savings_kwh"`
	Counts              map[Type]int `json:"counts"`
}

// Summarize totals the predicted usage of every event and the savings of the actionable ones.
// Totals are rounded to two decimals.
func Summarize(events []Event) Summary {
	s := Summary{
		Counts: map[Type]int{
			TypeSpike:  0,
			TypePeak:   0,
			TypeNormal: 0,
		},
	}
	var today, potential float64
	for _, e := range events {
		today += e.PredictedKWh
		if e.Type != TypeNormal {
			potential += e.Savings.KWh
		}
		s.Counts[e.Type]++
	}
	s.TodayKWh = savings.Round2(today)
	s.PotentialSavingsKWh = savings.Round2(potential)
	return s
}

// PickTopEvent returns the event with the most kWh savings. Ties favor actionable events over
// NORMAL ones and then the earliest event. The boolean is false when there are no events.
func PickTopEvent(events []Event) (Event, bool) {
	if len(events) == 0 {
		return Event{}, false
	}
	best := 0
	for i := 1; i < len(events); i++ {
		if better(events[i], events[best]) {
			best = i
		}
	}
	return events[best], true
}

func better(a, b Event) bool {
	if a.Savings.KWh != b.Savings.KWh {
		return a.Savings.KWh > b.Savings.KWh
	}
	return a.Type != TypeNormal && b.Type == TypeNormal
}
