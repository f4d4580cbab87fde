package forecaster

import (
	"github.com/aouyang1/go-powerpulse/event"
	"github.com/aouyang1/go-powerpulse/forecast"
)

// Analysis is the classified forecast of a home over the configured horizon
type Analysis struct {
	HorizonMinutes int              `json:"horizon_minutes"`
	BaselineKWh    float64          `json:"baseline_kwh"`
	Series         []forecast.Point `json:"series"`
	Events         []event.Event    `json:"events"`
	Summary        event.Summary    `json:"summary"`
	TopEvent       *event.Event     `json:"top_event"`
}
