package timedataset

import (
	"errors"
	"math"
	"time"
)

// Column names shared by the feature builder, the preprocessing pipeline and the ingestion layer.
const (
	ColKWh                = "kwh"
	ColTempOutC           = "temp_out_c"
	ColHumidity           = "humidity"
	ColBaselineKWhPerHour = "baseline_kwh_per_hour"
	ColTariffUSDPerKWh    = "tariff_usd_per_kwh"
	ColHomeSizeSqft       = "home_size_sqft"
	ColOccupants          = "occupants"

	ColSeason       = "season"
	ColHVACType     = "hvac_type"
	ColComfortLevel = "comfort_level"
)

var (
	// PassthroughNumeric are the optional numeric enrichment columns carried into the feature rows
	PassthroughNumeric = []string{
		ColTempOutC,
		ColHumidity,
		ColBaselineKWhPerHour,
		ColTariffUSDPerKWh,
		ColHomeSizeSqft,
		ColOccupants,
	}

	// Categorical are the optional categorical enrichment columns
	Categorical = []string{
		ColSeason,
		ColHVACType,
		ColComfortLevel,
	}
)

var (
	ErrZeroTimestamp     = errors.New("observation has no timestamp")
	ErrInvalidKWh        = errors.New("observation consumption is not a finite number")
	ErrInvalidEnrichment = errors.New("observation enrichment value is not a finite number")
)

// Observation is a single consumption reading with its optional enrichment columns. Optional
// numeric values are nil when absent and optional categorical values are empty when absent.
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	KWh       float64   `json:"consumption_kwh"`

	TempOutC           *float64 `json:"temp_out_c,omitempty"`
	Humidity           *float64 `json:"humidity,omitempty"`
	BaselineKWhPerHour *float64 `json:"baseline_kwh_per_hour,omitempty"`
	TariffUSDPerKWh    *float64 `json:"tariff_usd_per_kwh,omitempty"`
	HomeSizeSqft       *float64 `json:"home_size_sqft,omitempty"`
	Occupants          *float64 `json:"occupants,omitempty"`

	Season       string `json:"season,omitempty"`
	HVACType     string `json:"hvac_type,omitempty"`
	ComfortLevel string `json:"comfort_level,omitempty"`
}

// Float returns a pointer to v, convenient for populating optional observation fields
func Float(v float64) *float64 {
	return &v
}

// Valid reports why an observation cannot be used. Missing timestamps and non finite
// consumption are malformed, as are non finite enrichment values.
func (o Observation) Valid() error {
	if o.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	if math.IsNaN(o.KWh) || math.IsInf(o.KWh, 0) {
		return ErrInvalidKWh
	}
	for _, col := range PassthroughNumeric {
		if v, ok := o.Numeric(col); ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return ErrInvalidEnrichment
		}
	}
	return nil
}

// Numeric returns the value of a numeric column and whether it is present.
func (o Observation) Numeric(col string) (float64, bool) {
	var v *float64
	switch col {
	case ColKWh:
		return o.KWh, true
	case ColTempOutC:
		v = o.TempOutC
	case ColHumidity:
		v = o.Humidity
	case ColBaselineKWhPerHour:
		v = o.BaselineKWhPerHour
	case ColTariffUSDPerKWh:
		v = o.TariffUSDPerKWh
	case ColHomeSizeSqft:
		v = o.HomeSizeSqft
	case ColOccupants:
		v = o.Occupants
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Categorical returns the value of a categorical column and whether it is present.
func (o Observation) Categorical(col string) (string, bool) {
	var v string
	switch col {
	case ColSeason:
		v = o.Season
	case ColHVACType:
		v = o.HVACType
	case ColComfortLevel:
		v = o.ComfortLevel
	}
	return v, v != ""
}
