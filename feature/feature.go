package feature

import (
	"math"
	"time"

	"github.com/aouyang1/go-powerpulse/timedataset"
)

// Derived column names
const (
	ColMA3       = "ma3"
	ColMA12      = "ma12"
	ColLag1      = "lag1"
	ColLag2      = "lag2"
	ColHour      = "hour"
	ColDayOfWeek = "dayofweek"
	ColIsPeak    = "is_peak"
)

const (
	ShortWindow = 3
	LongWindow  = 12
)

// Row is one observation enriched with calendar, lag and rolling features. Lag values are NaN
// when there are not enough prior values in the same segment.
type Row struct {
	Timestamp time.Time
	Segment   int

	Hour      int
	DayOfWeek int
	IsPeak    bool

	KWh  float64
	MA3  float64
	MA12 float64
	Lag1 float64
	Lag2 float64

	// Obs carries the passthrough enrichment fields
	Obs timedataset.Observation
}

// Numeric returns the value of a derived or passthrough numeric column. The boolean is false if
// the column is unknown, absent on the observation or undefined.
func (r Row) Numeric(col string) (float64, bool) {
	var v float64
	switch col {
	case timedataset.ColKWh:
		v = r.KWh
	case ColMA3:
		v = r.MA3
	case ColMA12:
		v = r.MA12
	case ColLag1:
		v = r.Lag1
	case ColLag2:
		v = r.Lag2
	case ColHour:
		v = float64(r.Hour)
	case ColDayOfWeek:
		v = float64(r.DayOfWeek)
	case ColIsPeak:
		if r.IsPeak {
			v = 1.0
		}
	default:
		return r.Obs.Numeric(col)
	}
	if math.IsNaN(v) {
		return v, false
	}
	return v, true
}

// Categorical returns a passthrough categorical column
func (r Row) Categorical(col string) (string, bool) {
	return r.Obs.Categorical(col)
}

// Columns returns the numeric and categorical columns usable by a model trained on the dataset,
// in their canonical order. A passthrough column is included if any observation carries it.
func Columns(ds *timedataset.Dataset) ([]string, []string) {
	numeric := []string{
		timedataset.ColKWh, ColMA3, ColMA12, ColLag1, ColLag2,
	}
	for _, col := range []string{timedataset.ColTempOutC, timedataset.ColHumidity} {
		if ds.HasNumeric(col) {
			numeric = append(numeric, col)
		}
	}
	numeric = append(numeric, ColHour, ColDayOfWeek, ColIsPeak)
	for _, col := range []string{
		timedataset.ColBaselineKWhPerHour,
		timedataset.ColTariffUSDPerKWh,
		timedataset.ColHomeSizeSqft,
		timedataset.ColOccupants,
	} {
		if ds.HasNumeric(col) {
			numeric = append(numeric, col)
		}
	}

	var categorical []string
	for _, col := range timedataset.Categorical {
		if ds.HasCategorical(col) {
			categorical = append(categorical, col)
		}
	}
	return numeric, categorical
}

// weekday with Monday as 0 and Sunday as 6
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
