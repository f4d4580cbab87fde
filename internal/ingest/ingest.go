// Package ingest reads consumption history from CSV files with canonical column names.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-powerpulse/timedataset"
)

const (
	ColTimestamp = "timestamp"

	// ColConsumptionKWh is the preferred consumption header, ColKWh is accepted as an alias
	ColConsumptionKWh = "consumption_kwh"
	ColKWh            = timedataset.ColKWh
)

var (
	ErrMissingTimestamp = errors.New("csv has no timestamp column")
	ErrMissingKWh       = errors.New("csv has no consumption_kwh or kwh column")
	ErrEmptyFile        = errors.New("csv has no header")
)

// timestampLayouts are tried in order, timestamps without a zone are read in the reader's location
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Result holds the parsed observations along with the number of rows that could not be parsed
type Result struct {
	Observations []timedataset.Observation
	Rows         int
	Dropped      int
}

// ReadFile parses the CSV file at path reading zone-less timestamps as UTC
func ReadFile(path string) (*Result, error) {
	return ReadFileIn(path, time.UTC)
}

// ReadFileIn parses the CSV file at path reading zone-less timestamps in loc
func ReadFileIn(path string, loc *time.Location) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	res, err := ReadIn(file, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Read parses CSV records into observations reading zone-less timestamps as UTC
func Read(r io.Reader) (*Result, error) {
	return ReadIn(r, time.UTC)
}

// ReadIn parses CSV records into observations. Header names are matched case insensitively.
// Timestamps without a zone are read in loc, which keeps hour of day and the peak window in
// the household's local time. Rows with an unparsable timestamp or consumption are dropped and
// counted, unparsable enrichment values are treated as absent.
func ReadIn(r io.Reader, loc *time.Location) (*Result, error) {
	if loc == nil {
		loc = time.UTC
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, exists := cols[name]; !exists {
			cols[name] = i
		}
	}

	tsIdx, ok := cols[ColTimestamp]
	if !ok {
		return nil, ErrMissingTimestamp
	}
	kwhIdx, ok := cols[ColConsumptionKWh]
	if !ok {
		if kwhIdx, ok = cols[ColKWh]; !ok {
			return nil, ErrMissingKWh
		}
	}

	res := &Result{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.Rows++
				res.Dropped++
				continue
			}
			return nil, fmt.Errorf("read record: %w", err)
		}
		res.Rows++

		ts, ok := parseTimestamp(field(record, tsIdx), loc)
		if !ok {
			res.Dropped++
			continue
		}
		kwh, ok := parseFloat(field(record, kwhIdx))
		if !ok {
			res.Dropped++
			continue
		}

		o := timedataset.Observation{Timestamp: ts, KWh: kwh}
		for _, col := range timedataset.PassthroughNumeric {
			idx, exists := cols[col]
			if !exists {
				continue
			}
			if v, ok := parseFloat(field(record, idx)); ok {
				setNumeric(&o, col, v)
			}
		}
		for _, col := range timedataset.Categorical {
			idx, exists := cols[col]
			if !exists {
				continue
			}
			if v := strings.TrimSpace(field(record, idx)); v != "" {
				setCategorical(&o, col, v)
			}
		}
		res.Observations = append(res.Observations, o)
	}
	return res, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func setNumeric(o *timedataset.Observation, col string, v float64) {
	p := timedataset.Float(v)
	switch col {
	case timedataset.ColTempOutC:
		o.TempOutC = p
	case timedataset.ColHumidity:
		o.Humidity = p
	case timedataset.ColBaselineKWhPerHour:
		o.BaselineKWhPerHour = p
	case timedataset.ColTariffUSDPerKWh:
		o.TariffUSDPerKWh = p
	case timedataset.ColHomeSizeSqft:
		o.HomeSizeSqft = p
	case timedataset.ColOccupants:
		o.Occupants = p
	}
}

func setCategorical(o *timedataset.Observation, col, v string) {
	switch col {
	case timedataset.ColSeason:
		o.Season = v
	case timedataset.ColHVACType:
		o.HVACType = v
	case timedataset.ColComfortLevel:
		o.ComfortLevel = v
	}
}
