package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/go-powerpulse/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	ts := time.Date(2024, 7, 9, 16, 0, 0, 0, time.UTC)

	testData := map[string]struct {
		input    string
		expected []timedataset.Observation
		rows     int
		dropped  int
		err      error
	}{
		"minimal": {
			input: "timestamp,consumption_kwh\n2024-07-09T16:00:00Z,1.25\n2024-07-09 17:00,0.9\n",
			expected: []timedataset.Observation{
				{Timestamp: ts, KWh: 1.25},
				{Timestamp: ts.Add(time.Hour), KWh: 0.9},
			},
			rows: 2,
		},
		"kwh alias and mixed case header": {
			input: "\ufeffTimestamp, KWH\n2024-07-09 16:00:00,1.5\n",
			expected: []timedataset.Observation{
				{Timestamp: ts, KWh: 1.5},
			},
			rows: 1,
		},
		"enrichment": {
			input: "timestamp,consumption_kwh,temp_out_c,humidity,occupants,season,hvac_type,comfort_level,unused\n" +
				"2024-07-09T16:00:00Z,1.25,31.5,,3,summer,central,eco,x\n",
			expected: []timedataset.Observation{
				{
					Timestamp:    ts,
					KWh:          1.25,
					TempOutC:     timedataset.Float(31.5),
					Occupants:    timedataset.Float(3),
					Season:       "summer",
					HVACType:     "central",
					ComfortLevel: "eco",
				},
			},
			rows: 1,
		},
		"malformed rows dropped": {
			input: "timestamp,consumption_kwh,temp_out_c\n" +
				"not a time,1.0,20\n" +
				"2024-07-09T16:00:00Z,,20\n" +
				"2024-07-09T16:00:00Z,NaN,20\n" +
				"2024-07-09T16:00:00Z,1.0,warm\n" +
				"2024-07-09T17:00:00Z\n",
			expected: []timedataset.Observation{
				{Timestamp: ts, KWh: 1.0},
			},
			rows:    5,
			dropped: 4,
		},
		"no timestamp column": {
			input: "time,consumption_kwh\n2024-07-09T16:00:00Z,1.0\n",
			err:   ErrMissingTimestamp,
		},
		"no consumption column": {
			input: "timestamp,usage\n2024-07-09T16:00:00Z,1.0\n",
			err:   ErrMissingKWh,
		},
		"empty": {
			err: ErrEmptyFile,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Read(strings.NewReader(td.input))
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, res.Observations)
			assert.Equal(t, td.rows, res.Rows)
			assert.Equal(t, td.dropped, res.Dropped)
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy.csv")
	require.Nil(t, os.WriteFile(path, []byte("timestamp,kwh\n2024-07-09T16:00:00Z,1.0\n"), 0o644))

	res, err := ReadFile(path)
	require.Nil(t, err)
	assert.Len(t, res.Observations, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.Nil(t, os.WriteFile(bad, []byte("ts,kwh\n"), 0o644))
	_, err = ReadFile(bad)
	assert.ErrorIs(t, err, ErrMissingTimestamp)
}

func TestReadIn(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.Nil(t, err)

	testData := map[string]struct {
		input    string
		loc      *time.Location
		expected time.Time
	}{
		"zone-less in location": {
			input:    "timestamp,kwh\n2024-07-09 16:00,1.0\n",
			loc:      ny,
			expected: time.Date(2024, 7, 9, 16, 0, 0, 0, ny),
		},
		"explicit offset wins": {
			input:    "timestamp,kwh\n2024-07-09T16:00:00Z,1.0\n",
			loc:      ny,
			expected: time.Date(2024, 7, 9, 12, 0, 0, 0, ny),
		},
		"nil location is utc": {
			input:    "timestamp,kwh\n2024-07-09 16:00,1.0\n",
			expected: time.Date(2024, 7, 9, 16, 0, 0, 0, time.UTC),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := ReadIn(strings.NewReader(td.input), td.loc)
			require.Nil(t, err)
			require.Len(t, res.Observations, 1)
			assert.True(t, td.expected.Equal(res.Observations[0].Timestamp))
			assert.Equal(t, 16, res.Observations[0].Timestamp.Hour())
		})
	}
}
