package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testData := map[string]struct {
		cfg      Config
		debug    bool
		jsonLine bool
	}{
		"defaults": {
			jsonLine: true,
		},
		"debug level": {
			cfg:      Config{Level: "DEBUG", Format: FormatJSON},
			debug:    true,
			jsonLine: true,
		},
		"unknown level falls back to info": {
			cfg:      Config{Level: "loud"},
			jsonLine: true,
		},
		"console": {
			cfg:   Config{Level: "debug", Format: "Console"},
			debug: true,
		},
		"pretty": {
			cfg: Config{PrettyPrint: true},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(td.cfg, &buf)

			logger.Debug().Msg("debug message")
			assert.Equal(t, td.debug, strings.Contains(buf.String(), "debug message"))

			buf.Reset()
			logger.Info().Str("component", "test").Msg("info message")
			require.Contains(t, buf.String(), "info message")

			if !td.jsonLine {
				assert.Contains(t, buf.String(), "component=test")
				return
			}
			var line map[string]interface{}
			require.Nil(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, "info", line["level"])
			assert.Equal(t, "test", line["component"])
			assert.Contains(t, line, "time")
		})
	}
}
