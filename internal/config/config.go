// Package config loads the powerpulse configuration from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	forecaster "github.com/aouyang1/go-powerpulse"
	"github.com/aouyang1/go-powerpulse/baseline"
	"github.com/aouyang1/go-powerpulse/event"
	"github.com/aouyang1/go-powerpulse/feature"
	"github.com/aouyang1/go-powerpulse/forecast"
	"github.com/aouyang1/go-powerpulse/internal/logging"
	"github.com/aouyang1/go-powerpulse/linearmodel"
	"github.com/aouyang1/go-powerpulse/savings"
	"github.com/aouyang1/go-powerpulse/tariff"
	"github.com/aouyang1/go-powerpulse/timedataset"
)

const (
	EnvPrefix = "POWERPULSE"

	DefaultCSVPath = "data/energy.csv"
)

var (
	ErrEmptyCSVPath    = errors.New("data.csv_path must be set")
	ErrInvalidTimezone = errors.New("unknown data.timezone")
)

// Config materialises application configuration.
type Config struct {
	Logging    logging.Config     `mapstructure:"logging"`
	Data       DataConfig         `mapstructure:"data"`
	Forecaster forecaster.Options `mapstructure:"forecaster"`
}

// DataConfig locates the consumption history.
type DataConfig struct {
	CSVPath string `mapstructure:"csv_path"`

	// Timezone is the location of timestamps recorded without a zone, UTC when empty
	Timezone string `mapstructure:"timezone"`
}

// Location resolves Timezone
func (d DataConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%q, %w", d.Timezone, ErrInvalidTimezone)
	}
	return loc, nil
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("powerpulse")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", logging.FormatJSON)
	v.SetDefault("logging.time_format", "")
	v.SetDefault("logging.caller", false)
	v.SetDefault("logging.pretty", false)

	v.SetDefault("data.csv_path", DefaultCSVPath)
	v.SetDefault("data.timezone", "")

	v.SetDefault("forecaster.forecast.features.peak_window.start_hour", tariff.DefaultPeakStartHour)
	v.SetDefault("forecaster.forecast.features.peak_window.end_hour", tariff.DefaultPeakEndHour)
	v.SetDefault("forecaster.forecast.features.peak_window.timezone", "")
	v.SetDefault("forecaster.forecast.features.peak_window.skip_holidays", false)
	v.SetDefault("forecaster.forecast.features.gap_factor", feature.DefaultGapFactor)
	v.SetDefault("forecaster.forecast.ridge.alpha", linearmodel.DefaultAlpha)
	v.SetDefault("forecaster.forecast.ridge.fit_intercept", true)
	v.SetDefault("forecaster.forecast.train_ratio", forecast.DefaultTrainRatio)
	v.SetDefault("forecaster.forecast.gap_rows", forecast.DefaultGapRows)

	v.SetDefault("forecaster.event.spike_threshold", event.DefaultSpikeThreshold)
	v.SetDefault("forecaster.event.savings.hvac_share", savings.DefaultHVACShare)
	v.SetDefault("forecaster.event.savings.per_degree_rate", savings.DefaultPerDegreeRate)
	v.SetDefault("forecaster.event.savings.delta_f", savings.DefaultDeltaF)
	v.SetDefault("forecaster.event.savings.max_spike_fraction", savings.DefaultMaxSpikeFraction)
	v.SetDefault("forecaster.event.savings.shiftable_kwh", savings.DefaultShiftableKWh)
	v.SetDefault("forecaster.event.savings.grid_intensity_g_per_kwh", savings.DefaultGridIntensityGkWh)
	v.SetDefault("forecaster.event.savings.tariff.peak_cents_per_kwh", tariff.DefaultPeakCentsPerKWh)
	v.SetDefault("forecaster.event.savings.tariff.off_peak_cents_per_kwh", tariff.DefaultOffPeakCentsPerKWh)

	v.SetDefault("forecaster.baseline", map[string]float64{
		baseline.SizeSmall:  baseline.DefaultSmallKWh,
		baseline.SizeMedium: baseline.DefaultMediumKWh,
		baseline.SizeLarge:  baseline.DefaultLargeKWh,
	})
	v.SetDefault("forecaster.rule.temp_ref_c", baseline.DefaultRuleTempRefC)
	v.SetDefault("forecaster.rule.kwh_per_degree_c", baseline.DefaultRuleKWhPerDegreeC)

	v.SetDefault("forecaster.home_size", baseline.SizeMedium)
	v.SetDefault("forecaster.artifact_path", forecaster.DefaultArtifactPath)
	v.SetDefault("forecaster.forecast_cache_path", forecaster.DefaultForecastCachePath)
	v.SetDefault("forecaster.horizon", forecast.DefaultHorizon)
	v.SetDefault("forecaster.duplicate_policy", string(timedataset.KeepLast))
	v.SetDefault("forecaster.resample_interval", "0s")
	v.SetDefault("forecaster.cumulative_fraction", forecaster.DefaultCumulativeFraction)
	v.SetDefault("forecaster.train_if_missing", false)
	v.SetDefault("forecaster.rule_fallback", false)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Data.CSVPath == "" {
		return ErrEmptyCSVPath
	}
	if _, err := c.Data.Location(); err != nil {
		return err
	}
	if _, err := c.Forecaster.Validate(); err != nil {
		return fmt.Errorf("forecaster: %w", err)
	}
	return nil
}
