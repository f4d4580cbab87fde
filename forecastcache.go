package forecaster

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/aouyang1/go-powerpulse/forecast"
	"github.com/aouyang1/go-powerpulse/pipeline"
	"github.com/aouyang1/go-powerpulse/timedataset"
	"github.com/goccy/go-json"
)

// ForecastCache is the persisted forecast of the stored model for a given set of observations
type ForecastCache struct {
	ModelID      string           `json:"model_id"`
	LastObserved time.Time        `json:"last_observed"`
	Step         time.Duration    `json:"step"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Points       []forecast.Point `json:"points"`
}

// ReadForecastCache reads the forecast cache at path
func ReadForecastCache(path string) (*ForecastCache, error) {
	in, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c ForecastCache
	if err := json.Unmarshal(in, &c); err != nil {
		return nil, fmt.Errorf("unable to decode forecast cache %s, %w", path, err)
	}
	return &c, nil
}

// Write stores the forecast cache at path, replacing any existing file atomically
func (c *ForecastCache) Write(path string) error {
	if path == "" {
		return ErrEmptyCachePath
	}
	out, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode forecast cache, %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create forecast cache directory, %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create temporary forecast cache, %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write forecast cache, %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to write forecast cache, %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadForecast returns the cached forecast for the observations. The model is retrained and the
// horizon forecast again when refresh is set, when no cache exists, or when the cache was produced
// by another model or from a different last observation.
func (f *Forecaster) LoadForecast(obs []timedataset.Observation, refresh bool) ([]forecast.Point, error) {
	ds, err := f.Prepare(obs)
	if err != nil {
		return nil, err
	}
	last, _ := ds.Last()
	path := f.opt.ForecastCachePath

	if !refresh {
		cached, reason := f.freshCache(path, last.Timestamp)
		if cached != nil {
			f.logger.Debug().Str("path", path).Str("model_id", cached.ModelID).Msg("forecast cache hit")
			return cached.Points, nil
		}
		f.logger.Info().Str("path", path).Str("reason", reason).Msg("forecast cache stale, retraining")
	}

	p, _, err := f.train(ds)
	if err != nil {
		return nil, err
	}
	points, err := forecast.Recursive(p, ds, f.opt.Horizon)
	if err != nil {
		return nil, err
	}
	points = forecast.WithBaseline(points, f.Baseline(ds, f.opt.HomeSize))

	c := &ForecastCache{
		ModelID:      p.Model.ID,
		LastObserved: last.Timestamp,
		Step:         p.Model.Step,
		GeneratedAt:  f.nowFunc().UTC(),
		Points:       points,
	}
	if err := c.Write(path); err != nil {
		return nil, err
	}
	return points, nil
}

// freshCache returns the cache at path if it is still valid for the stored model and the last
// observation, otherwise the reason it cannot be used
func (f *Forecaster) freshCache(path string, lastObserved time.Time) (*ForecastCache, string) {
	c, err := ReadForecastCache(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "missing"
		}
		f.logger.Warn().Err(err).Str("path", path).Msg("unreadable forecast cache")
		return nil, "unreadable"
	}

	p, err := f.cache.Load(f.opt.ArtifactPath)
	if err != nil {
		if !errors.Is(err, pipeline.ErrModelNotFound) {
			f.logger.Warn().Err(err).Msg("unable to load model for forecast cache")
		}
		return nil, "model unavailable"
	}
	switch {
	case c.ModelID != p.Model.ID:
		return nil, "model changed"
	case !c.LastObserved.Equal(lastObserved):
		return nil, "new observations"
	}
	return c, ""
}
