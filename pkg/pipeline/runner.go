package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/mvermeulen/analemma/pkg/cache"
	"github.com/mvermeulen/analemma/pkg/detect"
	"github.com/mvermeulen/analemma/pkg/ephemeris"
	"github.com/mvermeulen/analemma/pkg/errors"
	"github.com/mvermeulen/analemma/pkg/metadata"
	"github.com/mvermeulen/analemma/pkg/overlay"
	"github.com/mvermeulen/analemma/pkg/sky"
	"github.com/mvermeulen/analemma/pkg/solar"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating orchestration logic.
//
// The Runner is stateless except for the cache, provider and logger, so
// multiple goroutines can safely share one Runner with different options.
type Runner struct {
	Cache    cache.Cache
	Provider ephemeris.Provider
	Logger   *log.Logger
}

// NewRunner creates a runner.
// If c is nil, a NullCache is used (caching disabled).
// If provider is nil, only approximate mode is available.
func NewRunner(c cache.Cache, provider ephemeris.Provider, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Provider: provider, Logger: logger}
}

// model builds the solar model for the requested mode.
func (r *Runner) model(opts Options) (solar.Model, error) {
	switch opts.Mode {
	case ModeHorizons:
		return solar.NewDelegatedModel(r.Provider)
	default:
		return solar.ApproximateModel{}, nil
	}
}

// seriesKey identifies one computed year in the cache.
func seriesKey(opts Options) string {
	obs := opts.Observer()
	params := fmt.Sprintf("%s|%d|%02d:%02d|%.6f|%.6f|%.2f",
		opts.Mode, opts.Year, opts.Hour, opts.Minute,
		obs.Latitude, obs.Longitude, obs.TimezoneOffset)
	return "series:" + cache.Hash([]byte(params))
}

// runID tags one pipeline run's log lines for correlation across stages.
func runID() string {
	return uuid.NewString()[:8]
}

// Compute runs the compute and project stages for one year.
func (r *Runner) Compute(ctx context.Context, opts Options) (*Result, error) {
	if !opts.validated {
		if err := opts.ValidateAndSetDefaults(); err != nil {
			return nil, err
		}
	}
	logger := r.Logger.With("run", runID())

	m, err := r.model(opts)
	if err != nil {
		return nil, err
	}
	obs := opts.Observer()
	result := &Result{}

	key := seriesKey(opts)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var horizon []sky.HorizonPosition
			if err := json.Unmarshal(data, &horizon); err == nil {
				result.Horizon = horizon
				result.CacheHit = true
			}
		}
	}

	if !result.CacheHit {
		computeStart := time.Now()
		positions, err := solar.Year(ctx, m, opts.Year, opts.Hour, opts.Minute)
		if err != nil {
			return nil, err
		}
		result.Timing.Compute = time.Since(computeStart)

		projectStart := time.Now()
		result.Horizon = obs.ProjectSeries(positions, opts.Hour, opts.Minute)
		result.Timing.Project = time.Since(projectStart)

		if data, err := json.Marshal(result.Horizon); err == nil {
			if err := r.Cache.Set(ctx, key, data, DefaultSeriesTTL); err != nil {
				logger.Debug("series cache write failed", "error", err)
			}
		}
	}

	result.Positions = make([]solar.Position, len(result.Horizon))
	for i, h := range result.Horizon {
		result.Positions[i] = h.Position
	}
	result.Stats = Summarize(result.Horizon)

	logger.Info("computed year",
		"mode", opts.Mode,
		"year", opts.Year,
		"days", result.Stats.Days,
		"cache_hit", result.CacheHit,
		"duration", result.Timing.Compute+result.Timing.Project)

	return result, nil
}

// Position computes the projected sky position for a single date at the
// options' clock time.
func (r *Runner) Position(ctx context.Context, opts Options, date time.Time) (sky.HorizonPosition, error) {
	if !opts.validated {
		if err := opts.ValidateAndSetDefaults(); err != nil {
			return sky.HorizonPosition{}, err
		}
	}
	m, err := r.model(opts)
	if err != nil {
		return sky.HorizonPosition{}, err
	}
	pos, err := m.Position(ctx, date)
	if err != nil {
		return sky.HorizonPosition{}, err
	}
	return opts.Observer().Project(pos, opts.Hour, opts.Minute), nil
}

// applyMetadata fills unset options from an observation sidecar. Explicit
// option values always win over the sidecar.
func applyMetadata(opts *Options, obs metadata.Observation, sidecarPath string) error {
	if err := obs.Validate(); err != nil {
		return err
	}
	if opts.Latitude == 0 && opts.Longitude == 0 {
		opts.Latitude = obs.Latitude
		opts.Longitude = obs.Longitude
	}
	if opts.CaptureTime.IsZero() {
		opts.CaptureTime = obs.Capture
	}
	if opts.FocalLengthMM == 0 {
		opts.FocalLengthMM = obs.FocalLengthMM
	}
	if opts.SensorWidthMM == 0 {
		opts.SensorWidthMM = obs.SensorWidthMM
	}
	if opts.SensorHeightMM == 0 {
		opts.SensorHeightMM = obs.SensorHeightMM
	}
	if opts.ImagePath == "" {
		path, err := obs.ResolveImage(sidecarPath)
		if err != nil {
			return err
		}
		opts.ImagePath = path
	}
	return nil
}

// Overlay runs the full photograph pipeline: load, calibrate, compute the
// year at the capture clock time, anchor (detected or given), project and
// draw. The year series is sampled at the capture clock time so every dot
// lines up with when the camera fired.
func (r *Runner) Overlay(ctx context.Context, opts Options) (*OverlayResult, error) {
	if opts.MetadataPath != "" {
		obs, err := metadata.Load(opts.MetadataPath)
		if err != nil {
			return nil, err
		}
		if err := applyMetadata(&opts, obs, opts.MetadataPath); err != nil {
			return nil, err
		}
	}
	if opts.ImagePath == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "overlay needs an image path or a metadata file")
	}
	if opts.CaptureTime.IsZero() {
		return nil, errors.New(errors.ErrCodeConfiguration, "overlay needs the capture time")
	}
	if !opts.HasCamera() {
		return nil, errors.New(errors.ErrCodeConfiguration, "overlay needs camera parameters (field of view or focal length)")
	}
	opts.Hour = opts.CaptureTime.Hour()
	opts.Minute = opts.CaptureTime.Minute()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.Logger.With("run", runID())

	img, err := imaging.Open(opts.ImagePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "failed to load photograph")
	}
	if opts.ImageWidth == 0 {
		opts.ImageWidth = img.Bounds().Dx()
	}
	if opts.ImageHeight == 0 {
		opts.ImageHeight = img.Bounds().Dy()
	}
	cal, err := opts.Calibrate()
	if err != nil {
		return nil, err
	}

	result := &OverlayResult{}

	// Anchor pixel: given explicitly or detected in the photograph.
	if opts.AnchorSet {
		result.Anchor.Pixel.X = opts.AnchorX
		result.Anchor.Pixel.Y = opts.AnchorY
	} else {
		detectStart := time.Now()
		det, err := detect.New().Detect(img)
		if err != nil {
			return nil, err
		}
		result.Timing.Detect = time.Since(detectStart)
		result.Anchor.Pixel = det.Center
		result.Detection = det.Strategy
		logger.Info("detected sun",
			"pixel", det.Center,
			"strategy", det.Strategy,
			"area", det.Area)
	}

	// Sky position of the Sun at the capture moment.
	m, err := r.model(opts)
	if err != nil {
		return nil, err
	}
	capturePos, err := m.Position(ctx, opts.CaptureTime)
	if err != nil {
		return nil, err
	}
	obs := opts.Observer()
	captureHorizon := obs.Project(capturePos, opts.Hour, opts.Minute)
	if !captureHorizon.AzimuthDefined {
		return nil, errors.New(errors.ErrCodeDomain, "sun at zenith at capture time, anchor azimuth undefined")
	}
	result.Anchor.Altitude = captureHorizon.Altitude
	result.Anchor.Azimuth = captureHorizon.Azimuth

	year, err := r.Compute(ctx, opts)
	if err != nil {
		return nil, err
	}
	proj, err := overlay.ProjectYear(result.Anchor, cal, year.Horizon)
	if err != nil {
		return nil, err
	}
	result.Projection = proj.Stats

	renderStart := time.Now()
	style := overlay.DefaultStyle()
	style.LabelInterval = opts.LabelInterval
	style.Caption = fmt.Sprintf("analemma %d at %02d:%02d", opts.Year, opts.Hour, opts.Minute)
	out, renderStats, err := overlay.Render(img, proj, style)
	if err != nil {
		return nil, err
	}
	result.Render = renderStats
	result.Timing.Render = time.Since(renderStart)
	result.Timing.Compute = year.Timing.Compute
	result.Timing.Project = year.Timing.Project

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to encode overlay")
	}
	result.Image = buf.Bytes()

	logger.Info("rendered overlay",
		"drawn", renderStats.Drawn,
		"below_horizon", proj.Stats.BelowHorizon,
		"out_of_bounds", renderStats.OutOfBounds,
		"duration", result.Timing.Render)

	return result, nil
}

// Compare runs the approximate and the delegated model over the same year
// and summarizes their disagreement.
func (r *Runner) Compare(ctx context.Context, opts Options) (*CompareResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	approx := opts
	approx.Mode = ModeApproximate
	approxResult, err := r.Compute(ctx, approx)
	if err != nil {
		return nil, err
	}

	delegated := opts
	delegated.Mode = ModeHorizons
	delegatedResult, err := r.Compute(ctx, delegated)
	if err != nil {
		return nil, err
	}

	deltas, err := CompareSeries(approxResult.Horizon, delegatedResult.Horizon)
	if err != nil {
		return nil, err
	}
	return &CompareResult{
		Approximate: approxResult.Horizon,
		Delegated:   delegatedResult.Horizon,
		Deltas:      deltas,
	}, nil
}
