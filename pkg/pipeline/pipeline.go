// Package pipeline provides the core computation pipeline shared by the CLI
// and the HTTP API.
//
// The pipeline consists of three stages:
//
//  1. Compute: one solar position per day of the year at a fixed clock time
//  2. Project: horizon coordinates (altitude, azimuth) for the observer
//  3. Render: optional outputs built on top of the projected year, either
//     charts or a photograph overlay anchored by sun detection
//
// Centralizing this keeps the CLI and the server behaving identically, and
// puts the caching of computed years in one place.
package pipeline

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mvermeulen/analemma/pkg/camera"
	"github.com/mvermeulen/analemma/pkg/errors"
	"github.com/mvermeulen/analemma/pkg/overlay"
	"github.com/mvermeulen/analemma/pkg/sky"
	"github.com/mvermeulen/analemma/pkg/solar"
)

// Computation mode names. Approximate runs the closed-form model,
// horizons delegates declination to the JPL Horizons ephemeris.
const (
	ModeApproximate = "approximate"
	ModeHorizons    = "horizons"
)

// ValidModes is the set of supported computation modes.
var ValidModes = map[string]bool{
	ModeApproximate: true,
	ModeHorizons:    true,
}

// Default clock time for the daily sample. Local noon keeps the Sun above
// the horizon for most observers.
const (
	DefaultHour   = 12
	DefaultMinute = 0
)

// DefaultSeriesTTL bounds how long a computed year stays cached.
const DefaultSeriesTTL = 7 * 24 * time.Hour

// Options contains all configuration for the pipeline. The struct supports
// JSON serialization for API requests.
type Options struct {
	// Observer options
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Timezone is the UTC offset in hours. Only used when TimezoneSet is
	// true; otherwise it is derived from the longitude.
	Timezone    float64 `json:"timezone,omitempty"`
	TimezoneSet bool    `json:"timezone_set,omitempty"`

	// Compute options
	Year   int    `json:"year,omitempty"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Mode   string `json:"mode,omitempty"`

	// Camera options, either a field of view or focal length + sensor.
	ImageWidth     int     `json:"image_width,omitempty"`
	ImageHeight    int     `json:"image_height,omitempty"`
	HFOVDeg        float64 `json:"hfov_deg,omitempty"`
	VFOVDeg        float64 `json:"vfov_deg,omitempty"`
	FocalLengthMM  float64 `json:"focal_length_mm,omitempty"`
	SensorWidthMM  float64 `json:"sensor_width_mm,omitempty"`
	SensorHeightMM float64 `json:"sensor_height_mm,omitempty"`

	// Overlay options
	ImagePath    string    `json:"image_path,omitempty"`
	MetadataPath string    `json:"metadata_path,omitempty"`
	CaptureTime  time.Time `json:"capture_time,omitempty"`

	// AnchorX/AnchorY pin the anchor pixel instead of detecting the Sun.
	AnchorX   int  `json:"anchor_x,omitempty"`
	AnchorY   int  `json:"anchor_y,omitempty"`
	AnchorSet bool `json:"anchor_set,omitempty"`

	// LabelInterval labels every Nth plotted day on the overlay.
	LabelInterval int `json:"label_interval,omitempty"`

	// Refresh bypasses the series cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks ranges and fills unset fields. It must run
// before the Runner uses the options.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Latitude < -90 || o.Latitude > 90 {
		return errors.New(errors.ErrCodeConfiguration, "latitude must be in [-90, 90]")
	}
	if o.Longitude < -180 || o.Longitude > 180 {
		return errors.New(errors.ErrCodeConfiguration, "longitude must be in [-180, 180]")
	}
	if o.Hour < 0 || o.Hour > 23 {
		return errors.New(errors.ErrCodeConfiguration, "hour must be in [0, 23]")
	}
	if o.Minute < 0 || o.Minute > 59 {
		return errors.New(errors.ErrCodeConfiguration, "minute must be in [0, 59]")
	}
	if o.Year == 0 {
		o.Year = time.Now().Year()
	}
	if o.Year < 1 || o.Year > 9999 {
		return errors.New(errors.ErrCodeConfiguration, "year must be in [1, 9999]")
	}
	if o.Mode == "" {
		o.Mode = ModeApproximate
	}
	if !ValidModes[o.Mode] {
		return errors.New(errors.ErrCodeConfiguration, "unknown mode %q (use approximate or horizons)", o.Mode)
	}
	if o.TimezoneSet && (o.Timezone < -12 || o.Timezone > 14) {
		return errors.New(errors.ErrCodeConfiguration, "timezone offset must be in [-12, 14]")
	}
	o.validated = true
	return nil
}

// Observer builds the sky observer from the options.
func (o *Options) Observer() sky.Observer {
	obs := sky.NewObserver(o.Latitude, o.Longitude)
	if o.TimezoneSet {
		obs = obs.WithTimezoneOffset(o.Timezone)
	}
	return obs
}

// HasCamera reports whether the options carry optical parameters to
// calibrate from. Image dimensions are taken from the photograph itself.
func (o *Options) HasCamera() bool {
	return o.HFOVDeg > 0 || o.VFOVDeg > 0 || o.FocalLengthMM > 0
}

// Calibrate builds the camera calibration from the options, preferring an
// explicit field of view over focal length.
func (o *Options) Calibrate() (camera.Calibration, error) {
	if o.HFOVDeg > 0 || o.VFOVDeg > 0 {
		return camera.FromFOV(o.ImageWidth, o.ImageHeight, o.HFOVDeg, o.VFOVDeg)
	}
	sw, sh := o.SensorWidthMM, o.SensorHeightMM
	if sw == 0 {
		sw = camera.DefaultSensorWidthMM
	}
	if sh == 0 {
		sh = camera.DefaultSensorHeightMM
	}
	return camera.FromFocalLength(o.ImageWidth, o.ImageHeight, o.FocalLengthMM, sw, sh)
}

// Result contains the outputs of a Compute run.
type Result struct {
	// Positions is the raw solar series, one entry per day.
	Positions []solar.Position `json:"positions"`

	// Horizon is the projected series for the observer.
	Horizon []sky.HorizonPosition `json:"horizon"`

	// Stats summarizes the computed year.
	Stats SeriesStats `json:"stats"`

	// Timing contains per-stage durations.
	Timing Timing `json:"timing"`

	// CacheHit reports whether the series came from the cache.
	CacheHit bool `json:"cache_hit"`
}

// OverlayResult contains the outputs of an Overlay run.
type OverlayResult struct {
	// Image is the photograph with the analemma drawn on it.
	Image []byte `json:"-"`

	// Anchor that tied the sky to the photograph.
	Anchor overlay.Anchor `json:"anchor"`

	// Detection describes how the anchor pixel was found, empty when the
	// anchor was given explicitly.
	Detection string `json:"detection,omitempty"`

	// Projection statistics.
	Projection overlay.Stats `json:"projection"`

	// Render statistics.
	Render overlay.RenderStats `json:"render"`

	// Timing contains per-stage durations.
	Timing Timing `json:"timing"`
}

// CompareResult contains the outputs of a Compare run.
type CompareResult struct {
	// Approximate and Delegated are the two projected series.
	Approximate []sky.HorizonPosition `json:"approximate"`
	Delegated   []sky.HorizonPosition `json:"delegated"`

	// Deltas summarizes how far the two models are apart.
	Deltas CompareStats `json:"deltas"`
}

// Timing contains pipeline execution durations.
type Timing struct {
	Compute time.Duration `json:"compute"`
	Project time.Duration `json:"project"`
	Detect  time.Duration `json:"detect,omitempty"`
	Render  time.Duration `json:"render,omitempty"`
}

// SeriesStats summarizes a projected year.
type SeriesStats struct {
	Days int `json:"days"`

	AltitudeMin  float64 `json:"altitude_min"`
	AltitudeMax  float64 `json:"altitude_max"`
	AltitudeSpan float64 `json:"altitude_span"`

	AzimuthMin  float64 `json:"azimuth_min"`
	AzimuthMax  float64 `json:"azimuth_max"`
	AzimuthSpan float64 `json:"azimuth_span"`

	DeclinationMin float64 `json:"declination_min"`
	DeclinationMax float64 `json:"declination_max"`

	EquationOfTimeMin  float64 `json:"equation_of_time_min"`
	EquationOfTimeMax  float64 `json:"equation_of_time_max"`
	EquationOfTimeSpan float64 `json:"equation_of_time_span"`

	DaysAboveHorizon int `json:"days_above_horizon"`
}

// CompareStats summarizes per-day deltas between two projected series.
type CompareStats struct {
	Days            int     `json:"days"`
	MeanAltitudeDeg float64 `json:"mean_altitude_deg"`
	MaxAltitudeDeg  float64 `json:"max_altitude_deg"`
	MeanAzimuthDeg  float64 `json:"mean_azimuth_deg"`
	MaxAzimuthDeg   float64 `json:"max_azimuth_deg"`
}

// Summarize computes series statistics over a projected year.
func Summarize(series []sky.HorizonPosition) SeriesStats {
	stats := SeriesStats{Days: len(series)}
	if len(series) == 0 {
		return stats
	}

	first := series[0]
	stats.AltitudeMin, stats.AltitudeMax = first.Altitude, first.Altitude
	stats.AzimuthMin, stats.AzimuthMax = first.Azimuth, first.Azimuth
	stats.DeclinationMin, stats.DeclinationMax = first.Declination, first.Declination
	stats.EquationOfTimeMin, stats.EquationOfTimeMax = first.EquationOfTime, first.EquationOfTime

	for _, p := range series {
		stats.AltitudeMin = math.Min(stats.AltitudeMin, p.Altitude)
		stats.AltitudeMax = math.Max(stats.AltitudeMax, p.Altitude)
		if p.AzimuthDefined {
			stats.AzimuthMin = math.Min(stats.AzimuthMin, p.Azimuth)
			stats.AzimuthMax = math.Max(stats.AzimuthMax, p.Azimuth)
		}
		stats.DeclinationMin = math.Min(stats.DeclinationMin, p.Declination)
		stats.DeclinationMax = math.Max(stats.DeclinationMax, p.Declination)
		stats.EquationOfTimeMin = math.Min(stats.EquationOfTimeMin, p.EquationOfTime)
		stats.EquationOfTimeMax = math.Max(stats.EquationOfTimeMax, p.EquationOfTime)
		if p.Altitude >= 0 {
			stats.DaysAboveHorizon++
		}
	}
	stats.AltitudeSpan = stats.AltitudeMax - stats.AltitudeMin
	stats.AzimuthSpan = stats.AzimuthMax - stats.AzimuthMin
	stats.EquationOfTimeSpan = stats.EquationOfTimeMax - stats.EquationOfTimeMin
	return stats
}

// CompareSeries computes per-day deltas between two projected series of
// equal length.
func CompareSeries(a, b []sky.HorizonPosition) (CompareStats, error) {
	if len(a) != len(b) {
		return CompareStats{}, errors.New(errors.ErrCodeInvalidInput, "series lengths differ")
	}
	stats := CompareStats{Days: len(a)}
	if len(a) == 0 {
		return stats, nil
	}

	var sumAlt, sumAz float64
	for i := range a {
		dAlt := math.Abs(a[i].Altitude - b[i].Altitude)
		sumAlt += dAlt
		stats.MaxAltitudeDeg = math.Max(stats.MaxAltitudeDeg, dAlt)

		if a[i].AzimuthDefined && b[i].AzimuthDefined {
			dAz := math.Abs(azimuthDelta(a[i].Azimuth, b[i].Azimuth))
			sumAz += dAz
			stats.MaxAzimuthDeg = math.Max(stats.MaxAzimuthDeg, dAz)
		}
	}
	stats.MeanAltitudeDeg = sumAlt / float64(len(a))
	stats.MeanAzimuthDeg = sumAz / float64(len(a))
	return stats, nil
}

// azimuthDelta folds a bearing difference into (-180, 180].
func azimuthDelta(a, b float64) float64 {
	d := a - b
	for d > 180 {
		d -= 360
	}
	for d <= -180 {
		d += 360
	}
	return d
}
