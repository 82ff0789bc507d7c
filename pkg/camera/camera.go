// Package camera turns camera optics into pixel-per-degree scale factors for
// the sky-to-pixel mapping.
//
// The model is a flat small-angle approximation: a fixed number of pixels per
// degree on each axis, not a true perspective projection. It is accurate near
// the anchor point and degrades toward the image edges; wide-angle or
// fisheye lenses would need a real projective camera model, which is out of
// scope. This limitation is deliberate and documented rather than corrected.
package camera

import (
	"math"

	"github.com/mvermeulen/analemma/pkg/errors"
)

// Full-frame sensor dimensions in millimeters, the defaults when metadata
// does not name the sensor.
const (
	DefaultSensorWidthMM  = 36.0
	DefaultSensorHeightMM = 24.0
)

// Calibration holds the pixel/angle scale for one image. The zero value
// means "not calibrated" and is rejected by the projection code.
type Calibration struct {
	// PxPerDegAz is pixels per degree along the azimuth (horizontal) axis.
	PxPerDegAz float64 `json:"px_per_deg_az"`

	// PxPerDegAlt is pixels per degree along the altitude (vertical) axis.
	PxPerDegAlt float64 `json:"px_per_deg_alt"`
}

// Valid reports whether the calibration carries usable scale factors.
func (c Calibration) Valid() bool {
	return c.PxPerDegAz > 0 && c.PxPerDegAlt > 0
}

// FromFOV calibrates from the camera's field of view: width/hfov pixels per
// degree horizontally, height/vfov vertically. Image dimensions and FOV
// angles must be positive; FOV angles must stay under 360°.
func FromFOV(widthPx, heightPx int, hfovDeg, vfovDeg float64) (Calibration, error) {
	if widthPx <= 0 || heightPx <= 0 {
		return Calibration{}, errors.New(errors.ErrCodeConfiguration,
			"image dimensions must be positive, got %dx%d", widthPx, heightPx)
	}
	if hfovDeg <= 0 || vfovDeg <= 0 {
		return Calibration{}, errors.New(errors.ErrCodeConfiguration,
			"field of view must be positive, got %.2fx%.2f", hfovDeg, vfovDeg)
	}
	if hfovDeg >= 360 || vfovDeg >= 360 {
		return Calibration{}, errors.New(errors.ErrCodeConfiguration,
			"field of view must be under 360 degrees, got %.2fx%.2f", hfovDeg, vfovDeg)
	}

	return Calibration{
		PxPerDegAz:  float64(widthPx) / hfovDeg,
		PxPerDegAlt: float64(heightPx) / vfovDeg,
	}, nil
}

// FromFocalLength calibrates from lens focal length and sensor dimensions,
// deriving the field of view first. All lengths are millimeters and must be
// positive.
func FromFocalLength(widthPx, heightPx int, focalLengthMM, sensorWidthMM, sensorHeightMM float64) (Calibration, error) {
	if focalLengthMM <= 0 {
		return Calibration{}, errors.New(errors.ErrCodeConfiguration,
			"focal length must be positive, got %.2f", focalLengthMM)
	}
	if sensorWidthMM <= 0 || sensorHeightMM <= 0 {
		return Calibration{}, errors.New(errors.ErrCodeConfiguration,
			"sensor dimensions must be positive, got %.2fx%.2f", sensorWidthMM, sensorHeightMM)
	}

	hfov := FOV(sensorWidthMM, focalLengthMM)
	vfov := FOV(sensorHeightMM, focalLengthMM)
	return FromFOV(widthPx, heightPx, hfov, vfov)
}

// FOV returns the field of view in degrees for a sensor dimension and focal
// length (both mm): 2·atan(sensor / 2f).
func FOV(sensorDimMM, focalLengthMM float64) float64 {
	return 2 * math.Atan(sensorDimMM/(2*focalLengthMM)) * 180 / math.Pi
}
