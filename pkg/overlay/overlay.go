// Package overlay maps computed sky positions onto photograph pixel
// coordinates and renders analemma figures on top of camera images.
//
// The mapping is a flat small-angle projection anchored at one known
// correspondence between a sky position and a pixel. Each position is offset
// from the anchor by its azimuth and altitude deltas scaled through the
// camera calibration. The approximation degrades for wide fields of view and
// for points far from the anchor, which is acceptable for the long-lens
// framing an analemma photograph typically uses.
package overlay

import (
	"image"
	"math"

	"github.com/mvermeulen/analemma/pkg/camera"
	"github.com/mvermeulen/analemma/pkg/errors"
	"github.com/mvermeulen/analemma/pkg/sky"
)

// Anchor ties one sky position to one pixel in the photograph. It is usually
// obtained by detecting the Sun in a calibration frame whose capture time is
// known.
type Anchor struct {
	// Pixel is the image location of the anchor, in image coordinates.
	Pixel image.Point `json:"pixel"`

	// Altitude of the Sun at the anchor moment, in degrees.
	Altitude float64 `json:"altitude"`

	// Azimuth of the Sun at the anchor moment, in degrees.
	Azimuth float64 `json:"azimuth"`
}

// PlottedPoint is a sky position together with its projected pixel.
type PlottedPoint struct {
	sky.HorizonPosition

	Pixel image.Point `json:"pixel"`
}

// Stats counts how the input series was partitioned during projection.
type Stats struct {
	// Total number of input positions.
	Total int `json:"total"`

	// Plotted positions that landed in the output.
	Plotted int `json:"plotted"`

	// BelowHorizon positions skipped because the Sun was set.
	BelowHorizon int `json:"below_horizon"`

	// UndefinedAzimuth positions skipped because the Sun stood at the
	// zenith and no bearing exists.
	UndefinedAzimuth int `json:"undefined_azimuth"`
}

// Projection is the pixel-space analemma for one year of sky positions.
type Projection struct {
	Anchor      Anchor             `json:"anchor"`
	Calibration camera.Calibration `json:"calibration"`
	Points      []PlottedPoint     `json:"points"`
	Stats       Stats              `json:"stats"`
}

// SkyToPixel projects a single sky position through the anchor and
// calibration. Azimuth deltas wrap across North so an anchor at 359° and a
// point at 1° sit two degrees apart, not 358.
func SkyToPixel(anchor Anchor, cal camera.Calibration, altitude, azimuth float64) image.Point {
	daz := wrapDelta(azimuth - anchor.Azimuth)
	dalt := altitude - anchor.Altitude
	// Pixel rows grow downward, altitude grows upward.
	return image.Point{
		X: anchor.Pixel.X + int(math.Round(daz*cal.PxPerDegAz)),
		Y: anchor.Pixel.Y - int(math.Round(dalt*cal.PxPerDegAlt)),
	}
}

// ProjectYear projects a series of sky positions into pixel space. Positions
// below the horizon or without a defined azimuth are counted but not
// plotted.
func ProjectYear(anchor Anchor, cal camera.Calibration, series []sky.HorizonPosition) (Projection, error) {
	if !cal.Valid() {
		return Projection{}, errors.New(errors.ErrCodeConfiguration, "camera calibration has no usable pixel scale")
	}

	proj := Projection{
		Anchor:      anchor,
		Calibration: cal,
		Points:      make([]PlottedPoint, 0, len(series)),
	}
	for _, pos := range series {
		proj.Stats.Total++
		if pos.Altitude < 0 {
			proj.Stats.BelowHorizon++
			continue
		}
		if !pos.AzimuthDefined {
			proj.Stats.UndefinedAzimuth++
			continue
		}
		proj.Points = append(proj.Points, PlottedPoint{
			HorizonPosition: pos,
			Pixel:           SkyToPixel(anchor, cal, pos.Altitude, pos.Azimuth),
		})
		proj.Stats.Plotted++
	}
	return proj, nil
}

// Bounds returns the bounding box of the plotted pixels, or the zero
// rectangle when nothing was plotted.
func (p Projection) Bounds() image.Rectangle {
	if len(p.Points) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: p.Points[0].Pixel, Max: p.Points[0].Pixel.Add(image.Point{X: 1, Y: 1})}
	for _, pt := range p.Points[1:] {
		r = r.Union(image.Rectangle{Min: pt.Pixel, Max: pt.Pixel.Add(image.Point{X: 1, Y: 1})})
	}
	return r
}

// wrapDelta folds an azimuth difference into (-180, 180].
func wrapDelta(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}
