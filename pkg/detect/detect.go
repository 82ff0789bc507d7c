// Package detect locates the Sun's disc in a photograph.
//
// The detector reduces the image to a single brightness channel (max of RGB),
// thresholds at 99.9% of the maximum brightness, and then walks an explicit
// ordered list of strategies until one succeeds:
//
//  1. blob: connected components over the threshold mask, largest component
//     wins, brightness-weighted centroid of that component.
//  2. weighted: brightness-weighted centroid over all threshold pixels,
//     used when the mask is too fragmented for a meaningful blob.
//  3. brightest: the single brightest pixel.
//
// The last tier cannot fail, so detection always returns a coordinate for a
// well-formed image. Keep all three tiers: real sky photographs often lack a
// clean saturated disc (thin cloud, JPEG artifacts, partial occlusion).
package detect

import (
	"image"

	"github.com/mvermeulen/analemma/pkg/errors"
)

// thresholdFactor scales the maximum brightness into the mask cutoff.
const thresholdFactor = 0.999

// DefaultMinMaskPixels is the minimum number of threshold pixels for the
// weighted-centroid tier; below it the mask is considered noise.
const DefaultMinMaskPixels = 10

// Result is the outcome of a detection: where the Sun is, how big the
// winning bright region was, and which strategy produced the answer.
type Result struct {
	// Center is the estimated pixel coordinate of the Sun's disc.
	Center image.Point `json:"center"`

	// Area is the pixel count of the winning region (0 for the
	// brightest-pixel tier).
	Area int `json:"area"`

	// Strategy names the tier that produced the result: "blob",
	// "weighted", or "brightest".
	Strategy string `json:"strategy"`
}

// Detector finds the Sun in images. The zero value is not usable; create
// one with New.
type Detector struct {
	minMaskPixels int
	strategies    []strategy
}

// Option configures a Detector.
type Option func(*Detector)

// WithMinMaskPixels overrides the minimum mask size for the
// weighted-centroid tier.
func WithMinMaskPixels(n int) Option {
	return func(d *Detector) { d.minMaskPixels = n }
}

// New creates a Detector with the full three-tier strategy chain.
func New(opts ...Option) *Detector {
	d := &Detector{minMaskPixels: DefaultMinMaskPixels}
	for _, opt := range opts {
		opt(d)
	}
	d.strategies = []strategy{
		blobCentroid{},
		weightedCentroid{minPixels: d.minMaskPixels},
		brightestPixel{},
	}
	return d
}

// Detect returns the Sun's estimated pixel position in img. It fails only
// for degenerate input (nil or empty image); any well-formed image yields a
// coordinate through the fallback chain.
func (d *Detector) Detect(img image.Image) (Result, error) {
	if img == nil {
		return Result{}, errors.New(errors.ErrCodeInvalidImage, "image is nil")
	}
	g := newBrightness(img)
	if g.width == 0 || g.height == 0 {
		return Result{}, errors.New(errors.ErrCodeInvalidImage, "image has empty bounds")
	}

	mask := g.thresholdMask(thresholdFactor)
	for _, s := range d.strategies {
		if res, ok := s.detect(g, mask); ok {
			return res, nil
		}
	}

	// Unreachable: the brightest-pixel tier always succeeds on a non-empty
	// grid.
	return Result{}, errors.New(errors.ErrCodeInternal, "all detection strategies failed")
}

// strategy is one tier of the detection chain.
type strategy interface {
	detect(g *brightness, mask []bool) (Result, bool)
}

// brightness is a single-channel view of the image: the max of the color
// channels per pixel, which keeps saturated suns bright regardless of hue.
type brightness struct {
	width, height int
	origin        image.Point
	px            []uint8
	max           uint8
}

func newBrightness(img image.Image) *brightness {
	bounds := img.Bounds()
	g := &brightness{
		width:  bounds.Dx(),
		height: bounds.Dy(),
		origin: bounds.Min,
		px:     make([]uint8, bounds.Dx()*bounds.Dy()),
	}

	for y := range g.height {
		for x := range g.width {
			r, gr, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			v := max(r, gr, b) >> 8
			g.px[y*g.width+x] = uint8(v)
			if uint8(v) > g.max {
				g.max = uint8(v)
			}
		}
	}
	return g
}

// at returns the brightness at grid coordinates (not image coordinates).
func (g *brightness) at(x, y int) uint8 {
	return g.px[y*g.width+x]
}

// point converts grid coordinates back to image coordinates.
func (g *brightness) point(x, y float64) image.Point {
	return image.Point{
		X: g.origin.X + int(x+0.5),
		Y: g.origin.Y + int(y+0.5),
	}
}

// thresholdMask marks pixels at or above factor times the maximum
// brightness.
func (g *brightness) thresholdMask(factor float64) []bool {
	cutoff := uint8(float64(g.max) * factor)
	mask := make([]bool, len(g.px))
	for i, v := range g.px {
		mask[i] = v >= cutoff
	}
	return mask
}
