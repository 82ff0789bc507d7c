package overlay

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/mvermeulen/analemma/pkg/errors"
)

// Style controls how a projection is drawn onto a photograph.
type Style struct {
	// DotRadius of each plotted position, in pixels.
	DotRadius float64

	// DotColor fills the plotted dots.
	DotColor color.Color

	// LineColor strokes the connecting path when ConnectLine is set.
	LineColor color.Color

	// LineWidth of the connecting path, in pixels.
	LineWidth float64

	// ConnectLine joins consecutive positions into the figure-eight path.
	ConnectLine bool

	// LabelMonths draws a date label beside the first plotted day of each
	// month.
	LabelMonths bool

	// LabelInterval additionally labels every Nth plotted day when
	// positive.
	LabelInterval int

	// LabelColor fills the date labels.
	LabelColor color.Color

	// Caption is drawn along the bottom edge of the image when non-empty.
	Caption string

	// MarkAnchor draws a crosshair at the anchor pixel.
	MarkAnchor bool

	// AnchorColor strokes the anchor crosshair.
	AnchorColor color.Color
}

// DefaultStyle is tuned for daylight photographs: warm dots with a thin
// connecting line and month labels.
func DefaultStyle() Style {
	return Style{
		DotRadius:   4,
		DotColor:    color.NRGBA{R: 255, G: 200, B: 0, A: 255},
		LineColor:   color.NRGBA{R: 255, G: 255, B: 255, A: 160},
		LineWidth:   1.5,
		ConnectLine: true,
		LabelMonths: true,
		LabelColor:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		MarkAnchor:  true,
		AnchorColor: color.NRGBA{R: 0, G: 220, B: 255, A: 255},
	}
}

// RenderStats counts how the plotted points met the photograph frame.
type RenderStats struct {
	// Drawn points landed inside the image bounds.
	Drawn int `json:"drawn"`

	// OutOfBounds points projected beyond the image edges.
	OutOfBounds int `json:"out_of_bounds"`
}

// Render draws the projection over a copy of the base photograph. The base
// image is never modified. Points projecting outside the frame are counted
// but not drawn.
func Render(base image.Image, proj Projection, style Style) (image.Image, RenderStats, error) {
	var stats RenderStats
	if base == nil {
		return nil, stats, errors.New(errors.ErrCodeInvalidImage, "base image is nil")
	}
	bounds := base.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, stats, errors.New(errors.ErrCodeInvalidImage, "base image is empty")
	}

	dc := gg.NewContextForImage(base)
	dc.SetFontFace(basicfont.Face7x13)

	// gg draws in the context's own coordinate space, which starts at the
	// origin regardless of the base image's bounds offset.
	off := bounds.Min

	inBounds := make([]PlottedPoint, 0, len(proj.Points))
	for _, pt := range proj.Points {
		if pt.Pixel.In(bounds) {
			inBounds = append(inBounds, pt)
		} else {
			stats.OutOfBounds++
		}
	}
	stats.Drawn = len(inBounds)

	if style.ConnectLine && len(inBounds) > 1 {
		dc.SetColor(style.LineColor)
		dc.SetLineWidth(style.LineWidth)
		first := inBounds[0].Pixel
		dc.MoveTo(float64(first.X-off.X), float64(first.Y-off.Y))
		for _, pt := range inBounds[1:] {
			dc.LineTo(float64(pt.Pixel.X-off.X), float64(pt.Pixel.Y-off.Y))
		}
		dc.Stroke()
	}

	dc.SetColor(style.DotColor)
	for _, pt := range inBounds {
		dc.DrawCircle(float64(pt.Pixel.X-off.X), float64(pt.Pixel.Y-off.Y), style.DotRadius)
		dc.Fill()
	}

	if style.LabelMonths || style.LabelInterval > 0 {
		dc.SetColor(style.LabelColor)
		seen := make(map[int]bool, 12)
		for i, pt := range inBounds {
			month := int(pt.Date.Month())
			label := style.LabelMonths && !seen[month]
			if style.LabelInterval > 0 && i%style.LabelInterval == 0 {
				label = true
			}
			if !label {
				continue
			}
			seen[month] = true
			x := float64(pt.Pixel.X-off.X) + style.DotRadius + 4
			y := float64(pt.Pixel.Y-off.Y) + 4
			dc.DrawString(pt.Date.Format("Jan 2"), x, y)
		}
	}

	if style.MarkAnchor {
		dc.SetColor(style.AnchorColor)
		dc.SetLineWidth(1)
		ax := float64(proj.Anchor.Pixel.X - off.X)
		ay := float64(proj.Anchor.Pixel.Y - off.Y)
		const arm = 10
		dc.DrawLine(ax-arm, ay, ax+arm, ay)
		dc.DrawLine(ax, ay-arm, ax, ay+arm)
		dc.Stroke()
		dc.DrawCircle(ax, ay, 6)
		dc.Stroke()
	}

	if style.Caption != "" {
		dc.SetColor(style.LabelColor)
		dc.DrawStringAnchored(style.Caption, float64(bounds.Dx())/2, float64(bounds.Dy())-10, 0.5, 0.5)
	}

	return dc.Image(), stats, nil
}
