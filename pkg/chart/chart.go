// Package chart renders standalone analemma figures that need no
// photograph: the figure-eight in sky coordinates, solar quantities over the
// year, and side-by-side model comparisons.
package chart

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/mvermeulen/analemma/pkg/errors"
	"github.com/mvermeulen/analemma/pkg/sky"
	"github.com/mvermeulen/analemma/pkg/solar"
)

// Config sizes a chart and labels it.
type Config struct {
	// Width of the output image in pixels.
	Width int

	// Height of the output image in pixels.
	Height int

	// Title drawn across the top of the chart.
	Title string
}

// DefaultConfig returns a chart size that keeps the basicfont labels
// readable.
func DefaultConfig() Config {
	return Config{Width: 1000, Height: 700}
}

func (c Config) validate() error {
	if c.Width < 200 || c.Height < 160 {
		return errors.New(errors.ErrCodeConfiguration, "chart smaller than 200x160 cannot fit axes and labels")
	}
	return nil
}

var (
	colorBackground = color.NRGBA{R: 18, G: 24, B: 38, A: 255}
	colorGrid       = color.NRGBA{R: 60, G: 70, B: 90, A: 255}
	colorAxis       = color.NRGBA{R: 180, G: 190, B: 210, A: 255}
	colorPrimary    = color.NRGBA{R: 255, G: 200, B: 0, A: 255}
	colorSecondary  = color.NRGBA{R: 80, G: 200, B: 255, A: 255}
)

const margin = 60.0

// axes maps data coordinates into the drawable plot area.
type axes struct {
	xmin, xmax float64
	ymin, ymax float64
	w, h       float64
}

func newAxes(cfg Config, xmin, xmax, ymin, ymax float64) axes {
	// Degenerate ranges get a symmetric pad so the scale stays finite.
	if xmax-xmin < 1e-9 {
		xmin, xmax = xmin-1, xmax+1
	}
	if ymax-ymin < 1e-9 {
		ymin, ymax = ymin-1, ymax+1
	}
	return axes{
		xmin: xmin, xmax: xmax,
		ymin: ymin, ymax: ymax,
		w: float64(cfg.Width), h: float64(cfg.Height),
	}
}

func (a axes) x(v float64) float64 {
	return margin + (v-a.xmin)/(a.xmax-a.xmin)*(a.w-2*margin)
}

func (a axes) y(v float64) float64 {
	// Screen y grows downward.
	return a.h - margin - (v-a.ymin)/(a.ymax-a.ymin)*(a.h-2*margin)
}

// draw prepares a context with background, frame, grid and tick labels.
func (a axes) draw(cfg Config, xLabel, yLabel string) *gg.Context {
	dc := gg.NewContext(cfg.Width, cfg.Height)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorBackground)
	dc.Clear()

	const ticks = 6
	dc.SetLineWidth(1)
	for i := 0; i <= ticks; i++ {
		f := float64(i) / ticks
		xv := a.xmin + f*(a.xmax-a.xmin)
		yv := a.ymin + f*(a.ymax-a.ymin)

		dc.SetColor(colorGrid)
		dc.DrawLine(a.x(xv), margin, a.x(xv), a.h-margin)
		dc.DrawLine(margin, a.y(yv), a.w-margin, a.y(yv))
		dc.Stroke()

		dc.SetColor(colorAxis)
		dc.DrawStringAnchored(formatTick(xv), a.x(xv), a.h-margin+14, 0.5, 0.5)
		dc.DrawStringAnchored(formatTick(yv), margin-8, a.y(yv), 1, 0.5)
	}

	dc.SetColor(colorAxis)
	dc.DrawRectangle(margin, margin, a.w-2*margin, a.h-2*margin)
	dc.Stroke()

	dc.DrawStringAnchored(xLabel, a.w/2, a.h-margin/3, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(-math.Pi/2, margin/3, a.h/2)
	dc.DrawStringAnchored(yLabel, margin/3, a.h/2, 0.5, 0.5)
	dc.Pop()

	if cfg.Title != "" {
		dc.DrawStringAnchored(cfg.Title, a.w/2, margin/2, 0.5, 0.5)
	}
	return dc
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// SkyChart plots the analemma in horizon coordinates: azimuth along the
// horizontal axis, altitude along the vertical. Positions below the horizon
// or without a defined azimuth are skipped.
func SkyChart(series []sky.HorizonPosition, cfg Config) (image.Image, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	type pt struct{ az, alt float64 }
	pts := make([]pt, 0, len(series))
	for _, p := range series {
		if p.Altitude < 0 || !p.AzimuthDefined {
			continue
		}
		pts = append(pts, pt{az: p.Azimuth, alt: p.Altitude})
	}
	if len(pts) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no plottable positions above the horizon")
	}

	xmin, xmax := pts[0].az, pts[0].az
	ymin, ymax := pts[0].alt, pts[0].alt
	for _, p := range pts[1:] {
		xmin, xmax = math.Min(xmin, p.az), math.Max(xmax, p.az)
		ymin, ymax = math.Min(ymin, p.alt), math.Max(ymax, p.alt)
	}
	a := newAxes(cfg, pad(xmin, xmax, -1), pad(xmin, xmax, 1), pad(ymin, ymax, -1), pad(ymin, ymax, 1))
	dc := a.draw(cfg, "azimuth (deg)", "altitude (deg)")

	dc.SetColor(colorPrimary)
	for _, p := range pts {
		dc.DrawCircle(a.x(p.az), a.y(p.alt), 2.5)
		dc.Fill()
	}

	// Month labels beside the first plottable day of each month.
	dc.SetColor(colorAxis)
	seen := make(map[int]bool, 12)
	for _, p := range series {
		if p.Altitude < 0 || !p.AzimuthDefined {
			continue
		}
		month := int(p.Date.Month())
		if seen[month] {
			continue
		}
		seen[month] = true
		dc.DrawStringAnchored(p.Date.Format("Jan"), a.x(p.Azimuth)+6, a.y(p.Altitude)-6, 0, 0.5)
	}
	return dc.Image(), nil
}

// Figure8Chart plots the equation of time against declination, the classic
// figure-eight with no observer involved.
func Figure8Chart(series []solar.Position, cfg Config) (image.Image, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty position series")
	}

	xmin, xmax := series[0].EquationOfTime, series[0].EquationOfTime
	ymin, ymax := series[0].Declination, series[0].Declination
	for _, p := range series[1:] {
		xmin, xmax = math.Min(xmin, p.EquationOfTime), math.Max(xmax, p.EquationOfTime)
		ymin, ymax = math.Min(ymin, p.Declination), math.Max(ymax, p.Declination)
	}
	a := newAxes(cfg, pad(xmin, xmax, -1), pad(xmin, xmax, 1), pad(ymin, ymax, -1), pad(ymin, ymax, 1))
	dc := a.draw(cfg, "equation of time (min)", "declination (deg)")

	dc.SetColor(colorPrimary)
	for _, p := range series {
		dc.DrawCircle(a.x(p.EquationOfTime), a.y(p.Declination), 2.5)
		dc.Fill()
	}
	return dc.Image(), nil
}

// EquationOfTimeChart plots the equation of time in minutes over the day of
// year.
func EquationOfTimeChart(series []solar.Position, cfg Config) (image.Image, error) {
	return dayChart(series, cfg, "equation of time (min)", func(p solar.Position) float64 {
		return p.EquationOfTime
	})
}

// DeclinationChart plots solar declination in degrees over the day of year.
func DeclinationChart(series []solar.Position, cfg Config) (image.Image, error) {
	return dayChart(series, cfg, "declination (deg)", func(p solar.Position) float64 {
		return p.Declination
	})
}

func dayChart(series []solar.Position, cfg Config, yLabel string, value func(solar.Position) float64) (image.Image, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty position series")
	}

	ymin, ymax := value(series[0]), value(series[0])
	for _, p := range series[1:] {
		v := value(p)
		ymin, ymax = math.Min(ymin, v), math.Max(ymax, v)
	}
	a := newAxes(cfg, 1, float64(len(series)), pad(ymin, ymax, -1), pad(ymin, ymax, 1))
	dc := a.draw(cfg, "day of year", yLabel)

	dc.SetColor(colorPrimary)
	dc.SetLineWidth(2)
	for i, p := range series {
		x, y := a.x(float64(p.Day)), a.y(value(p))
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()
	return dc.Image(), nil
}

// CompareChart overlays two horizon series, typically the approximate and
// the delegated solar model for the same observer and clock time, so their
// figure-eights can be compared by eye.
func CompareChart(primary, secondary []sky.HorizonPosition, primaryLabel, secondaryLabel string, cfg Config) (image.Image, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(primary) == 0 || len(secondary) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "both series must be non-empty")
	}

	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	usable := 0
	for _, s := range [][]sky.HorizonPosition{primary, secondary} {
		for _, p := range s {
			if p.Altitude < 0 || !p.AzimuthDefined {
				continue
			}
			usable++
			xmin, xmax = math.Min(xmin, p.Azimuth), math.Max(xmax, p.Azimuth)
			ymin, ymax = math.Min(ymin, p.Altitude), math.Max(ymax, p.Altitude)
		}
	}
	if usable == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no plottable positions above the horizon")
	}

	a := newAxes(cfg, pad(xmin, xmax, -1), pad(xmin, xmax, 1), pad(ymin, ymax, -1), pad(ymin, ymax, 1))
	dc := a.draw(cfg, "azimuth (deg)", "altitude (deg)")

	plot := func(s []sky.HorizonPosition, c color.Color) {
		dc.SetColor(c)
		for _, p := range s {
			if p.Altitude < 0 || !p.AzimuthDefined {
				continue
			}
			dc.DrawCircle(a.x(p.Azimuth), a.y(p.Altitude), 2.5)
			dc.Fill()
		}
	}
	plot(primary, colorPrimary)
	plot(secondary, colorSecondary)

	// Legend in the top-right corner of the plot area.
	lx, ly := a.w-margin-150, margin+16
	dc.SetColor(colorPrimary)
	dc.DrawCircle(lx, ly, 4)
	dc.Fill()
	dc.SetColor(colorAxis)
	dc.DrawStringAnchored(primaryLabel, lx+10, ly, 0, 0.5)
	dc.SetColor(colorSecondary)
	dc.DrawCircle(lx, ly+16, 4)
	dc.Fill()
	dc.SetColor(colorAxis)
	dc.DrawStringAnchored(secondaryLabel, lx+10, ly+16, 0, 0.5)

	return dc.Image(), nil
}

// pad expands a data range by five percent on the given side.
func pad(min, max float64, side float64) float64 {
	span := max - min
	if span < 1e-9 {
		span = 2
	}
	if side < 0 {
		return min - 0.05*span
	}
	return max + 0.05*span
}
