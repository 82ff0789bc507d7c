package detect

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// skyWithDisc draws a bright disc of the given radius on a dark gradient sky.
func skyWithDisc(w, h int, center image.Point, radius int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			// Gentle sky gradient, darker toward the bottom.
			v := uint8(80 - 40*y/h)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v + 40, A: 255})
		}
	}
	for y := center.Y - radius; y <= center.Y+radius; y++ {
		for x := center.X - radius; x <= center.X+radius; x++ {
			dx, dy := x-center.X, y-center.Y
			if dx*dx+dy*dy <= radius*radius && x >= 0 && x < w && y >= 0 && y < h {
				img.Set(x, y, color.RGBA{R: 255, G: 255, B: 250, A: 255})
			}
		}
	}
	return img
}

func TestDetectSyntheticDisc(t *testing.T) {
	tests := []struct {
		name   string
		center image.Point
		radius int
	}{
		{"centered", image.Point{X: 100, Y: 80}, 12},
		{"off-center", image.Point{X: 30, Y: 150}, 8},
		{"near edge", image.Point{X: 5, Y: 5}, 4},
	}

	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := skyWithDisc(200, 160, tt.center, tt.radius)
			res, err := d.Detect(img)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if res.Strategy != "blob" {
				t.Errorf("Strategy = %q, want blob", res.Strategy)
			}
			if dx := math.Abs(float64(res.Center.X - tt.center.X)); dx > 1 {
				t.Errorf("Center.X = %d, want %d +-1", res.Center.X, tt.center.X)
			}
			if dy := math.Abs(float64(res.Center.Y - tt.center.Y)); dy > 1 {
				t.Errorf("Center.Y = %d, want %d +-1", res.Center.Y, tt.center.Y)
			}
			if res.Area == 0 {
				t.Error("Area = 0, want positive blob area")
			}
		})
	}
}

func TestDetectPicksLargestBlob(t *testing.T) {
	img := skyWithDisc(200, 160, image.Point{X: 140, Y: 60}, 10)
	// A second, smaller saturated region.
	for _, p := range []image.Point{{X: 20, Y: 20}, {X: 21, Y: 20}, {X: 20, Y: 21}, {X: 21, Y: 21}} {
		img.Set(p.X, p.Y, color.RGBA{R: 255, G: 255, B: 250, A: 255})
	}

	res, err := New().Detect(img)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if math.Abs(float64(res.Center.X-140)) > 1 || math.Abs(float64(res.Center.Y-60)) > 1 {
		t.Errorf("Center = %v, want the larger disc at (140, 60)", res.Center)
	}
}

func TestDetectGrayscale(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := range 100 {
		for x := range 100 {
			img.SetGray(x, y, color.Gray{Y: 40})
		}
	}
	for y := 48; y <= 52; y++ {
		for x := 68; x <= 72; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	res, err := New().Detect(img)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Center.X != 70 || res.Center.Y != 50 {
		t.Errorf("Center = %v, want (70, 50)", res.Center)
	}
}

func TestDetectSinglePixelFallsBack(t *testing.T) {
	// One bright pixel: too small for the blob tier, too few pixels for the
	// weighted tier, so the brightest-pixel fallback answers.
	img := image.NewGray(image.Rect(0, 0, 50, 50))
	img.SetGray(33, 17, color.Gray{Y: 255})

	res, err := New().Detect(img)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Strategy != "brightest" {
		t.Errorf("Strategy = %q, want brightest", res.Strategy)
	}
	if res.Center.X != 33 || res.Center.Y != 17 {
		t.Errorf("Center = %v, want (33, 17)", res.Center)
	}
}

func TestDetectScatteredMaskUsesWeightedTier(t *testing.T) {
	// Many isolated bright pixels in a cross pattern around (50, 50): no
	// component reaches the blob minimum, but the mask is large enough for
	// the weighted centroid.
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	offsets := []int{-20, -15, -10, 10, 15, 20}
	for _, off := range offsets {
		img.SetGray(50+off, 50, color.Gray{Y: 255})
		img.SetGray(50, 50+off, color.Gray{Y: 255})
	}

	res, err := New(WithMinMaskPixels(6)).Detect(img)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Strategy != "weighted" {
		t.Errorf("Strategy = %q, want weighted", res.Strategy)
	}
	if math.Abs(float64(res.Center.X-50)) > 1 || math.Abs(float64(res.Center.Y-50)) > 1 {
		t.Errorf("Center = %v, want near (50, 50)", res.Center)
	}
}

func TestDetectNilImage(t *testing.T) {
	if _, err := New().Detect(nil); err == nil {
		t.Fatal("Detect(nil): err = nil, want error")
	}
}

func TestDetectRespectsImageOrigin(t *testing.T) {
	// Sub-images have non-zero bounds origins; the result must be in image
	// coordinates, not grid coordinates.
	img := image.NewGray(image.Rect(10, 20, 110, 120))
	for y := 20; y < 120; y++ {
		for x := 10; x < 110; x++ {
			img.SetGray(x, y, color.Gray{Y: 30})
		}
	}
	for y := 58; y <= 62; y++ {
		for x := 88; x <= 92; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	res, err := New().Detect(img)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Center.X != 90 || res.Center.Y != 60 {
		t.Errorf("Center = %v, want (90, 60)", res.Center)
	}
}
