package pipeline

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/mvermeulen/analemma/pkg/cache"
	"github.com/mvermeulen/analemma/pkg/ephemeris"
	"github.com/mvermeulen/analemma/pkg/errors"
	"github.com/mvermeulen/analemma/pkg/sky"
	"github.com/mvermeulen/analemma/pkg/solar"
)

func baseOptions() Options {
	return Options{
		Latitude:  40.1,
		Longitude: -88.2,
		Year:      2026,
		Hour:      DefaultHour,
		Minute:    DefaultMinute,
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		wantOK bool
	}{
		{"valid", func(o *Options) {}, true},
		{"defaults mode", func(o *Options) { o.Mode = "" }, true},
		{"defaults year", func(o *Options) { o.Year = 0 }, true},
		{"bad latitude", func(o *Options) { o.Latitude = 91 }, false},
		{"bad longitude", func(o *Options) { o.Longitude = 200 }, false},
		{"bad hour", func(o *Options) { o.Hour = 24 }, false},
		{"bad minute", func(o *Options) { o.Minute = 60 }, false},
		{"bad mode", func(o *Options) { o.Mode = "precise" }, false},
		{"bad timezone", func(o *Options) { o.Timezone = 20; o.TimezoneSet = true }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseOptions()
			tt.mutate(&opts)
			err := opts.ValidateAndSetDefaults()
			if (err == nil) != tt.wantOK {
				t.Errorf("ValidateAndSetDefaults() = %v, want ok=%v", err, tt.wantOK)
			}
			if tt.wantOK && opts.Mode == "" {
				t.Error("mode not defaulted")
			}
		})
	}
}

func TestComputeApproximate(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	result, err := r.Compute(context.Background(), baseOptions())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(result.Horizon) != 365 {
		t.Errorf("len(Horizon) = %d, want 365", len(result.Horizon))
	}
	if result.Stats.Days != 365 {
		t.Errorf("Stats.Days = %d, want 365", result.Stats.Days)
	}
	if result.Stats.AltitudeSpan < 40 || result.Stats.AltitudeSpan > 55 {
		t.Errorf("AltitudeSpan = %.1f, want roughly twice the obliquity", result.Stats.AltitudeSpan)
	}
	if result.CacheHit {
		t.Error("first run must not hit the cache")
	}
}

func TestComputeUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	first, err := r.Compute(ctx, baseOptions())
	if err != nil {
		t.Fatalf("first Compute: %v", err)
	}
	second, err := r.Compute(ctx, baseOptions())
	if err != nil {
		t.Fatalf("second Compute: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run must hit the cache")
	}
	if len(second.Horizon) != len(first.Horizon) {
		t.Errorf("cached series length %d != computed %d", len(second.Horizon), len(first.Horizon))
	}
	if second.Horizon[180].Altitude != first.Horizon[180].Altitude ||
		second.Horizon[180].Azimuth != first.Horizon[180].Azimuth {
		t.Error("cached series differs from computed series")
	}

	refresh := baseOptions()
	refresh.Refresh = true
	third, err := r.Compute(ctx, refresh)
	if err != nil {
		t.Fatalf("refresh Compute: %v", err)
	}
	if third.CacheHit {
		t.Error("refresh run must bypass the cache")
	}
}

func TestComputeHorizonsWithoutProvider(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := baseOptions()
	opts.Mode = ModeHorizons

	_, err := r.Compute(context.Background(), opts)
	if err == nil {
		t.Fatal("err = nil, want configuration error")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeConfiguration {
		t.Errorf("code = %q, want %q", code, errors.ErrCodeConfiguration)
	}
}

// constProvider always reports the same declination.
type constProvider struct {
	dec float64
}

func (p constProvider) Name() string { return "const" }

func (p constProvider) Apparent(ctx context.Context, t time.Time) (ephemeris.Equatorial, error) {
	return ephemeris.Equatorial{Declination: p.dec}, nil
}

func TestCompare(t *testing.T) {
	r := NewRunner(nil, constProvider{dec: 10}, nil)

	result, err := r.Compare(context.Background(), baseOptions())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.Deltas.Days != 365 {
		t.Errorf("Days = %d, want 365", result.Deltas.Days)
	}
	// The approximate declination sweeps ±23.45 while the provider pins
	// 10, so the models must disagree.
	if result.Deltas.MaxAltitudeDeg < 10 {
		t.Errorf("MaxAltitudeDeg = %.2f, want a clear disagreement", result.Deltas.MaxAltitudeDeg)
	}
	if result.Deltas.MeanAltitudeDeg <= 0 {
		t.Errorf("MeanAltitudeDeg = %.2f, want positive", result.Deltas.MeanAltitudeDeg)
	}
}

func TestPosition(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	pos, err := r.Position(context.Background(), baseOptions(), time.Date(2026, 6, 21, 12, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if pos.Altitude < 70 || pos.Altitude > 76 {
		t.Errorf("Altitude = %.1f, want near 73 at summer solstice noon", pos.Altitude)
	}
	if !pos.AzimuthDefined {
		t.Error("AzimuthDefined = false, want true")
	}
}

func TestSummarize(t *testing.T) {
	series := []sky.HorizonPosition{
		{Position: solar.Position{Declination: -10, EquationOfTime: -5}, Altitude: 20, Azimuth: 170, AzimuthDefined: true},
		{Position: solar.Position{Declination: 10, EquationOfTime: 10}, Altitude: 50, Azimuth: 190, AzimuthDefined: true},
		{Position: solar.Position{Declination: 0, EquationOfTime: 0}, Altitude: -5, Azimuth: 180, AzimuthDefined: true},
	}

	stats := Summarize(series)
	if stats.Days != 3 {
		t.Errorf("Days = %d, want 3", stats.Days)
	}
	if stats.AltitudeMin != -5 || stats.AltitudeMax != 50 || stats.AltitudeSpan != 55 {
		t.Errorf("altitude stats = %v/%v/%v, want -5/50/55", stats.AltitudeMin, stats.AltitudeMax, stats.AltitudeSpan)
	}
	if stats.EquationOfTimeSpan != 15 {
		t.Errorf("EquationOfTimeSpan = %v, want 15", stats.EquationOfTimeSpan)
	}
	if stats.DaysAboveHorizon != 2 {
		t.Errorf("DaysAboveHorizon = %d, want 2", stats.DaysAboveHorizon)
	}
}

func TestCompareSeriesLengthMismatch(t *testing.T) {
	_, err := CompareSeries(make([]sky.HorizonPosition, 2), make([]sky.HorizonPosition, 3))
	if err == nil {
		t.Fatal("err = nil, want invalid input error")
	}
}

// writeTestPhoto writes a small photograph with a bright sun disc.
func writeTestPhoto(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 400, 300))
	for y := range 300 {
		for x := range 400 {
			img.Set(x, y, color.NRGBA{R: 60, G: 80, B: 140, A: 255})
		}
	}
	for y := 95; y <= 105; y++ {
		for x := 195; x <= 205; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 250, A: 255})
		}
	}
	path := filepath.Join(dir, "photo.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOverlay(t *testing.T) {
	dir := t.TempDir()
	photo := writeTestPhoto(t, dir)

	opts := baseOptions()
	opts.ImagePath = photo
	opts.CaptureTime = time.Date(2026, 6, 21, 12, 0, 0, 0, time.Local)
	opts.FocalLengthMM = 50

	r := NewRunner(nil, nil, nil)
	result, err := r.Overlay(context.Background(), opts)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	if len(result.Image) == 0 {
		t.Error("empty overlay image")
	}
	if result.Anchor.Pixel.X != 200 || result.Anchor.Pixel.Y != 100 {
		t.Errorf("anchor pixel = %v, want (200, 100)", result.Anchor.Pixel)
	}
	if result.Detection == "" {
		t.Error("Detection empty, want the strategy name")
	}
	if result.Anchor.Altitude <= 0 {
		t.Errorf("anchor altitude = %.1f, want above the horizon at summer noon", result.Anchor.Altitude)
	}
	if result.Projection.Total != 365 {
		t.Errorf("projection total = %d, want 365", result.Projection.Total)
	}
	if result.Render.Drawn+result.Render.OutOfBounds != result.Projection.Plotted {
		t.Errorf("drawn %d + out of bounds %d != plotted %d",
			result.Render.Drawn, result.Render.OutOfBounds, result.Projection.Plotted)
	}
}

func TestOverlayFromMetadata(t *testing.T) {
	dir := t.TempDir()
	writeTestPhoto(t, dir)

	sidecar := filepath.Join(dir, "metadata.txt")
	content := "datetime=2026-06-21 12:00:00\n" +
		"latitude=40.1\nlongitude=-88.2\n" +
		"focal_length_mm=50\nsensor_width_mm=36\nsensor_height_mm=24\n"
	if err := os.WriteFile(sidecar, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := Options{MetadataPath: sidecar}
	r := NewRunner(nil, nil, nil)
	result, err := r.Overlay(context.Background(), opts)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	if result.Anchor.Pixel.X != 200 || result.Anchor.Pixel.Y != 100 {
		t.Errorf("anchor pixel = %v, want (200, 100)", result.Anchor.Pixel)
	}
}

func TestOverlayMissingInputs(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	_, err := r.Overlay(context.Background(), baseOptions())
	if code := errors.GetCode(err); code != errors.ErrCodeConfiguration {
		t.Errorf("no image: code = %q, want %q", code, errors.ErrCodeConfiguration)
	}
}
