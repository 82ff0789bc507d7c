package chart

import (
	"context"
	"testing"

	"github.com/mvermeulen/analemma/pkg/errors"
	"github.com/mvermeulen/analemma/pkg/sky"
	"github.com/mvermeulen/analemma/pkg/solar"
)

func yearScenario(t *testing.T) []sky.HorizonPosition {
	t.Helper()
	var m solar.ApproximateModel
	series, err := solar.Year(context.Background(), m, 2026, 12, 0)
	if err != nil {
		t.Fatalf("Year: %v", err)
	}
	obs := sky.NewObserver(40.1, -88.2)
	return obs.ProjectSeries(series, 12, 0)
}

func TestSkyChart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Title = "Analemma at noon"

	img, err := SkyChart(yearScenario(t), cfg)
	if err != nil {
		t.Fatalf("SkyChart: %v", err)
	}
	if img.Bounds().Dx() != cfg.Width || img.Bounds().Dy() != cfg.Height {
		t.Errorf("bounds = %v, want %dx%d", img.Bounds(), cfg.Width, cfg.Height)
	}
}

func TestSkyChartNothingAboveHorizon(t *testing.T) {
	series := []sky.HorizonPosition{
		{Altitude: -10, AzimuthDefined: true},
		{Altitude: -20, AzimuthDefined: true},
	}
	if _, err := SkyChart(series, DefaultConfig()); err == nil {
		t.Fatal("err = nil, want invalid input error")
	}
}

func TestDayCharts(t *testing.T) {
	var m solar.ApproximateModel
	series, err := solar.Year(context.Background(), m, 2026, 12, 0)
	if err != nil {
		t.Fatalf("Year: %v", err)
	}

	if _, err := EquationOfTimeChart(series, DefaultConfig()); err != nil {
		t.Errorf("EquationOfTimeChart: %v", err)
	}
	if _, err := DeclinationChart(series, DefaultConfig()); err != nil {
		t.Errorf("DeclinationChart: %v", err)
	}
	if _, err := Figure8Chart(series, DefaultConfig()); err != nil {
		t.Errorf("Figure8Chart: %v", err)
	}
	if _, err := DeclinationChart(nil, DefaultConfig()); err == nil {
		t.Error("empty series: err = nil, want error")
	}
}

func TestCompareChart(t *testing.T) {
	series := yearScenario(t)
	if _, err := CompareChart(series, series, "approximate", "horizons", DefaultConfig()); err != nil {
		t.Fatalf("CompareChart: %v", err)
	}
	if _, err := CompareChart(series, nil, "a", "b", DefaultConfig()); err == nil {
		t.Error("empty secondary: err = nil, want error")
	}
}

func TestConfigValidation(t *testing.T) {
	_, err := SkyChart(yearScenario(t), Config{Width: 50, Height: 50})
	if err == nil {
		t.Fatal("err = nil, want configuration error")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeConfiguration {
		t.Errorf("code = %q, want %q", code, errors.ErrCodeConfiguration)
	}
}
