package solar

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/mvermeulen/analemma/pkg/ephemeris"
	"github.com/mvermeulen/analemma/pkg/errors"
)

func TestDeclinationBounded(t *testing.T) {
	for day := 1; day <= 365; day++ {
		dec := Declination(day)
		if math.Abs(dec) > Obliquity+0.05 {
			t.Fatalf("Declination(%d) = %v, exceeds ±%v", day, dec, Obliquity)
		}
	}
}

func TestDeclinationAtKeyDates(t *testing.T) {
	tests := []struct {
		name string
		day  int
		want float64
		tol  float64
	}{
		{"vernal equinox", 81, 0, 1.0},
		{"summer solstice", 172, 23.45, 1.0},
		{"autumnal equinox", 264, 0, 1.0},
		{"winter solstice", 355, -23.45, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Declination(tt.day)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("Declination(%d) = %v, want %v ± %v", tt.day, got, tt.want, tt.tol)
			}
		})
	}
}

func TestDeclinationSymmetricAboutEquinox(t *testing.T) {
	for offset := 1; offset <= 60; offset++ {
		before := Declination(81 - offset)
		after := Declination(81 + offset)
		if math.Abs(before+after) > 0.2 {
			t.Fatalf("Declination(81±%d): %v and %v are not symmetric", offset, before, after)
		}
	}
}

func TestEquationOfTimeBoundedAndSigned(t *testing.T) {
	sawPositive, sawNegative := false, false
	for day := 1; day <= 365; day++ {
		eot := EquationOfTime(day)
		if math.Abs(eot) > 20 {
			t.Fatalf("EquationOfTime(%d) = %v, exceeds ±20 minutes", day, eot)
		}
		if eot > 0 {
			sawPositive = true
		}
		if eot < 0 {
			sawNegative = true
		}
	}
	if !sawPositive || !sawNegative {
		t.Errorf("EquationOfTime series: positive=%v negative=%v, want both", sawPositive, sawNegative)
	}
}

func TestYearLength(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2026, 365},
		{2024, 366},
		{2000, 366},
		{1900, 365},
	}

	for _, tt := range tests {
		series, err := Year(context.Background(), NewApproximateModel(), tt.year, 12, 0)
		if err != nil {
			t.Fatalf("Year(%d): %v", tt.year, err)
		}
		if len(series) != tt.want {
			t.Errorf("Year(%d): %d entries, want %d", tt.year, len(series), tt.want)
		}
	}
}

func TestYearOrderedByDay(t *testing.T) {
	series, err := Year(context.Background(), NewApproximateModel(), 2026, 12, 0)
	if err != nil {
		t.Fatalf("Year: %v", err)
	}
	for i, pos := range series {
		if pos.Day != i+1 {
			t.Fatalf("series[%d].Day = %d, want %d", i, pos.Day, i+1)
		}
		if pos.Date.Hour() != 12 || pos.Date.Minute() != 0 {
			t.Fatalf("series[%d].Date = %v, want 12:00 clock time", i, pos.Date)
		}
	}
}

func TestYearRejectsInvalidClockTime(t *testing.T) {
	if _, err := Year(context.Background(), NewApproximateModel(), 2026, 24, 0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("hour 24: err = %v, want INVALID_INPUT", err)
	}
	if _, err := Year(context.Background(), NewApproximateModel(), 2026, 12, 60); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("minute 60: err = %v, want INVALID_INPUT", err)
	}
}

type fakeProvider struct {
	eq  ephemeris.Equatorial
	err error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Apparent(_ context.Context, _ time.Time) (ephemeris.Equatorial, error) {
	return p.eq, p.err
}

func TestNewDelegatedModelRequiresProvider(t *testing.T) {
	_, err := NewDelegatedModel(nil)
	if !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Fatalf("err = %v, want CONFIGURATION", err)
	}
}

func TestDelegatedModelUsesProviderDeclination(t *testing.T) {
	m, err := NewDelegatedModel(&fakeProvider{
		eq: ephemeris.Equatorial{Declination: 23.43, RightAscension: 5.99},
	})
	if err != nil {
		t.Fatalf("NewDelegatedModel: %v", err)
	}

	date := time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)
	pos, err := m.Position(context.Background(), date)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if pos.Declination != 23.43 {
		t.Errorf("Declination = %v, want provider value 23.43", pos.Declination)
	}

	// EoT remains the approximation even in high-precision mode.
	if want := EquationOfTime(date.YearDay()); pos.EquationOfTime != want {
		t.Errorf("EquationOfTime = %v, want approximate %v", pos.EquationOfTime, want)
	}
}

func TestDelegatedModelPropagatesProviderError(t *testing.T) {
	m, err := NewDelegatedModel(&fakeProvider{
		err: errors.New(errors.ErrCodeNetwork, "unreachable"),
	})
	if err != nil {
		t.Fatalf("NewDelegatedModel: %v", err)
	}

	_, err = m.Position(context.Background(), time.Now())
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("err = %v, want NETWORK_ERROR", err)
	}
}

func TestEventCalcCaches(t *testing.T) {
	calc := NewEventCalc(40.1, -88.2)
	date := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)

	first, err := calc.EventsForDate(date)
	if err != nil {
		t.Fatalf("EventsForDate: %v", err)
	}
	if !first.Sunrise.Before(first.Sunset) {
		t.Errorf("sunrise %v not before sunset %v", first.Sunrise, first.Sunset)
	}

	second, err := calc.EventsForDate(date)
	if err != nil {
		t.Fatalf("EventsForDate (cached): %v", err)
	}
	if !first.Sunrise.Equal(second.Sunrise) {
		t.Errorf("cached sunrise %v differs from first %v", second.Sunrise, first.Sunrise)
	}
}
