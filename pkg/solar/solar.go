// Package solar computes the Sun's celestial state — declination and
// equation of time — for calendar dates.
//
// Two models are available behind the [Model] interface, selected at
// construction rather than branched on throughout the pipeline:
//
//   - [ApproximateModel]: closed-form trigonometric formulas. Declination is
//     a single sine bounded to ±23.45° (Earth's axial tilt), zero near the
//     equinoxes (days 81 and 264). Equation of time is the classic
//     two-harmonic approximation, bounded within ±20 minutes.
//   - [DelegatedModel]: declination from an injected ephemeris provider.
//     Equation of time still comes from the approximation — no authoritative
//     high-precision EoT source is wired, and mixing sources silently would
//     hide the gap. Treat EoT as approximate-only in both modes.
//
// Both models produce immutable [Position] values, one per instant.
package solar

import (
	"context"
	"math"
	"time"

	"github.com/mvermeulen/analemma/pkg/ephemeris"
	"github.com/mvermeulen/analemma/pkg/errors"
)

// Obliquity is Earth's axial tilt in degrees, the amplitude of the
// approximate declination curve.
const Obliquity = 23.45

// vernalEquinoxDay is the approximate day of year of the vernal equinox,
// the zero-phase reference for both closed-form models.
const vernalEquinoxDay = 81

// Position is the Sun's celestial state for one instant. Values are
// created by a Model and never mutated afterwards.
type Position struct {
	// Date is the source timestamp (local civil time of the observation).
	Date time.Time `json:"date"`

	// Day is the day of year, 1-366.
	Day int `json:"day"`

	// Declination is the Sun's angular distance from the celestial equator
	// in degrees, north positive.
	Declination float64 `json:"declination"`

	// EquationOfTime is apparent minus mean solar time, in minutes.
	EquationOfTime float64 `json:"equation_of_time"`
}

// Declination returns the approximate solar declination in degrees for a day
// of year, using δ = 23.45°·sin(2π/365·(day+284)). The 284-day phase shift
// puts the zero crossing at the vernal equinox.
func Declination(day int) float64 {
	angle := 2 * math.Pi / 365 * (float64(day) + 284)
	return Obliquity * math.Sin(angle)
}

// EquationOfTime returns the approximate equation of time in minutes for a
// day of year. It combines an obliquity harmonic (9.87·sin 2B) with an
// eccentricity harmonic (7.53·cos B − 1.5·sin B), B = 2π(day−81)/365.
// The result crosses zero four times per year and stays within ±20 minutes.
func EquationOfTime(day int) float64 {
	b := 2 * math.Pi * (float64(day) - vernalEquinoxDay) / 365
	obliquityTerm := 9.87 * math.Sin(2*b)
	eccentricityTerm := 7.53*math.Cos(b) - 1.5*math.Sin(b)
	return obliquityTerm - eccentricityTerm
}

// Model produces the Sun's celestial state for a timestamp.
//
// Position takes a context because the delegated variant may consult a
// remote ephemeris provider; the approximate variant never blocks.
type Model interface {
	// Mode identifies the model for display and logging.
	Mode() string

	// Position returns the Sun's state at date.
	Position(ctx context.Context, date time.Time) (Position, error)
}

// ApproximateModel computes positions with the closed-form formulas.
// The zero value is ready to use.
type ApproximateModel struct{}

// NewApproximateModel returns the closed-form model.
func NewApproximateModel() ApproximateModel {
	return ApproximateModel{}
}

// Mode identifies the model for display and logging.
func (ApproximateModel) Mode() string { return "approximate" }

// Position returns the Sun's state at date. It never fails.
func (ApproximateModel) Position(_ context.Context, date time.Time) (Position, error) {
	day := date.YearDay()
	return Position{
		Date:           date,
		Day:            day,
		Declination:    Declination(day),
		EquationOfTime: EquationOfTime(day),
	}, nil
}

// DelegatedModel takes declination from an external ephemeris provider and
// equation of time from the approximation (see the package comment for why).
type DelegatedModel struct {
	provider ephemeris.Provider
}

// NewDelegatedModel wires a model to an ephemeris provider. A nil provider
// is a configuration error surfaced here, at construction, so a missing
// high-precision source fails before any pipeline work starts.
func NewDelegatedModel(provider ephemeris.Provider) (*DelegatedModel, error) {
	if provider == nil {
		return nil, errors.New(errors.ErrCodeConfiguration,
			"high-precision mode requires an ephemeris provider")
	}
	return &DelegatedModel{provider: provider}, nil
}

// Mode identifies the model for display and logging.
func (m *DelegatedModel) Mode() string { return "high-precision" }

// Position returns the Sun's state at date, with declination fetched from
// the provider. Retry policy belongs to the provider or its caller.
func (m *DelegatedModel) Position(ctx context.Context, date time.Time) (Position, error) {
	eq, err := m.provider.Apparent(ctx, date)
	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		return Position{}, errors.Wrap(code, err,
			"ephemeris provider %s at %s", m.provider.Name(), date.Format(time.RFC3339))
	}

	day := date.YearDay()
	return Position{
		Date:           date,
		Day:            day,
		Declination:    eq.Declination,
		EquationOfTime: EquationOfTime(day),
	}, nil
}
