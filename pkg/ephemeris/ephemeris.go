// Package ephemeris defines the narrow interface to an external
// high-precision astronomy data source.
//
// The core never computes ephemerides itself: a [Provider] is injected into
// the delegated solar model at construction time, and absence of a provider
// is a construction-time configuration error rather than a mid-pipeline
// failure. The bundled implementation is the JPL Horizons client in the
// horizons subpackage.
package ephemeris

import (
	"context"
	"time"
)

// Equatorial is the Sun's apparent equatorial coordinate pair for one instant.
type Equatorial struct {
	// Declination in degrees, north positive.
	Declination float64 `json:"declination"`

	// RightAscension in hours (0-24).
	RightAscension float64 `json:"right_ascension"`
}

// Provider supplies apparent solar coordinates for a timestamp.
//
// Apparent is the only blocking operation in the whole pipeline. It takes a
// context so callers can cancel or bound it; retry on transient failure is
// the caller's responsibility.
type Provider interface {
	// Name identifies the provider for display and logging.
	Name() string

	// Apparent returns the Sun's apparent declination and right ascension
	// at time t.
	Apparent(ctx context.Context, t time.Time) (Equatorial, error)
}
