package horizons

import (
	"strconv"
	"strings"

	"github.com/mvermeulen/analemma/pkg/ephemeris"
	"github.com/mvermeulen/analemma/pkg/errors"
)

// ParseObserverTable extracts the first ephemeris row from a Horizons
// observer-table payload. Data rows sit between the $$SOE and $$EOE markers:
//
//	$$SOE
//	 2026-Jun-21 12:00     05 59 40.43 +23 26 11.3
//	$$EOE
//
// The row carries the timestamp followed by RA (hours minutes seconds) and
// Dec (signed degrees minutes seconds) in HMS format.
func ParseObserverTable(payload string) (ephemeris.Equatorial, error) {
	lines := strings.Split(payload, "\n")

	inData := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "$$SOE":
			inData = true
			continue
		case trimmed == "$$EOE":
			inData = false
			continue
		}
		if !inData || trimmed == "" {
			continue
		}
		return parseRow(trimmed)
	}

	return ephemeris.Equatorial{}, errors.New(errors.ErrCodeInternal,
		"horizons payload contains no ephemeris rows")
}

// parseRow parses one observer-table row. Horizons may insert marker glyphs
// (solar presence, lunar interference) between the timestamp and the
// coordinates, so the RA/Dec sextet is taken from the end of the row.
func parseRow(row string) (ephemeris.Equatorial, error) {
	fields := strings.Fields(row)
	if len(fields) < 8 {
		return ephemeris.Equatorial{}, errors.New(errors.ErrCodeInternal,
			"horizons row %q has %d fields, want at least 8", row, len(fields))
	}

	// Last six fields: RA h m s, Dec d m s.
	tail := fields[len(fields)-6:]

	ra, err := parseHMS(tail[0], tail[1], tail[2])
	if err != nil {
		return ephemeris.Equatorial{}, errors.Wrap(errors.ErrCodeInternal, err,
			"parse right ascension from %q", row)
	}

	dec, err := parseDMS(tail[3], tail[4], tail[5])
	if err != nil {
		return ephemeris.Equatorial{}, errors.Wrap(errors.ErrCodeInternal, err,
			"parse declination from %q", row)
	}

	return ephemeris.Equatorial{Declination: dec, RightAscension: ra}, nil
}

// parseHMS converts "hh mm ss.ff" sexagesimal right ascension to hours.
func parseHMS(h, m, s string) (float64, error) {
	hours, err := strconv.ParseFloat(h, 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return hours + minutes/60 + seconds/3600, nil
}

// parseDMS converts "±dd mm ss.f" sexagesimal declination to degrees.
// The sign on the degree field applies to the whole value.
func parseDMS(d, m, s string) (float64, error) {
	negative := strings.HasPrefix(d, "-")
	degrees, err := strconv.ParseFloat(strings.TrimPrefix(d, "+"), 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	value := abs(degrees) + minutes/60 + seconds/3600
	if negative {
		value = -value
	}
	return value, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
