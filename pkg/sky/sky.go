// Package sky projects the Sun's celestial state into local horizon
// coordinates (altitude, azimuth) for a fixed observer.
//
// The projection is pure spherical trigonometry: an hour angle folding the
// civil-time offset, the equation-of-time correction, and the residual
// between the observer's longitude and the timezone reference meridian; then
// altitude by the spherical law of cosines and azimuth by atan2. The one
// singularity — azimuth at the exact zenith — is guarded explicitly and
// reported through a sentinel flag instead of a division fault.
package sky

import (
	"math"

	"github.com/mvermeulen/analemma/pkg/solar"
)

// degPerHour is the Earth's rotation rate: 360° / 24h.
const degPerHour = 15.0

// Observer is a fixed point on Earth. Values are in degrees; timezone offset
// is in hours east of UTC.
type Observer struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	TimezoneOffset float64 `json:"timezone_offset"`
}

// NewObserver creates an observer at the given latitude/longitude with the
// timezone offset derived from longitude: round(longitude/15), one hour per
// 15° of rotation.
func NewObserver(latitude, longitude float64) Observer {
	return Observer{
		Latitude:       latitude,
		Longitude:      longitude,
		TimezoneOffset: math.Round(longitude / degPerHour),
	}
}

// WithTimezoneOffset returns a copy of the observer with an explicit
// timezone offset, for locations whose civil zone differs from the
// longitude-derived one.
func (o Observer) WithTimezoneOffset(hours float64) Observer {
	o.TimezoneOffset = hours
	return o
}

// HorizonPosition is the Sun's position as seen from the observer. It embeds
// the source celestial state.
type HorizonPosition struct {
	solar.Position

	// Altitude above the horizon in degrees, [-90, 90].
	Altitude float64 `json:"altitude"`

	// Azimuth clockwise from North in degrees, [0, 360). Meaningless when
	// AzimuthDefined is false.
	Azimuth float64 `json:"azimuth"`

	// AzimuthDefined is false at the exact zenith or nadir, where every
	// bearing points away from the Sun and azimuth has no value.
	AzimuthDefined bool `json:"azimuth_defined"`

	// HourAngle west of the local meridian in degrees.
	HourAngle float64 `json:"hour_angle"`
}

// HourAngle converts a local clock time and equation-of-time correction to
// the Sun's hour angle in degrees. Three corrections fold into one linear
// combination: the civil-time offset from local noon (15° per hour), the
// equation of time (4 minutes of time per degree), and the residual between
// the observer's longitude and the timezone reference meridian.
func (o Observer) HourAngle(eotMinutes float64, hour, minute int) float64 {
	timeFromNoon := float64(hour-12) + float64(minute)/60
	timezoneMeridian := o.TimezoneOffset * degPerHour
	return timeFromNoon*degPerHour + eotMinutes/4 + (o.Longitude - timezoneMeridian)
}

// Altitude returns the Sun's altitude in degrees for a declination and hour
// angle, via the spherical law of cosines:
//
//	sin(alt) = sin(lat)·sin(dec) + cos(lat)·cos(dec)·cos(H)
func (o Observer) Altitude(declination, hourAngle float64) float64 {
	lat := radians(o.Latitude)
	dec := radians(declination)
	ha := radians(hourAngle)

	sinAlt := math.Sin(lat)*math.Sin(dec) + math.Cos(lat)*math.Cos(dec)*math.Cos(ha)
	// Clamp: the sum can drift a hair past ±1 in floating point.
	sinAlt = math.Max(-1, math.Min(1, sinAlt))
	return degrees(math.Asin(sinAlt))
}

// Azimuth returns the Sun's azimuth in degrees clockwise from North, given
// declination, hour angle, and the altitude already computed for them.
//
// The raw atan2 result measures azimuth from South; adding 180° and reducing
// modulo 360 re-references it to North. At the exact zenith or nadir
// (cos(altitude) == 0) azimuth is undefined and ok is false.
func (o Observer) Azimuth(declination, hourAngle, altitude float64) (az float64, ok bool) {
	lat := radians(o.Latitude)
	dec := radians(declination)
	ha := radians(hourAngle)
	cosAlt := math.Cos(radians(altitude))

	if math.Abs(cosAlt) < 1e-12 {
		return 0, false
	}

	sinAz := math.Cos(dec) * math.Sin(ha) / cosAlt
	cosAz := (math.Cos(dec)*math.Cos(ha)*math.Sin(lat) - math.Sin(dec)*math.Cos(lat)) / cosAlt

	az = degrees(math.Atan2(sinAz, cosAz))
	return normalize360(az + 180), true
}

// Project maps one celestial position to horizon coordinates at the given
// local clock time.
func (o Observer) Project(pos solar.Position, hour, minute int) HorizonPosition {
	ha := o.HourAngle(pos.EquationOfTime, hour, minute)
	alt := o.Altitude(pos.Declination, ha)
	az, ok := o.Azimuth(pos.Declination, ha, alt)

	return HorizonPosition{
		Position:       pos,
		Altitude:       alt,
		Azimuth:        az,
		AzimuthDefined: ok,
		HourAngle:      ha,
	}
}

// ProjectSeries maps a whole solar series to horizon coordinates, one entry
// per input position, order preserved.
func (o Observer) ProjectSeries(series []solar.Position, hour, minute int) []HorizonPosition {
	out := make([]HorizonPosition, 0, len(series))
	for _, pos := range series {
		out = append(out, o.Project(pos, hour, minute))
	}
	return out
}

// MaxAltitude returns the meridian-transit altitude for a declination:
// 90° − |latitude − declination|.
func (o Observer) MaxAltitude(declination float64) float64 {
	return 90 - math.Abs(o.Latitude-declination)
}

// SunriseSunsetHourAngle returns the geometric sunrise and sunset hour
// angles (−H, +H) for a declination, from cos(H) = −tan(lat)·tan(dec).
// During polar day or polar night no such crossing exists; ok is false and
// both angles are zero. That is an expected physical condition, not an
// error.
func (o Observer) SunriseSunsetHourAngle(declination float64) (rise, set float64, ok bool) {
	cosH := -math.Tan(radians(o.Latitude)) * math.Tan(radians(declination))
	if math.Abs(cosH) > 1 {
		return 0, 0, false
	}
	h := degrees(math.Acos(cosH))
	return -h, h, true
}

// SolarNoon returns the local clock time of meridian transit, displacing
// 12:00 by the equation of time and the longitude residual (4 minutes of
// time per degree). The displacement is added to 12:00; solving HourAngle
// for zero would move it the other way. The additive convention is
// intentional and the reported time follows it.
func (o Observer) SolarNoon(eotMinutes float64) (hour, minute int) {
	timezoneMeridian := o.TimezoneOffset * degPerHour
	correction := eotMinutes + (o.Longitude-timezoneMeridian)*4

	total := 12*60 + int(math.Round(correction))
	total = ((total % (24 * 60)) + 24*60) % (24 * 60)
	return total / 60, total % 60
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// normalize360 reduces an angle to [0, 360).
func normalize360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
