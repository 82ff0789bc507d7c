package solar

import (
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"

	"github.com/mvermeulen/analemma/pkg/errors"
)

// EventTimes holds the Sun's event times for one date, in the zone of the
// date passed to EventsForDate.
type EventTimes struct {
	CivilDawn time.Time
	Sunrise   time.Time
	Sunset    time.Time
	CivilDusk time.Time
}

// EventCalc calculates and caches sun event times for a fixed location.
// These are clock-time events (when does the sun rise), complementary to the
// geometric sunrise/sunset hour angles in the sky package.
//
// Safe for concurrent use.
type EventCalc struct {
	observer astral.Observer
	mu       sync.RWMutex
	cache    map[string]EventTimes
}

// NewEventCalc creates an event calculator for the given location.
func NewEventCalc(latitude, longitude float64) *EventCalc {
	return &EventCalc{
		observer: astral.Observer{Latitude: latitude, Longitude: longitude},
		cache:    make(map[string]EventTimes),
	}
}

// EventsForDate returns the sun event times for the given date, using the
// per-date cache when possible. At polar latitudes astral reports dates with
// no sunrise or sunset as errors; those surface as NO_EVENT.
func (c *EventCalc) EventsForDate(date time.Time) (EventTimes, error) {
	key := date.Format("2006-01-02")

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	times, err := c.calculate(date)
	if err != nil {
		return EventTimes{}, err
	}

	c.mu.Lock()
	c.cache[key] = times
	c.mu.Unlock()
	return times, nil
}

func (c *EventCalc) calculate(date time.Time) (EventTimes, error) {
	dawn, err := astral.Dawn(c.observer, date, astral.DepressionCivil)
	if err != nil {
		return EventTimes{}, errors.Wrap(errors.ErrCodeNoEvent, err, "civil dawn on %s", date.Format("2006-01-02"))
	}

	sunrise, err := astral.Sunrise(c.observer, date)
	if err != nil {
		return EventTimes{}, errors.Wrap(errors.ErrCodeNoEvent, err, "sunrise on %s", date.Format("2006-01-02"))
	}

	sunset, err := astral.Sunset(c.observer, date)
	if err != nil {
		return EventTimes{}, errors.Wrap(errors.ErrCodeNoEvent, err, "sunset on %s", date.Format("2006-01-02"))
	}

	dusk, err := astral.Dusk(c.observer, date, astral.DepressionCivil)
	if err != nil {
		return EventTimes{}, errors.Wrap(errors.ErrCodeNoEvent, err, "civil dusk on %s", date.Format("2006-01-02"))
	}

	loc := date.Location()
	return EventTimes{
		CivilDawn: dawn.In(loc),
		Sunrise:   sunrise.In(loc),
		Sunset:    sunset.In(loc),
		CivilDusk: dusk.In(loc),
	}, nil
}
