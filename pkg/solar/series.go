package solar

import (
	"context"
	"time"

	"github.com/mvermeulen/analemma/pkg/errors"
)

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC).YearDay() == 366 {
		return 366
	}
	return 365
}

// Year computes one Position per day of year, all at the same local clock
// time hour:minute. The result is ordered by day of year and has exactly
// DaysInYear(year) entries.
//
// The context is threaded through to the model; with a delegated model a
// provider failure or cancellation aborts the series.
func Year(ctx context.Context, m Model, year, hour, minute int) ([]Position, error) {
	if m == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "solar model is required")
	}
	if hour < 0 || hour > 23 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "hour must be in [0,23], got %d", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "minute must be in [0,59], got %d", minute)
	}

	days := DaysInYear(year)
	series := make([]Position, 0, days)
	start := time.Date(year, 1, 1, hour, minute, 0, 0, time.Local)

	for day := range days {
		date := start.AddDate(0, 0, day)
		pos, err := m.Position(ctx, date)
		if err != nil {
			return nil, err
		}
		series = append(series, pos)
	}
	return series, nil
}
