package service

import (
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
)

const (
	scheduleTimeLayout = "15:04"
	scheduleDateLayout = "2006-01-02"
)

// NextRun computes when sc next fires strictly after from, in from's location.
// A once schedule always returns its fixed instant, even if it has passed, so
// a late registration still fires on the next tick.
func NextRun(sc models.Schedule, from time.Time) (time.Time, error) {
	loc := from.Location()
	switch sc.Type {
	case models.IntervalSchedule:
		every, err := time.ParseDuration(sc.Every)
		if err != nil || every <= 0 {
			return time.Time{}, NewError(InvalidParameter, "interval schedule needs a positive duration in 'every', got %q", sc.Every)
		}
		return from.Add(every), nil
	}

	hour, minute, err := parseClock(sc.Time)
	if err != nil {
		return time.Time{}, err
	}

	switch sc.Type {
	case models.OnceSchedule:
		day, err := parseDate(sc.Date, loc)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil

	case models.DailySchedule:
		next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, loc)
		if !next.After(from) {
			next = next.AddDate(0, 0, 1)
		}
		return next, nil

	case models.WeeklySchedule:
		if len(sc.Days) == 0 {
			return time.Time{}, NewError(MissingParameter, "weekly schedule needs at least one day")
		}
		days := make(map[time.Weekday]bool, len(sc.Days))
		for _, d := range sc.Days {
			if d < 0 || d > 6 {
				return time.Time{}, NewError(InvalidParameter, "weekday %d out of range 0-6", d)
			}
			days[time.Weekday(d)] = true
		}
		for i := 0; i <= 7; i++ {
			next := time.Date(from.Year(), from.Month(), from.Day()+i, hour, minute, 0, 0, loc)
			if days[next.Weekday()] && next.After(from) {
				return next, nil
			}
		}
		return time.Time{}, NewError(InvalidParameter, "no matching weekday")

	case models.MonthlySchedule:
		day, err := parseDate(sc.Date, loc)
		if err != nil {
			return time.Time{}, err
		}
		dom := day.Day()
		// Months too short for the day are skipped.
		for i := 0; i <= 24; i++ {
			first := time.Date(from.Year(), from.Month()+time.Month(i), 1, hour, minute, 0, 0, loc)
			next := time.Date(first.Year(), first.Month(), dom, hour, minute, 0, 0, loc)
			if next.Month() != first.Month() {
				continue
			}
			if next.After(from) {
				return next, nil
			}
		}
		return time.Time{}, NewError(InvalidParameter, "no month has day %d", dom)
	}
	return time.Time{}, NewError(InvalidParameter, "unknown schedule type %q", sc.Type)
}

func parseClock(s string) (int, int, error) {
	if s == "" {
		return 0, 0, NewError(MissingParameter, "schedule needs a time (HH:MM)")
	}
	t, err := time.Parse(scheduleTimeLayout, s)
	if err != nil {
		return 0, 0, NewError(InvalidParameter, "invalid schedule time %q, expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, NewError(MissingParameter, "schedule needs a date (YYYY-MM-DD)")
	}
	t, err := time.ParseInLocation(scheduleDateLayout, s, loc)
	if err != nil {
		return time.Time{}, NewError(InvalidParameter, "invalid schedule date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}
