package timeutils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TopOfNextHour returns the next full hour strictly after t.
// Used as the fallback slot when a posting queue has no active slots.
func TopOfNextHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}

// ParseClock parses a "HH:MM" string into hour and minute.
func ParseClock(clock string) (int, int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format, expected HH:MM")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour: %s", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute: %s", parts[1])
	}
	return hour, minute, nil
}

// NextWeekdayTime returns the first instant strictly after 'from' that
// falls on the given weekday at hour:minute (UTC). Wraps up to one week
// forward when the slot for the current week has already passed.
func NextWeekdayTime(from time.Time, day time.Weekday, hour, minute int) time.Time {
	candidate := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		if candidate.Weekday() == day && candidate.After(from) {
			return candidate
		}
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate
}
