package campaigns

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidClock = errors.New("campaigns: active hours must be HH:MM")

// IsActiveAt reports whether the campaign is live at the given instant.
//
// Date bounds are compared as instants; weekday and time-of-day are evaluated in
// the campaign's timezone. An unknown timezone or malformed hours make it inactive.
func (c *Campaign) IsActiveAt(at time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	s := c.Schedule
	if !s.StartDate.IsZero() && at.Before(s.StartDate) {
		return false
	}
	if !s.EndDate.IsZero() && at.After(s.EndDate) {
		return false
	}

	loc, err := c.location()
	if err != nil {
		return false
	}
	local := at.In(loc)

	if len(s.ActiveDays) > 0 && !slices.Contains(s.ActiveDays, local.Weekday()) {
		return false
	}

	ok, err := s.ActiveHours.contains(local.Hour()*60 + local.Minute())
	if err != nil {
		return false
	}
	return ok
}

func (c *Campaign) location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Schedule.Timezone)
}

// contains checks a minute-of-day against the window. Start > End wraps midnight.
func (h ActiveHours) contains(minute int) (bool, error) {
	if h.Start == "" && h.End == "" {
		return true, nil
	}
	start, end := 0, 24*60-1
	var err error
	if h.Start != "" {
		if start, err = ParseClock(h.Start); err != nil {
			return false, err
		}
	}
	if h.End != "" {
		if end, err = ParseClock(h.End); err != nil {
			return false, err
		}
	}
	if start <= end {
		return minute >= start && minute <= end, nil
	}
	return minute >= start || minute <= end, nil
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(v string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, v)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, v)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, v)
	}
	return h*60 + m, nil
}
