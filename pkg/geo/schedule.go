package geo

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule limits when a geofence is live. Days uses time.Weekday numbering (0 = Sunday).
// Start and End are "HH:MM" in Location (IANA name, UTC when empty).
type Schedule struct {
	Days     []int  `json:"days"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Location string `json:"location,omitempty"`
}

func (s *Schedule) Validate() error {
	if s == nil {
		return nil
	}
	for _, d := range s.Days {
		if d < 0 || d > 6 {
			return fmt.Errorf("schedule day %d out of range 0..6", d)
		}
	}
	if (s.Start == "") != (s.End == "") {
		return fmt.Errorf("schedule needs both start and end or neither")
	}
	if s.Start != "" {
		if _, err := parseClock(s.Start); err != nil {
			return err
		}
		if _, err := parseClock(s.End); err != nil {
			return err
		}
	}
	if s.Location != "" {
		if _, err := time.LoadLocation(s.Location); err != nil {
			return fmt.Errorf("schedule location %q: %w", s.Location, err)
		}
	}
	return nil
}

// IsActive reports whether a geofence with the given base flag and schedule is live at now.
// An unscheduled geofence follows its base flag alone. Empty Days means every day; the Start/End
// window still applies.
func IsActive(base bool, s *Schedule, now time.Time) bool {
	if s == nil || !base {
		return base
	}

	loc := time.UTC
	if s.Location != "" {
		if l, err := time.LoadLocation(s.Location); err == nil {
			loc = l
		}
	}
	local := now.In(loc)

	dayMatches := len(s.Days) == 0
	for _, d := range s.Days {
		if time.Weekday(d) == local.Weekday() {
			dayMatches = true
			break
		}
	}
	if !dayMatches {
		return false
	}

	if s.Start == "" || s.End == "" {
		return true
	}

	start, err1 := parseClock(s.Start)
	end, err2 := parseClock(s.End)
	if err1 != nil || err2 != nil {
		return true
	}

	minute := local.Hour()*60 + local.Minute()
	if start <= end {
		return minute >= start && minute <= end
	}
	// overnight window, e.g. 22:00-06:00
	return minute >= start || minute <= end
}

func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
