package medication

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateDosage accepts only decimal digits. The empty string is allowed;
// callers decide whether empty means "keep current".
func ValidateDosage(s string) error {
	for _, r := range s {
		if r < '0' || r > '9' {
			return ErrInvalidDosage
		}
	}
	return nil
}

// ParseInt parses a whole-number answer, tolerating surrounding spaces.
func ParseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", strings.TrimSpace(s))
	}
	return n, nil
}

// ParseIntInRange parses s and checks min <= n <= max.
func ParseIntInRange(s string, min, max int) (int, error) {
	n, err := ParseInt(s)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%d: %w (%d-%d)", n, ErrOutOfRange, min, max)
	}
	return n, nil
}

// ParseOptionalInt returns (nil, nil) for blank input, meaning "keep current".
func ParseOptionalInt(s string) (*int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, err := ParseInt(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ParseClock parses "H:MM" into a schedule entry.
func ParseClock(s string) (ScheduleEntry, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ScheduleEntry{}, fmt.Errorf("%q: expected H:MM", s)
	}
	hour, err := ParseIntInRange(h, 0, 23)
	if err != nil {
		return ScheduleEntry{}, fmt.Errorf("hour: %w", err)
	}
	minute, err := ParseIntInRange(m, 0, 59)
	if err != nil {
		return ScheduleEntry{}, fmt.Errorf("minute: %w", err)
	}
	return ScheduleEntry{Hour: hour, Minute: minute}, nil
}

// ParseSchedule parses a comma separated list of H:MM values. Blank input
// yields an empty schedule.
func ParseSchedule(s string) ([]ScheduleEntry, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []ScheduleEntry{}, nil
	}
	var out []ScheduleEntry
	for i, part := range strings.Split(s, ",") {
		e, err := ParseClock(part)
		if err != nil {
			return nil, fmt.Errorf("time %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}
