package medication

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDosage = errors.New("dosage must contain digits only")
	ErrOutOfRange    = errors.New("value out of range")
)

// ScheduleEntry is a time of day at which a dose is due.
type ScheduleEntry struct {
	Hour   int `json:"hour" yaml:"hour"`
	Minute int `json:"minute" yaml:"minute"`
}

// Validate checks the entry against a 24-hour clock.
func (e ScheduleEntry) Validate() error {
	if e.Hour < 0 || e.Hour > 23 {
		return fmt.Errorf("hour %d: %w (0-23)", e.Hour, ErrOutOfRange)
	}
	if e.Minute < 0 || e.Minute > 59 {
		return fmt.Errorf("minute %d: %w (0-59)", e.Minute, ErrOutOfRange)
	}
	return nil
}

// Matches reports whether the entry falls on the given hour and minute.
func (e ScheduleEntry) Matches(hour, minute int) bool {
	return e.Hour == hour && e.Minute == minute
}

func (e ScheduleEntry) String() string {
	return fmt.Sprintf("%d:%02d", e.Hour, e.Minute)
}

// Medication is one entry in the store. ID is assigned by the store.
type Medication struct {
	ID              int             `json:"id" yaml:"id"`
	Name            string          `json:"name" yaml:"name"`
	Dosage          string          `json:"dosage" yaml:"dosage"`
	ScheduledTimes  []ScheduleEntry `json:"scheduled_times" yaml:"scheduled_times"`
	RemainingDoses  int             `json:"remaining_doses" yaml:"remaining_doses"`
	RefillThreshold int             `json:"refill_threshold" yaml:"refill_threshold"`
}

// Clone returns a deep copy so callers never share the schedule slice.
func (m Medication) Clone() Medication {
	c := m
	if m.ScheduledTimes != nil {
		c.ScheduledTimes = make([]ScheduleEntry, len(m.ScheduledTimes))
		copy(c.ScheduledTimes, m.ScheduledTimes)
	}
	return c
}

// Low reports whether supply is at or below the refill threshold.
func (m Medication) Low() bool {
	return m.RemainingDoses <= m.RefillThreshold
}

// TimesString renders the schedule as "8:00, 20:30".
func (m Medication) TimesString() string {
	parts := make([]string, 0, len(m.ScheduledTimes))
	for _, e := range m.ScheduledTimes {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

// Validate checks the fields that are constrained at entry time.
func (m Medication) Validate() error {
	if err := ValidateDosage(m.Dosage); err != nil {
		return err
	}
	for i, e := range m.ScheduledTimes {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("time %d: %w", i+1, err)
		}
	}
	return nil
}

// New holds the fields supplied when a medication is created.
type New struct {
	Name            string
	Dosage          string
	ScheduledTimes  []ScheduleEntry
	RemainingDoses  int
	RefillThreshold int
}

// Update is a partial update. A nil field keeps the current value.
type Update struct {
	Name            *string
	Dosage          *string
	ScheduledTimes  *[]ScheduleEntry
	RemainingDoses  *int
	RefillThreshold *int
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Name == nil && u.Dosage == nil && u.ScheduledTimes == nil &&
		u.RemainingDoses == nil && u.RefillThreshold == nil
}

// Validate rejects present fields that could never be applied.
func (u Update) Validate() error {
	if u.ScheduledTimes != nil {
		for i, e := range *u.ScheduledTimes {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("time %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// Apply writes the present fields of u into m. The dosage only changes
// when the new value is non-empty and digits-only; an empty name keeps the
// current one.
func (u Update) Apply(m *Medication) {
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		m.Name = *u.Name
	}
	if u.Dosage != nil && *u.Dosage != "" && ValidateDosage(*u.Dosage) == nil {
		m.Dosage = *u.Dosage
	}
	if u.ScheduledTimes != nil {
		times := make([]ScheduleEntry, len(*u.ScheduledTimes))
		copy(times, *u.ScheduledTimes)
		m.ScheduledTimes = times
	}
	if u.RemainingDoses != nil {
		m.RemainingDoses = *u.RemainingDoses
	}
	if u.RefillThreshold != nil {
		m.RefillThreshold = *u.RefillThreshold
	}
}

// Ptr is a convenience for building updates.
func Ptr[T any](v T) *T { return &v }
