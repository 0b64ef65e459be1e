// Package reminder implements what happens when a scheduled dose comes
// due: the remaining-dose counter is decremented, supply is compared with
// the refill threshold, and the user is alerted.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeanpaul/medremind/internal/alert"
	"github.com/jeanpaul/medremind/internal/medication"
)

// Firing is one reminder produced by one matching schedule entry.
type Firing struct {
	MedicationID    int
	Name            string
	Dosage          string
	Entry           medication.ScheduleEntry
	RemainingDoses  int
	RefillThreshold int
	Low             bool
	At              time.Time
}

// Message is the reminder line shown to the user.
func (f Firing) Message() string {
	return fmt.Sprintf("REMINDER: Time to take %s - %s", f.Name, f.Dosage)
}

// Warning is the low-supply line, empty when supply is fine.
func (f Firing) Warning() string {
	if !f.Low {
		return ""
	}
	return fmt.Sprintf("WARNING: %s is running low. Please refill soon.", f.Name)
}

// Apply decrements the remaining doses by exactly one and records whether
// the new count is at or below the refill threshold. There is no floor.
func Apply(m *medication.Medication, e medication.ScheduleEntry, at time.Time) Firing {
	m.RemainingDoses--
	return Firing{
		MedicationID:    m.ID,
		Name:            m.Name,
		Dosage:          m.Dosage,
		Entry:           e,
		RemainingDoses:  m.RemainingDoses,
		RefillThreshold: m.RefillThreshold,
		Low:             m.RemainingDoses <= m.RefillThreshold,
		At:              at,
	}
}

// Sink surfaces reminders to the user.
type Sink interface {
	Reminder(f Firing)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f Firing)

func (fn SinkFunc) Reminder(f Firing) { fn(f) }

// Action delivers firings: alert first, then the reminder text.
type Action struct {
	notifier alert.Notifier
	sink     Sink
	log      *slog.Logger
}

func NewAction(n alert.Notifier, sink Sink, log *slog.Logger) *Action {
	if n == nil {
		n = alert.Silent{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Action{notifier: n, sink: sink, log: log}
}

// Deliver never fails: alert errors are logged so the caller keeps going.
func (a *Action) Deliver(ctx context.Context, f Firing) {
	msg := alert.Message{Title: "Medication reminder", Body: f.Message()}
	if err := a.notifier.Notify(ctx, msg); err != nil {
		a.log.Warn("alert failed", "medication_id", f.MedicationID, "error", err)
	}
	a.log.Info("reminder fired",
		"medication_id", f.MedicationID,
		"name", f.Name,
		"entry", f.Entry.String(),
		"remaining_doses", f.RemainingDoses,
		"low", f.Low,
	)
	if a.sink != nil {
		a.sink.Reminder(f)
	}
}
