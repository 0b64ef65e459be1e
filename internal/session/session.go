// Package session implements the plain line-oriented interactive session:
// a numbered menu over stdin/stdout for terminals where the full-screen
// interface is unavailable, and for scripting.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/store"
)

// maxTimesPerDay bounds the schedule-count prompt; one entry per minute.
const maxTimesPerDay = 24 * 60

type Session struct {
	store *store.Store
	p     *prompter
	out   io.Writer
	log   *slog.Logger
}

// New builds a session. out should be shared with the reminder sink
// through a SyncWriter.
func New(st *store.Store, in io.Reader, out io.Writer, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		store: st,
		p:     &prompter{in: bufio.NewScanner(in), out: out},
		out:   out,
		log:   log,
	}
}

// Run shows the menu until the user picks Exit, input ends, or ctx is
// cancelled between prompts.
func (s *Session) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		fmt.Fprint(s.out, "\nMedication Reminder Menu:\n"+
			"1. Add Medication\n"+
			"2. Update Medication\n"+
			"3. Delete Medication\n"+
			"4. Display Medications\n"+
			"5. Exit\n")
		choice, err := s.p.int("Enter your choice: ")
		if err != nil {
			return s.finish(err)
		}

		switch choice {
		case 1:
			err = s.Add(ctx)
		case 2:
			err = s.Update(ctx)
		case 3:
			err = s.Delete(ctx)
		case 4:
			s.Display()
		case 5:
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid choice. Please try again.")
		}
		if err != nil {
			return s.finish(err)
		}
	}
	return nil
}

func (s *Session) finish(err error) error {
	if isEOF(err) {
		s.log.Info("input closed, leaving session")
		return nil
	}
	return err
}

// Add collects a new medication and saves it.
func (s *Session) Add(ctx context.Context) error {
	var n medication.New
	var err error
	if n.Name, err = s.p.nonEmpty("\n\nEnter medication name: "); err != nil {
		return err
	}
	if n.Dosage, err = s.p.dosage("Enter dosage: (i.e 1 pill, 2 tablets, etc. number only) "); err != nil {
		return err
	}
	count, err := s.p.intInRange("Enter number of times per day: ", 0, maxTimesPerDay)
	if err != nil {
		return err
	}
	if n.ScheduledTimes, err = s.p.schedule(count); err != nil {
		return err
	}
	if n.RemainingDoses, err = s.p.int("Enter remaining doses: "); err != nil {
		return err
	}
	if n.RefillThreshold, err = s.p.int("Enter refill threshold: "); err != nil {
		return err
	}

	id, err := s.store.Create(n)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil
	}
	s.save(ctx)
	fmt.Fprintf(s.out, "Medication '%s' (ID: %d) has been added and saved.\n", n.Name, id)
	return nil
}

// Update edits an existing medication; empty answers keep current values.
func (s *Session) Update(ctx context.Context) error {
	s.Display()
	id, err := s.p.int("Enter the ID of the medication to update: ")
	if err != nil {
		return err
	}
	cur, ok := s.store.Get(id)
	if !ok {
		fmt.Fprintf(s.out, "Medication with ID %d not found.\n", id)
		return nil
	}

	var u medication.Update

	fmt.Fprintf(s.out, "Current name: %s\n", cur.Name)
	name, err := s.p.line("Enter new name or press Enter to keep current: ")
	if err != nil {
		return err
	}
	if name != "" {
		u.Name = &name
	}

	fmt.Fprintf(s.out, "Current dosage: %s\n", cur.Dosage)
	if u.Dosage, err = s.p.optionalDosage("Enter new dosage (number only) or press Enter to keep current: "); err != nil {
		return err
	}
	if u.Dosage == nil {
		fmt.Fprintln(s.out, "Keeping current dosage.")
	}

	fmt.Fprintf(s.out, "Current number of times per day: %d\n", len(cur.ScheduledTimes))
	count, err := s.p.optionalIntInRange("Enter new number of times per day or press Enter to keep current: ", 0, maxTimesPerDay)
	if err != nil {
		return err
	}
	if count != nil {
		times, err := s.p.schedule(*count)
		if err != nil {
			return err
		}
		u.ScheduledTimes = &times
	}

	fmt.Fprintf(s.out, "Current remaining doses: %d\n", cur.RemainingDoses)
	if u.RemainingDoses, err = s.p.optionalInt("Enter new remaining doses or press Enter to keep current: "); err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Current refill threshold: %d\n", cur.RefillThreshold)
	if u.RefillThreshold, err = s.p.optionalInt("Enter new refill threshold or press Enter to keep current: "); err != nil {
		return err
	}

	m, err := s.store.Update(id, u)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted while the prompts were open.
		fmt.Fprintf(s.out, "Medication with ID %d not found.\n", id)
		return nil
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil
	}
	s.save(ctx)
	fmt.Fprintf(s.out, "Medication '%s' (ID: %d) has been updated and saved.\n", m.Name, m.ID)
	return nil
}

// Delete removes a medication by id.
func (s *Session) Delete(ctx context.Context) error {
	s.Display()
	id, err := s.p.int("Enter the ID of the medication to delete: ")
	if err != nil {
		return err
	}
	m, err := s.store.Delete(id)
	if err != nil {
		fmt.Fprintf(s.out, "Medication with ID %d not found.\n", id)
		return nil
	}
	s.save(ctx)
	fmt.Fprintf(s.out, "Medication '%s' (ID: %d) has been deleted.\n", m.Name, id)
	return nil
}

// Display prints every medication in id order.
func (s *Session) Display() {
	Render(s.out, s.store.List())
}

// Render writes the plain listing used by Display.
func Render(w io.Writer, meds []medication.Medication) {
	if len(meds) == 0 {
		fmt.Fprintln(w, "\nNo medications available.")
		return
	}
	fmt.Fprint(w, "\n\nMedications:")
	for _, m := range meds {
		fmt.Fprintf(w, "\n\nID: %d\n", m.ID)
		fmt.Fprintf(w, "Name: %s\n", m.Name)
		fmt.Fprintf(w, "Dosage: %s\n", m.Dosage)
		fmt.Fprintf(w, "Remaining Doses: %d\n", m.RemainingDoses)
		fmt.Fprintf(w, "Refill Threshold: %d\n", m.RefillThreshold)
		fmt.Fprint(w, "Scheduled Times:")
		for _, e := range m.ScheduledTimes {
			fmt.Fprintf(w, "  %s  ", e)
		}
		fmt.Fprintln(w)
	}
}

func (s *Session) save(ctx context.Context) {
	if err := s.store.Persist(ctx); err != nil {
		s.log.Error("save failed", "error", err)
		fmt.Fprintf(s.out, "Error: Unable to save medications: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Medications saved to file.")
}
