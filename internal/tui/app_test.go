package tui

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/reminder"
	"github.com/jeanpaul/medremind/internal/store"
)

func newTestModel(t *testing.T) (Model, *store.Store) {
	t.Helper()
	st := store.New(nil)
	m := NewModel(context.Background(), st, Info{Backend: "json", Theme: "green"}, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), st
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press feeds keys in order and returns the last command.
func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

// settle runs cmd and feeds its message back.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	_, err := st.Create(medication.New{
		Name: "Aspirin", Dosage: "1",
		ScheduledTimes: []medication.ScheduleEntry{{Hour: 8, Minute: 0}},
		RemainingDoses: 10, RefillThreshold: 3,
	})
	require.NoError(t, err)
}

func TestMenuView(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "Medication Reminder Menu")
	assert.Contains(t, view, "1. Add Medication")
	assert.Contains(t, view, "5. Exit")
	assert.Contains(t, view, "0 medications")
}

func TestAddFlow(t *testing.T) {
	m, st := newTestModel(t)
	m, _ = press(t, m, "1")
	require.Equal(t, modeForm, m.mode)
	assert.Contains(t, m.View(), "Add Medication")

	m, cmd := press(t, m, "Aspirin", "enter", "1", "enter", "8:00, 20:30", "enter", "10", "enter", "3", "enter")
	m = settle(t, m, cmd)

	assert.Equal(t, modeMenu, m.mode)
	assert.Contains(t, m.status, "Medication 'Aspirin' (ID: 1) has been added.")
	assert.Contains(t, m.status, "Medications saved to file.")
	got, ok := st.Get(1)
	require.True(t, ok)
	assert.Equal(t, []medication.ScheduleEntry{{Hour: 8, Minute: 0}, {Hour: 20, Minute: 30}}, got.ScheduledTimes)
	assert.Equal(t, 3, got.RefillThreshold)
}

func TestAddRejectsNonNumericDosage(t *testing.T) {
	m, st := newTestModel(t)
	m, cmd := press(t, m, "1", "Aspirin", "enter", "two", "enter", "enter", "10", "enter", "3", "enter")

	assert.Nil(t, cmd)
	assert.Equal(t, modeForm, m.mode)
	assert.Equal(t, 1, m.form.focus)
	assert.Contains(t, m.View(), "please enter a number only")
	assert.Equal(t, 0, st.Len())
}

func TestUpdateFlowKeepsBlankFields(t *testing.T) {
	m, st := newTestModel(t)
	seed(t, st)

	m, _ = press(t, m, "2")
	require.Equal(t, modePick, m.mode)
	assert.Contains(t, m.View(), "Aspirin")

	m, _ = press(t, m, "enter")
	require.Equal(t, modeForm, m.mode)
	m, cmd := press(t, m, "enter", "enter", "enter", "12", "enter", "enter")
	m = settle(t, m, cmd)

	assert.Contains(t, m.status, "has been updated.")
	got, _ := st.Get(1)
	assert.Equal(t, "Aspirin", got.Name)
	assert.Equal(t, "1", got.Dosage)
	assert.Equal(t, 12, got.RemainingDoses)
	assert.Equal(t, 3, got.RefillThreshold)
	assert.Equal(t, []medication.ScheduleEntry{{Hour: 8, Minute: 0}}, got.ScheduledTimes)
}

func TestUpdateClearsSchedule(t *testing.T) {
	m, st := newTestModel(t)
	seed(t, st)
	m, cmd := press(t, m, "2", "enter", "enter", "enter", "-", "enter", "enter", "enter")
	settle(t, m, cmd)

	got, _ := st.Get(1)
	assert.Empty(t, got.ScheduledTimes)
}

func TestDeleteFlow(t *testing.T) {
	m, st := newTestModel(t)
	seed(t, st)

	m, _ = press(t, m, "3", "enter")
	require.Equal(t, modeConfirm, m.mode)
	assert.Contains(t, m.View(), "Delete 'Aspirin' (ID: 1)? [y/n]")

	m, cmd := press(t, m, "y")
	m = settle(t, m, cmd)
	assert.Contains(t, m.status, "has been deleted.")
	assert.Equal(t, 0, st.Len())
}

func TestDeleteCancelled(t *testing.T) {
	m, st := newTestModel(t)
	seed(t, st)
	m, _ = press(t, m, "3", "enter", "n")
	assert.Equal(t, "Delete cancelled.", m.status)
	assert.Equal(t, 1, st.Len())
}

func TestUpdateOnEmptyStore(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "2")
	assert.Equal(t, modeMenu, m.mode)
	assert.Equal(t, "No medications available.", m.status)
}

func TestDisplayEmpty(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "4")
	assert.Contains(t, m.View(), "No medications available.")
	m, _ = press(t, m, "esc")
	assert.Equal(t, modeMenu, m.mode)
}

func TestExitQuits(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := press(t, m, "5")
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestReminderShowsBannerAndLog(t *testing.T) {
	m, _ := newTestModel(t)
	f := reminder.Firing{MedicationID: 1, Name: "Aspirin", Dosage: "1", RemainingDoses: 3,
		RefillThreshold: 3, Low: true, At: time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)}
	next, _ := m.Update(ReminderMsg(f))
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "REMINDER: Time to take Aspirin - 1")
	assert.Contains(t, view, "WARNING: Aspirin is running low. Please refill soon.")
	assert.Contains(t, view, "Recent reminders")

	m, _ = press(t, m, "j")
	assert.Empty(t, m.banner)
	assert.Len(t, m.reminders, 1)
}

func TestSettingsThemeCycle(t *testing.T) {
	t.Cleanup(func() { SetTheme("green") })
	m, _ := newTestModel(t)
	m.mode = modeSettings
	m.settings.Activate()
	m, _ = press(t, m, "j", "j", "enter")
	assert.Equal(t, "Theme: amber", m.status)
	assert.True(t, m.settings.IsActive())

	m, _ = press(t, m, "esc")
	assert.Equal(t, modeMenu, m.mode)
}

func TestSinkReplaysPendingInOrder(t *testing.T) {
	var s Sink
	s.Reminder(reminder.Firing{MedicationID: 1})
	s.Reminder(reminder.Firing{MedicationID: 2})

	got := make(chan int, 3)
	s.attach(func(msg tea.Msg) { got <- msg.(ReminderMsg).MedicationID })
	s.Reminder(reminder.Firing{MedicationID: 3})

	for want := 1; want <= 3; want++ {
		select {
		case id := <-got:
			assert.Equal(t, want, id)
		case <-time.After(time.Second):
			t.Fatalf("firing %d not delivered", want)
		}
	}
}

func TestSupplyBar(t *testing.T) {
	tests := []struct {
		name                        string
		remaining, threshold, width int
		want                        string
	}{
		{"at threshold", 3, 3, 10, "LOW"},
		{"partial", 4, 2, 10, "██████░░░░"},
		{"capped", 50, 2, 10, "██████████"},
		{"zero with negative threshold", 0, -1, 10, "░░░░░░░░░░"},
		{"both negative", -3, -5, 10, "░░░░░░░░░░"},
		{"zero threshold", 5, 0, 10, "██████████"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			require.NotPanics(t, func() { got = supplyBar(tt.remaining, tt.threshold, tt.width) })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisplayWithNegativeThreshold(t *testing.T) {
	m, st := newTestModel(t)
	_, err := st.Create(medication.New{Name: "Vitamin D", Dosage: "1", RemainingDoses: 0, RefillThreshold: -1})
	require.NoError(t, err)

	require.NotPanics(t, func() { m, _ = press(t, m, "4") })
	assert.Equal(t, modeTable, m.mode)
	assert.Contains(t, m.View(), "Vitamin D")

	f := reminder.Firing{MedicationID: 1, Name: "Vitamin D", Dosage: "1", RemainingDoses: 0, RefillThreshold: -1}
	assert.NotPanics(t, func() { m.Update(ReminderMsg(f)) })
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	got := truncate("REMINDER: Time to take Ibuprofène - 2", 34)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, ansi.StringWidth(got), 34)

	assert.Equal(t, "short", truncate("short", 32))
}
