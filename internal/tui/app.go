// Package tui is the full-screen interactive session. It offers the same
// operations as the line session and shows reminders as they fire.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeanpaul/medremind/internal/reminder"
	"github.com/jeanpaul/medremind/internal/store"
)

// maxReminders is how many recent reminders the log pane keeps.
const maxReminders = 6

type mode int

const (
	modeMenu mode = iota
	modeForm
	modePick
	modeConfirm
	modeTable
	modeSettings
)

// savedMsg reports the outcome of a save started after a change.
type savedMsg struct {
	done string
	err  error
}

type reloadedMsg struct {
	err error
}

type Model struct {
	width, height int
	mode          mode

	ctx   context.Context
	store *store.Store
	log   *slog.Logger

	menu     MenuModel
	form     FormModel
	table    table.Model
	settings SettingsModel

	pick        Action
	confirmID   int
	confirmName string

	status    string
	statusErr bool
	banner    string
	reminders []string
}

func NewModel(ctx context.Context, st *store.Store, info Info, log *slog.Logger) Model {
	if log == nil {
		log = slog.Default()
	}
	if info.Theme != "" && !SetTheme(info.Theme) {
		log.Warn("unknown theme, keeping default", "theme", info.Theme)
		info.Theme = "green"
	}
	return Model{
		ctx:      ctx,
		store:    st,
		log:      log,
		menu:     NewMenuModel(),
		table:    newMedTable(),
		settings: NewSettingsModel(info),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(min(msg.Width-4, 60), min(max(msg.Height-10, 8), 24))
		m.table.SetHeight(min(max(msg.Height-14, 4), 20))
		return m, nil

	case ReminderMsg:
		f := reminder.Firing(msg)
		m.banner = f.Message()
		if w := f.Warning(); w != "" {
			m.banner += "  " + w
		}
		m.reminders = append(m.reminders, formatFiring(f))
		if len(m.reminders) > maxReminders {
			m.reminders = m.reminders[len(m.reminders)-maxReminders:]
		}
		m.refreshTable()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.log.Error("save failed", "error", msg.err)
			m.setError(fmt.Sprintf("%s Error: Unable to save medications: %v", msg.done, msg.err))
		} else {
			m.setStatus(msg.done + " Medications saved to file.")
		}
		return m, nil

	case reloadedMsg:
		if msg.err != nil {
			m.setError("Reload failed: " + msg.err.Error())
		} else {
			m.setStatus(fmt.Sprintf("Reloaded %d medications from disk.", m.store.Len()))
		}
		m.refreshTable()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// Any key acknowledges the reminder banner.
		m.banner = ""
		switch m.mode {
		case modeMenu:
			return m.updateMenu(msg)
		case modeForm:
			return m.updateForm(msg)
		case modePick:
			return m.updatePick(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeTable:
			switch msg.String() {
			case "esc", "enter", "q":
				m.mode = modeMenu
				return m, nil
			}
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		case modeSettings:
			return m.updateSettings(msg)
		}
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a, ok := shortcut(msg.String()); ok {
		return m.choose(a)
	}
	switch msg.String() {
	case "enter":
		return m.choose(m.menu.Selected())
	case "esc", "q":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

func (m Model) choose(a Action) (tea.Model, tea.Cmd) {
	m.status = ""
	switch a {
	case ActionAdd:
		m.form = NewAddForm()
		m.mode = modeForm
	case ActionUpdate, ActionDelete:
		if m.store.Len() == 0 {
			m.setStatus("No medications available.")
			return m, nil
		}
		m.pick = a
		m.refreshTable()
		m.table.SetCursor(0)
		m.mode = modePick
	case ActionDisplay:
		m.refreshTable()
		m.mode = modeTable
	case ActionSettings:
		m.settings.Activate()
		m.mode = modeSettings
	case ActionExit:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeMenu
		return m, nil
	case "enter":
		if !m.form.last() {
			m.form.setFocus(m.form.focus + 1)
			return m, nil
		}
		if !m.form.Validate() {
			return m, nil
		}
		return m.submit()
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.form.editID == 0 {
		n := m.form.Creation()
		id, err := m.store.Create(n)
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.mode = modeMenu
		return m, m.save(fmt.Sprintf("Medication '%s' (ID: %d) has been added.", n.Name, id))
	}

	id := m.form.editID
	med, err := m.store.Update(id, m.form.Changes())
	m.mode = modeMenu
	if errors.Is(err, store.ErrNotFound) {
		m.setError(fmt.Sprintf("Medication with ID %d not found.", id))
		return m, nil
	}
	if err != nil {
		m.setError(err.Error())
		return m, nil
	}
	return m, m.save(fmt.Sprintf("Medication '%s' (ID: %d) has been updated.", med.Name, med.ID))
}

func (m Model) updatePick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeMenu
		return m, nil
	case "enter":
		row := m.table.SelectedRow()
		if row == nil {
			m.mode = modeMenu
			return m, nil
		}
		id, _ := strconv.Atoi(row[0])
		med, ok := m.store.Get(id)
		if !ok {
			m.mode = modeMenu
			m.setError(fmt.Sprintf("Medication with ID %d not found.", id))
			return m, nil
		}
		if m.pick == ActionUpdate {
			m.form = NewEditForm(med)
			m.mode = modeForm
			return m, nil
		}
		m.confirmID, m.confirmName = med.ID, med.Name
		m.mode = modeConfirm
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.mode = modeMenu
		med, err := m.store.Delete(m.confirmID)
		if err != nil {
			m.setError(fmt.Sprintf("Medication with ID %d not found.", m.confirmID))
			return m, nil
		}
		return m, m.save(fmt.Sprintf("Medication '%s' (ID: %d) has been deleted.", med.Name, med.ID))
	case "n", "N", "esc":
		m.mode = modeMenu
		m.setStatus("Delete cancelled.")
	}
	return m, nil
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.settings, cmd = m.settings.Update(msg)
	if !m.settings.IsActive() {
		m.mode = modeMenu
		return m, cmd
	}
	switch m.settings.GetSelectedAction() {
	case "save":
		return m, m.save("Saved.")
	case "reload":
		st, ctx := m.store, m.ctx
		return m, func() tea.Msg {
			return reloadedMsg{err: st.Restore(ctx)}
		}
	case "theme":
		name := m.settings.nextTheme()
		m.menu = NewMenuModel()
		m.table = newMedTable()
		m.settings = NewSettingsModel(m.settings.info)
		m.settings.Activate()
		m.setStatus("Theme: " + name)
	}
	return m, cmd
}

// save persists in the background and reports through savedMsg.
func (m Model) save(done string) tea.Cmd {
	st, ctx := m.store, m.ctx
	return func() tea.Msg {
		return savedMsg{done: done, err: st.Persist(ctx)}
	}
}

func (m *Model) refreshTable() {
	m.table.SetRows(medRows(m.store.List()))
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(s string) {
	m.status, m.statusErr = s, true
}

func (m Model) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		BannerStyle.PaddingLeft(2).Render(Banner),
		"  ",
		StatusBarStyle.Render(fmt.Sprintf("%d medications", m.store.Len())),
	)

	var body string
	switch m.mode {
	case modeMenu:
		body = m.menu.View()
	case modeForm:
		body = m.form.View()
	case modePick:
		verb := "update"
		if m.pick == ActionDelete {
			verb = "delete"
		}
		body = BoxStyle.Render(TitleStyle.Render("Select the medication to "+verb) + "\n\n" + m.table.View())
	case modeConfirm:
		body = ConfirmStyle.Render(fmt.Sprintf("  Delete '%s' (ID: %d)? [y/n]", m.confirmName, m.confirmID))
	case modeTable:
		if m.store.Len() == 0 {
			body = BoxStyle.Render("No medications available.")
		} else {
			body = BoxStyle.Render(TitleStyle.Render("Medications") + "\n\n" + m.table.View())
		}
	case modeSettings:
		body = m.settings.View()
	}

	parts := []string{header, ""}
	if m.banner != "" {
		parts = append(parts, ReminderStyle.Render(truncate(m.banner, max(m.width-4, 40))), "")
	}
	parts = append(parts, body)

	if len(m.reminders) > 0 {
		parts = append(parts, "", LabelStyle.Render("  Recent reminders"))
		for _, r := range m.reminders {
			parts = append(parts, "  "+r)
		}
	}
	if m.status != "" {
		style := OKStyle
		if m.statusErr {
			style = ErrorStyle
		}
		parts = append(parts, "", "  "+style.Render(m.status))
	}
	parts = append(parts, "", HelpStyle.PaddingLeft(2).Render(m.help()))
	return strings.Join(parts, "\n")
}

func (m Model) help() string {
	switch m.mode {
	case modeMenu:
		return "1-5: choose  •  ↑/↓ + Enter: select  •  Esc: quit"
	case modePick:
		return "↑/↓: move  •  Enter: select  •  Esc: back"
	case modeTable:
		return "↑/↓: scroll  •  Esc: back"
	}
	return "Ctrl+C: quit"
}
