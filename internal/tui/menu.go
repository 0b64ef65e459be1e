package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Action identifies a main menu entry.
type Action string

const (
	ActionAdd      Action = "add"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionDisplay  Action = "display"
	ActionSettings Action = "settings"
	ActionExit     Action = "exit"
)

type item struct {
	title, desc string
	action      Action
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

type MenuModel struct {
	list list.Model
}

func NewMenuModel() MenuModel {
	items := []list.Item{
		item{title: "1. Add Medication", desc: "Name, dosage, schedule and supply", action: ActionAdd},
		item{title: "2. Update Medication", desc: "Change fields, blank keeps current", action: ActionUpdate},
		item{title: "3. Delete Medication", desc: "Remove a medication by id", action: ActionDelete},
		item{title: "4. Display Medications", desc: "Show every medication", action: ActionDisplay},
		item{title: "5. Exit", desc: "Stop reminders and quit", action: ActionExit},
		item{title: "Settings", desc: "Storage, alerts, save and reload", action: ActionSettings},
	}

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = lipgloss.NewStyle().Foreground(Green).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(Green).PaddingLeft(1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.Copy().Foreground(DimGreen)

	l := list.New(items, d, 40, 24)
	l.Title = "Medication Reminder Menu"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = TitleStyle

	return MenuModel{list: l}
}

// Selected is the highlighted action.
func (m MenuModel) Selected() Action {
	if it, ok := m.list.SelectedItem().(item); ok {
		return it.action
	}
	return ""
}

// shortcut maps the digit keys to menu positions.
func shortcut(key string) (Action, bool) {
	switch key {
	case "1":
		return ActionAdd, true
	case "2":
		return ActionUpdate, true
	case "3":
		return ActionDelete, true
	case "4":
		return ActionDisplay, true
	case "5":
		return ActionExit, true
	}
	return "", false
}

func (m *MenuModel) SetSize(w, h int) {
	m.list.SetSize(w, h)
}

func (m MenuModel) Update(msg tea.Msg) (MenuModel, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m MenuModel) View() string {
	return BoxStyle.Render(m.list.View())
}
