package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Info describes the running configuration for the settings panel.
type Info struct {
	DataPath      string
	Backend       string
	CheckInterval string
	AlertMode     string
	PersistOnFire bool
	Theme         string
	Version       string
}

// SettingsModel represents the settings menu
type SettingsModel struct {
	list           list.Model
	active         bool
	selectedAction string
	info           Info
}

type settingsItem struct {
	title  string
	desc   string
	action string
}

func (i settingsItem) Title() string       { return i.title }
func (i settingsItem) Description() string { return i.desc }
func (i settingsItem) FilterValue() string { return i.title }

var themeOrder = []string{"green", "amber", "blue"}

// NewSettingsModel creates a new settings menu
func NewSettingsModel(info Info) SettingsModel {
	items := []list.Item{
		settingsItem{title: "Save Now", desc: "Write medications to " + info.Backend + " storage", action: "save"},
		settingsItem{title: "Reload From Disk", desc: "Discard in-memory changes and reload", action: "reload"},
		settingsItem{title: "Cycle Theme", desc: "green, amber, blue", action: "theme"},
	}

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = lipgloss.NewStyle().Foreground(Green).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(Green).PaddingLeft(1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.Copy().Foreground(DimGreen)

	l := list.New(items, d, 50, 10)
	l.Title = "Settings"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = TitleStyle

	return SettingsModel{list: l, info: info}
}

func (m SettingsModel) Update(msg tea.Msg) (SettingsModel, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.active = false
			return m, nil
		case "enter":
			if selected, ok := m.list.SelectedItem().(settingsItem); ok {
				m.selectedAction = selected.action
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m SettingsModel) View() string {
	if !m.active {
		return ""
	}

	var b strings.Builder
	b.WriteString(BannerStyle.Padding(1, 2).Render("Medremind Settings") + "\n")

	persist := "no"
	if m.info.PersistOnFire {
		persist = "yes"
	}
	rows := [][2]string{
		{"Data", m.info.DataPath},
		{"Backend", m.info.Backend},
		{"Check every", m.info.CheckInterval},
		{"Alert", m.info.AlertMode},
		{"Save on reminder", persist},
		{"Theme", m.info.Theme},
		{"Version", m.info.Version},
	}
	infoStyle := lipgloss.NewStyle().Foreground(DimGreen).Padding(0, 2)
	for _, r := range rows {
		b.WriteString(infoStyle.Render(fmt.Sprintf("%-17s %s", r[0]+":", r[1])) + "\n")
	}
	b.WriteString("\n" + m.list.View())

	footer := HelpStyle.Padding(1, 2).Render("↑/↓: Navigate | Enter: Select | Esc: Close")
	b.WriteString("\n" + footer)

	return BoxStyle.Render(b.String())
}

func (m *SettingsModel) Activate() {
	m.active = true
}

func (m *SettingsModel) IsActive() bool {
	return m.active
}

func (m *SettingsModel) GetSelectedAction() string {
	action := m.selectedAction
	m.selectedAction = "" // Clear after reading
	return action
}

// nextTheme applies and records the theme after the current one.
func (m *SettingsModel) nextTheme() string {
	next := themeOrder[0]
	for i, t := range themeOrder {
		if t == m.info.Theme {
			next = themeOrder[(i+1)%len(themeOrder)]
			break
		}
	}
	SetTheme(next)
	m.info.Theme = next
	return next
}
