package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/reminder"
)

func newMedTable() table.Model {
	cols := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Name", Width: 18},
		{Title: "Dosage", Width: 7},
		{Title: "Times", Width: 20},
		{Title: "Remaining", Width: 10},
		{Title: "Refill at", Width: 9},
		{Title: "Supply", Width: 12},
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(DimGreen).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(Black).
		Background(Green).
		Bold(false)
	t.SetStyles(s)
	return t
}

func medRows(meds []medication.Medication) []table.Row {
	rows := make([]table.Row, 0, len(meds))
	for _, m := range meds {
		times := m.TimesString()
		if times == "" {
			times = "-"
		}
		rows = append(rows, table.Row{
			fmt.Sprint(m.ID),
			m.Name,
			m.Dosage,
			times,
			fmt.Sprint(m.RemainingDoses),
			fmt.Sprint(m.RefillThreshold),
			supplyBar(m.RemainingDoses, m.RefillThreshold, 10),
		})
	}
	return rows
}

// supplyBar draws remaining supply against three times the refill
// threshold. At or below the threshold it reads LOW.
func supplyBar(remaining, threshold, width int) string {
	if remaining <= threshold {
		return "LOW"
	}
	full := 3 * threshold
	if full <= 0 {
		full = remaining
	}
	if full <= 0 {
		return strings.Repeat("░", width)
	}
	filled := remaining * width / full
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// formatFiring renders one reminder for the log pane.
func formatFiring(f reminder.Firing) string {
	line := fmt.Sprintf("%s  %s", f.At.Format("15:04"), f.Message())
	if w := f.Warning(); w != "" {
		line += "\n       " + WarningStyle.Render(w)
	}
	return line
}

// truncate shortens s to n terminal cells, ending in "..." when cut.
func truncate(s string, n int) string {
	if ansi.StringWidth(s) <= n {
		return s
	}
	if n <= 3 {
		return ansi.Truncate(s, n, "")
	}
	return ansi.Truncate(s, n, "...")
}
