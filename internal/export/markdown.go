package export

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeanpaul/medremind/internal/medication"
)

// Markdown renders meds as a markdown table.
func Markdown(meds []medication.Medication) string {
	var sb strings.Builder
	sb.WriteString("# Medications\n\n")
	if len(meds) == 0 {
		sb.WriteString("No medications available.\n")
		return sb.String()
	}
	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sb.WriteString("|")
	for range header {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, m := range meds {
		cells := []string{
			fmt.Sprint(m.ID),
			escape(m.Name),
			escape(m.Dosage),
			fmt.Sprint(m.RemainingDoses),
			fmt.Sprint(m.RefillThreshold),
			m.TimesString(),
			yesNo(m.Low()),
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}

// escape keeps a cell from breaking the table.
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// Render formats markdown for the terminal. style is a glamour style name
// ("dark", "light", "notty"); empty picks one from the terminal.
func Render(md, style string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
