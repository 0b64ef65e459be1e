package tui

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colors a theme may override.
type Palette struct {
	Accent lipgloss.Color
	Bright lipgloss.Color
	Dim    lipgloss.Color
}

var palettes = map[string]Palette{
	"green": {Accent: "#00FF41", Bright: "#39FF14", Dim: "#008F11"},
	"amber": {Accent: "#FFB000", Bright: "#FFD700", Dim: "#8A6000"},
	"blue":  {Accent: "#4FC3F7", Bright: "#81D4FA", Dim: "#1F5F7A"},
}

var (
	// Core palette
	Green       = lipgloss.Color("#00FF41")
	BrightGreen = lipgloss.Color("#39FF14")
	DimGreen    = lipgloss.Color("#008F11")
	Amber       = lipgloss.Color("#FFD700")
	Red         = lipgloss.Color("#FF4136")
	Black       = lipgloss.Color("#0D0208")
	MidGray     = lipgloss.Color("#3a3a4e")
	LightGray   = lipgloss.Color("#aaaaaa")
	White       = lipgloss.Color("#e0e0e0")

	StatusBarStyle   lipgloss.Style
	TitleStyle       lipgloss.Style
	BannerStyle      lipgloss.Style
	BoxStyle         lipgloss.Style
	LabelStyle       lipgloss.Style
	ActiveLabelStyle lipgloss.Style
	ReminderStyle    lipgloss.Style
	WarningStyle     lipgloss.Style
	ErrorStyle       lipgloss.Style
	OKStyle          lipgloss.Style
	HelpStyle        lipgloss.Style
	ConfirmStyle     lipgloss.Style
)

func init() {
	buildStyles()
}

// SetTheme switches the palette by name. Unknown names keep the current
// one and report false.
func SetTheme(name string) bool {
	p, ok := palettes[name]
	if !ok {
		return false
	}
	Green, BrightGreen, DimGreen = p.Accent, p.Bright, p.Dim
	buildStyles()
	return true
}

func buildStyles() {
	StatusBarStyle = lipgloss.NewStyle().
		Background(DimGreen).
		Foreground(Black).
		Bold(true).
		Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
		Foreground(Green).
		Bold(true).
		MarginLeft(2)

	BannerStyle = lipgloss.NewStyle().
		Foreground(Green).
		Bold(true)

	BoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimGreen).
		Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
		Foreground(LightGray)

	ActiveLabelStyle = lipgloss.NewStyle().
		Foreground(BrightGreen).
		Bold(true)

	ReminderStyle = lipgloss.NewStyle().
		Foreground(Black).
		Background(BrightGreen).
		Bold(true).
		Padding(0, 1)

	WarningStyle = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(Red).
		Bold(true)

	OKStyle = lipgloss.NewStyle().
		Foreground(Green)

	HelpStyle = lipgloss.NewStyle().
		Foreground(DimGreen)

	ConfirmStyle = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
}

const Banner = "MEDREMIND"
