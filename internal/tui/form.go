package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeanpaul/medremind/internal/medication"
)

type field struct {
	label    string
	input    textinput.Model
	optional bool
	validate func(string) error
}

// FormModel is a vertical stack of text inputs submitted together. In edit
// mode every field is optional and the current value is the placeholder.
type FormModel struct {
	title  string
	fields []field
	focus  int
	err    string
	// editID is the medication being edited, zero when adding.
	editID int
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	ti.Width = 40
	ti.Prompt = "> "
	return ti
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func validateDosage(s string) error {
	if err := medication.ValidateDosage(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("please enter a number only")
	}
	return nil
}

func validateInt(s string) error {
	if _, err := medication.ParseInt(s); err != nil {
		return fmt.Errorf("please enter a number")
	}
	return nil
}

func validateSchedule(s string) error {
	_, err := medication.ParseSchedule(s)
	return err
}

// NewAddForm collects a new medication.
func NewAddForm() FormModel {
	f := FormModel{
		title: "Add Medication",
		fields: []field{
			{label: "Name", input: newInput("Aspirin"), validate: validateName},
			{label: "Dosage (number only)", input: newInput("1"), validate: validateDosage},
			{label: "Times (H:MM, comma separated)", input: newInput("8:00, 20:30"), optional: true, validate: validateSchedule},
			{label: "Remaining doses", input: newInput("30"), validate: validateInt},
			{label: "Refill threshold", input: newInput("5"), validate: validateInt},
		},
	}
	f.fields[0].input.Focus()
	return f
}

// NewEditForm edits m; blank answers keep the current value.
func NewEditForm(m medication.Medication) FormModel {
	times := m.TimesString()
	if times == "" {
		times = "none"
	}
	f := FormModel{
		title:  fmt.Sprintf("Update %s (ID: %d)", m.Name, m.ID),
		editID: m.ID,
		fields: []field{
			{label: "Name", input: newInput(m.Name), optional: true},
			{label: "Dosage (number only)", input: newInput(m.Dosage), optional: true, validate: validateDosage},
			{label: "Times (H:MM, comma separated, - clears)", input: newInput(times), optional: true, validate: validateEditSchedule},
			{label: "Remaining doses", input: newInput(fmt.Sprint(m.RemainingDoses)), optional: true, validate: validateInt},
			{label: "Refill threshold", input: newInput(fmt.Sprint(m.RefillThreshold)), optional: true, validate: validateInt},
		},
	}
	f.fields[0].input.Focus()
	return f
}

func validateEditSchedule(s string) error {
	if strings.TrimSpace(s) == "-" {
		return nil
	}
	return validateSchedule(s)
}

func (f FormModel) value(i int) string {
	return strings.TrimSpace(f.fields[i].input.Value())
}

// Validate checks every field and focuses the first bad one.
func (f *FormModel) Validate() bool {
	for i, fl := range f.fields {
		v := f.value(i)
		if v == "" {
			if fl.optional {
				continue
			}
			f.err = fmt.Sprintf("%s: required", fl.label)
			f.setFocus(i)
			return false
		}
		if fl.validate != nil {
			if err := fl.validate(v); err != nil {
				f.err = fmt.Sprintf("%s: %v", fl.label, err)
				f.setFocus(i)
				return false
			}
		}
	}
	f.err = ""
	return true
}

// Creation returns the input for a new medication. Call only after
// Validate.
func (f FormModel) Creation() medication.New {
	times, _ := medication.ParseSchedule(f.value(2))
	remaining, _ := medication.ParseInt(f.value(3))
	threshold, _ := medication.ParseInt(f.value(4))
	return medication.New{
		Name:            f.value(0),
		Dosage:          f.value(1),
		ScheduledTimes:  times,
		RemainingDoses:  remaining,
		RefillThreshold: threshold,
	}
}

// Changes returns the partial update. Call only after Validate.
func (f FormModel) Changes() medication.Update {
	var u medication.Update
	if v := f.value(0); v != "" {
		u.Name = &v
	}
	if v := f.value(1); v != "" {
		u.Dosage = &v
	}
	switch v := f.value(2); v {
	case "":
	case "-":
		u.ScheduledTimes = &[]medication.ScheduleEntry{}
	default:
		times, _ := medication.ParseSchedule(v)
		u.ScheduledTimes = &times
	}
	if v, _ := medication.ParseOptionalInt(f.value(3)); v != nil {
		u.RemainingDoses = v
	}
	if v, _ := medication.ParseOptionalInt(f.value(4)); v != nil {
		u.RefillThreshold = v
	}
	return u
}

func (f *FormModel) setFocus(i int) {
	f.fields[f.focus].input.Blur()
	f.focus = i
	f.fields[f.focus].input.Focus()
}

// last reports whether the focused field is the final one.
func (f FormModel) last() bool {
	return f.focus == len(f.fields)-1
}

// Update routes keys: tab/down and shift+tab/up move between fields, the
// rest goes to the focused input. Submission is handled by the caller.
func (f FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "tab", "down":
			f.setFocus((f.focus + 1) % len(f.fields))
			return f, nil
		case "shift+tab", "up":
			f.setFocus((f.focus + len(f.fields) - 1) % len(f.fields))
			return f, nil
		}
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd
}

func (f FormModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(f.title) + "\n\n")
	for i, fl := range f.fields {
		label := LabelStyle.Render(fl.label)
		if i == f.focus {
			label = ActiveLabelStyle.Render(fl.label)
		}
		b.WriteString(label + "\n" + fl.input.View() + "\n\n")
	}
	if f.err != "" {
		b.WriteString(ErrorStyle.Render("Invalid input. "+f.err) + "\n")
	}
	hint := "Tab: next field  •  Enter: next / save  •  Esc: back"
	if f.editID != 0 {
		hint += "  •  blank keeps current"
	}
	b.WriteString(HelpStyle.Render(hint))
	return BoxStyle.Render(b.String())
}
