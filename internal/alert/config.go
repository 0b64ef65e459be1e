package alert

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

const (
	ModeCommand = "command"
	ModeBell    = "bell"
	ModeSilent  = "silent"
)

// Settings selects and parameterises a notifier.
type Settings struct {
	Mode     string
	Command  string
	Duration time.Duration
	Timeout  time.Duration
}

// FromSettings builds the configured notifier. A command that is not on
// PATH falls back to the terminal bell.
func FromSettings(s Settings, term io.Writer, log *slog.Logger) (Notifier, error) {
	var n Notifier
	switch s.Mode {
	case ModeSilent:
		return Silent{}, nil
	case ModeBell:
		n = NewBell(term)
	case ModeCommand, "":
		line := s.Command
		if line == "" {
			line = DefaultCommand
		}
		cmd, err := ParseCommand(line, s.Duration)
		if err != nil {
			return nil, err
		}
		if !cmd.Available() {
			log.Warn("alert command not found, using terminal bell", "command", cmd.Name)
			n = NewBell(term)
		} else {
			n = cmd
		}
	default:
		return nil, fmt.Errorf("unknown alert mode %q (must be command, bell or silent)", s.Mode)
	}
	if s.Timeout > 0 {
		n = WithTimeout(n, s.Timeout)
	}
	return n, nil
}
