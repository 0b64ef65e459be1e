package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jeanpaul/medremind/internal/medication"
)

// SyncWriter serialises writes from the session and the scheduler so
// reminder text never interleaves with a prompt mid-line.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// prompter asks questions until a valid answer arrives. The only error it
// returns is io.EOF (or a read error) from the input.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(p.in.Text(), "\r"), nil
}

func (p *prompter) invalid(msg string, keepHint bool) {
	if keepHint {
		msg += " or press Enter to keep the existing value"
	}
	fmt.Fprintf(p.out, "Invalid input. %s.\n", msg)
}

func (p *prompter) int(prompt string) (int, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return 0, err
		}
		n, err := medication.ParseInt(s)
		if err == nil {
			return n, nil
		}
		p.invalid("Please enter a number", false)
	}
}

func (p *prompter) intInRange(prompt string, min, max int) (int, error) {
	for {
		n, err := p.int(prompt)
		if err != nil {
			return 0, err
		}
		if n >= min && n <= max {
			return n, nil
		}
		p.invalid(fmt.Sprintf("Please enter a number between %d and %d", min, max), false)
	}
}

// optionalInt returns nil when the user submits empty input.
func (p *prompter) optionalInt(prompt string) (*int, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return nil, err
		}
		v, err := medication.ParseOptionalInt(s)
		if err == nil {
			return v, nil
		}
		p.invalid("Please enter a number", true)
	}
}

func (p *prompter) optionalIntInRange(prompt string, min, max int) (*int, error) {
	for {
		v, err := p.optionalInt(prompt)
		if err != nil || v == nil {
			return v, err
		}
		if *v >= min && *v <= max {
			return v, nil
		}
		p.invalid(fmt.Sprintf("Please enter a number between %d and %d", min, max), true)
	}
}

// nonEmpty skips blank answers.
func (p *prompter) nonEmpty(prompt string) (string, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return "", err
		}
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
	}
}

func (p *prompter) dosage(prompt string) (string, error) {
	for {
		s, err := p.nonEmpty(prompt)
		if err != nil {
			return "", err
		}
		if medication.ValidateDosage(s) == nil {
			return s, nil
		}
		p.invalid("Please enter a number only", false)
	}
}

// optionalDosage returns nil for empty input.
func (p *prompter) optionalDosage(prompt string) (*string, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		if medication.ValidateDosage(s) == nil {
			return &s, nil
		}
		p.invalid("Please enter a number only", false)
	}
}

// schedule asks for count hour/minute pairs.
func (p *prompter) schedule(count int) ([]medication.ScheduleEntry, error) {
	times := make([]medication.ScheduleEntry, 0, count)
	for i := 1; i <= count; i++ {
		h, err := p.intInRange(fmt.Sprintf("Enter hour to take (0-23) for time %d: ", i), 0, 23)
		if err != nil {
			return nil, err
		}
		m, err := p.intInRange(fmt.Sprintf("Enter minute to take (0-59) for time %d: ", i), 0, 59)
		if err != nil {
			return nil, err
		}
		times = append(times, medication.ScheduleEntry{Hour: h, Minute: m})
	}
	return times, nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
