// Package alert produces the audible or visual cue that accompanies a
// reminder.
package alert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Message describes what the alert is for.
type Message struct {
	Title string
	Body  string
}

// Notifier emits an alert. Implementations must return once ctx is done.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, msg Message) error

func (f Func) Notify(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Silent does nothing.
type Silent struct{}

func (Silent) Notify(context.Context, Message) error { return nil }

// Bell writes the terminal bell character.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Notify(_ context.Context, _ Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.w, "\a")
	return err
}

// Command plays a tone by running an external program for a fixed
// duration, then kills it. The default mirrors a one second sine tone
// from speaker-test.
type Command struct {
	Name     string
	Args     []string
	Duration time.Duration
}

const DefaultCommand = "speaker-test -t sine -f 1000"

// ParseCommand splits a command line on whitespace.
func ParseCommand(line string, d time.Duration) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("alert command is empty")
	}
	if d <= 0 {
		d = time.Second
	}
	return &Command{Name: fields[0], Args: fields[1:], Duration: d}, nil
}

// Available reports whether the program can be found on PATH.
func (c *Command) Available() bool {
	_, err := exec.LookPath(c.Name)
	return err == nil
}

func (c *Command) Notify(ctx context.Context, _ Message) error {
	ctx, cancel := context.WithTimeout(ctx, c.Duration)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.Name, err)
	}
	err := cmd.Wait()
	// Being killed when the duration elapses is the normal way out.
	if ctx.Err() == context.DeadlineExceeded {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}

// Multi notifies every child and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithTimeout bounds every Notify call of n.
func WithTimeout(n Notifier, d time.Duration) Notifier {
	return Func(func(ctx context.Context, msg Message) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- n.Notify(ctx, msg) }()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return fmt.Errorf("alert timed out after %s", d)
		}
	})
}
