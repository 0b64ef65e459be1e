package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeanpaul/medremind/internal/reminder"
)

// ReminderMsg carries a firing into the program.
type ReminderMsg reminder.Firing

// Sink forwards firings to a running program. Firings that arrive before
// Attach are held and replayed in order.
type Sink struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []reminder.Firing
}

// Attach starts delivery to p. It may be called before p.Run; the replay
// happens in the background because Send blocks until the program reads.
func (s *Sink) Attach(p *tea.Program) {
	s.attach(p.Send)
}

func (s *Sink) attach(send func(tea.Msg)) {
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, f := range s.pending {
			send(ReminderMsg(f))
		}
		s.pending = nil
		s.send = send
	}()
}

func (s *Sink) Reminder(f reminder.Firing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.send == nil {
		s.pending = append(s.pending, f)
		return
	}
	s.send(ReminderMsg(f))
}
