package reminder

import (
	"fmt"
	"io"
	"sync"
)

// WriterSink prints reminders the way the line session shows them.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Reminder(f Firing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\n\n%s\n\n", f.Message())
	if w := f.Warning(); w != "" {
		fmt.Fprintln(s.w, w)
	}
}

// Recorder keeps every firing it receives.
type Recorder struct {
	mu      sync.Mutex
	firings []Firing
}

func (r *Recorder) Reminder(f Firing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firings = append(r.firings, f)
}

// Firings returns a copy of what has been recorded.
func (r *Recorder) Firings() []Firing {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Firing, len(r.firings))
	copy(out, r.firings)
	return out
}

// Fanout sends every firing to each sink in order.
type Fanout []Sink

func (fs Fanout) Reminder(f Firing) {
	for _, s := range fs {
		s.Reminder(f)
	}
}
