package codec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/store"
)

// TextFile reads and writes the plain medications.txt layout:
//
//	<next id>
//	<id>,<name>,<dosage>,<remaining>,<threshold>[,<hour>,<minute>]...
//
// Fields are not quoted, so names containing commas or newlines cannot be
// saved in this format.
type TextFile struct {
	path string
}

func NewTextFile(path string) *TextFile {
	return &TextFile{path: path}
}

func (t *TextFile) Load(_ context.Context) (store.Snapshot, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store.Snapshot{}, store.ErrNoState
		}
		return store.Snapshot{}, err
	}
	snap, err := ParseText(data)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("%s: %w", t.path, err)
	}
	return snap, nil
}

func (t *TextFile) Save(_ context.Context, snap store.Snapshot) error {
	data, err := FormatText(snap)
	if err != nil {
		return err
	}
	return writeFileAtomic(t.path, data)
}

func (t *TextFile) Close() error { return nil }

// ParseText decodes the medications.txt layout.
func ParseText(data []byte) (store.Snapshot, error) {
	snap := store.Snapshot{Medications: []medication.Medication{}}
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if lineNo == 1 {
			n, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				return store.Snapshot{}, fmt.Errorf("line 1: next id: %w", err)
			}
			snap.NextID = n
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		m, err := parseTextLine(line)
		if err != nil {
			return store.Snapshot{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		snap.Medications = append(snap.Medications, m)
	}
	if err := sc.Err(); err != nil {
		return store.Snapshot{}, err
	}
	if lineNo == 0 {
		return store.Snapshot{}, fmt.Errorf("empty file")
	}
	return snap, nil
}

func parseTextLine(line string) (medication.Medication, error) {
	f := strings.Split(line, ",")
	if len(f) < 5 {
		return medication.Medication{}, fmt.Errorf("expected at least 5 fields, got %d", len(f))
	}
	if (len(f)-5)%2 != 0 {
		return medication.Medication{}, fmt.Errorf("scheduled times must be hour,minute pairs")
	}
	var (
		m   medication.Medication
		err error
	)
	if m.ID, err = atoi("id", f[0]); err != nil {
		return m, err
	}
	m.Name = f[1]
	m.Dosage = f[2]
	if m.RemainingDoses, err = atoi("remaining doses", f[3]); err != nil {
		return m, err
	}
	if m.RefillThreshold, err = atoi("refill threshold", f[4]); err != nil {
		return m, err
	}
	m.ScheduledTimes = []medication.ScheduleEntry{}
	for i := 5; i < len(f); i += 2 {
		var e medication.ScheduleEntry
		if e.Hour, err = atoi("hour", f[i]); err != nil {
			return m, err
		}
		if e.Minute, err = atoi("minute", f[i+1]); err != nil {
			return m, err
		}
		m.ScheduledTimes = append(m.ScheduledTimes, e)
	}
	if err := m.Validate(); err != nil {
		return m, fmt.Errorf("medication %d: %w", m.ID, err)
	}
	return m, nil
}

// FormatText encodes snap in the medications.txt layout.
func FormatText(snap store.Snapshot) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%d\n", snap.NextID)
	for _, m := range snap.Medications {
		if strings.ContainsAny(m.Name, ",\r\n") {
			return nil, fmt.Errorf("medication %d: name %q cannot be stored in text format", m.ID, m.Name)
		}
		fmt.Fprintf(&b, "%d,%s,%s,%d,%d", m.ID, m.Name, m.Dosage, m.RemainingDoses, m.RefillThreshold)
		for _, e := range m.ScheduledTimes {
			fmt.Fprintf(&b, ",%d,%d", e.Hour, e.Minute)
		}
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

func atoi(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", field, s)
	}
	return n, nil
}
