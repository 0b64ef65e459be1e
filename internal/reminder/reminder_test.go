package reminder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/medremind/internal/alert"
	"github.com/jeanpaul/medremind/internal/medication"
)

var eight = medication.ScheduleEntry{Hour: 8, Minute: 0}

func TestApplyRefillThreshold(t *testing.T) {
	cases := []struct {
		remaining, threshold int
		wantLow              bool
	}{
		{10, 3, false},
		{5, 3, false},
		{4, 3, true},
		{3, 3, true},
		{0, 0, true},
		{-2, -5, false},
	}
	for _, tc := range cases {
		m := medication.Medication{ID: 1, Name: "x", RemainingDoses: tc.remaining, RefillThreshold: tc.threshold}
		f := Apply(&m, eight, time.Time{})
		assert.Equal(t, tc.remaining-1, m.RemainingDoses)
		assert.Equal(t, tc.remaining-1, f.RemainingDoses)
		assert.Equal(t, tc.wantLow, f.Low, "R=%d T=%d", tc.remaining, tc.threshold)
	}
}

func TestAspirinScenario(t *testing.T) {
	m := medication.Medication{ID: 1, Name: "Aspirin", Dosage: "1", RemainingDoses: 10, RefillThreshold: 3}

	f := Apply(&m, eight, time.Time{})
	assert.Equal(t, 9, f.RemainingDoses)
	assert.False(t, f.Low)

	var got []Firing
	for i := 0; i < 7; i++ {
		got = append(got, Apply(&m, eight, time.Time{}))
	}
	// 8, 7, 6, 5, 4, 3, 2
	assert.Equal(t, 5, got[3].RemainingDoses)
	assert.False(t, got[3].Low)
	assert.Equal(t, 4, got[4].RemainingDoses)
	assert.False(t, got[4].Low)
	assert.Equal(t, 3, got[5].RemainingDoses)
	assert.True(t, got[5].Low)
	assert.Equal(t, 2, got[6].RemainingDoses)
	assert.True(t, got[6].Low)
}

func TestFiringText(t *testing.T) {
	f := Firing{Name: "Aspirin", Dosage: "1", Low: true}
	assert.Equal(t, "REMINDER: Time to take Aspirin - 1", f.Message())
	assert.Equal(t, "WARNING: Aspirin is running low. Please refill soon.", f.Warning())
	f.Low = false
	assert.Empty(t, f.Warning())
}

func TestDeliverSurvivesAlertFailure(t *testing.T) {
	var order []string
	n := alert.Func(func(context.Context, alert.Message) error {
		order = append(order, "alert")
		return errors.New("speaker missing")
	})
	sink := SinkFunc(func(Firing) { order = append(order, "sink") })
	a := NewAction(n, sink, slog.New(slog.NewTextHandler(io.Discard, nil)))

	a.Deliver(context.Background(), Firing{Name: "Aspirin"})
	assert.Equal(t, []string{"alert", "sink"}, order)
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)
	s.Reminder(Firing{Name: "Aspirin", Dosage: "1", Low: true})
	out := buf.String()
	assert.Contains(t, out, "REMINDER: Time to take Aspirin - 1")
	assert.Contains(t, out, "WARNING: Aspirin is running low")
}

func TestRecorderAndFanout(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Fanout{a, b}.Reminder(Firing{Name: "x"})
	require.Len(t, a.Firings(), 1)
	require.Len(t, b.Firings(), 1)
}
