package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/medremind/internal/alert"
	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/reminder"
	"github.com/jeanpaul/medremind/internal/scheduler"
	"github.com/jeanpaul/medremind/internal/store"
	"github.com/jeanpaul/medremind/internal/store/codec"
)

// TestServeSavesWhenSessionFails checks that a failing session still stops
// the scheduler and writes reminder decrements before the error surfaces.
func TestServeSavesWhenSessionFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medications.json")
	st := store.New(codec.NewJSONFile(path))
	_, err := st.Create(medication.New{
		Name: "Aspirin", Dosage: "1",
		ScheduledTimes:  []medication.ScheduleEntry{{Hour: 8, Minute: 0}},
		RemainingDoses:  10,
		RefillThreshold: 3,
	})
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := &reminder.Recorder{}
	clock := scheduler.ClockFunc(func() time.Time {
		return time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)
	})
	sched := scheduler.New(st, reminder.NewAction(alert.Silent{}, rec, log),
		scheduler.WithClock(clock),
		scheduler.WithInterval(time.Hour),
		scheduler.WithLogger(log),
		scheduler.WithPersistOnFire(false),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	crash := errors.New("program was killed: runtime error")
	err = serve(ctx, cancel, st, sched, func(ctx context.Context) error {
		require.Eventually(t, func() bool { return len(rec.Firings()) == 1 }, time.Second, 5*time.Millisecond)
		return crash
	}, log)

	assert.ErrorIs(t, err, crash)
	assert.Error(t, ctx.Err(), "scheduler context should be cancelled")

	reopened := store.New(codec.NewJSONFile(path))
	require.NoError(t, reopened.Restore(context.Background()))
	got, ok := reopened.Get(1)
	require.True(t, ok)
	assert.Equal(t, 9, got.RemainingDoses)
}

func TestServeReportsSaveFailure(t *testing.T) {
	dir := t.TempDir()
	// The parent of the data file is a regular file, so saving fails.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	st := store.New(codec.NewJSONFile(filepath.Join(blocker, "medications.json")))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := scheduler.New(st, reminder.NewAction(alert.Silent{}, nil, log), scheduler.WithLogger(log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := serve(ctx, cancel, st, sched, func(context.Context) error { return nil }, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "final save")
}
