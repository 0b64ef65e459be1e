package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/medremind/internal/medication"
)

// memCodec keeps the last saved snapshot in memory.
type memCodec struct {
	snap    *Snapshot
	saves   int
	saveErr error
}

func (c *memCodec) Load(context.Context) (Snapshot, error) {
	if c.snap == nil {
		return Snapshot{}, ErrNoState
	}
	return *c.snap, nil
}

func (c *memCodec) Save(_ context.Context, s Snapshot) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	c.saves++
	c.snap = &s
	return nil
}

func (c *memCodec) Close() error { return nil }

func aspirin() medication.New {
	return medication.New{
		Name:            "Aspirin",
		Dosage:          "1",
		ScheduledTimes:  []medication.ScheduleEntry{{Hour: 8, Minute: 0}},
		RemainingDoses:  10,
		RefillThreshold: 3,
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	s := New(nil)
	seen := map[int]bool{}
	for i := 0; i < 10; i++ {
		id, err := s.Create(aspirin())
		require.NoError(t, err)
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
		if i%3 == 0 {
			_, err := s.Delete(id)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 11, s.NextID())

	id, err := s.Create(aspirin())
	require.NoError(t, err)
	assert.Equal(t, 11, id)
}

func TestListAscendingByID(t *testing.T) {
	s := New(nil)
	for _, name := range []string{"c", "a", "b"} {
		n := aspirin()
		n.Name = name
		_, err := s.Create(n)
		require.NoError(t, err)
	}
	_, err := s.Delete(2)
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, 3, list[1].ID)
	assert.Equal(t, "b", list[1].Name)
}

func TestListEmpty(t *testing.T) {
	s := New(nil)
	list := s.List()
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	s := New(nil)
	n := aspirin()
	n.Dosage = "one"
	_, err := s.Create(n)
	assert.ErrorIs(t, err, medication.ErrInvalidDosage)

	n = aspirin()
	n.ScheduledTimes = []medication.ScheduleEntry{{Hour: 8, Minute: 61}}
	_, err = s.Create(n)
	assert.ErrorIs(t, err, medication.ErrOutOfRange)
	assert.Equal(t, 1, s.NextID(), "rejected input must not consume an id")
}

func TestGetReturnsCopy(t *testing.T) {
	s := New(nil)
	id, _ := s.Create(aspirin())
	m, ok := s.Get(id)
	require.True(t, ok)
	m.ScheduledTimes[0].Hour = 22
	m.RemainingDoses = 0

	again, _ := s.Get(id)
	assert.Equal(t, 8, again.ScheduledTimes[0].Hour)
	assert.Equal(t, 10, again.RemainingDoses)

	_, ok = s.Get(999)
	assert.False(t, ok)
}

func TestDeleteMissingOnEmptyStore(t *testing.T) {
	codec := &memCodec{}
	s := New(codec)
	_, err := s.Delete(999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.NextID())
	assert.Zero(t, codec.saves)
}

func TestUpdateMissing(t *testing.T) {
	s := New(nil)
	_, err := s.Update(7, medication.Update{RemainingDoses: medication.Ptr(1)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateKeepCurrentSchedule(t *testing.T) {
	s := New(nil)
	n := aspirin()
	n.ScheduledTimes = []medication.ScheduleEntry{{Hour: 8}, {Hour: 14}, {Hour: 20, Minute: 30}}
	id, _ := s.Create(n)
	before, _ := s.Get(id)

	after, err := s.Update(id, medication.Update{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, after.ScheduledTimes, 3)
}

func TestUpdateAppliesPresentFields(t *testing.T) {
	s := New(nil)
	id, _ := s.Create(aspirin())
	got, err := s.Update(id, medication.Update{
		Dosage:          medication.Ptr("3"),
		RefillThreshold: medication.Ptr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "3", got.Dosage)
	assert.Equal(t, 5, got.RefillThreshold)
	assert.Equal(t, 10, got.RemainingDoses)
	assert.Equal(t, "Aspirin", got.Name)
}

func TestRestoreFreshStart(t *testing.T) {
	s := New(&memCodec{})
	require.NoError(t, s.Restore(context.Background()))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.NextID())
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	codec := &memCodec{}
	s := New(codec)
	id1, _ := s.Create(aspirin())
	n := aspirin()
	n.Name = "Vitamin D"
	n.ScheduledTimes = nil
	_, _ = s.Create(n)
	n.Name = "Metformin"
	n.ScheduledTimes = []medication.ScheduleEntry{{Hour: 7}, {Hour: 7}, {Hour: 19}}
	_, _ = s.Create(n)
	_, _ = s.Delete(id1)
	require.NoError(t, s.Persist(context.Background()))

	restored := New(codec)
	require.NoError(t, restored.Restore(context.Background()))
	assert.Equal(t, s.Snapshot(), restored.Snapshot())
	assert.Equal(t, 4, restored.NextID())
}

func TestLoadRaisesStaleNextID(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Load(Snapshot{
		NextID:      2,
		Medications: []medication.Medication{{ID: 5, Name: "x", Dosage: "1"}},
	}))
	assert.Equal(t, 6, s.NextID())
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	s := New(nil)
	err := s.Load(Snapshot{NextID: 3, Medications: []medication.Medication{{ID: 1}, {ID: 1}}})
	assert.Error(t, err)
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	codec := &memCodec{saveErr: errors.New("disk full")}
	s := New(codec)
	_, _ = s.Create(aspirin())
	err := s.Persist(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, s.Len())
}

func TestScanMutatesUnderLock(t *testing.T) {
	s := New(nil)
	id, _ := s.Create(aspirin())
	s.Scan(func(m *medication.Medication) { m.RemainingDoses-- })
	m, _ := s.Get(id)
	assert.Equal(t, 9, m.RemainingDoses)
}

func TestConcurrentEditsAndScans(t *testing.T) {
	s := New(nil)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			id, _ := s.Create(aspirin())
			if i%2 == 0 {
				_, _ = s.Delete(id)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Scan(func(m *medication.Medication) { m.RemainingDoses-- })
		}
	}()
	wg.Wait()
	assert.Equal(t, 100, s.Len())
	assert.Equal(t, 201, s.NextID())
}
