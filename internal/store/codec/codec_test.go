package codec

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/store"
)

func sampleSnapshot() store.Snapshot {
	return store.Snapshot{
		NextID: 9,
		Medications: []medication.Medication{
			{
				ID: 2, Name: "Aspirin", Dosage: "1",
				ScheduledTimes:  []medication.ScheduleEntry{{Hour: 8, Minute: 0}},
				RemainingDoses:  10,
				RefillThreshold: 3,
			},
			{
				ID: 5, Name: "Vitamin D", Dosage: "2",
				ScheduledTimes:  []medication.ScheduleEntry{},
				RemainingDoses:  -1,
				RefillThreshold: 0,
			},
			{
				ID: 8, Name: "Metformin", Dosage: "500",
				ScheduledTimes: []medication.ScheduleEntry{
					{Hour: 7, Minute: 30}, {Hour: 7, Minute: 30}, {Hour: 19, Minute: 5}, {Hour: 0, Minute: 59},
				},
				RemainingDoses:  60,
				RefillThreshold: 14,
			},
		},
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	ctx := context.Background()
	files := map[string]string{
		KindJSON: "meds.json",
		KindYAML: "meds.yaml",
		KindText: "medications.txt",
		KindBolt: "meds.db",
	}
	for kind, name := range files {
		t.Run(kind, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			c, err := Open(kind, path)
			require.NoError(t, err)
			defer c.Close()

			_, err = c.Load(ctx)
			assert.ErrorIs(t, err, store.ErrNoState, "missing state must read as a fresh start")

			want := sampleSnapshot()
			require.NoError(t, c.Save(ctx, want))
			got, err := c.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			empty := store.Snapshot{NextID: 1, Medications: []medication.Medication{}}
			require.NoError(t, c.Save(ctx, empty))
			got, err = c.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, got.NextID)
			assert.Empty(t, got.Medications)
		})
	}
}

func TestStoreRoundTripThroughJSON(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "meds.json")

	s := store.New(NewJSONFile(path))
	require.NoError(t, s.Restore(ctx))
	require.NoError(t, s.Load(sampleSnapshot()))
	require.NoError(t, s.Persist(ctx))

	restored := store.New(NewJSONFile(path))
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, s.Snapshot(), restored.Snapshot())
	assert.Equal(t, 9, restored.NextID())
}

func TestJSONRejectsSchemaViolations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meds.json")
	doc := `{"next_id": 2, "medications": [
		{"id": 1, "name": "x", "dosage": "1 pill", "scheduled_times": [{"hour": 25, "minute": 0}],
		 "remaining_doses": 1, "refill_threshold": 0}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := NewJSONFile(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestParseLegacyText(t *testing.T) {
	data := []byte("4\n1,Aspirin,1,10,3,8,0,20,30\n3,Iron,2,5,5\n")
	snap, err := ParseText(data)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.NextID)
	require.Len(t, snap.Medications, 2)
	assert.Equal(t, []medication.ScheduleEntry{{Hour: 8, Minute: 0}, {Hour: 20, Minute: 30}}, snap.Medications[0].ScheduledTimes)
	assert.Empty(t, snap.Medications[1].ScheduledTimes)
}

func TestParseLegacyTextErrors(t *testing.T) {
	cases := map[string]string{
		"bad next id":   "x\n",
		"short line":    "2\n1,Aspirin,1\n",
		"odd times":     "2\n1,Aspirin,1,10,3,8\n",
		"hour range":    "2\n1,Aspirin,1,10,3,24,0\n",
		"non digit dos": "2\n1,Aspirin,one,10,3\n",
		"empty":         "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseText([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestFormatTextRejectsCommaNames(t *testing.T) {
	_, err := FormatText(store.Snapshot{NextID: 2, Medications: []medication.Medication{{ID: 1, Name: "a,b", Dosage: "1"}}})
	assert.Error(t, err)
}

func TestKindFromPath(t *testing.T) {
	assert.Equal(t, KindYAML, KindFromPath("x.yml"))
	assert.Equal(t, KindText, KindFromPath("medications.txt"))
	assert.Equal(t, KindBolt, KindFromPath("x.db"))
	assert.Equal(t, KindJSON, KindFromPath("x"))

	_, err := Open("sqlite", "x")
	assert.Error(t, err)
}

// Saves from the scheduler and the session may overlap; under -race this
// also exercises the bolt backend's own locking.
func TestBoltConcurrentPersist(t *testing.T) {
	ctx := context.Background()
	c, err := OpenBolt(filepath.Join(t.TempDir(), "meds.db"))
	require.NoError(t, err)
	defer c.Close()

	st := store.New(c)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Create(medication.New{Name: "Aspirin", Dosage: "1", RemainingDoses: 10})
			assert.NoError(t, err)
			assert.NoError(t, st.Persist(ctx))
			_, err = c.Load(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Medications, 8)
	assert.Equal(t, 9, snap.NextID)
}
