package codec

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/store"
)

var (
	medicationsBucket = []byte("medications")
	metaBucket        = []byte("meta")
	nextIDKey         = []byte("next_id")
)

// Bolt keeps the snapshot in an embedded BoltDB file. Medications are
// keyed by 8-byte big-endian id so a cursor walks them in ascending order;
// the id sequence lives in the meta bucket.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Load(_ context.Context) (store.Snapshot, error) {
	snap := store.Snapshot{Medications: []medication.Medication{}}
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return nil
		}
		v := meta.Get(nextIDKey)
		if v == nil {
			return nil
		}
		found = true
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("next_id: %w", err)
		}
		snap.NextID = n

		meds := tx.Bucket(medicationsBucket)
		if meds == nil {
			return nil
		}
		return meds.ForEach(func(k, v []byte) error {
			var m medication.Medication
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("medication %d: %w", binary.BigEndian.Uint64(k), err)
			}
			snap.Medications = append(snap.Medications, m)
			return nil
		})
	})
	if err != nil {
		return store.Snapshot{}, err
	}
	if !found {
		return store.Snapshot{}, store.ErrNoState
	}
	return snap, nil
}

// Save replaces both buckets in one transaction.
func (b *Bolt) Save(_ context.Context, snap store.Snapshot) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(medicationsBucket) != nil {
			if err := tx.DeleteBucket(medicationsBucket); err != nil {
				return err
			}
		}
		meds, err := tx.CreateBucket(medicationsBucket)
		if err != nil {
			return err
		}
		for _, m := range snap.Medications {
			data, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := meds.Put(idKey(m.ID), data); err != nil {
				return err
			}
		}
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		return meta.Put(nextIDKey, []byte(strconv.Itoa(snap.NextID)))
	})
}

// Close releases the database file lock.
func (b *Bolt) Close() error {
	return b.db.Close()
}

func idKey(id int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}
