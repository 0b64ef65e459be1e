// Package store holds the in-memory medication set shared by the
// interactive session and the scheduler.
//
// A single mutex guards the map and the id sequence. It is held for one
// operation or one scan at a time and never across disk I/O or alerting,
// so the scheduler cannot observe a half-applied edit and a slow alert
// cannot stall the session.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/jeanpaul/medremind/internal/medication"
)

var (
	// ErrNotFound is returned when an id has no medication.
	ErrNotFound = errors.New("medication not found")

	// ErrNoState is returned by a Codec when nothing has been persisted yet.
	ErrNoState = errors.New("no saved medications")
)

// Snapshot is the durable form of the store.
type Snapshot struct {
	NextID      int                     `json:"next_id" yaml:"next_id"`
	Medications []medication.Medication `json:"medications" yaml:"medications"`
}

// Codec persists snapshots. Save replaces the whole persisted state.
type Codec interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

type Store struct {
	mu     sync.Mutex
	meds   map[int]*medication.Medication
	nextID int

	// saveMu serialises Persist calls so an older snapshot never
	// overwrites a newer one.
	saveMu sync.Mutex
	codec  Codec
	log    *slog.Logger
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns an empty store whose id sequence starts at 1. codec may be
// nil for a purely in-memory store.
func New(codec Codec, opts ...Option) *Store {
	s := &Store{
		meds:   make(map[int]*medication.Medication),
		nextID: 1,
		codec:  codec,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create assigns the next id and inserts the medication.
func (s *Store) Create(n medication.New) (int, error) {
	m := medication.Medication{
		Name:            n.Name,
		Dosage:          n.Dosage,
		ScheduledTimes:  n.ScheduledTimes,
		RemainingDoses:  n.RemainingDoses,
		RefillThreshold: n.RefillThreshold,
	}
	if err := m.Validate(); err != nil {
		return 0, fmt.Errorf("create %q: %w", n.Name, err)
	}
	m = m.Clone()
	if m.ScheduledTimes == nil {
		m.ScheduledTimes = []medication.ScheduleEntry{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.nextID
	s.nextID++
	s.meds[m.ID] = &m
	return m.ID, nil
}

// Get returns a copy of the medication; ok is false when id is unknown.
func (s *Store) Get(id int) (medication.Medication, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meds[id]
	if !ok {
		return medication.Medication{}, false
	}
	return m.Clone(), true
}

// Update applies the present fields of u and returns the result.
func (s *Store) Update(id int, u medication.Update) (medication.Medication, error) {
	if err := u.Validate(); err != nil {
		return medication.Medication{}, fmt.Errorf("update %d: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meds[id]
	if !ok {
		return medication.Medication{}, fmt.Errorf("update %d: %w", id, ErrNotFound)
	}
	u.Apply(m)
	return m.Clone(), nil
}

// Delete removes the medication and returns what was removed.
func (s *Store) Delete(id int) (medication.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meds[id]
	if !ok {
		return medication.Medication{}, fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}
	delete(s.meds, id)
	return *m, nil
}

// List returns copies of every medication in ascending id order.
func (s *Store) List() []medication.Medication {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]medication.Medication, 0, len(s.meds))
	for _, id := range s.sortedIDs() {
		out = append(out, s.meds[id].Clone())
	}
	return out
}

// Scan calls fn for every medication in ascending id order with the lock
// held. fn may mutate the medication but must not block.
func (s *Store) Scan(fn func(m *medication.Medication)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.sortedIDs() {
		fn(s.meds[id])
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.meds)
}

// NextID is the id the next Create will assign.
func (s *Store) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{NextID: s.nextID, Medications: make([]medication.Medication, 0, len(s.meds))}
	for _, id := range s.sortedIDs() {
		snap.Medications = append(snap.Medications, s.meds[id].Clone())
	}
	return snap
}

// Load replaces the contents with snap. The id sequence is never allowed
// to fall to or below an id that is present.
func (s *Store) Load(snap Snapshot) error {
	meds := make(map[int]*medication.Medication, len(snap.Medications))
	next := max(snap.NextID, 1)
	for _, m := range snap.Medications {
		if _, dup := meds[m.ID]; dup {
			return fmt.Errorf("load: duplicate medication id %d", m.ID)
		}
		c := m.Clone()
		if c.ScheduledTimes == nil {
			c.ScheduledTimes = []medication.ScheduleEntry{}
		}
		meds[m.ID] = &c
		if m.ID >= next {
			next = m.ID + 1
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meds = meds
	s.nextID = next
	return nil
}

// Persist writes the current state through the codec.
func (s *Store) Persist(ctx context.Context) error {
	if s.codec == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	snap := s.Snapshot()
	if err := s.codec.Save(ctx, snap); err != nil {
		return fmt.Errorf("save medications: %w", err)
	}
	s.log.Debug("medications saved", "count", len(snap.Medications), "next_id", snap.NextID)
	return nil
}

// Restore loads persisted state. Missing state is a fresh start.
func (s *Store) Restore(ctx context.Context) error {
	if s.codec == nil {
		return nil
	}
	snap, err := s.codec.Load(ctx)
	if errors.Is(err, ErrNoState) {
		s.log.Info("no saved medications, starting empty")
		return s.Load(Snapshot{NextID: 1})
	}
	if err != nil {
		return fmt.Errorf("load medications: %w", err)
	}
	if err := s.Load(snap); err != nil {
		return err
	}
	s.log.Info("medications loaded", "count", len(snap.Medications), "next_id", s.NextID())
	return nil
}

// Close releases the codec.
func (s *Store) Close() error {
	if s.codec == nil {
		return nil
	}
	return s.codec.Close()
}

func (s *Store) sortedIDs() []int {
	ids := make([]int, 0, len(s.meds))
	for id := range s.meds {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
