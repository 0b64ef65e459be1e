package codec

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/store"
)

// YAMLFile stores the snapshot as a YAML document, convenient for hand
// editing alongside config.yaml.
type YAMLFile struct {
	path string
}

func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

func (y *YAMLFile) Load(_ context.Context) (store.Snapshot, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store.Snapshot{}, store.ErrNoState
		}
		return store.Snapshot{}, err
	}
	var snap store.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return store.Snapshot{}, fmt.Errorf("%s: %w", y.path, err)
	}
	for _, m := range snap.Medications {
		if err := m.Validate(); err != nil {
			return store.Snapshot{}, fmt.Errorf("%s: medication %d: %w", y.path, m.ID, err)
		}
	}
	if snap.NextID < 1 {
		snap.NextID = 1
	}
	return snap, nil
}

func (y *YAMLFile) Save(_ context.Context, snap store.Snapshot) error {
	if snap.Medications == nil {
		snap.Medications = []medication.Medication{}
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal medications: %w", err)
	}
	return writeFileAtomic(y.path, data)
}

func (y *YAMLFile) Close() error { return nil }
