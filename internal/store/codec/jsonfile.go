package codec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/store"
)

// JSONFile stores the snapshot as one indented JSON document.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (j *JSONFile) Path() string { return j.path }

func (j *JSONFile) Load(_ context.Context) (store.Snapshot, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store.Snapshot{}, store.ErrNoState
		}
		return store.Snapshot{}, err
	}
	if err := ValidateDocument(data); err != nil {
		return store.Snapshot{}, fmt.Errorf("%s: %w", j.path, err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return store.Snapshot{}, fmt.Errorf("%s: %w", j.path, err)
	}
	return snap, nil
}

func (j *JSONFile) Save(_ context.Context, snap store.Snapshot) error {
	if snap.Medications == nil {
		snap.Medications = []medication.Medication{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal medications: %w", err)
	}
	return writeFileAtomic(j.path, append(data, '\n'))
}

func (j *JSONFile) Close() error { return nil }

// writeFileAtomic replaces path with data via a temp file in the same
// directory, so a crash mid-write leaves the previous file intact.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
