package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/jeanpaul/medremind/internal/medication"
	"github.com/jeanpaul/medremind/internal/store"
	"github.com/jeanpaul/medremind/internal/store/codec"
)

// ErrNoMatch is returned when an import pattern matches no files.
var ErrNoMatch = errors.New("no files match pattern")

// Source is one file's worth of medications.
type Source struct {
	Path        string
	Medications []medication.Medication
}

// Match expands a doublestar pattern ("backups/**/*.txt") into sorted
// paths.
func Match(pattern string) ([]string, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%q: %w", pattern, ErrNoMatch)
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadSource loads medications from any supported file. The format comes
// from the extension.
func ReadSource(ctx context.Context, path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		meds, err := ReadXLSX(path)
		return Source{Path: path, Medications: meds}, err
	}
	c, err := codec.Open(codec.KindFromPath(path), path)
	if err != nil {
		return Source{}, err
	}
	defer c.Close()
	snap, err := c.Load(ctx)
	if errors.Is(err, store.ErrNoState) {
		return Source{Path: path}, nil
	}
	if err != nil {
		return Source{}, fmt.Errorf("%s: %w", path, err)
	}
	return Source{Path: path, Medications: snap.Medications}, nil
}

// Import adds every medication from srcs to st. Imported ids are dropped;
// the store assigns fresh ones. Nothing is added unless every record is
// valid. It returns how many were added.
func Import(st *store.Store, srcs []Source) (int, error) {
	for _, src := range srcs {
		for _, m := range src.Medications {
			if err := m.Validate(); err != nil {
				return 0, fmt.Errorf("%s: %q: %w", src.Path, m.Name, err)
			}
		}
	}
	added := 0
	for _, src := range srcs {
		for _, m := range src.Medications {
			_, err := st.Create(medication.New{
				Name:            m.Name,
				Dosage:          m.Dosage,
				ScheduledTimes:  m.ScheduledTimes,
				RemainingDoses:  m.RemainingDoses,
				RefillThreshold: m.RefillThreshold,
			})
			if err != nil {
				return added, fmt.Errorf("%s: %w", src.Path, err)
			}
			added++
		}
	}
	return added, nil
}

// Preview imports srcs into a scratch copy of st and returns a unified
// diff of the listing before and after. st is not modified.
func Preview(st *store.Store, srcs []Source) (string, error) {
	scratch := store.New(nil)
	if err := scratch.Load(st.Snapshot()); err != nil {
		return "", err
	}
	before := Listing(scratch.List())
	if _, err := Import(scratch, srcs); err != nil {
		return "", err
	}
	return Diff("current", "imported", before, Listing(scratch.List())), nil
}

// Listing is a stable one-line-per-medication rendering used for diffs.
func Listing(meds []medication.Medication) string {
	var sb strings.Builder
	for _, m := range meds {
		fmt.Fprintf(&sb, "%d %s dosage=%s remaining=%d threshold=%d times=[%s]\n",
			m.ID, m.Name, m.Dosage, m.RemainingDoses, m.RefillThreshold, m.TimesString())
	}
	return sb.String()
}

// Diff returns a unified diff of a and b, or "" when they are equal.
func Diff(fromName, toName, a, b string) string {
	if a == b {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(fromName), a, b)
	return fmt.Sprint(gotextdiff.ToUnified(fromName, toName, a, edits))
}
