// Package codec provides the on-disk formats for the medication store.
package codec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jeanpaul/medremind/internal/store"
)

const (
	KindJSON = "json"
	KindYAML = "yaml"
	KindText = "text"
	KindBolt = "bolt"
)

// Kinds lists the supported backends.
func Kinds() []string {
	return []string{KindJSON, KindYAML, KindText, KindBolt}
}

// KindFromPath guesses a backend from the file extension, falling back
// to JSON.
func KindFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return KindYAML
	case ".txt":
		return KindText
	case ".db", ".bolt":
		return KindBolt
	default:
		return KindJSON
	}
}

// Open returns the codec for kind. An empty kind is derived from path.
func Open(kind, path string) (store.Codec, error) {
	if kind == "" {
		kind = KindFromPath(path)
	}
	switch kind {
	case KindJSON:
		return NewJSONFile(path), nil
	case KindYAML:
		return NewYAMLFile(path), nil
	case KindText:
		return NewTextFile(path), nil
	case KindBolt:
		b, err := OpenBolt(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (must be one of %s)", kind, strings.Join(Kinds(), ", "))
	}
}
