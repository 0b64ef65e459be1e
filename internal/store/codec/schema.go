package codec

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema describes the persisted medication document. It is
// checked on load so a hand-edited file with an out of range time or a
// non-digit dosage is rejected before it reaches the store.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["next_id", "medications"],
  "properties": {
    "next_id": {"type": "integer", "minimum": 1},
    "medications": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "dosage", "scheduled_times", "remaining_doses", "refill_threshold"],
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "name": {"type": "string"},
          "dosage": {"type": "string", "pattern": "^[0-9]*$"},
          "remaining_doses": {"type": "integer"},
          "refill_threshold": {"type": "integer"},
          "scheduled_times": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["hour", "minute"],
              "properties": {
                "hour": {"type": "integer", "minimum": 0, "maximum": 23},
                "minute": {"type": "integer", "minimum": 0, "maximum": 59}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return schema, schemaErr
}

// ValidateDocument checks raw JSON against the document schema.
func ValidateDocument(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("invalid schema definition: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validation execution failed: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("schema validation failed:\n- %s", dumpErrors(errs))
}

func dumpErrors(errs []string) string {
	truncated := ""
	if len(errs) > 3 {
		truncated = fmt.Sprintf("\n... and %d more", len(errs)-3)
		errs = errs[:3]
	}
	return strings.Join(errs, "\n- ") + truncated
}
