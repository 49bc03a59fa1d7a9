package thresholds

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
)

// snapshotSchema constrains the top-level shape of an imported snapshot.
const snapshotSchema = `{
  "type": "object",
  "required": ["config_version", "thresholds"],
  "properties": {
    "config_version": {"type": "string", "minLength": 1},
    "revision": {"type": "integer", "minimum": 0},
    "applied_preset_name": {"type": "string"},
    "last_updated": {"type": "string"},
    "last_updated_by": {"type": "string"},
    "thresholds": {
      "type": "object",
      "additionalProperties": {"type": "object"}
    }
  }
}`

var snapshotSchemaLoader = gojsonschema.NewStringLoader(snapshotSchema)

// validateSnapshot checks data against snapshotSchema.
func validateSnapshot(data []byte) error {
	result, err := gojsonschema.Validate(snapshotSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return eris.Wrap(err, "thresholds: parse snapshot")
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return eris.Errorf("thresholds: snapshot validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}
