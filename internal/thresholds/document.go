package thresholds

import (
	"time"
)

// Document is the persisted threshold configuration.
type Document struct {
	ConfigVersion     string    `json:"config_version"`
	Revision          int       `json:"revision"`
	AppliedPresetName string    `json:"applied_preset_name"`
	LastUpdated       time.Time `json:"last_updated"`
	LastUpdatedBy     string    `json:"last_updated_by"`
	Thresholds        Values    `json:"thresholds"`
}

func defaultDocument(now time.Time, user string) Document {
	return Document{
		ConfigVersion:     SchemaVersion,
		AppliedPresetName: PresetBalanced,
		LastUpdated:       now,
		LastUpdatedBy:     user,
		Thresholds:        DefaultValues(),
	}
}

func (d Document) clone() Document {
	out := d
	out.Thresholds = d.Thresholds.Clone()
	return out
}

// Action names the kind of mutation a history entry records.
type Action string

const (
	ActionSet       Action = "set"
	ActionPreset    Action = "preset"
	ActionImport    Action = "import"
	ActionMigration Action = "migration"
	ActionReset     Action = "reset"
)

// HistoryEntry is one append-only record of a config mutation.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	User       string    `json:"user"`
	Action     Action    `json:"action"`
	Changes    []Change  `json:"changes"`
	OldVersion string    `json:"old_version"`
	NewVersion string    `json:"new_version"`
	Revision   int       `json:"revision"`
}

func (e HistoryEntry) clone() HistoryEntry {
	out := e
	out.Changes = make([]Change, len(e.Changes))
	for i, c := range e.Changes {
		out.Changes[i] = Change{
			Type:     c.Type,
			Path:     c.Path,
			OldValue: cloneValue(c.OldValue),
			NewValue: cloneValue(c.NewValue),
		}
	}
	return out
}
