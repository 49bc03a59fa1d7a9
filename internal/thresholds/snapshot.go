package thresholds

// Snapshot is an immutable copy of the threshold values taken at one point
// in time. Batches score every candidate against the same Snapshot so a
// concurrent update cannot split a batch across two configurations.
type Snapshot struct {
	values   Values
	revision int
	preset   string
}

// NewSnapshot builds a Snapshot from explicit values, for fixtures and
// callers that bypass a Store.
func NewSnapshot(values Values) Snapshot {
	return Snapshot{values: values.Clone()}
}

// DefaultSnapshot is a Snapshot of the balanced baseline.
func DefaultSnapshot() Snapshot {
	return Snapshot{values: DefaultValues(), preset: PresetBalanced}
}

// Revision is the document revision the snapshot was taken from.
func (s Snapshot) Revision() int { return s.revision }

// Preset is the preset name applied when the snapshot was taken.
func (s Snapshot) Preset() string { return s.preset }

// Values returns a deep copy of the snapshot values.
func (s Snapshot) Values() Values { return s.values.Clone() }

// Get returns the raw value or fallback when absent.
func (s Snapshot) Get(category, key string, fallback any) any {
	if v, ok := s.values.lookup(category, key); ok {
		return cloneValue(v)
	}
	return fallback
}

// Float returns a numeric value, or fallback when absent or not numeric.
func (s Snapshot) Float(category, key string, fallback float64) float64 {
	v, ok := s.values.lookup(category, key)
	if !ok {
		return fallback
	}
	if f, ok := normalizeValue(v).(float64); ok {
		return f
	}
	return fallback
}

// Int returns a numeric value truncated to int.
func (s Snapshot) Int(category, key string, fallback int) int {
	v, ok := s.values.lookup(category, key)
	if !ok {
		return fallback
	}
	if f, ok := normalizeValue(v).(float64); ok {
		return int(f)
	}
	return fallback
}

// String returns a string value, or fallback.
func (s Snapshot) String(category, key, fallback string) string {
	if v, ok := s.values.lookup(category, key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return fallback
}

// Bool returns a boolean value, or fallback.
func (s Snapshot) Bool(category, key string, fallback bool) bool {
	if v, ok := s.values.lookup(category, key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}
