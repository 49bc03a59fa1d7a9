package thresholds

import (
	"encoding/json"
	"reflect"
	"sort"
)

// Values is the nested category -> key -> value mapping.
type Values map[string]map[string]any

// Clone returns a deep copy.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for cat, keys := range v {
		inner := make(map[string]any, len(keys))
		for k, val := range keys {
			inner[k] = cloneValue(val)
		}
		out[cat] = inner
	}
	return out
}

// lookup returns the raw value at category.key.
func (v Values) lookup(category, key string) (any, bool) {
	keys, ok := v[category]
	if !ok {
		return nil, false
	}
	val, ok := keys[key]
	return val, ok
}

func (v Values) tree() map[string]any {
	out := make(map[string]any, len(v))
	for cat, keys := range v {
		inner := make(map[string]any, len(keys))
		for k, val := range keys {
			inner[k] = val
		}
		out[cat] = inner
	}
	return out
}

// mergeValues layers over onto a copy of base: keys present in over win,
// keys only in base keep their base value.
func mergeValues(base, over Values) Values {
	out := base.Clone()
	if out == nil {
		out = Values{}
	}
	for cat, keys := range over {
		if _, ok := out[cat]; !ok {
			out[cat] = make(map[string]any, len(keys))
		}
		for k, val := range keys {
			out[cat][k] = cloneValue(val)
		}
	}
	return out
}

// normalizeValue widens integer kinds to float64 so values compare equal
// before and after a JSON round trip.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	default:
		return v
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// ChangeType classifies one structural difference.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// Change is one path-level difference between two configs.
type Change struct {
	Type     ChangeType `json:"type"`
	Path     string     `json:"path"`
	OldValue any        `json:"old_value,omitempty"`
	NewValue any        `json:"new_value,omitempty"`
}

// Diff recursively compares two value sets and returns every added,
// modified and removed path, sorted by path.
func Diff(before, after Values) []Change {
	var changes []Change
	diffTree("", before.tree(), after.tree(), &changes)
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

func diffTree(prefix string, before, after map[string]any, out *[]Change) {
	for k, oldVal := range before {
		path := joinPath(prefix, k)
		newVal, ok := after[k]
		if !ok {
			*out = append(*out, Change{Type: ChangeRemoved, Path: path, OldValue: cloneValue(oldVal)})
			continue
		}
		oldMap, oldIsMap := oldVal.(map[string]any)
		newMap, newIsMap := newVal.(map[string]any)
		if oldIsMap && newIsMap {
			diffTree(path, oldMap, newMap, out)
			continue
		}
		if !reflect.DeepEqual(oldVal, newVal) {
			*out = append(*out, Change{
				Type:     ChangeModified,
				Path:     path,
				OldValue: cloneValue(oldVal),
				NewValue: cloneValue(newVal),
			})
		}
	}
	for k, newVal := range after {
		if _, ok := before[k]; ok {
			continue
		}
		*out = append(*out, Change{Type: ChangeAdded, Path: joinPath(prefix, k), NewValue: cloneValue(newVal)})
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
