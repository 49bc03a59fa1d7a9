package thresholds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	before := Values{
		"a": {"x": 1.0, "y": "keep", "gone": true},
		"b": {"z": 2.0},
	}
	after := Values{
		"a": {"x": 2.0, "y": "keep", "new": 5.0},
		"c": {"w": "hi"},
	}

	got := Diff(before, after)
	assert.Equal(t, []Change{
		{Type: ChangeRemoved, Path: "a.gone", OldValue: true},
		{Type: ChangeAdded, Path: "a.new", NewValue: 5.0},
		{Type: ChangeModified, Path: "a.x", OldValue: 1.0, NewValue: 2.0},
		{Type: ChangeRemoved, Path: "b", OldValue: map[string]any{"z": 2.0}},
		{Type: ChangeAdded, Path: "c", NewValue: map[string]any{"w": "hi"}},
	}, got)
}

func TestDiff_NestedLeafMaps(t *testing.T) {
	before := Values{"a": {"m": map[string]any{"p": 1.0, "q": 2.0}}}
	after := Values{"a": {"m": map[string]any{"p": 1.0, "q": 3.0}}}

	got := Diff(before, after)
	assert.Equal(t, []Change{{Type: ChangeModified, Path: "a.m.q", OldValue: 2.0, NewValue: 3.0}}, got)
}

func TestDiff_Identical(t *testing.T) {
	assert.Empty(t, Diff(DefaultValues(), DefaultValues()))
}

func TestMergeValues(t *testing.T) {
	base := Values{"a": {"x": 1.0, "y": 2.0}}
	over := Values{"a": {"y": 9.0}, "b": {"z": 3.0}}

	got := mergeValues(base, over)
	assert.Equal(t, Values{"a": {"x": 1.0, "y": 9.0}, "b": {"z": 3.0}}, got)
	assert.Equal(t, 2.0, base["a"]["y"], "base is not mutated")
}

func TestSnapshotTypedGetters(t *testing.T) {
	snap := NewSnapshot(Values{"c": {"f": 1.5, "i": 4, "s": "str", "b": true}})

	assert.Equal(t, 1.5, snap.Float("c", "f", 0))
	assert.Equal(t, 4.0, snap.Float("c", "i", 0))
	assert.Equal(t, 4, snap.Int("c", "i", 0))
	assert.Equal(t, 9.0, snap.Float("c", "s", 9), "wrong type yields fallback")
	assert.Equal(t, "str", snap.String("c", "s", ""))
	assert.Equal(t, "fb", snap.String("c", "f", "fb"))
	assert.True(t, snap.Bool("c", "b", false))
	assert.True(t, snap.Bool("c", "missing", true))
	assert.Equal(t, "x", snap.Get("missing", "k", "x"))
}
