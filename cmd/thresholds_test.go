package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"75", 75.0},
		{"0.25", 0.25},
		{"true", true},
		{`"exclude"`, "exclude"},
		{"exclude", "exclude"},
		{"[1,2]", []any{1.0, 2.0}},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestSplitPath(t *testing.T) {
	cat, key, err := splitPath("classification.group_a_threshold")
	require.NoError(t, err)
	assert.Equal(t, "classification", cat)
	assert.Equal(t, "group_a_threshold", key)

	cat, key, err = splitPath("custom.nested.key")
	require.NoError(t, err)
	assert.Equal(t, "custom", cat)
	assert.Equal(t, "nested.key", key)

	for _, bad := range []string{"", "scoring", ".key", "scoring."} {
		_, _, err := splitPath(bad)
		assert.Error(t, err, bad)
	}
}

func TestYAMLConversion(t *testing.T) {
	in := []byte(`{"revision":3,"thresholds":{"classification":{"group_a_threshold":70}}}`)

	y, err := jsonToYAML(in)
	require.NoError(t, err)
	assert.Contains(t, string(y), "group_a_threshold: 70")

	back, err := yamlToJSON(y)
	require.NoError(t, err)
	assert.JSONEq(t, string(in), string(back))
}

func TestYAMLConversion_Invalid(t *testing.T) {
	_, err := jsonToYAML([]byte("{"))
	assert.Error(t, err)
	_, err = yamlToJSON([]byte("a: [1"))
	assert.Error(t, err)
}
