package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("disk full")
	err := New(ConfigPersist, base)

	assert.Equal(t, ConfigPersist, KindOf(err))
	assert.True(t, Is(err, ConfigPersist))
	assert.False(t, Is(err, ConfigLoad))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "config_persist: disk full", err.Error())
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(InvalidPreset, nil))
	assert.Equal(t, InvalidPreset, KindOf(err))

	erisWrapped := eris.Wrap(New(SafetyDictionary, errors.New("bad json")), "safety: load")
	assert.Equal(t, SafetyDictionary, KindOf(erisWrapped))
}

func TestKindOf_Plain(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("x")))
	assert.False(t, Is(nil, ConfigLoad))
}

func TestRecovered(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{ConfigLoad, true},
		{ConfigMigration, true},
		{SafetyDictionary, true},
		{ClassificationInput, true},
		{ConfigPersist, false},
		{InvalidPreset, false},
		{InvalidSnapshot, false},
		{InvalidValue, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, Recovered(tt.kind))
		})
	}
	assert.Equal(t, "surfaced", Classify(errors.New("plain")))
	assert.Equal(t, "recovered", Classify(New(ConfigLoad, nil)))
}
