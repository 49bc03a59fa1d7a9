// Package fault defines the error taxonomy shared by the scoring and
// classification core.
package fault

import (
	"errors"
)

// Kind names a class of core failure.
type Kind string

const (
	ConfigLoad          Kind = "config_load"
	ConfigPersist       Kind = "config_persist"
	ConfigMigration     Kind = "config_migration"
	InvalidPreset       Kind = "invalid_preset"
	InvalidSnapshot     Kind = "invalid_snapshot"
	InvalidValue        Kind = "invalid_value"
	SafetyDictionary    Kind = "safety_dictionary"
	ClassificationInput Kind = "classification_input"
)

// Error wraps an underlying error with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err as a fault of the given kind. A nil err still produces a
// fault so callers can signal a bare condition.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the first fault in err's chain, or "".
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err's chain contains a fault of the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Recovered reports whether faults of this kind are handled inside the core
// (degrade and continue) rather than surfaced to the caller.
func Recovered(kind Kind) bool {
	switch kind {
	case ConfigLoad, ConfigMigration, SafetyDictionary, ClassificationInput:
		return true
	default:
		return false
	}
}

// Classify returns "recovered" or "surfaced" for err.
func Classify(err error) string {
	if Recovered(KindOf(err)) {
		return "recovered"
	}
	return "surfaced"
}
