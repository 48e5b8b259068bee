package model

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaViolation = errors.New("schema violation")
	ErrScorerFailure   = errors.New("scorer failure")
	ErrConfiguration   = errors.New("configuration error")
)

// ErrorKind labels why a record was skipped
type ErrorKind string

const (
	KindSchemaViolation ErrorKind = "schema_violation"
	KindScorerFailure   ErrorKind = "scorer_failure"
)

// SchemaViolation reports a payload or intermediate value that does not fit the field schema
type SchemaViolation struct {
	Field    string
	Expected Kind
	Got      Kind
	Reason   string
}

func (e *SchemaViolation) Error() string {
	msg := fmt.Sprintf("schema violation on %q", e.Field)
	if e.Expected != KindMissing || e.Got != KindMissing {
		msg += fmt.Sprintf(": expected %s, got %s", e.Expected, e.Got)
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *SchemaViolation) Is(target error) bool { return target == ErrSchemaViolation }

// ScorerFailure wraps an error raised by a scorer for a single record
type ScorerFailure struct {
	Scorer string
	Err    error
}

func (e *ScorerFailure) Error() string {
	return fmt.Sprintf("scorer %s: %v", e.Scorer, e.Err)
}

func (e *ScorerFailure) Unwrap() error { return e.Err }

func (e *ScorerFailure) Is(target error) bool { return target == ErrScorerFailure }

// ConfigurationError is fatal at pipeline construction
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Option, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
