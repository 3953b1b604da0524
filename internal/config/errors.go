package config

import "fmt"

// ErrorKind classifies a specification error.
type ErrorKind string

const (
	MissingField     ErrorKind = "missing_field"
	InvalidValue     ErrorKind = "invalid_value"
	DuplicateOverride ErrorKind = "duplicate_override"
	UnknownKey       ErrorKind = "unknown_key"
)

// Error is a malformed or invalid build specification. It is never retried
// and always fatal to the run before it starts.
type Error struct {
	Kind   ErrorKind
	Field  string
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid build spec: %s: %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("invalid build spec: %s: %s: %s", e.Kind, e.Field, e.Detail)
}

func missingField(field string) *Error {
	return &Error{Kind: MissingField, Field: field}
}

func invalidValue(field, detail string) *Error {
	return &Error{Kind: InvalidValue, Field: field, Detail: detail}
}

func duplicateOverride(name string) *Error {
	return &Error{Kind: DuplicateOverride, Field: "libraries", Detail: name}
}

// UnknownKeyError reports an unrecognized top-level key in a spec file.
// Loaders call this so both formats reject unknown keys identically.
func UnknownKeyError(key string) *Error {
	return &Error{Kind: UnknownKey, Field: key}
}
