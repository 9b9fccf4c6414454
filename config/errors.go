package config

import (
	"fmt"
	"strings"
)

// ValidationError holds every configuration validation failure collected in
// one Validate() pass, in the internal/config/validate.go style.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.Errors, "; "))
}

// Is supports errors.Is(err, &ValidationError{}) type checks without caring
// about the specific Errors contents.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// ErrorKind classifies why Load failed, per the loader's documented outcome
// contract.
type ErrorKind string

const (
	ErrorKindFileNotFound     ErrorKind = "FILE_NOT_FOUND"
	ErrorKindInvalidYAML      ErrorKind = "INVALID_YAML"
	ErrorKindMissingField     ErrorKind = "MISSING_FIELD"
	ErrorKindInvalidValue     ErrorKind = "INVALID_VALUE"
	ErrorKindValidationFailed ErrorKind = "VALIDATION_FAILED"
)

// LoadError reports a structured loader outcome: which kind of failure
// occurred and a human-readable message.
type LoadError struct {
	Kind    ErrorKind
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newLoadError(kind ErrorKind, format string, args ...any) *LoadError {
	return &LoadError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
