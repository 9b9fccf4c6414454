package middleware

import (
	"errors"
	"fmt"
)

// errNoFinalHandler is raised when a pipeline is executed before a final
// handler has been set.
var errNoFinalHandler = errors.New("no final handler set for pipeline execution")

// PipelineError wraps a panic or error recovered from a middleware's Handle
// call with the offending middleware's name, so pipeline logs and the
// resulting 500 response can say which component failed instead of just
// "something panicked".
type PipelineError struct {
	Component string
	Cause     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("middleware %q: %v", e.Component, e.Cause)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// newPipelineError wraps cause, unless it is already a *PipelineError (in
// which case it propagates unchanged — the innermost failing component
// should be the one named).
func newPipelineError(component string, cause error) *PipelineError {
	if pe, ok := cause.(*PipelineError); ok {
		return pe
	}
	return &PipelineError{Component: component, Cause: cause}
}

// recoveredError turns a recover() value into an error.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
