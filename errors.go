package main

import "fmt"

// ValidationError reports a chart config or render option that was rejected
// before anything was sent to the chart service.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, a ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, a...)}
}

// UpstreamError wraps a failure from the chart service call.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "upstream error: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
