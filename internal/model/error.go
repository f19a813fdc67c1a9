package model

import (
	"errors"
	"fmt"
)

type NotFoundError struct{}

func (e NotFoundError) Error() string {
	return "not found"
}

// BusyError is returned when a run for the same suite is already in
// flight and did not finish within the bounded wait.
type BusyError struct {
	SuiteName string
}

func (e BusyError) Error() string {
	return fmt.Sprintf("a run of suite %q is already in progress", e.SuiteName)
}

// ExecutionFailedError signals an engine-level failure (crash, missing
// binary, timeout). It is distinct from a run that completed with
// failing tests, which is a regular RunOutcome.
type ExecutionFailedError struct {
	Reason string
	Err    error
}

func (e ExecutionFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("execution failed: %s: %v", e.Reason, e.Err)
	}

	return "execution failed: " + e.Reason
}

func (e ExecutionFailedError) Unwrap() error {
	return e.Err
}

// ParseError signals a report file the engine cannot interpret. It must
// never be presented as an empty or passing result.
type ParseError struct {
	Path string
	Err  error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("malformed report %s: %v", e.Path, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

type MalformedRequestError struct {
	Param  string
	Detail string
}

func (e MalformedRequestError) Error() string {
	if e.Detail != "" {
		return "malformed request param " + e.Param + ": " + e.Detail
	}

	return "malformed request param: " + e.Param
}

// ErrorKind maps an error to its machine-readable kind for the error
// envelope returned over HTTP and MCP.
func ErrorKind(err error) string {
	var (
		notFound  NotFoundError
		busy      BusyError
		execution ExecutionFailedError
		parse     ParseError
		malformed MalformedRequestError
	)

	switch {
	case errors.As(err, &notFound):
		return "not-found"
	case errors.As(err, &busy):
		return "busy"
	case errors.As(err, &execution):
		return "execution-failed"
	case errors.As(err, &parse):
		return "parse-error"
	case errors.As(err, &malformed):
		return "malformed-request"
	default:
		return "internal"
	}
}
