// Package errors provides centralized error definitions for designctl.
// Every failure that crosses the command boundary carries a stable machine
// code so callers can branch on it ("no plan found" vs "plan too old")
// without parsing human-readable text.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Code is a stable, machine-parseable error code emitted in JSON output.
type Code string

const (
	// CodeNotFound indicates a required file does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidJSON indicates a file or stdin body failed to parse.
	CodeInvalidJSON Code = "invalid_json"
	// CodeBadSchema indicates a plan with an unexpected schemaVersion.
	CodeBadSchema Code = "bad_schema"
	// CodeEmptyNodes indicates a plan with no nodes.
	CodeEmptyNodes Code = "empty_nodes"
	// CodeValidationFailed indicates structural plan validation found hard errors.
	CodeValidationFailed Code = "validation_failed"
	// CodeCycle indicates the blockedBy graph contains a dependency cycle.
	CodeCycle Code = "cycle"
	// CodeInvalidTransition indicates a status update violated the lifecycle.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeQualityGate indicates a memory or reflection entry was rejected
	// at write time. This is an expected "no", not an exceptional condition.
	CodeQualityGate Code = "quality_gate"
	// CodeInvalidInput indicates malformed command arguments or stdin.
	CodeInvalidInput Code = "invalid_input"
	// CodeWriteFailed indicates an authoritative-state write failed.
	CodeWriteFailed Code = "write_failed"
	// CodeInternal is the fallback for errors without a more specific code.
	CodeInternal Code = "internal"
)

// CommandError is an error with a stable code and human-readable detail.
// It is the only error shape that escapes the CLI facade.
type CommandError struct {
	Code   Code
	Detail string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommand creates a CommandError with the given code and detail.
func NewCommand(code Code, detail string) *CommandError {
	return &CommandError{Code: code, Detail: detail}
}

// NewCommandf creates a CommandError with a formatted detail message.
func NewCommandf(code Code, format string, args ...any) *CommandError {
	return &CommandError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap creates a CommandError wrapping an underlying error.
func Wrap(code Code, detail string, err error) *CommandError {
	return &CommandError{Code: code, Detail: detail, Err: err}
}

// CodeOf extracts the code from an error chain, or CodeInternal if none.
func CodeOf(err error) Code {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeInternal
}

// DetailOf extracts the human-readable detail from an error chain.
// Falls back to the error string for errors without a CommandError.
func DetailOf(err error) string {
	var ce *CommandError
	if errors.As(err, &ce) {
		if ce.Err != nil {
			return fmt.Sprintf("%s: %v", ce.Detail, ce.Err)
		}
		return ce.Detail
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// IsQualityGate reports whether err is a deliberate quality-gate rejection.
// Callers treat these differently from unexpected failures: the workflow
// continues, the bad entry simply never enters the store.
func IsQualityGate(err error) bool {
	return CodeOf(err) == CodeQualityGate
}
