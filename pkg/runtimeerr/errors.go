// Package runtimeerr defines the typed error kinds raised across the
// signal pipeline, workflow executor, and chain runner. Kinds are
// structs, not sentinel values, so callers can carry a detail map and
// still use errors.As to recover the kind.
package runtimeerr

import "fmt"

// Kind identifies which of the runtime's typed errors occurred.
type Kind string

const (
	KindInvalidAction         Kind = "invalid_action"
	KindValidationError       Kind = "validation_error"
	KindInvalidSignalFormat   Kind = "invalid_signal_format"
	KindInvalidState          Kind = "invalid_state"
	KindExecutionError        Kind = "execution_error"
	KindTimeout               Kind = "timeout"
	KindCompensationError     Kind = "compensation_error"
	KindInternalServerError   Kind = "internal_server_error"
	KindInvalidDirectiveFormat Kind = "invalid_directive_format"
)

// Error is the common shape for every runtime error kind: a kind tag,
// a human message, and a structured detail map for programmatic
// inspection (mirrors the "not type names" instruction in the design).
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]interface{}
	Wrapped error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

func newErr(kind Kind, msg string, detail map[string]interface{}) *Error {
	return &Error{Kind: kind, Message: msg, Detail: detail}
}

// InvalidAction reports that an action handle does not expose Run.
func InvalidAction(actionID string) *Error {
	return newErr(KindInvalidAction, fmt.Sprintf("invalid action: %s", actionID), map[string]interface{}{
		"action": actionID,
	})
}

// ValidationError reports malformed params, context, or directive shape.
func ValidationError(msg string, detail map[string]interface{}) *Error {
	return newErr(KindValidationError, msg, detail)
}

// InvalidSignalFormat reports a signal missing required fields.
func InvalidSignalFormat(msg string) *Error {
	return newErr(KindInvalidSignalFormat, msg, nil)
}

// InvalidDirectiveFormat reports a directive-path signal with no directive in its data.
func InvalidDirectiveFormat(msg string) *Error {
	return newErr(KindInvalidDirectiveFormat, msg, nil)
}

// InvalidState reports a signal that cannot run in the current status.
func InvalidState(status string) *Error {
	return newErr(KindInvalidState, fmt.Sprintf("invalid state: %s", status), map[string]interface{}{
		"status": status,
	})
}

// ExecutionError wraps an action crash or non-conforming return value.
func ExecutionError(kind string, reason string) *Error {
	return newErr(KindExecutionError, fmt.Sprintf("Caught %s: %s", kind, reason), map[string]interface{}{
		"caught_kind": kind,
		"reason":      reason,
	})
}

// Timeout reports a deadline exceeded; never retried.
func Timeout(afterMs int64) *Error {
	return newErr(KindTimeout, fmt.Sprintf("Workflow timed out after %dms", afterMs), map[string]interface{}{
		"after_ms": afterMs,
	})
}

// CompensationError wraps an original error with the compensation outcome.
func CompensationError(original error, compensated bool, detail map[string]interface{}) *Error {
	if detail == nil {
		detail = map[string]interface{}{}
	}
	detail["compensated"] = compensated
	return &Error{
		Kind:    KindCompensationError,
		Message: fmt.Sprintf("compensation error: %v (compensated=%v)", original, compensated),
		Detail:  detail,
		Wrapped: original,
	}
}

// InternalServerError wraps a caught unexpected fault in the runtime itself.
func InternalServerError(err error) *Error {
	return &Error{
		Kind:    KindInternalServerError,
		Message: fmt.Sprintf("internal server error: %v", err),
		Wrapped: err,
	}
}

// SignalExecutionFailed wraps a panic or error raised by user code during dispatch.
func SignalExecutionFailed(err error) *Error {
	return &Error{
		Kind:    KindExecutionError,
		Message: fmt.Sprintf("signal execution failed: %v", err),
		Wrapped: err,
		Detail:  map[string]interface{}{"signal_execution_failed": true},
	}
}

// Is implements errors.Is support by comparing kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
