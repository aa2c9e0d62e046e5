package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification. An *EngineError matches the
// sentinel of its kind under errors.Is.
var (
	ErrUnknownMachine  = errors.New("unknown machine")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrInvalidRequest  = errors.New("invalid request")
)

// ErrorKind is a coarse-grained categorization for engine errors.
type ErrorKind string

const (
	// KindUnknownMachine means machine_id has no registry entry.
	KindUnknownMachine ErrorKind = "unknown_machine"

	// KindPayloadTooLarge means the payload does not fit in the
	// requested number of cards.
	KindPayloadTooLarge ErrorKind = "payload_too_large"

	// KindInvalidRequest covers structurally invalid input, such as a
	// vertical repeat below 1 or an empty profile table.
	KindInvalidRequest ErrorKind = "invalid_request"
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// EngineError is the single error type returned by the engine packages.
// It carries enough structure (kind + offending field) for a front end to
// produce a precise message without parsing strings.
type EngineError struct {
	// Op is the engine operation that failed ("resolve", "encode", ...).
	Op string

	// Kind classifies the failure.
	Kind ErrorKind

	// Field names the offending input, e.g. "machine_id".
	Field string

	// Detail is a human-readable explanation.
	Detail string

	// Err is the underlying error, if any.
	Err error
}

func (e *EngineError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Field != "" {
		base += fmt.Sprintf(" (field=%s)", e.Field)
	}
	if e.Detail != "" {
		base += ": " + e.Detail
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel error of the same kind.
func (e *EngineError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrUnknownMachine:
		return e.Kind == KindUnknownMachine
	case ErrPayloadTooLarge:
		return e.Kind == KindPayloadTooLarge
	case ErrInvalidRequest:
		return e.Kind == KindInvalidRequest
	}
	return false
}

// IsKind helps callers classify errors without string matching.
func IsKind(err error, kind ErrorKind) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}

// KindOf returns the kind of an engine error, or "" for any other error.
func KindOf(err error) ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// UnknownMachine builds the error returned when a machine id is missing
// from the registry.
func UnknownMachine(op, id string) *EngineError {
	return &EngineError{
		Op:     op,
		Kind:   KindUnknownMachine,
		Field:  "machine_id",
		Detail: fmt.Sprintf("no machine profile named %q", id),
	}
}

// PayloadTooLarge builds the error returned when the payload needs more
// positions than vertical_repeat cards provide.
func PayloadTooLarge(op string, required, capacity, repeat int) *EngineError {
	return &EngineError{
		Op:     op,
		Kind:   KindPayloadTooLarge,
		Field:  "payload",
		Detail: fmt.Sprintf("needs %d hole positions but only %d card(s) of %d positions are allowed", required, repeat, capacity),
	}
}

// InvalidRequest builds a structural input error for the named field.
func InvalidRequest(op, field, detail string) *EngineError {
	return &EngineError{
		Op:     op,
		Kind:   KindInvalidRequest,
		Field:  field,
		Detail: detail,
	}
}

// ExitCode defines the CLI exit codes. Scripts can tell the engine's error
// kinds apart without parsing stderr.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitUnknownMachine indicates the requested machine id is not
	// registered.
	ExitUnknownMachine ExitCode = 2

	// ExitPayloadTooLarge indicates the input does not fit on the
	// requested number of cards, or exceeds the upload ceiling.
	ExitPayloadTooLarge ExitCode = 3

	// ExitInvalidRequest indicates a structurally invalid flag combination
	// or machine table.
	ExitInvalidRequest ExitCode = 4

	// ExitIOError indicates reading input or writing output failed.
	ExitIOError ExitCode = 5
)

// ExitCodeFor maps an engine error kind to its exit code.
func ExitCodeFor(err error) ExitCode {
	switch KindOf(err) {
	case KindUnknownMachine:
		return ExitUnknownMachine
	case KindPayloadTooLarge:
		return ExitPayloadTooLarge
	case KindInvalidRequest:
		return ExitInvalidRequest
	default:
		return ExitGeneralError
	}
}

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// WrapEngineError wraps an engine error in a CLIError whose exit code
// follows the error's kind.
func WrapEngineError(message string, err error) *CLIError {
	return &CLIError{Code: ExitCodeFor(err), Message: message, Err: err}
}
