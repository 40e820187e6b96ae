package fault

import (
	"errors"
	"strings"
)

// Code categorizes bridge errors.
type Code string

const (
	// CodeUnsupportedType indicates a host value has no dynamic-value shape.
	CodeUnsupportedType Code = "UNSUPPORTED_TYPE"

	// CodeInvalidNumber indicates a NaN/Inf float or an integer outside int64.
	CodeInvalidNumber Code = "INVALID_NUMBER"

	// CodeNativeFailure wraps an error reported by the native engine.
	CodeNativeFailure Code = "NATIVE_FAILURE"

	// CodeRuntimeConstruction indicates the process-wide runtime could not be built.
	// This is the only process-fatal code.
	CodeRuntimeConstruction Code = "RUNTIME_CONSTRUCTION_FAILURE"

	// CodeLoggerReinstall indicates a second logger install attempt.
	CodeLoggerReinstall Code = "LOGGER_REINSTALL"
)

// Sentinels for errors.Is matching. Error.Is compares codes only, so
// errors.Is(err, ErrUnsupportedType) matches any UNSUPPORTED_TYPE error.
var (
	ErrUnsupportedType     = &Error{Code: CodeUnsupportedType}
	ErrInvalidNumber       = &Error{Code: CodeInvalidNumber}
	ErrNativeFailure       = &Error{Code: CodeNativeFailure}
	ErrRuntimeConstruction = &Error{Code: CodeRuntimeConstruction}
	ErrLoggerReinstall     = &Error{Code: CodeLoggerReinstall}
)

// Error is the structured error type returned by every bridge component.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Path locates the offending element inside a nested value, e.g. ["$", "docs[2]", "meta"].
	Path []string

	// GoType is the dynamic type of the rejected host value, if any.
	GoType string

	// Detail is a human-readable description.
	Detail string

	// Cause is the underlying error (for NATIVE_FAILURE, the native error itself).
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(joinPath(e.Path))
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		if e.Code == CodeNativeFailure && e.Detail == "" && e.GoType == "" {
			b.WriteString(": ")
			b.WriteString(e.Cause.Error())
		} else {
			b.WriteString(" (caused by: ")
			b.WriteString(e.Cause.Error())
			b.WriteByte(')')
		}
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Message returns the text a host should see for this error.
// Native failures surface the native message verbatim.
func (e *Error) Message() string {
	if e.Code == CodeNativeFailure && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Error()
}

// joinPath renders a path, attaching index segments ("[2]") to their parent.
func joinPath(path []string) string {
	var b strings.Builder
	for i, seg := range path {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// CodeOf extracts the code from an error chain.
// Returns "" if err does not wrap an *Error.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// UnsupportedType creates an UNSUPPORTED_TYPE error for a host value of the given Go type.
func UnsupportedType(path []string, goType string) *Error {
	return &Error{
		Code:   CodeUnsupportedType,
		Path:   clonePath(path),
		GoType: goType,
		Detail: "no corresponding dynamic value shape",
	}
}

// InvalidNumber creates an INVALID_NUMBER error.
func InvalidNumber(path []string, detail string) *Error {
	return &Error{
		Code:   CodeInvalidNumber,
		Path:   clonePath(path),
		Detail: detail,
	}
}

// Native wraps an error reported by the native engine.
// Returns nil for a nil error and leaves an existing *Error untouched.
func Native(err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Code: CodeNativeFailure, Cause: err}
}

// RuntimeConstruction creates the fatal RUNTIME_CONSTRUCTION_FAILURE error.
func RuntimeConstruction(cause error) *Error {
	return &Error{
		Code:   CodeRuntimeConstruction,
		Detail: "process-wide runtime could not be built",
		Cause:  cause,
	}
}

// clonePath copies a path so later appends by the caller cannot alias it.
func clonePath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}
