package engine

import (
	"errors"
	"fmt"
)

// Error represents an invalid request detected by the engine before any
// storage is touched.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Collection names the affected collection, if any.
	Collection string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeInvalidDocument indicates a document lacks a usable text or id field.
	ErrCodeInvalidDocument ErrorCode = "INVALID_DOCUMENT"

	// ErrCodeInvalidParams indicates splitter, model or search parameters are out of range.
	ErrCodeInvalidParams ErrorCode = "INVALID_PARAMS"

	// ErrCodeNotFound indicates a collection, splitter or model does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeClosed indicates the database has been closed.
	ErrCodeClosed ErrorCode = "CLOSED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("%s: %s (collection=%s)", e.Code, e.Message, e.Collection)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidDocument returns true if err is an invalid document error.
func IsInvalidDocument(err error) bool {
	return hasCode(err, ErrCodeInvalidDocument)
}

// IsInvalidParams returns true if err is an invalid parameter error.
func IsInvalidParams(err error) bool {
	return hasCode(err, ErrCodeInvalidParams)
}

// IsNotFound returns true if err reports a missing collection, splitter or model.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsClosed returns true if err reports use of a closed database.
func IsClosed(err error) bool {
	return hasCode(err, ErrCodeClosed)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func invalidDocument(collection string, index int, format string, args ...any) *Error {
	return &Error{
		Code:       ErrCodeInvalidDocument,
		Message:    fmt.Sprintf(format, args...),
		Collection: collection,
		Details:    map[string]string{"index": fmt.Sprintf("%d", index)},
	}
}

func invalidParams(collection, param string, err error) *Error {
	return &Error{
		Code:       ErrCodeInvalidParams,
		Message:    err.Error(),
		Collection: collection,
		Details:    map[string]string{"param": param},
	}
}

func notFound(collection, what string) *Error {
	return &Error{
		Code:       ErrCodeNotFound,
		Message:    what + " not found",
		Collection: collection,
	}
}
