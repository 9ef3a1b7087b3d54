package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies one entry of the error taxonomy.
type ErrorCode string

const (
	CodeNetwork        ErrorCode = "NETWORK_ERROR"
	CodeUpstreamFormat ErrorCode = "UPSTREAM_FORMAT_ERROR"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
)

// One user-facing message per code. Upstream bodies never reach users.
var messages = map[ErrorCode]string{
	CodeNetwork:        "The museum catalog is unreachable, please try again later",
	CodeUpstreamFormat: "The museum catalog returned an unexpected response",
	CodeNotFound:       "Museum not found",
	CodeValidation:     "Invalid search criteria",
}

// Error is the structured error surfaced by the catalog layer.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so errors.Is(err, ErrNotFound) works for any NOT_FOUND error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNetwork        = &Error{Code: CodeNetwork, Message: messages[CodeNetwork]}
	ErrUpstreamFormat = &Error{Code: CodeUpstreamFormat, Message: messages[CodeUpstreamFormat]}
	ErrNotFound       = &Error{Code: CodeNotFound, Message: messages[CodeNotFound]}
	ErrValidation     = &Error{Code: CodeValidation, Message: messages[CodeValidation]}
)

func NewNetworkError(err error) *Error {
	e := &Error{Code: CodeNetwork, Message: messages[CodeNetwork], Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func NewUpstreamFormatError(details string) *Error {
	return &Error{Code: CodeUpstreamFormat, Message: messages[CodeUpstreamFormat], Details: details}
}

func NewNotFoundError(id string) *Error {
	return &Error{Code: CodeNotFound, Message: messages[CodeNotFound], Details: fmt.Sprintf("id: %s", id)}
}

func NewValidationError(field, reason string) *Error {
	return &Error{Code: CodeValidation, Message: messages[CodeValidation], Details: field + " " + reason}
}

// Recoverable reports whether err should trigger the mock-catalog fallback.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrUpstreamFormat)
}

// UserMessage returns the fixed human-readable message for err's category.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		if m, ok := messages[de.Code]; ok {
			return m
		}
	}
	return "Unexpected error"
}
