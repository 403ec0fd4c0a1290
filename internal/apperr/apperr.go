// Package apperr defines the closed error taxonomy shared between the
// cinectl client and the opscinema backend. Every failure crossing the
// command boundary is one of these codes; transport-level surprises are
// normalized to CodeInternal at the boundary so typed code never sees an
// ambiguous shape.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies one failure class in the closed taxonomy.
type Code string

const (
	CodePermissionDenied      Code = "PERMISSION_DENIED"
	CodeValidationFailed      Code = "VALIDATION_FAILED"
	CodeNotFound              Code = "NOT_FOUND"
	CodeConflict              Code = "CONFLICT"
	CodePolicyBlocked         Code = "POLICY_BLOCKED"
	CodeNetworkBlocked        Code = "NETWORK_BLOCKED"
	CodeExportGateFailed      Code = "EXPORT_GATE_FAILED"
	CodeProviderSchemaInvalid Code = "PROVIDER_SCHEMA_INVALID"
	CodeIO                    Code = "IO"
	CodeDB                    Code = "DB"
	CodeJobCancelled          Code = "JOB_CANCELLED"
	CodeUnsupported           Code = "UNSUPPORTED"
	CodeInternal              Code = "INTERNAL"
)

// Valid reports whether c is one of the known codes.
func (c Code) Valid() bool {
	switch c {
	case CodePermissionDenied, CodeValidationFailed, CodeNotFound,
		CodeConflict, CodePolicyBlocked, CodeNetworkBlocked,
		CodeExportGateFailed, CodeProviderSchemaInvalid, CodeIO,
		CodeDB, CodeJobCancelled, CodeUnsupported, CodeInternal:
		return true
	}
	return false
}

// Error is the structured failure the backend returns and the client
// synthesizes locally (export gate rejections, boundary surprises).
type Error struct {
	Code        Code   `json:"code"`
	Message     string `json:"message"`
	Details     string `json:"details,omitempty"`
	Recoverable bool   `json:"recoverable"`
	ActionHint  string `json:"action_hint,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Internalf builds a non-recoverable INTERNAL error. Used where a response
// crossing the boundary does not match any recognized shape.
func Internalf(format string, args ...any) *Error {
	return &Error{
		Code:    CodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf extracts the taxonomy code from err, or CodeInternal if err is not
// an *Error. A nil err yields the empty code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given taxonomy code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// From returns err as an *Error, normalizing foreign errors to INTERNAL.
// Returns nil for a nil err.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internalf("%v", err)
}
