// Package errors defines the coded errors surfaced by zb-install.
//
// Every failure that reaches the user carries one of a small set of codes so
// the CLI (and tests) can tell a missing release apart from a network outage
// without string matching.
package errors

import "errors"

// Code identifies a structured error kind.
type Code string

const (
	CodeUnknown Code = "unknown"

	// CodeUnsupportedPlatform means host detection failed and no override was given.
	CodeUnsupportedPlatform Code = "unsupported_platform"
	// CodeNotFound means a requested release or tag does not exist.
	CodeNotFound Code = "not_found"
	// CodeAssetNotFound means the platform/signing combination is not published for a release.
	CodeAssetNotFound Code = "asset_not_found"
	// CodeNetwork covers transport failures and unexpected HTTP statuses.
	CodeNetwork Code = "network"
	// CodeIO covers local filesystem failures.
	CodeIO Code = "io"

	CodeConfiguration Code = "configuration"
	CodeVerification  Code = "verification"
)

// Error is an error with a machine-readable code plus message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

// Unwrap returns the wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// New wraps an error with a code and message.
func New(code Code, msg string, err error) Error {
	return Error{Code: code, Message: msg, Err: err}
}

// CodeOf walks the error chain and returns the first structured code found.
func CodeOf(err error) Code {
	var structured Error
	if errors.As(err, &structured) {
		return structured.Code
	}
	return CodeUnknown
}

// IsCode reports whether the error (or its unwrap chain) carries the code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
