// Package domainerrors defines the coded error vocabulary shared by services
// and the HTTP layer. Handlers branch on codes, never on message strings.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a failure class. Guard denial codes are part of the wire
// contract and must not change casing.
type Code string

const (
	CodeSelfTarget      Code = "self_target"
	CodeIncognito       Code = "incognito"
	CodeBlocked         Code = "blocked"
	CodePeerHidden      Code = "peer_hidden"
	CodeConsentRequired Code = "CONSENT_REQUIRED"
	CodePaymentRequired Code = "PAYMENT_REQUIRED"

	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeConflict        Code = "CONFLICT"
	CodeDuplicateReport Code = "duplicate_report"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"
)

// Error couples a code with a human-readable message. The message is safe to
// show callers for every code except CodeInternal.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err, defaulting to CodeInternal for plain
// errors so unexpected failures never leak details.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-facing message from err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "Internal server error"
}

// IsGuardDenial reports whether code is one of the guard-chain denial codes.
func IsGuardDenial(code Code) bool {
	switch code {
	case CodeSelfTarget, CodeIncognito, CodeBlocked, CodePeerHidden,
		CodeConsentRequired, CodePaymentRequired:
		return true
	}
	return false
}

// ToHTTPStatus maps a code to its response status. Guard denials that hide
// the specific relationship all map to 403; consent and entitlement carry
// their own statuses.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeSelfTarget, CodeIncognito, CodeBlocked, CodePeerHidden:
		return http.StatusForbidden
	case CodeConsentRequired, CodeConflict, CodeDuplicateReport:
		return http.StatusConflict
	case CodePaymentRequired:
		return http.StatusPaymentRequired
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
