// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package errors provides typed errors for building and submitting coverage reports.
//
// Errors fall into two tiers. Validation errors are raised while a report is
// being constructed and are never worth retrying. Submission errors are raised
// by the client and carry the HTTP status and raw body where available so the
// caller can decide whether to try again.
package errors

import (
	"errors"
	"fmt"
)

// Kind represents the category of error.
type Kind int

const (
	// KindEmptyPath indicates a source file without a name.
	KindEmptyPath Kind = iota
	// KindNegativeHitCount indicates a line hit count below zero.
	KindNegativeHitCount
	// KindMalformedBranch indicates a branch tuple outside the file or with negative fields.
	KindMalformedBranch
	// KindDuplicatePath indicates a source file added twice to the same report.
	KindDuplicatePath
	// KindInvalidIdentity indicates a report without exactly one identity mode.
	KindInvalidIdentity
	// KindNoSourceFiles indicates a report finalized without any source file.
	KindNoSourceFiles

	// KindRejected indicates the service answered 4xx.
	KindRejected
	// KindTransient indicates a 5xx answer or a transport failure.
	KindTransient
	// KindUnexpectedResponse indicates a 2xx answer the client could not understand.
	KindUnexpectedResponse
	// KindCancelled indicates the caller cancelled the submission.
	KindCancelled
	// KindEncoding indicates the report could not be encoded.
	KindEncoding

	// KindConfig indicates an invalid client configuration.
	KindConfig
)

// Tier groups kinds by the phase that produces them.
type Tier int

const (
	TierValidation Tier = iota
	TierSubmission
	TierConfig
)

// Tier returns the phase a kind belongs to.
func (k Kind) Tier() Tier {
	switch {
	case k <= KindNoSourceFiles:
		return TierValidation
	case k <= KindEncoding:
		return TierSubmission
	default:
		return TierConfig
	}
}

func (k Kind) String() string {
	switch k {
	case KindEmptyPath:
		return "EMPTY_PATH"
	case KindNegativeHitCount:
		return "NEGATIVE_HIT_COUNT"
	case KindMalformedBranch:
		return "MALFORMED_BRANCH"
	case KindDuplicatePath:
		return "DUPLICATE_PATH"
	case KindInvalidIdentity:
		return "INVALID_IDENTITY"
	case KindNoSourceFiles:
		return "NO_SOURCE_FILES"
	case KindRejected:
		return "REJECTED"
	case KindTransient:
		return "TRANSIENT"
	case KindUnexpectedResponse:
		return "UNEXPECTED_RESPONSE_SHAPE"
	case KindCancelled:
		return "CANCELLED"
	case KindEncoding:
		return "ENCODING"
	case KindConfig:
		return "CONFIG"
	default:
		return "UNKNOWN"
	}
}

// Error is the error type returned by every coveralls operation.
type Error struct {
	Kind    Kind
	Message string

	// StatusCode is the HTTP status of the response, 0 when none was received.
	StatusCode int
	// Body is the raw response body, verbatim up to 1 MiB. A longer body is
	// cut there and Context["truncated"] is set.
	Body string
	// Timeout is set when a transient failure was caused by a deadline.
	Timeout bool

	Cause   error
	Context map[string]interface{}
}

// Error returns the error message
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if err == nil || !errors.As(err, &e) {
		return nil, false
	}
	return e, true
}

// IsType checks if an error is of a specific kind
func IsType(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// IsValidation reports whether err was raised while building a report.
func IsValidation(err error) bool {
	e, ok := As(err)
	return ok && e.Kind.Tier() == TierValidation
}

// IsRetryable returns true if the error is transient and retryable
func IsRetryable(err error) bool {
	return IsType(err, KindTransient)
}

// IsTimeout reports whether err is a transient failure caused by a deadline.
func IsTimeout(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindTransient && e.Timeout
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if e, ok := As(err); ok {
		return e.StatusCode
	}
	return 0
}

// Convenience functions for common errors

// Validation creates a construction-time error of the given kind.
func Validation(kind Kind, message string) *Error {
	return New(kind, message, nil)
}

// Rejected creates an error for a 4xx answer.
func Rejected(status int, body string) *Error {
	e := New(KindRejected, "report rejected by coverage service", nil)
	e.StatusCode = status
	e.Body = body
	return e
}

// Transient creates an error for a 5xx answer (status > 0) or a transport failure.
func Transient(status int, body string, cause error) *Error {
	msg := "coverage service unavailable"
	if status == 0 {
		msg = "failed to reach coverage service"
	}
	e := New(KindTransient, msg, cause)
	e.StatusCode = status
	e.Body = body
	return e
}

// TimeoutError creates a transient error for an exceeded deadline.
func TimeoutError(cause error) *Error {
	e := New(KindTransient, "timed out waiting for coverage service", cause)
	e.Timeout = true
	return e
}

// UnexpectedResponse creates an error for a 2xx answer without an acknowledgment.
func UnexpectedResponse(status int, body string, cause error) *Error {
	e := New(KindUnexpectedResponse, "unexpected response from coverage service", cause)
	e.StatusCode = status
	e.Body = body
	return e
}

// Cancelled creates an error for a submission the caller cancelled.
func Cancelled(cause error) *Error {
	return New(KindCancelled, "submission cancelled", cause)
}

// ConfigError creates a configuration error
func ConfigError(message string, cause error) *Error {
	return New(KindConfig, message, cause)
}
