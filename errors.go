package main

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind identifies the class of failure a storage operation produced,
// surfaced across the HTTP boundary as a stable string (see statusFor).
type ErrorKind string

const (
	KindInvalidName              ErrorKind = "InvalidName"
	KindInvalidKey               ErrorKind = "InvalidKey"
	KindInvalidDeduplicationMode ErrorKind = "InvalidDeduplicationMode"
	KindInvalidMetadata          ErrorKind = "InvalidMetadata"
	KindNotFound                 ErrorKind = "NotFound"
	KindAlreadyExists            ErrorKind = "AlreadyExists"
	KindNotEmpty                 ErrorKind = "NotEmpty"
	KindDuplicateContent         ErrorKind = "DuplicateContent"
	KindHasReferences            ErrorKind = "HasReferences"
	KindPreconditionFailed       ErrorKind = "PreconditionFailed"
	KindDanglingReference        ErrorKind = "DanglingReference"
	KindDataMissing              ErrorKind = "DataMissing"
	KindIoFailure                ErrorKind = "IoFailure"
)

// StorageError is the single error type every engine operation returns on
// failure. Kind drives the HTTP status mapping at the transport boundary;
// Cause, when present, carries the underlying OS/JSON error for logging.
type StorageError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

func newErr(kind ErrorKind, message string) *StorageError {
	return &StorageError{Kind: kind, Message: message}
}

func wrapErr(kind ErrorKind, message string, cause error) *StorageError {
	return &StorageError{Kind: kind, Message: message, Cause: cause}
}

// statusFor maps an ErrorKind to the HTTP status spec.md §7 assigns it.
func statusFor(kind ErrorKind) int {
	switch kind {
	case KindInvalidName, KindInvalidKey, KindInvalidDeduplicationMode,
		KindInvalidMetadata, KindAlreadyExists, KindNotEmpty,
		KindDuplicateContent, KindHasReferences, KindPreconditionFailed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDanglingReference, KindDataMissing, KindIoFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// kindOf extracts the ErrorKind from err if it is (or wraps) a *StorageError,
// defaulting to KindIoFailure for anything else.
func kindOf(err error) ErrorKind {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindIoFailure
}
