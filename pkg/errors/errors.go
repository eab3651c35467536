package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Denial errors returned by the document upload authorization rules.
// Every branch of the decision sequence maps onto exactly one of these.
var (
	ErrUnknownDocument          = New("UNKNOWN_DOCUMENT", http.StatusBadRequest, "document is not required for this paper")
	ErrVariantNotAllowed        = New("VARIANT_NOT_ALLOWED", http.StatusBadRequest, "variant is not accepted for this document")
	ErrInvalidVariantForUpload  = New("INVALID_VARIANT_FOR_UPLOAD", http.StatusBadRequest, "generated documents cannot be uploaded directly")
	ErrOutsideSubmissionWindow  = New("OUTSIDE_SUBMISSION_WINDOW", http.StatusForbidden, "submission period is closed")
	ErrMissingGeneratedDocument = New("MISSING_GENERATED_DOCUMENT", http.StatusConflict, "generated document must exist before signing")
	ErrAlreadySigned            = New("ALREADY_SIGNED", http.StatusConflict, "a signed version already exists")
	ErrAlreadyUploaded          = New("ALREADY_UPLOADED", http.StatusConflict, "document already uploaded")
	ErrPaperFrozen              = New("PAPER_FROZEN", http.StatusConflict, "paper has been validated and its documents are locked")
	ErrContentTypeNotAccepted   = New("CONTENT_TYPE_NOT_ACCEPTED", http.StatusUnsupportedMediaType, "content type is not accepted for this document")
	ErrStorageFailure           = New("STORAGE_FAILURE", http.StatusInternalServerError, "failed to persist document payload")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same domain code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
