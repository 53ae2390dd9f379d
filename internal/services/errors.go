package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

// Error kinds. Handlers map each kind to a status code.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrStorage          = errors.New("storage failure")
)

// User directory errors. Their text is safe to return to clients.
var (
	ErrUserAlreadyExists  = NewDirectoryError(ErrConflict, "User already exists")
	ErrAlreadyEnrolled    = NewDirectoryError(ErrConflict, "User is already enrolled in this course")
	ErrInvalidCredentials = NewDirectoryError(ErrUnauthorized, "Invalid credentials")
	ErrTeacherNotApproved = NewDirectoryError(ErrForbidden, "Teacher not approved")
	ErrUserNotFound       = NewDirectoryError(ErrNotFound, "User not found")
	ErrEnrollmentNotFound = NewDirectoryError(ErrNotFound, "User is not enrolled in the specified course")
	ErrNotATeacher        = NewDirectoryError(ErrValidationFailed, "User is not a teacher")
)

// DirectoryError is a user directory rule violation of a given kind
type DirectoryError struct {
	Kind    error
	Message string
}

func NewDirectoryError(kind error, message string) *DirectoryError {
	return &DirectoryError{Kind: kind, Message: message}
}

func (e *DirectoryError) Error() string {
	return e.Message
}

func (e *DirectoryError) Unwrap() error {
	return e.Kind
}

// ValidationFailure reports rejected input together with the offending fields
type ValidationFailure struct {
	Message string
	Fields  validator.ValidationErrors
}

func NewValidationFailure(message string, fields validator.ValidationErrors) *ValidationFailure {
	return &ValidationFailure{Message: message, Fields: fields}
}

func (e *ValidationFailure) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Fields.Error())
}

func (e *ValidationFailure) Unwrap() []error {
	if len(e.Fields) == 0 {
		return []error{ErrValidationFailed}
	}
	return []error{ErrValidationFailed, e.Fields}
}

// storageError wraps a driver error so callers can match ErrStorage
func storageError(operation string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, operation, err)
}

// onlyMissingFields reports whether every field error is a presence rule
func onlyMissingFields(fields validator.ValidationErrors) bool {
	for _, f := range fields {
		if f.Rule != "required" && f.Rule != "nonblank" {
			return false
		}
	}
	return true
}
