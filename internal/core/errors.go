package core

import (
	"errors"
	"fmt"
)

// ValidationError carries a message meant to be shown to the user as is.
// The operation that returned it changed nothing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrEmptyMessage       = &ValidationError{Message: "Please enter a message."}
	ErrMissingMedication  = &ValidationError{Message: "Please fill in medication name and dosage."}
	ErrMissingAppointment = &ValidationError{Message: "Please fill in appointment title and date."}
	ErrMissingSymptom     = &ValidationError{Message: "Please describe your symptom."}
	ErrNotEnoughSymptoms  = &ValidationError{Message: "Log more than 3 symptoms to analyze patterns."}
	ErrUnsupportedUpload  = &ValidationError{Message: "Please upload a PDF or text file."}
	ErrMalformedUpload    = &ValidationError{Message: "The upload could not be read. Please try again."}
	ErrNoDocumentText     = &ValidationError{Message: "No text could be extracted from the document."}
)

// FileTooLargeError rejects an upload before any extraction happens.
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("File size exceeds %s limit. Please upload a smaller file.", HumanSize(e.Limit))
}

// HumanSize formats a byte count the way upload limits are shown to users.
func HumanSize(n int64) string {
	const mib = 1024 * 1024
	switch {
	case n >= mib && n%mib == 0:
		return fmt.Sprintf("%dMB", n/mib)
	case n >= 1024 && n%1024 == 0:
		return fmt.Sprintf("%dKB", n/1024)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
