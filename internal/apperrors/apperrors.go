// Package apperrors defines the application error taxonomy. Every failure
// returned to a caller carries a stable kind so handlers can map it to an
// HTTP status without comparing message strings.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable error category exposed to API clients.
type Kind string

const (
	KindNotFound           Kind = "NotFound"
	KindDuplicateName      Kind = "DuplicateName"
	KindInvalidState       Kind = "InvalidState"
	KindAlreadyCompleted   Kind = "AlreadyCompleted"
	KindRoomConflict       Kind = "RoomConflict"
	KindAdmissionNotActive Kind = "AdmissionNotActive"
	KindHasPendingBookings Kind = "HasPendingBookings"
	KindValidation         Kind = "Validation"
	KindInternal           Kind = "Internal"
)

// Error is a typed application error with a stable kind and a human message.
type Error struct {
	Kind    Kind
	Message string

	// ConflictingProcedureID is set for RoomConflict so the caller can
	// investigate the colliding booking.
	ConflictingProcedureID uint

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an application error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an application error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// RoomConflict creates the conflict error for a colliding booking.
func RoomConflict(conflictingProcedureID uint) *Error {
	return &Error{
		Kind:                   KindRoomConflict,
		Message:                fmt.Sprintf("room is already booked by procedure %d in the requested interval", conflictingProcedureID),
		ConflictingProcedureID: conflictingProcedureID,
	}
}

// KindOf extracts the kind from an error chain, defaulting to Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the HTTP status code returned to clients.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateName, KindRoomConflict, KindHasPendingBookings:
		return http.StatusConflict
	case KindInvalidState, KindAlreadyCompleted, KindAdmissionNotActive, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
