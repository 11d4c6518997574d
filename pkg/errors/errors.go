package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups error codes into the categories clients react to.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
	KindDependency Kind = "dependency"
	KindInternal   Kind = "internal"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeSlotUnavailable   = "SLOT_UNAVAILABLE"
	CodeDuplicateSlot     = "DUPLICATE_SLOT"
	CodeSlotConflict      = "SLOT_CONFLICT"
	CodeForbidden         = "FORBIDDEN"
	CodeReceiverNotInChat = "RECEIVER_NOT_IN_CHAT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeDependency        = "DEPENDENCY_FAILURE"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeInternal          = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Kind derives the error category from the HTTP status.
func (e *AppError) Kind() Kind {
	switch e.Status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusForbidden, http.StatusUnauthorized:
		return KindForbidden
	case http.StatusServiceUnavailable:
		return KindDependency
	default:
		return KindInternal
	}
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func ReceiverNotInChat(receiver, chatID string) *AppError {
	return &AppError{
		Code:    CodeReceiverNotInChat,
		Message: fmt.Sprintf("%s is not a participant of chat %s", receiver, chatID),
		Status:  http.StatusForbidden,
	}
}

func SlotUnavailable() *AppError {
	return &AppError{
		Code:    CodeSlotUnavailable,
		Message: "Time slot not available",
		Status:  http.StatusConflict,
	}
}

func DuplicateSlot() *AppError {
	return &AppError{
		Code:    CodeDuplicateSlot,
		Message: "A slot already exists at this date and time",
		Status:  http.StatusConflict,
	}
}

func SlotConflict() *AppError {
	return &AppError{
		Code:    CodeSlotConflict,
		Message: "Another slot already occupies the requested time",
		Status:  http.StatusConflict,
	}
}

func Dependency(message string, err error) *AppError {
	return &AppError{
		Code:    CodeDependency,
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
		Err:     nil,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// KindOf reports the kind of err; errors that are not AppErrors are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return KindInternal
}
