package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies failures surfaced to API clients.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidOrExpired   ErrorCode = "INVALID_OR_EXPIRED"
	CodeNotVerified        ErrorCode = "NOT_VERIFIED"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeRateLimited        ErrorCode = "RATE_LIMITED"
	CodeInternal           ErrorCode = "INTERNAL"
)

var statusByCode = map[ErrorCode]int{
	CodeValidation:         http.StatusBadRequest,
	CodeConflict:           http.StatusConflict,
	CodeNotFound:           http.StatusNotFound,
	CodeUnauthenticated:    http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeInvalidOrExpired:   http.StatusBadRequest,
	CodeNotVerified:        http.StatusBadRequest,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeInternal:           http.StatusInternalServerError,
}

// HTTPStatus maps a code to its response status. Unknown codes are 500.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is the typed error every layer below the handlers returns.
type Error struct {
	Code    ErrorCode
	Message string
	Details any
	cause   error
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError attaches a cause. The cause is logged, never rendered.
func WrapError(code ErrorCode, err error, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches sentinels by code and message so a wrapped copy of a
// sentinel still satisfies errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithDetails returns a copy carrying client-visible details.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// AsError extracts the typed error from a chain, or nil.
func AsError(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of err, CodeInternal when untyped.
func CodeOf(err error) ErrorCode {
	if typed := AsError(err); typed != nil {
		return typed.Code
	}
	return CodeInternal
}

// Generic storage errors produced by the repository layer
var (
	ErrNotFound = NewError(CodeNotFound, "resource not found")
	ErrConflict = NewError(CodeConflict, "resource already exists")
	ErrInvalid  = NewError(CodeValidation, "invalid data")
)

// User lifecycle errors
var (
	ErrUserExists         = NewError(CodeConflict, "user with this email or phone number already exists")
	ErrUserNotFound       = NewError(CodeNotFound, "user not found")
	ErrInvalidCredentials = NewError(CodeInvalidCredentials, "invalid credentials")
	ErrNotVerified        = NewError(CodeNotVerified, "user not verified")
	ErrAlreadyVerified    = NewError(CodeValidation, "user already verified")
	ErrInvalidOTP         = NewError(CodeInvalidOrExpired, "invalid or expired otp")
	ErrPasswordRequired   = NewError(CodeValidation, "password is required")
	ErrPasswordAlreadySet = NewError(CodeConflict, "password already set, log in instead")
	ErrAdminSignupDenied  = NewError(CodeValidation, "admin accounts cannot be created through sign-up")
)

// Auth gate errors
var (
	ErrUnauthenticated = NewError(CodeUnauthenticated, "authentication required")
	ErrInvalidToken    = NewError(CodeUnauthenticated, "invalid token")
	ErrSessionExpired  = NewError(CodeUnauthenticated, "session expired or invalid")
	ErrAdminRequired   = NewError(CodeForbidden, "access denied. admin privileges required")
)

// Auxiliary record errors
var (
	ErrUserInfoNotFound     = NewError(CodeNotFound, "user info not found")
	ErrAddressNotFound      = NewError(CodeNotFound, "user address not found")
	ErrLocationNotFound     = NewError(CodeNotFound, "user location not found")
	ErrInvalidCoordinates   = NewError(CodeValidation, "valid longitude and latitude are required")
	ErrInvalidRadius        = NewError(CodeValidation, "radius must be a positive number of meters within the allowed maximum")
	ErrCategoryNotFound     = NewError(CodeNotFound, "category not found")
	ErrCategoryExists       = NewError(CodeConflict, "category with this name already exists")
	ErrRateLimited          = NewError(CodeRateLimited, "too many requests, try again later")
	ErrInvalidAddressType   = NewError(CodeValidation, "invalid address type")
	ErrInvalidUserType      = NewError(CodeValidation, "invalid user type")
	ErrInvalidBirthDate     = NewError(CodeValidation, "birthDate must be formatted as YYYY-MM-DD")
	ErrPhoneOnlyLoginDenied = NewError(CodeValidation, "password is required to log in with a phone number")
)
