package service

import (
	"errors"
	"fmt"
)

const (
	ErrInternalServerError = "internal_server_error"
	ErrBadParameter        = "bad_parameter"
	ErrEntityNotFound      = "entity_not_found"
	ErrDuplicateEmail      = "duplicate_email"
	ErrInvalidCredentials  = "invalid_credentials"
	ErrAccessDenied        = "access_denied"
	ErrInvalidRole         = "invalid_role"
)

// AccountError is the error returned by the account service and the user stores.
// Message is safe to show to API consumers, Inner is not.
type AccountError struct {
	Code    string
	Message string
	Inner   error
}

func (e AccountError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e AccountError) Unwrap() error { return e.Inner }

func hasCode(err error, code string) bool {
	var e AccountError
	return errors.As(err, &e) && e.Code == code
}

func NewInternalServerError(message string, inner error) AccountError {
	return AccountError{Code: ErrInternalServerError, Message: message, Inner: inner}
}

func IsInternalServerError(err error) bool { return hasCode(err, ErrInternalServerError) }

func NewBadParameterError(message string, inner error) AccountError {
	return AccountError{Code: ErrBadParameter, Message: message, Inner: inner}
}

func IsBadParameter(err error) bool { return hasCode(err, ErrBadParameter) }

func NewEntityNotFoundError(message string, inner error) AccountError {
	return AccountError{Code: ErrEntityNotFound, Message: message, Inner: inner}
}

func IsEntityNotFound(err error) bool { return hasCode(err, ErrEntityNotFound) }

func NewDuplicateEmailError(message string, inner error) AccountError {
	return AccountError{Code: ErrDuplicateEmail, Message: message, Inner: inner}
}

func IsDuplicateEmail(err error) bool { return hasCode(err, ErrDuplicateEmail) }

func NewInvalidCredentialsError(message string, inner error) AccountError {
	return AccountError{Code: ErrInvalidCredentials, Message: message, Inner: inner}
}

func IsInvalidCredentials(err error) bool { return hasCode(err, ErrInvalidCredentials) }

func NewAccessDeniedError(message string, inner error) AccountError {
	return AccountError{Code: ErrAccessDenied, Message: message, Inner: inner}
}

func IsAccessDenied(err error) bool { return hasCode(err, ErrAccessDenied) }

func NewInvalidRoleError(message string, inner error) AccountError {
	return AccountError{Code: ErrInvalidRole, Message: message, Inner: inner}
}

func IsInvalidRole(err error) bool { return hasCode(err, ErrInvalidRole) }
