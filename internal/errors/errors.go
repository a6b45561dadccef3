package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the memory server
var (
	// Request errors
	ErrValidation  = errors.New("validation failed")
	ErrUnsupported = errors.New("unsupported operation")

	// Authentication errors
	ErrAuthentication = errors.New("authentication required")
	ErrInvalidAPIKey  = errors.New("invalid api key")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Client errors
	ErrInvalidClient      = errors.New("invalid client")
	ErrInvalidRedirectURI = errors.New("invalid redirect URI")

	// Authorization errors
	ErrInvalidGrant = errors.New("invalid grant")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
	ErrTimeout  = errors.New("timeout")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// HTTPStatus maps an error chain onto the status code used at the handler boundary.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrValidation), Is(err, ErrUnsupported), Is(err, ErrInvalidGrant), Is(err, ErrInvalidRedirectURI):
		return http.StatusBadRequest
	case Is(err, ErrAuthentication), Is(err, ErrInvalidAPIKey), Is(err, ErrInvalidToken), Is(err, ErrTokenExpired), Is(err, ErrInvalidClient):
		return http.StatusUnauthorized
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the short machine readable code for an error chain.
func Code(err error) string {
	switch {
	case Is(err, ErrValidation):
		return "validation_error"
	case Is(err, ErrUnsupported):
		return "unsupported_operation"
	case Is(err, ErrInvalidAPIKey):
		return "invalid_api_key"
	case Is(err, ErrTokenExpired):
		return "token_expired"
	case Is(err, ErrInvalidToken):
		return "invalid_token"
	case Is(err, ErrAuthentication):
		return "authentication_required"
	case Is(err, ErrInvalidClient):
		return "invalid_client"
	case Is(err, ErrInvalidGrant):
		return "invalid_grant"
	case Is(err, ErrInvalidRedirectURI):
		return "invalid_request"
	case Is(err, ErrNotFound):
		return "not_found"
	case Is(err, ErrTimeout):
		return "timeout"
	default:
		return "internal_error"
	}
}
