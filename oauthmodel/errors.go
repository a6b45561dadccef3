package oauthmodel

import (
	"fmt"
	"net/http"
)

// OAuth error codes (RFC 6749 section 5.2, RFC 7591 section 3.2.2).
const (
	ErrorInvalidRequest          = "invalid_request"
	ErrorInvalidClient           = "invalid_client"
	ErrorInvalidGrant            = "invalid_grant"
	ErrorUnsupportedGrantType    = "unsupported_grant_type"
	ErrorUnsupportedResponseType = "unsupported_response_type"
	ErrorInvalidClientMetadata   = "invalid_client_metadata"
	ErrorNotFound                = "not_found"
	ErrorServerError             = "server_error"
)

// Error is an OAuth protocol failure carrying the short code, a description and
// the HTTP status the handler should answer with.
type Error struct {
	Code        string
	Description string
	Status      int
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NewError(code string, status int, description string, cause error) *Error {
	return &Error{Code: code, Description: description, Status: status, cause: cause}
}

func InvalidRequest(description string) *Error {
	return NewError(ErrorInvalidRequest, http.StatusBadRequest, description, nil)
}

func InvalidClient(cause error) *Error {
	return NewError(ErrorInvalidClient, http.StatusUnauthorized, "client authentication failed", cause)
}

func InvalidGrant(description string, cause error) *Error {
	return NewError(ErrorInvalidGrant, http.StatusBadRequest, description, cause)
}

func UnsupportedGrantType(grantType GrantType) *Error {
	return NewError(ErrorUnsupportedGrantType, http.StatusBadRequest, fmt.Sprintf("grant_type %q is not supported", grantType), nil)
}

func UnsupportedResponseType(responseType ResponseType) *Error {
	return NewError(ErrorUnsupportedResponseType, http.StatusBadRequest, fmt.Sprintf("response_type %q is not supported", responseType), nil)
}

func ServerError(cause error) *Error {
	return NewError(ErrorServerError, http.StatusInternalServerError, "internal server error", cause)
}
