package oauthmodel

import "net/url"

// AuthorizationParameters holds parameters for the OAuth2 authorization request.
// These are received as query parameters at the /oauth/authorize endpoint.
type AuthorizationParameters struct {
	// ClientID identifies the application requesting authorization.
	// Validated against: the client registry
	ClientID string

	// ResponseType specifies what the authorization endpoint should return.
	// Only "code" is supported.
	ResponseType ResponseType

	// RedirectURI is where the authorization response will be sent.
	// Must exactly match a registered URI; defaults to the first registered URI when omitted.
	RedirectURI string

	// Scope specifies the permissions being requested (space separated, free text).
	// Defaults to the scope registered for the client.
	Scope string

	// State is an opaque value echoed back in the redirect.
	State string

	// CodeChallenge is the optional PKCE challenge derived from code_verifier.
	CodeChallenge string

	// CodeChallengeMethod specifies how code_challenge was derived ("S256" or "plain").
	// Default: "plain" when a challenge is sent without a method
	CodeChallengeMethod CodeMethodType
}

// AuthorizationParametersFromQuery reads the authorize request from a query string.
func AuthorizationParametersFromQuery(q url.Values) *AuthorizationParameters {
	return &AuthorizationParameters{
		ClientID:            q.Get("client_id"),
		ResponseType:        ResponseType(q.Get("response_type")),
		RedirectURI:         q.Get("redirect_uri"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: CodeMethodType(q.Get("code_challenge_method")),
	}
}
