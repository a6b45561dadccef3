package oauthmodel

import "net/url"

// TokenRequest holds parameters for the OAuth2 token request.
// This represents the form-encoded body sent to the /oauth/token endpoint.
type TokenRequest struct {
	// GrantType must be "authorization_code".
	GrantType GrantType

	// Code is the authorization code received from the authorization endpoint.
	// Usage: Exchanged once for a token, then becomes invalid
	Code string

	// RedirectURI must equal the redirect URI the code was issued for, when sent.
	RedirectURI string

	// ClientID identifies the OAuth2 client making the request.
	ClientID string

	// ClientSecret is the secret issued at registration.
	// Security: Never log or expose this value
	ClientSecret string

	// CodeVerifier is the PKCE code verifier that matches the code_challenge.
	CodeVerifier string

	// Issuer is the issuer advertised to the caller in discovery. It is set by
	// the server, never read from the form, and becomes the token's iss claim.
	Issuer string
}

// TokenRequestFromForm reads the token request from a parsed form.
func TokenRequestFromForm(form url.Values) TokenRequest {
	return TokenRequest{
		GrantType:    GrantType(form.Get("grant_type")),
		Code:         form.Get("code"),
		RedirectURI:  form.Get("redirect_uri"),
		ClientID:     form.Get("client_id"),
		ClientSecret: form.Get("client_secret"),
		CodeVerifier: form.Get("code_verifier"),
	}
}

// TokenResponse is the token endpoint response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}
