package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/ha-memory-server/auth"
	"github.com/jrsteele09/ha-memory-server/clients"
	"github.com/jrsteele09/ha-memory-server/oauthmodel"
	"github.com/rs/zerolog/log"
)

// WellKnownAuthorizationServer serves the RFC 8414 discovery document.
func (s *Server) WellKnownAuthorizationServer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.auth.Metadata(s.baseURL(r)))
	}
}

func (s *Server) WellKnownProtectedResource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.auth.ProtectedResource(s.baseURL(r)))
	}
}

// JWKS publishes an empty key set. Tokens are signed with a shared secret that
// is never exposed.
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]any{"keys": {}})
	}
}

// Register handles dynamic client registration.
func (s *Server) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clients.RegistrationRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			writeJSONError(w, oauthmodel.ErrorInvalidRequest, "request body must be a JSON object", http.StatusBadRequest)
			return
		}

		reg, err := s.auth.Register(r.Context(), req)
		if err != nil {
			writeOAuthError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusCreated, reg)
	}
}

// Authorize issues a code and redirects back to the client. There is no consent
// step; the operator is trusted.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := oauthmodel.AuthorizationParametersFromQuery(r.URL.Query())

		var location string
		var redirectErr error
		err := s.auth.Authorize(r.Context(), params, func(redirectURI, code, state string) {
			location, redirectErr = auth.RedirectURL(redirectURI, code, state)
		})
		if err != nil {
			log.Debug().Err(err).Str("client_id", params.ClientID).Msg("Authorization request rejected")
			writeOAuthError(w, err)
			return
		}
		if redirectErr != nil {
			writeOAuthError(w, oauthmodel.InvalidRequest("redirect_uri is not a valid URL"))
			return
		}
		http.Redirect(w, r, location, http.StatusFound)
	}
}

// Token exchanges an authorization code. Client credentials may come from the
// form body or HTTP Basic auth; Basic auth wins when both are present.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauthmodel.ErrorInvalidRequest, "Failed to parse form data", http.StatusBadRequest)
			return
		}

		tokenReq := oauthmodel.TokenRequestFromForm(r.PostForm)
		tokenReq.Issuer = s.baseURL(r)
		if id, secret, ok := basicClientCredentials(r); ok {
			tokenReq.ClientID = id
			tokenReq.ClientSecret = secret
		}

		tokenResponse, err := s.auth.Token(r.Context(), tokenReq)
		if err != nil {
			log.Debug().Err(err).Str("client_id", tokenReq.ClientID).Msg("Token request rejected")
			writeOAuthError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, http.StatusOK, tokenResponse)
	}
}

// ClientInfo returns the public record of a registered client.
func (s *Server) ClientInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := s.auth.ClientInfo(r.Context(), r.PathValue("client_id"))
		if err != nil {
			writeOAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

// basicClientCredentials reads client_secret_basic credentials, which are
// form-encoded before being base64 encoded (RFC 6749 section 2.3.1).
func basicClientCredentials(r *http.Request) (string, string, bool) {
	id, secret, ok := r.BasicAuth()
	if !ok {
		return "", "", false
	}
	if v, err := url.QueryUnescape(id); err == nil {
		id = v
	}
	if v, err := url.QueryUnescape(secret); err == nil {
		secret = v
	}
	return id, secret, true
}
