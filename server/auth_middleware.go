package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
	"github.com/jrsteele09/ha-memory-server/internal/metrics"
	"github.com/jrsteele09/ha-memory-server/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyAuthMethod stores how the request was authenticated
	ContextKeyAuthMethod ContextKey = "auth_method"
	// ContextKeyClaims stores parsed token claims
	ContextKeyClaims ContextKey = "claims"
)

// AuthMethod records which credential admitted a request.
type AuthMethod string

const (
	AuthMethodOAuth  AuthMethod = "oauth"
	AuthMethodAPIKey AuthMethod = "api_key"
	AuthMethodNone   AuthMethod = "none"
)

const HeaderAPIKey = "X-API-Key"

// AuthMethodFromContext returns the method set by RequireAuth, or "" outside it.
func AuthMethodFromContext(ctx context.Context) AuthMethod {
	method, _ := ctx.Value(ContextKeyAuthMethod).(AuthMethod)
	return method
}

// ClaimsFromContext returns the verified token claims for OAuth requests.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok
}

// RequireAuth admits a request by the first applicable rule:
//  1. a Bearer token, when OAuth is enabled, must verify;
//  2. an X-API-Key header, when the API key is enabled, must match;
//  3. with neither mechanism enabled every request passes;
//  4. anything else is 401 authentication_required.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			oauthEnabled := s.config.GetOAuthEnabled()
			apiKeyEnabled := s.config.GetAPIKeyEnabled()

			if raw, ok := bearerToken(r); ok && oauthEnabled {
				claims, err := s.auth.ValidateAccessToken(raw)
				if err != nil {
					s.metrics.RecordOAuthEvent(metrics.EventTokenRejected)
					code := "invalid_token"
					if apperrors.Is(err, apperrors.ErrTokenExpired) {
						code = "token_expired"
					}
					log.Debug().Err(err).Str("path", r.URL.Path).Msg("Bearer token rejected")
					w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer error="invalid_token", resource_metadata=%q`, s.resourceMetadataURL(r)))
					writeJSONError(w, code, err.Error(), http.StatusUnauthorized)
					return
				}
				ctx := context.WithValue(r.Context(), ContextKeyAuthMethod, AuthMethodOAuth)
				ctx = context.WithValue(ctx, ContextKeyClaims, claims)
				next(w, r.WithContext(ctx))
				return
			}

			if key := r.Header.Get(HeaderAPIKey); key != "" && apiKeyEnabled {
				if subtle.ConstantTimeCompare([]byte(key), []byte(s.config.GetAPIKey())) != 1 {
					log.Debug().Str("path", r.URL.Path).Msg("API key rejected")
					writeJSONError(w, "invalid_api_key", "invalid API key", http.StatusUnauthorized)
					return
				}
				next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyAuthMethod, AuthMethodAPIKey)))
				return
			}

			if !oauthEnabled && !apiKeyEnabled {
				next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyAuthMethod, AuthMethodNone)))
				return
			}

			challenge := "Bearer"
			if oauthEnabled {
				challenge = fmt.Sprintf(`Bearer resource_metadata=%q`, s.resourceMetadataURL(r))
			}
			w.Header().Set("WWW-Authenticate", challenge)
			writeJSONError(w, "authentication_required", "a bearer token or API key is required", http.StatusUnauthorized)
		}
	}
}

func (s *Server) resourceMetadataURL(r *http.Request) string {
	return s.baseURL(r) + RouteWellKnownProtectedResource
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
