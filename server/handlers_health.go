package server

import (
	"net/http"
	"time"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Service      string    `json:"service"`
	Mode         string    `json:"mode"`
	OAuthEnabled bool      `json:"oauth_enabled"`
	AuthMethods  []string  `json:"auth_methods"`
}

func (s *Server) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:       "healthy",
			Timestamp:    s.nowTime().UTC(),
			Service:      s.config.GetAppName(),
			Mode:         s.memories.Mode(),
			OAuthEnabled: s.config.GetOAuthEnabled(),
			AuthMethods:  s.authMethods(),
		})
	}
}

// authMethods lists the credentials the memory API currently accepts.
func (s *Server) authMethods() []string {
	methods := []string{}
	if s.config.GetOAuthEnabled() {
		methods = append(methods, string(AuthMethodOAuth))
	}
	if s.config.GetAPIKeyEnabled() {
		methods = append(methods, string(AuthMethodAPIKey))
	}
	if len(methods) == 0 {
		methods = append(methods, string(AuthMethodNone))
	}
	return methods
}
