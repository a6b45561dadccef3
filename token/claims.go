package token

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an access token. Subject is always the client ID;
// there is no end-user identity in this server.
type Claims struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Scopes splits the space-delimited scope claim.
func (c *Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}
