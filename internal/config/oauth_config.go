package config

import "time"

type OAuthConfig interface {
	GetOAuthEnabled() bool
	GetSigningSecret() string
	GetAuthCodeTimeout() time.Duration
	GetCodeGenerationLength() int
	GetDefaultAccessTokenExpiry() time.Duration
}

type OAuth struct {
	OAuthEnabled          bool   `env:"OAUTH_ENABLED"`
	Secret                string `env:"OAUTH_SECRET"`
	AccessTokenTTLMinutes int    `env:"ACCESS_TOKEN_TTL_MINUTES"`
	AuthCodeTTLMinutes    int    `env:"AUTH_CODE_TTL_MINUTES"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetOAuthEnabled() bool {
	return o.OAuthEnabled
}

// GetSigningSecret returns the HMAC secret for access tokens. When empty a random
// secret is generated at startup and issued tokens do not survive a restart.
func (o OAuth) GetSigningSecret() string {
	return o.Secret
}

func (o OAuth) GetAuthCodeTimeout() time.Duration {
	return time.Duration(o.AuthCodeTTLMinutes) * time.Minute
}

func (OAuth) GetCodeGenerationLength() int {
	return 32
}

func (o OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return time.Duration(o.AccessTokenTTLMinutes) * time.Minute
}
