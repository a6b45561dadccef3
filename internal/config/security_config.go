package config

type SecurityConfig interface {
	GetAPIKeyEnabled() bool
	GetAPIKey() string
	GetRequirePKCE() bool
}

type Security struct {
	APIKeyEnabled bool   `env:"API_KEY_ENABLED"`
	APIKey        string `env:"API_KEY"`
	RequirePKCE   bool   `env:"REQUIRE_PKCE"`
}

var _ SecurityConfig = Security{}

func (s Security) GetAPIKeyEnabled() bool {
	return s.APIKeyEnabled
}

func (s Security) GetAPIKey() string {
	return s.APIKey
}

func (s Security) GetRequirePKCE() bool {
	return s.RequirePKCE
}
