package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetCorsEnabled() bool
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// Storage backends understood by the memory service.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// Values is the flat set of settings read from the environment. Fields left unset
// in the environment keep the value from Defaults.
type Values struct {
	EnvVars
	Cors
	OAuth
	Security
	Storage
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Storage
}

var _ Config = mainConfig{}

// Defaults returns the settings used when nothing is configured.
func Defaults() Values {
	return Values{
		EnvVars: EnvVars{
			Port:     "8099",
			AppName:  "Memory Server",
			Env:      "DEV",
			LogLevel: "info",
		},
		Cors: Cors{
			CorsEnabled: true,
			Origins:     "*",
		},
		OAuth: OAuth{
			OAuthEnabled:          true,
			AccessTokenTTLMinutes: 60,
			AuthCodeTTLMinutes:    10,
		},
		Storage: Storage{
			StorageDir:     "/data",
			Backend:        BackendFile,
			ServiceTimeout: 30 * time.Second,
		},
	}
}

// New loads any .env files present in the working directory, overlays the process
// environment on Defaults and validates the result.
func New(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	v := Defaults()
	if err := envdecode.Decode(&v); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, errors.Wrap(err, "[config.New] envdecode.Decode")
	}
	return FromValues(v)
}

// FromValues validates v and wraps it as a Config.
func FromValues(v Values) (Config, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return mainConfig(v), nil
}

// Validate rejects combinations the server cannot start with.
func (v Values) Validate() error {
	if v.APIKeyEnabled && strings.TrimSpace(v.APIKey) == "" {
		return errors.New("API_KEY_ENABLED is set but API_KEY is empty")
	}
	if v.AccessTokenTTLMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL_MINUTES must be positive, got %d", v.AccessTokenTTLMinutes)
	}
	if v.AuthCodeTTLMinutes <= 0 {
		return fmt.Errorf("AUTH_CODE_TTL_MINUTES must be positive, got %d", v.AuthCodeTTLMinutes)
	}
	switch v.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendRemote:
		if v.ServiceURL == "" {
			return errors.New("STORAGE_BACKEND=remote requires MEMORY_SERVICE_URL")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", v.Backend)
	}
	if v.ServiceTimeout <= 0 {
		return fmt.Errorf("MEMORY_SERVICE_TIMEOUT must be positive, got %s", v.ServiceTimeout)
	}
	return nil
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "[config] godotenv.Load %s", f)
		}
	}
	return nil
}
