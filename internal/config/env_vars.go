package config

import (
	"fmt"
	"strings"
)

type EnvVars struct {
	Port     string `env:"PORT"`
	AppName  string `env:"APP_NAME"`
	Env      string `env:"ENV"`
	BaseURL  string `env:"BASE_URL"`
	LogLevel string `env:"LOG_LEVEL"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

// GetBaseURL returns the externally visible base URL (e.g. "http://homeassistant.local:8099").
// Empty means the issuer is derived from each request's host.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(e.BaseURL, "/")
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}
