package config

import "time"

type StorageConfig interface {
	GetStorageDir() string
	GetStorageBackend() string
	GetMemoryServiceURL() string
	GetMemoryServiceTimeout() time.Duration
}

type Storage struct {
	StorageDir     string        `env:"STORAGE_DIR"`
	Backend        string        `env:"STORAGE_BACKEND"`
	ServiceURL     string        `env:"MEMORY_SERVICE_URL"`
	ServiceTimeout time.Duration `env:"MEMORY_SERVICE_TIMEOUT"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageDir() string {
	return s.StorageDir
}

func (s Storage) GetStorageBackend() string {
	return s.Backend
}

func (s Storage) GetMemoryServiceURL() string {
	return s.ServiceURL
}

func (s Storage) GetMemoryServiceTimeout() time.Duration {
	return s.ServiceTimeout
}
