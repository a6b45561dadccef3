package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/ha-memory-server/auth"
	"github.com/jrsteele09/ha-memory-server/authcode"
	"github.com/jrsteele09/ha-memory-server/clients"
	"github.com/jrsteele09/ha-memory-server/internal/config"
	"github.com/jrsteele09/ha-memory-server/internal/metrics"
	"github.com/jrsteele09/ha-memory-server/memory"
	"github.com/jrsteele09/ha-memory-server/memory/filestore"
	"github.com/jrsteele09/ha-memory-server/memory/remotestore"
	"github.com/jrsteele09/ha-memory-server/memory/sqlstore"
	"github.com/jrsteele09/ha-memory-server/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultMaintenanceInterval is how often expired authorization codes are purged.
const DefaultMaintenanceInterval = time.Minute

// Bootstrap builds the authorization service and memory service described by cfg
// and returns a server around them. The returned cleanup releases the storage
// backend and must be called after the server stops.
func Bootstrap(cfg config.Config, m *metrics.Metrics) (*Server, func() error, error) {
	var recorder metrics.Recorder = metrics.Noop{}
	if m != nil {
		recorder = m
	}

	authService, err := newAuthorizationService(cfg, recorder)
	if err != nil {
		return nil, nil, err
	}

	repo, cleanup, err := newMemoryRepo(cfg)
	if err != nil {
		return nil, nil, err
	}

	memories, err := memory.NewService(repo, memory.WithMetrics(recorder))
	if err != nil {
		_ = cleanup()
		return nil, nil, errors.Wrap(err, "[Bootstrap] memory.NewService")
	}

	s, err := New(cfg, authService, memories, WithMetrics(m))
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}

	log.Info().
		Str("backend", repo.Backend()).
		Str("mode", memories.Mode()).
		Bool("oauth_enabled", cfg.GetOAuthEnabled()).
		Bool("api_key_enabled", cfg.GetAPIKeyEnabled()).
		Msg("Memory server initialised")
	return s, cleanup, nil
}

func newAuthorizationService(cfg config.Config, recorder metrics.Recorder) (*auth.AuthorizationService, error) {
	codec, err := token.NewHMACCodec(cfg.GetSigningSecret(), token.WithIssuer(cfg.GetBaseURL()))
	if err != nil {
		return nil, errors.Wrap(err, "[Bootstrap] token.NewHMACCodec")
	}

	codes := authcode.NewStore(
		authcode.WithTTL(cfg.GetAuthCodeTimeout()),
		authcode.WithCodeLength(cfg.GetCodeGenerationLength()),
	)

	authService, err := auth.NewAuthorizationService(
		clients.NewRegistry(clients.NewInMemoryRepo()),
		codes,
		codec,
		auth.WithAccessTokenTTL(cfg.GetDefaultAccessTokenExpiry()),
		auth.WithRequirePKCE(cfg.GetRequirePKCE()),
		auth.WithMetrics(recorder),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Bootstrap] auth.NewAuthorizationService")
	}
	return authService, nil
}

func newMemoryRepo(cfg config.Config) (memory.Repo, func() error, error) {
	noop := func() error { return nil }

	switch backend := cfg.GetStorageBackend(); backend {
	case config.BackendMemory:
		return memory.NewInMemoryRepo(), noop, nil
	case config.BackendFile:
		store, err := filestore.New(cfg.GetStorageDir())
		if err != nil {
			return nil, nil, errors.Wrap(err, "[Bootstrap] filestore.New")
		}
		log.Info().Str("path", store.Path()).Msg("Using file memory store")
		return store, noop, nil
	case config.BackendSQLite:
		path := sqlstore.Path(cfg.GetStorageDir())
		store, err := sqlstore.New(path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "[Bootstrap] sqlstore.New")
		}
		log.Info().Str("path", path).Msg("Using sqlite memory store")
		return store, store.Close, nil
	case config.BackendRemote:
		client, err := remotestore.New(cfg.GetMemoryServiceURL(),
			remotestore.WithTimeout(cfg.GetMemoryServiceTimeout()),
			remotestore.WithHTTPClient(remoteHTTPClient()),
		)
		if err != nil {
			return nil, nil, errors.Wrap(err, "[Bootstrap] remotestore.New")
		}
		log.Info().Str("url", cfg.GetMemoryServiceURL()).Msg("Using remote memory service")
		return client, noop, nil
	default:
		return nil, nil, fmt.Errorf("[Bootstrap] unknown storage backend %q", backend)
	}
}

// remoteHTTPClient keeps idle connections to the single memory service host.
func remoteHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	transport.IdleConnTimeout = 90 * time.Second
	return &http.Client{Transport: transport}
}

// RunMaintenance purges expired authorization codes every interval until ctx is done.
func (s *Server) RunMaintenance(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultMaintenanceInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if purged := s.auth.PurgeExpiredCodes(); purged > 0 {
				log.Debug().Int("purged", purged).Msg("Expired authorization codes removed")
			}
		}
	}
}
