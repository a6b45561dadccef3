package clients

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const clientSecretLength = 32

var (
	defaultGrantTypes    = []string{"authorization_code"}
	defaultResponseTypes = []string{"code"}
)

const defaultScope = "read write"

// Registry creates and looks up dynamically registered clients.
type Registry struct {
	repo       Repo
	bcryptCost int
	nowTime    func() time.Time
}

type RegistryOption func(*Registry)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowTime = nowFunc
	}
}

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) RegistryOption {
	return func(r *Registry) {
		r.bcryptCost = cost
	}
}

func NewRegistry(repo Repo, options ...RegistryOption) *Registry {
	r := &Registry{
		repo:       repo,
		bcryptCost: bcrypt.DefaultCost,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Register creates a client with a fresh id and secret. Only client_name is
// validated; redirect URIs are stored as given and matched exactly later.
func (r *Registry) Register(ctx context.Context, req RegistrationRequest) (*Registration, error) {
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return nil, ErrMissingName
	}

	// The requested method is recorded as given. Every client still receives a
	// secret and the token endpoint accepts it by post or basic auth.
	authMethod := strings.TrimSpace(req.TokenEndpointAuthMethod)
	if authMethod == "" {
		authMethod = AuthMethodClientSecretPost
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, errors.Wrap(err, "[Registry.Register] generateSecret")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), r.bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "[Registry.Register] bcrypt.GenerateFromPassword")
	}

	client := &Client{
		ID:                      ClientIDPrefix + strings.ReplaceAll(uuid.New().String(), "-", ""),
		SecretHash:              hash,
		Name:                    name,
		RedirectURIs:            nonNil(req.RedirectURIs),
		GrantTypes:              orDefault(req.GrantTypes, defaultGrantTypes),
		ResponseTypes:           orDefault(req.ResponseTypes, defaultResponseTypes),
		Scope:                   req.Scope,
		TokenEndpointAuthMethod: authMethod,
		CreatedAt:               r.nowTime().UTC(),
	}
	if strings.TrimSpace(client.Scope) == "" {
		client.Scope = defaultScope
	}

	if err := r.repo.Insert(ctx, client); err != nil {
		return nil, errors.Wrap(err, "[Registry.Register] repo.Insert")
	}

	return &Registration{
		PublicClient:          *client.Public(),
		ClientSecret:          secret,
		ClientIDIssuedAt:      client.CreatedAt.Unix(),
		ClientSecretExpiresAt: 0,
	}, nil
}

// Lookup returns the full record or ErrNotFound.
func (r *Registry) Lookup(ctx context.Context, clientID string) (*Client, error) {
	if clientID == "" {
		return nil, ErrNotFound
	}
	return r.repo.Get(ctx, clientID)
}

// Describe is Lookup without any secret material.
func (r *Registry) Describe(ctx context.Context, clientID string) (*PublicClient, error) {
	client, err := r.Lookup(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return client.Public(), nil
}

// Authenticate checks a client_id/client_secret pair. Every failure is ErrInvalidClient.
func (r *Registry) Authenticate(ctx context.Context, clientID, secret string) (*Client, error) {
	client, err := r.Lookup(ctx, clientID)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidClient, "unknown client")
	}
	if secret == "" || bcrypt.CompareHashAndPassword(client.SecretHash, []byte(secret)) != nil {
		return nil, errors.Wrap(ErrInvalidClient, "client secret incorrect")
	}
	return client, nil
}

func generateSecret() (string, error) {
	b := make([]byte, clientSecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return append([]string(nil), fallback...)
	}
	return append([]string(nil), values...)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return append([]string(nil), values...)
}
