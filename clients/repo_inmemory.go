package clients

import (
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	clients map[string]*Client
	lock    sync.RWMutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		clients: make(map[string]*Client),
	}
}

func (r *InMemoryRepo) Insert(_ context.Context, client *Client) error {
	if client == nil || client.ID == "" {
		return errors.New("client id cannot be empty")
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if _, exists := r.clients[client.ID]; exists {
		return errors.Errorf("client %s already exists", client.ID)
	}
	r.clients[client.ID] = clone(client)
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, clientID string) (*Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	client, ok := r.clients[clientID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(client), nil
}

func clone(c *Client) *Client {
	cp := *c
	cp.SecretHash = slices.Clone(c.SecretHash)
	cp.RedirectURIs = slices.Clone(c.RedirectURIs)
	cp.GrantTypes = slices.Clone(c.GrantTypes)
	cp.ResponseTypes = slices.Clone(c.ResponseTypes)
	return &cp
}
