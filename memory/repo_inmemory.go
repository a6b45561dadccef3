package memory

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// InMemoryRepo keeps memories in process memory; nothing survives a restart.
type InMemoryRepo struct {
	mu       sync.RWMutex
	memories []*Memory
}

var _ Repo = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{}
}

func (r *InMemoryRepo) Insert(_ context.Context, m *Memory) error {
	if m == nil || m.ID == "" {
		return errors.New("[InMemoryRepo.Insert] memory id cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memories = append(r.memories, m.Clone())
	return nil
}

func (r *InMemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.memories {
		if m.ID == id {
			r.memories = append(r.memories[:i], r.memories[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepo) Search(_ context.Context, q SearchQuery) ([]*Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Filter(r.memories, q), nil
}

func (r *InMemoryRepo) List(_ context.Context, limit, offset int) ([]*Memory, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Window(r.memories, limit, offset), len(r.memories), nil
}

func (r *InMemoryRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.memories), nil
}

func (r *InMemoryRepo) Backend() string {
	return BackendMemory
}
