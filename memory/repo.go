package memory

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
)

var ErrNotFound = fmt.Errorf("memory %w", apperrors.ErrNotFound)

// Repo persists memories. Search and List receive limits already normalised by
// Service. Backends that assign their own identifiers update m in Insert.
type Repo interface {
	Insert(ctx context.Context, m *Memory) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q SearchQuery) ([]*Memory, error)
	List(ctx context.Context, limit, offset int) ([]*Memory, int, error)
	Count(ctx context.Context) (int, error)
	Backend() string
}
