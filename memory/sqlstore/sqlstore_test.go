package sqlstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jrsteele09/ha-memory-server/memory"
	"github.com/jrsteele09/ha-memory-server/memory/sqlstore"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *sqlstore.Store, items ...*memory.Memory) {
	t.Helper()
	for _, m := range items {
		require.NoError(t, s.Insert(context.Background(), m))
	}
}

func mem(id, content string, created time.Time, tags ...string) *memory.Memory {
	return &memory.Memory{
		ID:        id,
		Content:   content,
		Metadata:  map[string]any{"id": id},
		Tags:      tags,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestStore_SearchAndList(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Unix(1_700_000_000, 0).UTC()

	seed(t, s,
		mem("1", "Garage door opens at 7", base, "garage", "schedule"),
		mem("2", "Thermostat set to 21", base.Add(time.Second), "climate"),
		mem("3", "garage freezer 100% full", base.Add(2*time.Second), "garage"),
	)

	found, err := s.Search(ctx, memory.SearchQuery{Query: "GARAGE", Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "3", found[0].ID)
	require.Equal(t, "1", found[1].ID)
	require.Equal(t, []string{"garage"}, found[0].Tags)
	require.Equal(t, "3", found[0].Metadata["id"])

	found, err = s.Search(ctx, memory.SearchQuery{Tags: []string{"garage", "schedule"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "1", found[0].ID)

	found, err = s.Search(ctx, memory.SearchQuery{Query: "100%", Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = s.Search(ctx, memory.SearchQuery{Query: "0_", Limit: 10})
	require.NoError(t, err)
	require.Empty(t, found)

	found, err = s.Search(ctx, memory.SearchQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "3", found[0].ID)

	page, total, err := s.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page, 2)
	require.Equal(t, "2", page[0].ID)
	require.Equal(t, "1", page[1].ID)
}

func TestStore_SearchFoldsNonASCII(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Unix(1_700_000_000, 0).UTC()

	seed(t, s,
		mem("1", "ÉCLAIRAGE du salon", base),
		mem("2", "Küche Licht", base.Add(time.Second)),
		mem("3", "éclairage jardin", base.Add(2*time.Second)),
	)

	found, err := s.Search(ctx, memory.SearchQuery{Query: "éclairage", Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "3", found[0].ID)
	require.Equal(t, "1", found[1].ID)

	found, err = s.Search(ctx, memory.SearchQuery{Query: "KÜCHE", Limit: 1})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "2", found[0].ID)

	found, err = s.Search(ctx, memory.SearchQuery{Query: "é", Limit: 1})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "3", found[0].ID)
}

func TestStore_SameTimestampKeepsInsertionOrder(t *testing.T) {
	s := newStore(t)
	at := time.Unix(1_700_000_000, 0).UTC()
	for i := 0; i < 3; i++ {
		seed(t, s, mem(fmt.Sprint(i), "same", at))
	}

	page, _, err := s.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Equal(t, "2", page[0].ID)
	require.Equal(t, "0", page[2].ID)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seed(t, s, mem("a", "note", time.Now().UTC()))

	require.NoError(t, s.Delete(ctx, "a"))
	require.ErrorIs(t, s.Delete(ctx, "a"), memory.ErrNotFound)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestStore_DuplicateID(t *testing.T) {
	s := newStore(t)
	seed(t, s, mem("a", "note", time.Now().UTC()))
	require.Error(t, s.Insert(context.Background(), mem("a", "again", time.Now().UTC())))
}

func TestStore_WithService(t *testing.T) {
	ctx := context.Background()
	svc, err := memory.NewService(newStore(t))
	require.NoError(t, err)

	_, err = svc.Store(ctx, memory.StoreRequest{Content: "abc"})
	require.NoError(t, err)

	res, err := svc.Search(ctx, memory.SearchQuery{Query: "ab"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	require.Equal(t, "abc", res.Memories[0].Content)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, memory.BackendSQLite, stats.Backend)
	require.Equal(t, memory.ModeFallback, stats.Mode)
}

func TestPath(t *testing.T) {
	require.Equal(t, "/data/memories.db", sqlstore.Path("/data"))
}
