package filestore_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/ha-memory-server/memory"
	"github.com/jrsteele09/ha-memory-server/memory/filestore"
	"github.com/stretchr/testify/require"
)

func newMemory(id, content string, created time.Time, tags ...string) *memory.Memory {
	return &memory.Memory{
		ID:        id,
		Content:   content,
		Metadata:  map[string]any{"source": "test"},
		Tags:      tags,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	base := time.Unix(1_700_000_000, 0).UTC()

	s, err := filestore.New(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, filestore.FileName), s.Path())

	require.NoError(t, s.Insert(ctx, newMemory("a", "first note", base, "x")))
	require.NoError(t, s.Insert(ctx, newMemory("b", "second note", base.Add(time.Second))))

	reopened, err := filestore.New(dir)
	require.NoError(t, err)

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	found, err := reopened.Search(ctx, memory.SearchQuery{Query: "FIRST", Tags: []string{"x"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "a", found[0].ID)
	require.Equal(t, "test", found[0].Metadata["source"])
	require.True(t, base.Equal(found[0].CreatedAt))

	page, total, err := reopened.List(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, "b", page[0].ID)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Insert(ctx, newMemory("a", "note", time.Now())))
	require.NoError(t, s.Delete(ctx, "a"))
	require.ErrorIs(t, s.Delete(ctx, "a"), memory.ErrNotFound)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestStore_NoLostUpdates(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Two handles on the same file stand in for two processes.
	first, err := filestore.New(dir)
	require.NoError(t, err)
	second, err := filestore.New(dir)
	require.NoError(t, err)

	const perStore = 25
	var wg sync.WaitGroup
	for i := 0; i < perStore; i++ {
		for j, s := range []*filestore.Store{first, second} {
			wg.Add(1)
			go func(s *filestore.Store, id string) {
				defer wg.Done()
				if err := s.Insert(ctx, newMemory(id, "concurrent", time.Now())); err != nil {
					t.Error(err)
				}
			}(s, fmt.Sprintf("%d-%d", j, i))
		}
	}
	wg.Wait()

	count, err := first.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2*perStore, count)
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := filestore.New(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Insert(ctx, newMemory(fmt.Sprint(i), "note", time.Now())))
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestNew_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filestore.FileName), []byte("{not json"), 0o600))

	_, err := filestore.New(dir)
	require.Error(t, err)
}

func TestNew_EmptyFileIsEmptyStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filestore.FileName), nil, 0o600))

	s, err := filestore.New(dir)
	require.NoError(t, err)
	count, err := s.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}
