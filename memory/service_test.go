package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
	"github.com/jrsteele09/ha-memory-server/internal/metrics"
	"github.com/jrsteele09/ha-memory-server/memory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// steppingClock advances one second per call so every stored memory has a distinct timestamp.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Unix(1_700_000_000, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newService(t *testing.T, options ...memory.ServiceOption) *memory.Service {
	t.Helper()
	svc, err := memory.NewService(memory.NewInMemoryRepo(), append([]memory.ServiceOption{memory.WithNowTime(steppingClock())}, options...)...)
	require.NoError(t, err)
	return svc
}

func TestService_Store(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	m, err := svc.Store(ctx, memory.StoreRequest{
		Content:  "The kitchen light is on a timer",
		Metadata: map[string]any{"room": "kitchen"},
		Tags:     []string{"home", " lights ", "home", ""},
	})
	require.NoError(t, err)

	_, err = uuid.Parse(m.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"home", "lights"}, m.Tags)
	require.Equal(t, "kitchen", m.Metadata["room"])
	require.False(t, m.CreatedAt.IsZero())
	require.Equal(t, m.CreatedAt, m.UpdatedAt)
}

func TestService_StoreRejectsEmptyContent(t *testing.T) {
	svc := newService(t)
	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.Store(context.Background(), memory.StoreRequest{Content: content})
		require.ErrorIs(t, err, memory.ErrEmptyContent)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	}
}

func TestService_StoreThenSearch(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Store(ctx, memory.StoreRequest{Content: "abc"})
	require.NoError(t, err)

	res, err := svc.Search(ctx, memory.SearchQuery{Query: "ab"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	require.Equal(t, "abc", res.Memories[0].Content)
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	for _, req := range []memory.StoreRequest{
		{Content: "Garage door opens at 7", Tags: []string{"garage", "schedule"}},
		{Content: "Thermostat set to 21", Tags: []string{"climate"}},
		{Content: "garage freezer needs defrosting", Tags: []string{"garage"}},
		{Content: "Lights off at midnight", Tags: []string{"schedule", "lights"}},
	} {
		_, err := svc.Store(ctx, req)
		require.NoError(t, err)
	}

	tests := map[string]struct {
		query memory.SearchQuery
		want  []string
	}{
		"case insensitive substring": {
			query: memory.SearchQuery{Query: "GARAGE"},
			want:  []string{"garage freezer needs defrosting", "Garage door opens at 7"},
		},
		"tags must all be present": {
			query: memory.SearchQuery{Tags: []string{"garage", "schedule"}},
			want:  []string{"Garage door opens at 7"},
		},
		"query and tag": {
			query: memory.SearchQuery{Query: "at", Tags: []string{"schedule"}},
			want:  []string{"Lights off at midnight", "Garage door opens at 7"},
		},
		"empty query matches all newest first": {
			query: memory.SearchQuery{},
			want: []string{
				"Lights off at midnight",
				"garage freezer needs defrosting",
				"Thermostat set to 21",
				"Garage door opens at 7",
			},
		},
		"limit truncates": {
			query: memory.SearchQuery{Limit: 1},
			want:  []string{"Lights off at midnight"},
		},
		"no match": {
			query: memory.SearchQuery{Query: "pool"},
			want:  []string{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := svc.Search(ctx, tt.query)
			require.NoError(t, err)
			got := make([]string, 0, len(res.Memories))
			for _, m := range res.Memories {
				got = append(got, m.Content)
			}
			require.Equal(t, tt.want, got)
			require.Equal(t, len(tt.want), res.Total)
		})
	}
}

func TestService_SearchLimits(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	for i := 0; i < memory.MaxSearchLimit+5; i++ {
		_, err := svc.Store(ctx, memory.StoreRequest{Content: fmt.Sprintf("note %d", i)})
		require.NoError(t, err)
	}

	res, err := svc.Search(ctx, memory.SearchQuery{Query: "note"})
	require.NoError(t, err)
	require.Len(t, res.Memories, memory.DefaultSearchLimit)

	res, err = svc.Search(ctx, memory.SearchQuery{Query: "note", Limit: 1000})
	require.NoError(t, err)
	require.Len(t, res.Memories, memory.MaxSearchLimit)
}

func TestService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		m, err := svc.Store(ctx, memory.StoreRequest{Content: fmt.Sprintf("memory %d", i)})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	page, err := svc.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Equal(t, 5, page.Total)
	require.Equal(t, 2, page.Limit)
	require.Equal(t, 1, page.Offset)
	require.Len(t, page.Memories, 2)
	require.Equal(t, "memory 3", page.Memories[0].Content)
	require.Equal(t, "memory 2", page.Memories[1].Content)

	defaults, err := svc.List(ctx, 0, -3)
	require.NoError(t, err)
	require.Equal(t, memory.DefaultListLimit, defaults.Limit)
	require.Equal(t, 0, defaults.Offset)
	require.Len(t, defaults.Memories, 5)

	beyond, err := svc.List(ctx, 10, 99)
	require.NoError(t, err)
	require.Empty(t, beyond.Memories)

	require.NoError(t, svc.Delete(ctx, ids[2]))
	require.ErrorIs(t, svc.Delete(ctx, ids[2]), memory.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, ""), apperrors.ErrNotFound)

	all, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 4, all.Total)
	for _, m := range all.Memories {
		require.NotEqual(t, ids[2], m.ID)
	}
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Store(ctx, memory.StoreRequest{Content: "one"})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalMemories)
	require.Equal(t, memory.BackendMemory, stats.Backend)
	require.Equal(t, memory.ModeFallback, stats.Mode)
}

func TestService_ReturnedMemoriesAreCopies(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	stored, err := svc.Store(ctx, memory.StoreRequest{Content: "original", Tags: []string{"a"}})
	require.NoError(t, err)
	stored.Tags[0] = "mutated"

	res, err := svc.Search(ctx, memory.SearchQuery{Query: "original"})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, res.Memories[0].Tags)
}

func TestService_ConcurrentStoresAreUnique(t *testing.T) {
	ctx := context.Background()
	svc, err := memory.NewService(memory.NewInMemoryRepo())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Store(ctx, memory.StoreRequest{Content: fmt.Sprintf("c%d", i)}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	all, err := svc.List(ctx, memory.MaxListLimit, 0)
	require.NoError(t, err)
	require.Equal(t, 50, all.Total)
	seen := map[string]struct{}{}
	for _, m := range all.Memories {
		seen[m.ID] = struct{}{}
	}
	require.Len(t, seen, 50)
}

func TestService_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	svc := newService(t, memory.WithMetrics(m))

	_, err := svc.Store(ctx, memory.StoreRequest{Content: "x"})
	require.NoError(t, err)
	_, err = svc.Store(ctx, memory.StoreRequest{Content: ""})
	require.Error(t, err)

	require.Equal(t, float64(1), testutil.ToFloat64(m.MemoryOpsTotal.WithLabelValues(memory.OpStore, "success")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.MemoryOpsTotal.WithLabelValues(memory.OpStore, "error")))
}
