package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
	"github.com/jrsteele09/ha-memory-server/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrEmptyContent = fmt.Errorf("content is required: %w", apperrors.ErrValidation)

// Memory operation names used for metrics.
const (
	OpStore  = "store"
	OpSearch = "search"
	OpList   = "list"
	OpDelete = "delete"
	OpStats  = "stats"
)

// Service validates requests and applies the search and pagination defaults
// before delegating to a Repo.
type Service struct {
	repo    Repo
	metrics metrics.Recorder
	nowTime func() time.Time
	newID   func() string
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithMetrics(recorder metrics.Recorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

func NewService(repo Repo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[memory.NewService] repo is required")
	}
	s := &Service{
		repo:    repo,
		metrics: metrics.Noop{},
		nowTime: time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Store creates a memory from req. Content must not be blank.
func (s *Service) Store(ctx context.Context, req StoreRequest) (*Memory, error) {
	m, err := s.store(ctx, req)
	s.metrics.RecordMemoryOperation(OpStore, err == nil)
	return m, err
}

func (s *Service) store(ctx context.Context, req StoreRequest) (*Memory, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}

	now := s.nowTime().UTC()
	m := &Memory{
		ID:        s.newID(),
		Content:   req.Content,
		Metadata:  req.Metadata,
		Tags:      NormalizeTags(req.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}

	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, errors.Wrap(err, "[Service.Store] repo.Insert")
	}
	log.Debug().Str("memory_id", m.ID).Int("tags", len(m.Tags)).Msg("Memory stored")
	return m.Clone(), nil
}

// Search returns matching memories, newest first. A zero limit means the
// default and anything above MaxSearchLimit is capped.
func (s *Service) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	q.Query = strings.TrimSpace(q.Query)
	q.Tags = NormalizeTags(q.Tags)
	q.Limit = clampLimit(q.Limit, DefaultSearchLimit, MaxSearchLimit)

	found, err := s.repo.Search(ctx, q)
	s.metrics.RecordMemoryOperation(OpSearch, err == nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Search] repo.Search")
	}
	return &SearchResult{Memories: found, Total: len(found)}, nil
}

// List returns a newest-first page along with the total number of memories.
func (s *Service) List(ctx context.Context, limit, offset int) (*ListResult, error) {
	limit = clampLimit(limit, DefaultListLimit, MaxListLimit)
	if offset < 0 {
		offset = 0
	}

	page, total, err := s.repo.List(ctx, limit, offset)
	s.metrics.RecordMemoryOperation(OpList, err == nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.List] repo.List")
	}
	return &ListResult{Memories: page, Total: total, Offset: offset, Limit: limit}, nil
}

// Delete removes a memory; unknown ids are ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.delete(ctx, id)
	s.metrics.RecordMemoryOperation(OpDelete, err == nil)
	return err
}

func (s *Service) delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "[Service.Delete] repo.Delete")
	}
	log.Debug().Str("memory_id", id).Msg("Memory deleted")
	return nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	count, err := s.repo.Count(ctx)
	s.metrics.RecordMemoryOperation(OpStats, err == nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Stats] repo.Count")
	}
	return &Stats{Mode: s.Mode(), TotalMemories: count, Backend: s.repo.Backend()}, nil
}

// Mode is "service" when an external memory service answers requests and
// "fallback" for the local backends.
func (s *Service) Mode() string {
	if s.repo.Backend() == BackendRemote {
		return ModeService
	}
	return ModeFallback
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
