// Package memory stores free-text memories with tags and metadata and answers
// substring searches over them. Persistence is pluggable through Repo.
package memory

import (
	"maps"
	"slices"
	"sort"
	"strings"
	"time"
)

// Backend names reported by Stats.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// Modes reported by Stats and the health endpoint.
const (
	ModeService  = "service"
	ModeFallback = "fallback"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
	DefaultListLimit   = 50
	MaxListLimit       = 500
)

// Memory is a stored record. It is created once and only ever removed, never edited.
type Memory struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	Tags      []string       `json:"tags"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Clone returns a copy that shares no slices or maps with m.
func (m *Memory) Clone() *Memory {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Tags = slices.Clone(m.Tags)
	cp.Metadata = maps.Clone(m.Metadata)
	return &cp
}

// HasTags reports whether every tag in tags is present on m.
func (m *Memory) HasTags(tags []string) bool {
	for _, tag := range tags {
		if !slices.Contains(m.Tags, tag) {
			return false
		}
	}
	return true
}

type StoreRequest struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
}

type SearchQuery struct {
	Query string
	Tags  []string
	Limit int
}

// Matches reports whether m satisfies the case-insensitive substring and tag filters of q.
func (q SearchQuery) Matches(m *Memory) bool {
	if q.Query != "" && !strings.Contains(strings.ToLower(m.Content), strings.ToLower(q.Query)) {
		return false
	}
	return m.HasTags(q.Tags)
}

type SearchResult struct {
	Memories []*Memory `json:"memories"`
	Total    int       `json:"total"`
}

type ListResult struct {
	Memories []*Memory `json:"memories"`
	Total    int       `json:"total"`
	Offset   int       `json:"offset"`
	Limit    int       `json:"limit"`
}

type Stats struct {
	Mode          string `json:"mode"`
	TotalMemories int    `json:"total_memories"`
	Backend       string `json:"backend"`
}

// SortNewestFirst orders memories by creation time, newest first. Records
// created at the same instant keep the later-inserted one first, assuming ms is
// in insertion order.
func SortNewestFirst(ms []*Memory) {
	slices.Reverse(ms)
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].CreatedAt.After(ms[j].CreatedAt)
	})
}

// Filter applies q to ms (in insertion order) and returns the newest-first, truncated matches.
func Filter(ms []*Memory, q SearchQuery) []*Memory {
	matched := make([]*Memory, 0)
	for _, m := range ms {
		if q.Matches(m) {
			matched = append(matched, m.Clone())
		}
	}
	SortNewestFirst(matched)
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched
}

// Window returns the newest-first page of ms (in insertion order) starting at offset.
func Window(ms []*Memory, limit, offset int) []*Memory {
	sorted := make([]*Memory, 0, len(ms))
	for _, m := range ms {
		sorted = append(sorted, m.Clone())
	}
	SortNewestFirst(sorted)
	if offset >= len(sorted) {
		return []*Memory{}
	}
	end := len(sorted)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return sorted[offset:end]
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}
