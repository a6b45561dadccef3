package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
	"github.com/jrsteele09/ha-memory-server/memory"
	"github.com/rs/zerolog/log"
)

func (s *Server) StoreMemory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req memory.StoreRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			writeAppError(w, apperrors.Wrapf(apperrors.ErrValidation, "request body must be a JSON object"))
			return
		}

		m, err := s.memories.Store(r.Context(), req)
		if err != nil {
			writeAppError(w, err)
			return
		}
		event := log.Debug().Str("memory_id", m.ID).Str("auth_method", string(AuthMethodFromContext(r.Context())))
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			event = event.Str("client_id", claims.ClientID).Strs("scopes", claims.Scopes())
		}
		event.Msg("Store request served")
		writeJSON(w, http.StatusOK, memory.StoreResponse{Success: true, MemoryID: m.ID, Memory: m})
	}
}

// SearchMemories accepts tags either comma separated or as repeated parameters.
func (s *Server) SearchMemories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, err := intParam(q.Get("limit"), "limit")
		if err != nil {
			writeAppError(w, err)
			return
		}

		result, err := s.memories.Search(r.Context(), memory.SearchQuery{
			Query: q.Get("query"),
			Tags:  splitTags(q["tags"]),
			Limit: limit,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) ListMemories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, err := intParam(q.Get("limit"), "limit")
		if err != nil {
			writeAppError(w, err)
			return
		}
		offset, err := intParam(q.Get("offset"), "offset")
		if err != nil {
			writeAppError(w, err)
			return
		}

		result, err := s.memories.List(r.Context(), limit, offset)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) DeleteMemory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.memories.Delete(r.Context(), r.PathValue("id")); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, memory.DeleteResponse{Success: true})
	}
}

func (s *Server) MemoryStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.memories.Stats(r.Context())
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// intParam parses an optional integer query parameter; empty means zero.
func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, apperrors.ErrValidation)
	}
	return n, nil
}

func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
