// Package filestore persists memories as a JSON array in a single file.
//
// Every mutation reloads the file, applies the change and writes the whole list
// back through a temporary file and rename, while holding both an in-process
// mutex and an advisory lock on a sibling .lock file. Concurrent writers, in
// this process or another, therefore never lose each other's updates, and a
// crash mid-write leaves the previous file intact.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/jrsteele09/ha-memory-server/memory"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	FileName = "memories.json"

	lockTimeout       = 5 * time.Second
	lockRetryInterval = 50 * time.Millisecond
)

type Store struct {
	mu       sync.Mutex // one flock handle is shared, so in-process access is fully serialized
	path     string
	fileLock *flock.Flock
}

var _ memory.Repo = (*Store)(nil)

// New opens (creating if needed) the store file under dir.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("[filestore.New] storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "[filestore.New] create storage directory")
	}

	path := filepath.Join(dir, FileName)
	s := &Store{
		path:     path,
		fileLock: flock.New(path + ".lock"),
	}

	// Fail early on a corrupt file rather than on the first request.
	memories, err := s.read()
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("memories", len(memories)).Msg("File memory store opened")
	return s, nil
}

// Path is the location of the JSON file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Insert(ctx context.Context, m *memory.Memory) error {
	if m == nil || m.ID == "" {
		return errors.New("[filestore.Insert] memory id cannot be empty")
	}
	return s.update(ctx, func(memories []*memory.Memory) ([]*memory.Memory, error) {
		return append(memories, m.Clone()), nil
	})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.update(ctx, func(memories []*memory.Memory) ([]*memory.Memory, error) {
		for i, m := range memories {
			if m.ID == id {
				return append(memories[:i], memories[i+1:]...), nil
			}
		}
		return nil, memory.ErrNotFound
	})
}

func (s *Store) Search(ctx context.Context, q memory.SearchQuery) ([]*memory.Memory, error) {
	var found []*memory.Memory
	err := s.view(ctx, func(memories []*memory.Memory) {
		found = memory.Filter(memories, q)
	})
	return found, err
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]*memory.Memory, int, error) {
	var (
		page  []*memory.Memory
		total int
	)
	err := s.view(ctx, func(memories []*memory.Memory) {
		page = memory.Window(memories, limit, offset)
		total = len(memories)
	})
	return page, total, err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.view(ctx, func(memories []*memory.Memory) {
		count = len(memories)
	})
	return count, err
}

func (s *Store) Backend() string {
	return memory.BackendFile
}

func (s *Store) view(ctx context.Context, fn func([]*memory.Memory)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := s.fileLock.TryRLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return errors.Wrap(err, "[filestore] acquire read lock")
	}
	if !locked {
		return fmt.Errorf("[filestore] could not acquire read lock: timeout after %v", lockTimeout)
	}
	defer s.unlock()

	memories, err := s.read()
	if err != nil {
		return err
	}
	fn(memories)
	return nil
}

func (s *Store) update(ctx context.Context, fn func([]*memory.Memory) ([]*memory.Memory, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := s.fileLock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return errors.Wrap(err, "[filestore] acquire lock")
	}
	if !locked {
		return fmt.Errorf("[filestore] could not acquire lock: timeout after %v", lockTimeout)
	}
	defer s.unlock()

	memories, err := s.read()
	if err != nil {
		return err
	}
	updated, err := fn(memories)
	if err != nil {
		return err
	}
	return s.write(updated)
}

func (s *Store) unlock() {
	if err := s.fileLock.Unlock(); err != nil {
		log.Warn().Err(err).Str("path", s.fileLock.Path()).Msg("Failed to release memory store lock")
	}
}

func (s *Store) read() ([]*memory.Memory, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []*memory.Memory{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[filestore] read")
	}
	if len(data) == 0 {
		return []*memory.Memory{}, nil
	}

	var memories []*memory.Memory
	if err := json.Unmarshal(data, &memories); err != nil {
		return nil, errors.Wrapf(err, "[filestore] decode %s", s.path)
	}
	return memories, nil
}

func (s *Store) write(memories []*memory.Memory) error {
	data, err := json.MarshalIndent(memories, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filestore] encode")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), FileName+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "[filestore] create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore] write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore] sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore] close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "[filestore] rename")
	}
	return nil
}
