// Package sqlstore keeps memories in an embedded SQLite database through gorm.
package sqlstore

import (
	"context"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jrsteele09/ha-memory-server/memory"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const FileName = "memories.db"

// record is the table row. Tags and metadata are stored as JSON columns.
type record struct {
	ID        string         `gorm:"primaryKey;size:36"`
	Content   string         `gorm:"type:text;not null"`
	Metadata  map[string]any `gorm:"serializer:json"`
	Tags      []string       `gorm:"serializer:json"`
	Seq       int64          `gorm:"autoIncrement:false;index"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time
}

func (record) TableName() string {
	return "memories"
}

func fromMemory(m *memory.Memory) *record {
	return &record{
		ID:        m.ID,
		Content:   m.Content,
		Metadata:  m.Metadata,
		Tags:      m.Tags,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (r *record) toMemory() *memory.Memory {
	m := &memory.Memory{
		ID:        r.ID,
		Content:   r.Content,
		Metadata:  r.Metadata,
		Tags:      r.Tags,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m
}

type Store struct {
	db *gorm.DB
}

var _ memory.Repo = (*Store)(nil)

// New opens the database at dsn and migrates the schema. Use ":memory:" for a
// throwaway database or Path(dir) for the on-disk file.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[sqlstore.New] gorm.Open")
	}

	// SQLite allows a single writer; one connection also keeps ":memory:" databases shared.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "[sqlstore.New] db.DB")
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, errors.Wrap(err, "[sqlstore.New] AutoMigrate")
	}
	return &Store{db: db}, nil
}

// Path is the database file used for a storage directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Insert(ctx context.Context, m *memory.Memory) error {
	if m == nil || m.ID == "" {
		return errors.New("[sqlstore.Insert] memory id cannot be empty")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&record{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
			return errors.Wrap(err, "[sqlstore.Insert] next sequence")
		}
		row := fromMemory(m)
		row.Seq = maxSeq + 1
		if err := tx.Create(row).Error; err != nil {
			return errors.Wrap(err, "[sqlstore.Insert] create")
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&record{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "[sqlstore.Delete]")
	}
	if result.RowsAffected == 0 {
		return memory.ErrNotFound
	}
	return nil
}

func (s *Store) Search(ctx context.Context, q memory.SearchQuery) ([]*memory.Memory, error) {
	tx := s.newestFirst(ctx)
	// SQLite LOWER only folds ASCII. Other queries are matched in Go below.
	sqlMatch := isASCII(q.Query)
	if q.Query != "" && sqlMatch {
		tx = tx.Where("LOWER(content) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(q.Query))+"%")
	}
	if sqlMatch && len(q.Tags) == 0 && q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []record
	if err := tx.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "[sqlstore.Search]")
	}

	found := make([]*memory.Memory, 0, len(rows))
	for i := range rows {
		m := rows[i].toMemory()
		if !q.Matches(m) {
			continue
		}
		found = append(found, m)
		if q.Limit > 0 && len(found) == q.Limit {
			break
		}
	}
	return found, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]*memory.Memory, int, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	tx := s.newestFirst(ctx).Offset(offset)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []record
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "[sqlstore.List]")
	}

	page := make([]*memory.Memory, 0, len(rows))
	for i := range rows {
		page = append(page, rows[i].toMemory())
	}
	return page, total, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&record{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "[sqlstore.Count]")
	}
	return int(count), nil
}

func (s *Store) Backend() string {
	return memory.BackendSQLite
}

func (s *Store) newestFirst(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&record{}).Order("created_at DESC").Order("seq DESC")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
