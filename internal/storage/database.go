package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
)

// SchemaVersion is bumped whenever a collection or index is added.
const SchemaVersion = 3

// ErrNotInitialized is the cause reported for operations issued before Init.
var ErrNotInitialized = fmt.Errorf("store not initialized")

type schemaMeta struct {
	ID         uint `gorm:"primarykey"`
	Version    int
	MigratedAt time.Time
}

func (schemaMeta) TableName() string { return "schema_meta" }

// Store is the single connection handle to the local database. All
// collections are reached through it; each write commits on its own.
type Store struct {
	db          *gorm.DB
	initialized atomic.Bool
}

// Open opens the SQLite database at path. Collections are not created until
// Init is called.
func Open(path string) (*Store, error) {
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	// Enable WAL mode for concurrent read/write
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	return &Store{db: db}, nil
}

// Init creates missing collections and their indexes. It is a no-op when the
// recorded schema version is already current.
func (s *Store) Init(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	if db.Migrator().HasTable(&schemaMeta{}) {
		var meta schemaMeta
		if err := db.Take(&meta, 1).Error; err == nil && meta.Version == SchemaVersion {
			s.initialized.Store(true)
			return nil
		}
	}

	models := []interface{}{&schemaMeta{}, &Setting{}, &HistoryRecord{}}
	for _, c := range allCollections {
		models = append(models, collections[c].model())
	}
	if err := db.AutoMigrate(models...); err != nil {
		return apperrors.NewStorageError("init", fmt.Errorf("auto migrate: %w", err))
	}

	meta := schemaMeta{ID: 1, Version: SchemaVersion, MigratedAt: time.Now()}
	if err := db.Save(&meta).Error; err != nil {
		return apperrors.NewStorageError("init", fmt.Errorf("record schema version: %w", err))
	}

	s.initialized.Store(true)
	return nil
}

// Close releases the connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) conn(ctx context.Context, op string) (*gorm.DB, error) {
	if !s.initialized.Load() {
		return nil, apperrors.NewStorageError(op, ErrNotInitialized)
	}
	return s.db.WithContext(ctx), nil
}
