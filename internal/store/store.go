package store

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shelf-reader/internal/domain"
	apperrors "shelf-reader/pkg/errors"
)

// Store is the full local persistence surface: the annotation contract used
// by the reader core plus library-level document operations.
type Store interface {
	domain.AnnotationStore
	domain.LibraryStore
	Migrate() error
	Close() error
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open database", err)
	}
	return db, nil
}

// Migrate creates or updates the schema for all persisted entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Document{},
		&domain.Highlight{},
		&domain.Bookmark{},
		&domain.ReadingSettings{},
		&domain.ReadingSession{},
	)
}
