package storage

import (
	"path/filepath"

	"github.com/felixgeelhaar/mars-auth/internal/config"
	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
)

// SQLiteFileName is the database file used by the sqlite backend.
const SQLiteFileName = "mars.db"

// Open returns the backend named by config.Storage.Backend rooted at dir.
func Open(backend, dir string) (Storage, error) {
	switch backend {
	case config.BackendFile, "":
		s, err := NewFileStorage(filepath.Join(dir, "storage"))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeStorageOpen, "failed to open file storage", err)
		}
		return s, nil
	case config.BackendSQLite:
		s, err := NewSQLiteStorage(filepath.Join(dir, SQLiteFileName))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeStorageOpen, "failed to open sqlite storage", err)
		}
		return s, nil
	case config.BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, apperrors.New(apperrors.ErrCodeStorageBackend, "unknown storage backend: "+backend).
			WithSuggestion("Use one of: file, sqlite, memory")
	}
}
