// Package session persists the single current-session record and keeps the
// in-memory copy the controller works with.
package session

import (
	"encoding/json"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
	"github.com/felixgeelhaar/mars-auth/internal/storage"
)

// StorageKey is the key of the persisted session record.
const StorageKey = "mars_user"

// Store reads and writes the session record.
type Store struct {
	storage storage.Storage
}

func NewStore(s storage.Storage) *Store {
	return &Store{storage: s}
}

// Load returns the persisted session, or nil when there is none.
func (s *Store) Load() (*auth.Session, error) {
	raw, ok, err := s.storage.GetItem(StorageKey)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageRead, StorageKey, err)
	}
	if !ok {
		return nil, nil
	}

	var sess auth.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, apperrors.NewSessionCorruptError(err)
	}
	if err := sess.Validate(); err != nil {
		return nil, apperrors.NewSessionCorruptError(err)
	}
	return &sess, nil
}

// Save replaces the record with sess.
func (s *Store) Save(sess *auth.Session) error {
	if err := sess.Validate(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSessionPersist, "refusing to persist invalid session", err)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSessionPersist, "failed to encode session", err)
	}
	if err := s.storage.SetItem(StorageKey, string(data)); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSessionPersist, "failed to persist session", err).
			WithSuggestion("Check that the data directory is writable")
	}
	return nil
}

// Clear removes the record. Clearing an absent record succeeds.
func (s *Store) Clear() error {
	if err := s.storage.RemoveItem(StorageKey); err != nil {
		return apperrors.NewStorageError(apperrors.ErrCodeStorageWrite, StorageKey, err)
	}
	return nil
}
