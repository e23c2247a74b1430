package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
	"github.com/felixgeelhaar/mars-auth/internal/storage"
)

func googleSession() *auth.Session {
	return &auth.Session{
		Email:       "user@gmail.com",
		DisplayName: "Google User",
		UID:         "google_user_1",
		AuthMethod:  auth.MethodGoogle,
		PhotoURL:    "https://via.placeholder.com/40",
	}
}

func TestStoreRoundTrip(t *testing.T) {
	backend := storage.NewMemoryStorage()
	store := NewStore(backend)

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, store.Save(googleSession()))

	raw, ok, err := backend.GetItem(StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{
		"email": "user@gmail.com",
		"displayName": "Google User",
		"uid": "google_user_1",
		"authMethod": "google",
		"photoURL": "https://via.placeholder.com/40"
	}`, raw)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, googleSession(), loaded)

	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStoreReadsRecordWithoutPhoto(t *testing.T) {
	backend := storage.NewMemoryStorage()
	require.NoError(t, backend.SetItem(StorageKey,
		`{"email":"a@b.c","displayName":"a","uid":"user_1","authMethod":"email"}`))

	sess, err := NewStore(backend).Load()
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", sess.Email)
	assert.Empty(t, sess.PhotoURL)
}

func TestStoreCorruptRecord(t *testing.T) {
	tests := map[string]string{
		"not json":       "{oops",
		"missing fields": `{"email":"a@b.c"}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			backend := storage.NewMemoryStorage()
			require.NoError(t, backend.SetItem(StorageKey, raw))

			_, err := NewStore(backend).Load()
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionCorrupt))
		})
	}
}

func TestStoreRejectsInvalidSession(t *testing.T) {
	err := NewStore(storage.NewMemoryStorage()).Save(&auth.Session{Email: "a@b.c"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionPersist))
}

type brokenStorage struct {
	storage.Storage
}

func (brokenStorage) SetItem(key, value string) error { return errors.New("read-only filesystem") }
func (brokenStorage) RemoveItem(key string) error     { return errors.New("read-only filesystem") }

func TestManagerSetAndClear(t *testing.T) {
	m := NewManager(NewStore(storage.NewMemoryStorage()), nil)
	assert.Nil(t, m.Current())

	require.NoError(t, m.Set(googleSession()))
	assert.Equal(t, googleSession(), m.Current())

	cur := m.Current()
	cur.Email = "mutated"
	assert.Equal(t, "user@gmail.com", m.Current().Email, "Current must return a copy")

	require.NoError(t, m.Clear())
	assert.Nil(t, m.Current())

	// clearing with no session is fine
	require.NoError(t, m.Clear())
}

func TestManagerSetFailureKeepsCurrent(t *testing.T) {
	backend := storage.NewMemoryStorage()
	m := NewManager(NewStore(backend), nil)
	require.NoError(t, m.Set(googleSession()))

	broken := NewManager(NewStore(brokenStorage{backend}), nil)
	broken.Adopt(googleSession())

	err := broken.Set(auth.NewCredentialSession("other@example.com"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSessionPersist))
	assert.Equal(t, "user@gmail.com", broken.Current().Email)
}

func TestManagerClearFailureStillForgets(t *testing.T) {
	m := NewManager(NewStore(brokenStorage{storage.NewMemoryStorage()}), nil)
	m.Adopt(googleSession())

	require.Error(t, m.Clear())
	assert.Nil(t, m.Current())
}

func TestManagerRestore(t *testing.T) {
	backend := storage.NewMemoryStorage()
	require.NoError(t, NewStore(backend).Save(googleSession()))

	m := NewManager(NewStore(backend), nil)
	sess, err := m.Restore()
	require.NoError(t, err)
	assert.Equal(t, googleSession(), sess)
	assert.Equal(t, googleSession(), m.Current())
}

func TestManagerRestoreDiscardsCorruptRecord(t *testing.T) {
	backend := storage.NewMemoryStorage()
	require.NoError(t, backend.SetItem(StorageKey, "garbage"))

	m := NewManager(NewStore(backend), nil)
	sess, err := m.Restore()
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.Nil(t, m.Current())

	_, ok, err := backend.GetItem(StorageKey)
	require.NoError(t, err)
	assert.False(t, ok, "corrupt record should be removed")
}
