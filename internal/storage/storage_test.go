package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
)

type backendFactory func(t *testing.T) Storage

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": func(t *testing.T) Storage {
			return NewMemoryStorage()
		},
		"file": func(t *testing.T) Storage {
			s, err := NewFileStorage(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Storage {
			s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "kv.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStorageContract(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			t.Cleanup(func() { _ = s.Close() })

			_, ok, err := s.GetItem("mars_user")
			require.NoError(t, err)
			assert.False(t, ok, "absent key should report ok=false")

			require.NoError(t, s.SetItem("mars_user", `{"email":"a@b.c"}`))
			v, ok, err := s.GetItem("mars_user")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"email":"a@b.c"}`, v)

			require.NoError(t, s.SetItem("mars_user", "second"))
			v, _, err = s.GetItem("mars_user")
			require.NoError(t, err)
			assert.Equal(t, "second", v, "SetItem should overwrite")

			require.NoError(t, s.RemoveItem("mars_user"))
			_, ok, err = s.GetItem("mars_user")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.RemoveItem("mars_user"), "removing an absent key succeeds")
		})
	}
}

func TestStorageRejectsInvalidKeys(t *testing.T) {
	keys := []string{"", "../escape", "a/b", ".hidden", "with space"}

	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			t.Cleanup(func() { _ = s.Close() })

			for _, key := range keys {
				assert.ErrorIs(t, s.SetItem(key, "v"), ErrInvalidKey, "key %q", key)
				_, _, err := s.GetItem(key)
				assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
				assert.ErrorIs(t, s.RemoveItem(key), ErrInvalidKey, "key %q", key)
			}
		})
	}
}

func TestStorageConcurrentWrites(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			t.Cleanup(func() { _ = s.Close() })

			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, s.SetItem("counter", "value"))
				}()
			}
			wg.Wait()

			v, ok, err := s.GetItem("counter")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "value", v)
		})
	}
}

func TestFileStoragePermissionsAndLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	require.NoError(t, s.SetItem("mars_user", "{}"))

	path := s.KeyPath("mars_user")
	assert.Equal(t, filepath.Join(dir, "mars_user.json"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should be left behind")
}

func TestFileStorageKeyForPath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	tests := []struct {
		path    string
		wantKey string
		wantOK  bool
	}{
		{filepath.Join(dir, "mars_user.json"), "mars_user", true},
		{filepath.Join(dir, ".tmp-123"), "", false},
		{filepath.Join(dir, "notes.txt"), "", false},
		{filepath.Join(dir, "sub", "mars_user.json"), "", false},
	}

	for _, tt := range tests {
		key, ok := s.KeyForPath(tt.path)
		assert.Equal(t, tt.wantOK, ok, tt.path)
		assert.Equal(t, tt.wantKey, key, tt.path)
	}
}

func TestSQLiteStoragePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.SetItem("mars_user", "persisted"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	v, ok, err := reopened.GetItem("mars_user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		check   func(t *testing.T, s Storage)
	}{
		{"file", func(t *testing.T, s Storage) {
			fs, ok := s.(*FileStorage)
			require.True(t, ok)
			assert.Equal(t, filepath.Join(dir, "storage"), fs.Dir())
		}},
		{"sqlite", func(t *testing.T, s Storage) {
			assert.IsType(t, &SQLiteStorage{}, s)
			assert.FileExists(t, filepath.Join(dir, SQLiteFileName))
		}},
		{"memory", func(t *testing.T, s Storage) {
			assert.IsType(t, &MemoryStorage{}, s)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(tt.backend, dir)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			tt.check(t, s)
		})
	}

	_, err := Open("redis", dir)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageBackend))
}

func TestFileStorageReplaceResetsPermissions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	path := s.KeyPath("mars_user")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, s.SetItem("mars_user", "new"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	v, ok, err := s.GetItem("mars_user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", v)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
