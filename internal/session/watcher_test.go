package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/mars-auth/internal/storage"
)

func startWatcher(t *testing.T) (*storage.FileStorage, chan Change) {
	t.Helper()
	files, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	w, err := NewWatcher(NewStore(files), files, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan Change, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, func(c Change) { changes <- c })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return files, changes
}

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session change")
		return Change{}
	}
}

func TestWatcherReportsExternalWriteAndRemove(t *testing.T) {
	files, changes := startWatcher(t)
	other := NewStore(files) // another process writing the same directory

	require.NoError(t, other.Save(googleSession()))
	c := waitChange(t, changes)
	require.NoError(t, c.Err)
	require.NotNil(t, c.Session)
	assert.Equal(t, "google_user_1", c.Session.UID)

	require.NoError(t, other.Clear())
	c = waitChange(t, changes)
	require.NoError(t, c.Err)
	assert.Nil(t, c.Session)
}

func TestWatcherIgnoresOtherKeys(t *testing.T) {
	files, changes := startWatcher(t)

	require.NoError(t, files.SetItem("mars_accounts", "{}"))
	require.NoError(t, os.WriteFile(files.KeyPath("unrelated"), []byte("x"), 0o600))
	// A stray temp file named like the record is not the record.
	require.NoError(t, os.WriteFile(filepath.Join(files.Dir(), ".tmp-"+StorageKey+".json"), []byte("{}"), 0o600))

	select {
	case c := <-changes:
		t.Fatalf("unexpected change: %+v", c)
	case <-time.After(300 * time.Millisecond):
	}
}
