package session

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
	"github.com/felixgeelhaar/mars-auth/internal/log"
	"github.com/felixgeelhaar/mars-auth/internal/storage"
)

// DefaultDebounce coalesces the burst of events produced by an atomic
// replace (create temp, write, chmod, rename).
const DefaultDebounce = 50 * time.Millisecond

// Change is a re-read of the record after it changed on disk. Session is
// nil when the record was removed.
type Change struct {
	Session *auth.Session
	Err     error
}

// Watcher reports changes to the session record made by other processes.
// It only works with file storage.
type Watcher struct {
	watcher  *fsnotify.Watcher
	store    *Store
	files    *storage.FileStorage
	debounce time.Duration
	logger   *log.Logger
}

// NewWatcher watches the directory holding the record. Watching the
// directory rather than the file survives atomic renames.
func NewWatcher(store *Store, files *storage.FileStorage, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeSessionWatch, "failed to create watcher", err)
	}
	if err := fw.Add(files.Dir()); err != nil {
		fw.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeSessionWatch, "failed to watch storage directory", err)
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Watcher{
		watcher:  fw,
		store:    store,
		files:    files,
		debounce: DefaultDebounce,
		logger:   logger,
	}, nil
}

// Run delivers changes to notify until ctx is done or the watcher is
// closed. notify is called from Run's goroutine.
func (w *Watcher) Run(ctx context.Context, notify func(Change)) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if key, ok := w.files.KeyForPath(event.Name); !ok || key != StorageKey {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			sess, err := w.store.Load()
			if err != nil {
				w.logger.WithError(err).Warn("session record changed but could not be read")
			}
			notify(Change{Session: sess, Err: err})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("session watcher error")
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
