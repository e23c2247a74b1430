package cmd

import (
	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/config"
	"github.com/felixgeelhaar/mars-auth/internal/controller"
	"github.com/felixgeelhaar/mars-auth/internal/log"
	"github.com/felixgeelhaar/mars-auth/internal/session"
	"github.com/felixgeelhaar/mars-auth/internal/storage"
)

// app holds everything a command needs to run the session controller.
type app struct {
	cfg        *config.Config
	logger     *log.Logger
	store      storage.Storage
	sessions   *session.Manager
	provider   auth.Provider
	federators []string
	closers    []func()
}

// newApp opens storage and builds the provider described by cfg.
func newApp(cfg *config.Config, logger *log.Logger) (*app, error) {
	dir, err := cfg.ResolvedDataDir()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Storage.Backend, dir)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		sessions:   session.NewManager(session.NewStore(store), logger),
		provider:   provider,
		federators: provider.Federators().IDs(),
	}
	a.closers = append(a.closers, func() { _ = store.Close() })
	return a, nil
}

// setupApp loads config, configures logging and builds the app. The
// returned cleanup must be deferred.
func setupApp(mirrorLogs bool) (*app, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, func() {}, err
	}
	logger, logCleanup := setupLogging(cfg, mirrorLogs || debugFlag)

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to start")
		logCleanup()
		return nil, func() {}, err
	}
	logger.Debug("starting",
		"storage", cfg.Storage.Backend,
		"provider", cfg.Provider.Kind,
		"federators", federatorsAttr(a.federators),
	)
	return a, func() {
		a.Close()
		logCleanup()
	}, nil
}

func federatorsAttr(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) controllerConfig() controller.Config {
	return controller.Config{
		HomePath:      a.cfg.Session.HomePath,
		AuthPath:      a.cfg.Session.AuthPath,
		RedirectDelay: a.cfg.Session.RedirectDelay,
		ErrorTimeout:  a.cfg.Session.ErrorTimeout,
	}
}

// newWatcher returns a record watcher, or nil when watching is disabled or
// the backend is not file based.
func (a *app) newWatcher() *session.Watcher {
	if !a.cfg.Session.Watch {
		return nil
	}
	files, ok := a.store.(*storage.FileStorage)
	if !ok {
		a.logger.Debug("session watching needs file storage", "storage", a.cfg.Storage.Backend)
		return nil
	}
	w, err := session.NewWatcher(a.sessions.Store(), files, a.logger)
	if err != nil {
		a.logger.WithError(err).Warn("session watching disabled")
		return nil
	}
	a.closers = append(a.closers, func() { _ = w.Close() })
	return w
}
