package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/log"
	"github.com/felixgeelhaar/mars-auth/internal/session"
)

// UI renders feedback. Calls are made from the controller goroutine and
// must not block.
type UI interface {
	SetLoading(control Control, label string)
	ClearLoading(control Control, label string)
	HideMessages()
	ShowError(message string)
	ShowSuccess(message string)
	ShowForm(view FormView)
}

// Navigator switches between the auth entry point and the home view.
type Navigator interface {
	Navigate(path string)
}

// StateObserver is implemented by UIs that render from full state
// snapshots in addition to effects.
type StateObserver interface {
	StateChanged(s State)
}

// ErrAlreadyRunning is returned when Run is called twice.
var ErrAlreadyRunning = errors.New("controller is already running")

const eventBuffer = 64

// signOutTimeout bounds the provider sign-out, which outlives the loop so
// that a remote session is revoked even when the caller stops right after
// signing out.
const signOutTimeout = 10 * time.Second

// Options configures a Controller. Provider and Sessions are required.
type Options struct {
	Provider  auth.Provider
	Sessions  *session.Manager
	UI        UI
	Navigator Navigator
	Scheduler Scheduler
	Config    Config
	// Watcher, when set, turns record changes made by other processes
	// into SessionChanged events.
	Watcher *session.Watcher
	Logger  *log.Logger
	// OnChange is called after every transition with the new state.
	OnChange func(ev Event, s State)
}

// Controller runs the machine on a single goroutine. Provider calls and
// timers run elsewhere and post their outcome back as events.
type Controller struct {
	machine   *Machine
	provider  auth.Provider
	sessions  *session.Manager
	ui        UI
	navigator Navigator
	scheduler Scheduler
	watcher   *session.Watcher
	logger    *log.Logger
	onChange  func(Event, State)

	events   chan Event
	queue    []Event
	stopping chan struct{}
	done     chan struct{}

	mu    sync.RWMutex
	state State

	startOnce sync.Once
	// timers holds the latest timer per event name. Scheduled events are
	// sequence-keyed, so an older timer of the same kind is obsolete.
	timers  map[string]Timer
	workers sync.WaitGroup
}

func New(opts Options) *Controller {
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}
	if opts.UI == nil {
		opts.UI = nopUI{}
	}
	if opts.Navigator == nil {
		opts.Navigator = nopNavigator{}
	}
	if opts.Config == (Config{}) {
		opts.Config = DefaultConfig()
	}
	return &Controller{
		machine:   NewMachine(opts.Config),
		provider:  opts.Provider,
		sessions:  opts.Sessions,
		ui:        opts.UI,
		navigator: opts.Navigator,
		scheduler: opts.Scheduler,
		watcher:   opts.Watcher,
		logger:    opts.Logger.With("component", "controller"),
		onChange:  opts.OnChange,
		events:    make(chan Event, eventBuffer),
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
		timers:    make(map[string]Timer),
		state:     Initial(),
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// Dispatch queues ev for the event loop. It is safe to call from any
// goroutine and reports false once the controller is stopping.
func (c *Controller) Dispatch(ev Event) bool {
	select {
	case <-c.stopping:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	case <-c.stopping:
		return false
	}
}

// Done is closed when Run returns, after every provider call and the
// provider sign-out have finished.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Run restores the persisted session, posts Load, and processes events
// until ctx is done. In-flight provider calls are cancelled and awaited
// before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	started := false
	c.startOnce.Do(func() { started = true })
	if !started {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		close(c.stopping)
		cancel()
		c.stopTimers()
		c.workers.Wait()
		close(c.done)
	}()

	persisted, err := c.sessions.Restore()
	if err != nil {
		c.logger.WithError(err).Warn("could not restore session")
	}
	c.restoreProvider(persisted)

	if c.watcher != nil {
		c.workers.Add(1)
		go func() {
			defer c.workers.Done()
			c.watcher.Run(ctx, c.onRecordChange)
		}()
	}

	c.step(ctx, Load{Persisted: persisted})

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			c.step(ctx, ev)
		}
	}
}

// step applies ev and every event its effects produce synchronously.
func (c *Controller) step(ctx context.Context, ev Event) {
	c.queue = append(c.queue, ev)
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.apply(ctx, next)
	}
}

func (c *Controller) apply(ctx context.Context, ev Event) {
	c.mu.RLock()
	from := c.state
	c.mu.RUnlock()

	to, effects := c.machine.Handle(from, ev)

	c.logger.Debug("transition",
		"event", ev.Name(),
		"from", string(from.Status()),
		"to", string(to.Status()),
		"effects", effectKinds(effects),
	)

	for _, eff := range effects {
		c.execute(ctx, eff)
	}

	// Published after the effects so a snapshot never runs ahead of the UI.
	c.mu.Lock()
	c.state = to
	c.mu.Unlock()

	snapshot := to.clone()
	if obs, ok := c.ui.(StateObserver); ok {
		obs.StateChanged(snapshot)
	}
	if c.onChange != nil {
		c.onChange(ev, snapshot)
	}
}

func (c *Controller) execute(ctx context.Context, eff Effect) {
	switch e := eff.(type) {
	case SetLoading:
		c.ui.SetLoading(e.Control, e.Label)
	case ClearLoading:
		c.ui.ClearLoading(e.Control, e.Label)
	case HideMessages:
		c.ui.HideMessages()
	case ShowError:
		c.ui.ShowError(e.Message)
	case ShowSuccess:
		c.ui.ShowSuccess(e.Message)
	case ShowForm:
		c.ui.ShowForm(e.View)
	case Navigate:
		c.navigator.Navigate(e.Path)
	case Authenticate:
		c.authenticate(ctx, e.Request)
	case PersistSession:
		if err := c.sessions.Set(e.Session); err != nil {
			c.logger.WithError(err).Error("failed to persist session")
			c.queue = append(c.queue, PersistFailed{Err: err})
		}
	case ClearSession:
		if err := c.sessions.Clear(); err != nil {
			c.logger.WithError(err).Warn("failed to remove session record")
		}
	case SignOutProvider:
		c.workers.Add(1)
		go func() {
			defer c.workers.Done()
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), signOutTimeout)
			defer cancel()
			if r := c.provider.SignOut(ctx); !r.Success {
				c.logger.Warn("provider sign-out failed", "error", r.ErrorMessage)
			}
		}()
	case SyncSession:
		c.sessions.Adopt(e.Session)
		c.restoreProvider(e.Session)
	case Schedule:
		ev := e.Event
		if prev, ok := c.timers[ev.Name()]; ok {
			prev.Stop()
		}
		c.timers[ev.Name()] = c.scheduler.AfterFunc(e.After, func() {
			c.Dispatch(ev)
		})
	default:
		c.logger.Warn("unhandled effect", "kind", eff.Kind())
	}
}

// authenticate calls the provider off the loop and posts the settlement.
func (c *Controller) authenticate(ctx context.Context, req Request) {
	c.logger.Info("authentication started", "request", req)

	c.workers.Add(1)
	go func() {
		defer c.workers.Done()

		var r auth.Result
		switch req.Kind {
		case RequestSignIn:
			r = c.provider.SignInWithCredentials(ctx, req.Email, req.Password)
		case RequestSignUp:
			r = c.provider.SignUpWithCredentials(ctx, req.Email, req.Password)
		case RequestFederated:
			r = c.provider.SignInWithFederatedProvider(ctx, req.ProviderID)
		}
		// Results without a session are completed by the machine: a built
		// session for credential success, a default message for failure.
		if r.Session != nil {
			if err := r.Validate(); err != nil {
				c.logger.WithError(err).Error("provider returned an invalid result")
				r = auth.FromError(err)
			}
		}

		if r.Success {
			c.logger.Info("authentication succeeded", "request", req)
		} else {
			c.logger.Info("authentication failed", "request", req, "reason", r.ErrorMessage)
		}
		c.Dispatch(ProviderSettled{Request: req, Result: r})
	}()
}

func (c *Controller) onRecordChange(ch session.Change) {
	if ch.Err != nil {
		c.logger.WithError(ch.Err).Warn("ignoring unreadable session record")
		return
	}
	c.Dispatch(SessionChanged{Session: ch.Session})
}

type restorer interface {
	Restore(session *auth.Session)
}

func (c *Controller) restoreProvider(sess *auth.Session) {
	if r, ok := c.provider.(restorer); ok {
		r.Restore(sess)
	}
}

func (c *Controller) stopTimers() {
	for name, t := range c.timers {
		t.Stop()
		delete(c.timers, name)
	}
}

type nopUI struct{}

func (nopUI) SetLoading(Control, string)   {}
func (nopUI) ClearLoading(Control, string) {}
func (nopUI) HideMessages()                {}
func (nopUI) ShowError(string)             {}
func (nopUI) ShowSuccess(string)           {}
func (nopUI) ShowForm(FormView)            {}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}
