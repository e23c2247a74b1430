package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/auth/platform"
	"github.com/felixgeelhaar/mars-auth/internal/auth/simulated"
	"github.com/felixgeelhaar/mars-auth/internal/session"
	"github.com/felixgeelhaar/mars-auth/internal/storage"
)

type recordingUI struct {
	mu    sync.Mutex
	calls []string
	paths []string
}

func (u *recordingUI) record(call string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, call)
}

func (u *recordingUI) SetLoading(c Control, label string)   { u.record("set-loading:" + string(c) + ":" + label) }
func (u *recordingUI) ClearLoading(c Control, label string) { u.record("clear-loading:" + string(c) + ":" + label) }
func (u *recordingUI) HideMessages()                        { u.record("hide") }
func (u *recordingUI) ShowError(msg string)                 { u.record("error:" + msg) }
func (u *recordingUI) ShowSuccess(msg string)               { u.record("success:" + msg) }
func (u *recordingUI) ShowForm(v FormView)                  { u.record("form:" + string(v)) }

func (u *recordingUI) Navigate(path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths = append(u.paths, path)
}

func (u *recordingUI) Calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.calls...)
}

func (u *recordingUI) Paths() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths...)
}

type failingStorage struct {
	storage.Storage
}

func (failingStorage) SetItem(string, string) error {
	return errors.New("disk full")
}

type harness struct {
	ctrl      *Controller
	ui        *recordingUI
	sched     *ManualScheduler
	store     storage.Storage
	sessions  *session.Manager
	cancel    context.CancelFunc
	runResult chan error
}

func newHarness(t *testing.T, store storage.Storage) *harness {
	t.Helper()
	if store == nil {
		store = storage.NewMemoryStorage()
	}
	h := &harness{
		ui:        &recordingUI{},
		sched:     NewManualScheduler(),
		store:     store,
		sessions:  session.NewManager(session.NewStore(store), nil),
		runResult: make(chan error, 1),
	}
	h.ctrl = New(Options{
		Provider:  simulated.New(simulated.Options{}),
		Sessions:  h.sessions,
		UI:        h.ui,
		Navigator: h.ui,
		Scheduler: h.sched,
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.runResult <- h.ctrl.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-h.ctrl.Done()
	})
	return h
}

func (h *harness) waitFor(t *testing.T, cond func(State) bool) {
	t.Helper()
	require.Eventually(t, func() bool { return cond(h.ctrl.State()) }, 2*time.Second, 5*time.Millisecond)
}

func (h *harness) waitForStatus(t *testing.T, status Status) {
	t.Helper()
	h.waitFor(t, func(s State) bool { return s.Status() == status })
}

func TestController_BootstrapAnonymous(t *testing.T) {
	h := newHarness(t, nil)

	h.waitFor(t, func(s State) bool { return s.Path == "/auth" })
	assert.Equal(t, []string{"/auth"}, h.ui.Paths())
	assert.Contains(t, h.ui.Calls(), "form:login")
}

func TestController_BootstrapPersistedSession(t *testing.T) {
	store := storage.NewMemoryStorage()
	persisted := auth.NewCredentialSession("test@example.com")
	require.NoError(t, session.NewStore(store).Save(persisted))

	h := newHarness(t, store)

	h.waitForStatus(t, StatusAuthenticated)
	assert.Equal(t, persisted.UID, h.ctrl.State().Session.UID)
	assert.Equal(t, []string{"/"}, h.ui.Paths())
	assert.Equal(t, persisted.UID, h.sessions.Current().UID)
}

func TestController_LoginFlow(t *testing.T) {
	h := newHarness(t, nil)
	h.waitFor(t, func(s State) bool { return s.Path == "/auth" })

	require.True(t, h.ctrl.Dispatch(SubmitLogin{Email: "test@example.com", Password: "any"}))
	h.waitForStatus(t, StatusAuthenticated)

	calls := h.ui.Calls()
	assert.Contains(t, calls, "set-loading:login-btn:Signing in...")
	assert.Contains(t, calls, "success:"+MsgLoginSuccess)
	assert.Contains(t, calls, "clear-loading:login-btn:Sign In")

	persisted, err := session.NewStore(h.store).Load()
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, "test@example.com", persisted.Email)
	assert.Equal(t, auth.MethodEmail, persisted.AuthMethod)

	// No redirect before the delay.
	assert.Equal(t, []string{"/auth"}, h.ui.Paths())

	h.sched.Advance(DefaultConfig().RedirectDelay)
	h.waitFor(t, func(s State) bool { return s.Path == "/" })
	assert.Equal(t, []string{"/auth", "/"}, h.ui.Paths())
}

func TestController_LoginFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.waitFor(t, func(s State) bool { return s.Path == "/auth" })

	h.ctrl.Dispatch(SubmitLogin{Email: "error@test.com", Password: "any"})
	h.waitForStatus(t, StatusAuthError)

	assert.Contains(t, h.ui.Calls(), "error:Invalid credentials")
	assert.Contains(t, h.ui.Calls(), "clear-loading:login-btn:Sign In")
	_, found, err := h.store.GetItem(session.StorageKey)
	require.NoError(t, err)
	assert.False(t, found)

	h.sched.Advance(DefaultConfig().ErrorTimeout)
	h.waitForStatus(t, StatusAnonymous)
}

func TestController_GoogleSignIn(t *testing.T) {
	h := newHarness(t, nil)
	h.waitFor(t, func(s State) bool { return s.Path == "/auth" })

	h.ctrl.Dispatch(FederatedSignIn{ProviderID: auth.ProviderGoogle})
	h.waitForStatus(t, StatusAuthenticated)

	s := h.ctrl.State()
	assert.Equal(t, "user@gmail.com", s.Session.Email)
	assert.Equal(t, "Google User", s.Session.DisplayName)
	assert.Contains(t, h.ui.Calls(), "success:Google sign-in successful! Redirecting...")
}

func TestController_PersistFailure(t *testing.T) {
	h := newHarness(t, failingStorage{Storage: storage.NewMemoryStorage()})
	h.waitFor(t, func(s State) bool { return s.Path == "/auth" })

	h.ctrl.Dispatch(SubmitLogin{Email: "test@example.com", Password: "any"})
	h.waitFor(t, func(s State) bool { return s.Error != nil && s.Error.Message == MsgPersistFailed })

	assert.Equal(t, PhaseAnonymous, h.ctrl.State().Phase)
	assert.Nil(t, h.sessions.Current())

	h.sched.Advance(DefaultConfig().RedirectDelay)
	assert.Equal(t, []string{"/auth"}, h.ui.Paths())
}

func TestController_SignOut(t *testing.T) {
	store := storage.NewMemoryStorage()
	require.NoError(t, session.NewStore(store).Save(auth.NewCredentialSession("test@example.com")))
	h := newHarness(t, store)
	h.waitForStatus(t, StatusAuthenticated)

	h.ctrl.Dispatch(SignOut{})
	h.waitFor(t, func(s State) bool { return s.Path == "/auth" })

	_, found, err := store.GetItem(session.StorageKey)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, h.sessions.Current())
	assert.Equal(t, []string{"/", "/auth"}, h.ui.Paths())
}

func TestController_SessionChangedElsewhere(t *testing.T) {
	h := newHarness(t, nil)
	h.waitFor(t, func(s State) bool { return s.Path == "/auth" })

	sess := auth.NewCredentialSession("other@example.com")
	h.ctrl.Dispatch(SessionChanged{Session: sess})
	h.waitForStatus(t, StatusAuthenticated)

	assert.Equal(t, sess.UID, h.sessions.Current().UID)
}

func TestController_RunTwice(t *testing.T) {
	h := newHarness(t, nil)
	h.waitFor(t, func(s State) bool { return s.Path == "/auth" })

	assert.ErrorIs(t, h.ctrl.Run(context.Background()), ErrAlreadyRunning)
}

func TestController_DispatchAfterStop(t *testing.T) {
	h := newHarness(t, nil)
	h.waitFor(t, func(s State) bool { return s.Path == "/auth" })

	h.cancel()
	require.NoError(t, <-h.runResult)

	assert.False(t, h.ctrl.Dispatch(SignOut{}))
}

func TestController_ErrorTimersDoNotAccumulate(t *testing.T) {
	h := newHarness(t, nil)
	h.waitFor(t, func(s State) bool { return s.Path == "/auth" })

	for i := 0; i < 5; i++ {
		h.ctrl.Dispatch(SubmitLogin{})
	}
	h.waitFor(t, func(s State) bool { return s.ErrorSeq == 5 })

	assert.Equal(t, 1, h.sched.Pending())

	h.sched.Advance(DefaultConfig().ErrorTimeout)
	h.waitForStatus(t, StatusAnonymous)
	assert.Equal(t, 0, h.sched.Pending())
}

// Stopping right after a sign-out, as the logout command does, must still
// revoke the remote session before Done is closed.
func TestController_StopAfterSignOutRevokesPlatformSession(t *testing.T) {
	var logouts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != platform.PathLogout {
			http.NotFound(w, r)
			return
		}
		time.Sleep(100 * time.Millisecond)
		if r.Header.Get("Authorization") == "Bearer tok-1" {
			logouts.Add(1)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := storage.NewMemoryStorage()
	require.NoError(t, store.SetItem(platform.TokenKey, `{"access_token":"tok-1"}`))
	require.NoError(t, session.NewStore(store).Save(auth.NewCredentialSession("test@example.com")))

	provider := auth.NewComposite(
		platform.NewAuthenticator(platform.NewClient(srv.URL), store, nil),
		auth.NewRegistry(),
	)

	changes := make(chan Event, 16)
	ctrl := New(Options{
		Provider:  provider,
		Sessions:  session.NewManager(session.NewStore(store), nil),
		Scheduler: NewManualScheduler(),
		OnChange:  func(ev Event, _ State) { changes <- ev },
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = ctrl.Run(ctx) }()

	waitEvent := func(name string) {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case ev := <-changes:
				if ev.Name() == name {
					return
				}
			case <-timeout:
				t.Fatalf("no %s transition", name)
			}
		}
	}

	waitEvent(EventLoad)
	require.True(t, ctrl.Dispatch(SignOut{}))
	waitEvent(EventSignOut)

	cancel()
	<-ctrl.Done()

	assert.Equal(t, int32(1), logouts.Load())
	_, found, err := store.GetItem(platform.TokenKey)
	require.NoError(t, err)
	assert.False(t, found)
}
