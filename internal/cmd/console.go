package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/controller"
	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
	"github.com/felixgeelhaar/mars-auth/internal/log"
	"github.com/felixgeelhaar/mars-auth/internal/ux"
)

// consoleUI prints controller feedback as status lines. Loading labels are
// printed once; clearing them has no visible effect on a line-based
// terminal.
type consoleUI struct {
	printer *ux.Printer
	logger  *log.Logger
}

func newConsoleUI(out, errOut io.Writer, logger *log.Logger) *consoleUI {
	return &consoleUI{printer: ux.NewPrinter(out, errOut), logger: logger}
}

func (u *consoleUI) SetLoading(_ controller.Control, label string) { u.printer.Progress(label) }
func (u *consoleUI) ClearLoading(controller.Control, string)       {}
func (u *consoleUI) HideMessages()                                 {}
func (u *consoleUI) ShowError(message string)                      { u.printer.Error(message) }
func (u *consoleUI) ShowSuccess(message string)                    { u.printer.Success(message) }
func (u *consoleUI) ShowForm(controller.FormView)                  {}

func (u *consoleUI) Navigate(path string) {
	u.logger.Debug("navigate", "path", path)
}

type change struct {
	event controller.Event
	state controller.State
}

// flow runs one controller for the duration of a command.
type flow struct {
	ctrl    *controller.Controller
	changes chan change
	cancel  context.CancelFunc
}

// startFlow starts a controller and waits for it to finish loading. The
// returned state is the bootstrap result.
func (a *app) startFlow(ctx context.Context, ui *consoleUI) (*flow, controller.State, error) {
	ctx, cancel := context.WithCancel(ctx)
	f := &flow{changes: make(chan change, 16), cancel: cancel}

	f.ctrl = controller.New(controller.Options{
		Provider:  a.provider,
		Sessions:  a.sessions,
		UI:        ui,
		Navigator: ui,
		Config:    a.controllerConfig(),
		Logger:    a.logger,
		OnChange: func(ev controller.Event, s controller.State) {
			select {
			case f.changes <- change{event: ev, state: s}:
			case <-ctx.Done():
			}
		},
	})
	go func() {
		if err := f.ctrl.Run(ctx); err != nil {
			a.logger.WithError(err).Error("controller stopped")
		}
	}()

	c, err := f.next(ctx)
	if err != nil {
		f.stop()
		return nil, controller.State{}, err
	}
	return f, c.state, nil
}

func (f *flow) next(ctx context.Context) (change, error) {
	select {
	case c := <-f.changes:
		return c, nil
	case <-ctx.Done():
		return change{}, ctx.Err()
	}
}

func (f *flow) stop() {
	f.cancel()
	<-f.ctrl.Done()
}

// authenticate dispatches ev and waits until the redirect after a
// successful sign-in, or until an error is shown. Shown errors are
// returned marked as reported.
func (f *flow) authenticate(ctx context.Context, ev controller.Event) (*auth.Session, error) {
	f.ctrl.Dispatch(ev)

	for {
		c, err := f.next(ctx)
		if err != nil {
			return nil, err
		}
		s := c.state

		switch c.event.(type) {
		case controller.RedirectDue:
			if s.Phase == controller.PhaseAuthenticated {
				return s.Session, nil
			}
		case controller.PersistFailed:
			return nil, reported(apperrors.New(apperrors.ErrCodeSessionPersist, controller.MsgPersistFailed))
		case controller.SubmitLogin, controller.SubmitSignup:
			if s.Error != nil {
				return nil, reported(auth.NewError(auth.ErrValidationFailed, s.Error.Message, nil))
			}
		case controller.ProviderSettled:
			if s.Error != nil {
				return nil, reported(auth.NewError(auth.ErrProviderError, s.Error.Message, nil))
			}
		}
	}
}

// signOut dispatches a sign-out and waits for it to be applied.
func (f *flow) signOut(ctx context.Context) error {
	f.ctrl.Dispatch(controller.SignOut{})
	for {
		c, err := f.next(ctx)
		if err != nil {
			return err
		}
		if _, ok := c.event.(controller.SignOut); ok {
			return nil
		}
	}
}

// runAuthFlow is the body of login, signup and federated.
func runAuthFlow(ctx context.Context, a *app, out, errOut io.Writer, ev controller.Event) error {
	ui := newConsoleUI(out, errOut, a.logger)
	f, initial, err := a.startFlow(ctx, ui)
	if err != nil {
		return err
	}
	defer f.stop()

	if initial.Phase == controller.PhaseAuthenticated {
		fmt.Fprintf(out, "Already signed in as %s. Run 'mars-auth logout' first.\n", initial.Session.Email)
		return nil
	}

	sess, err := f.authenticate(ctx, ev)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s (%s)\n", sess.Email, sess.AuthMethod)
	return nil
}
