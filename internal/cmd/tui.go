package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/mars-auth/internal/controller"
	"github.com/felixgeelhaar/mars-auth/internal/tui"
)

// dispatchFunc adapts a function to tui.Dispatcher.
type dispatchFunc func(controller.Event) bool

func (f dispatchFunc) Dispatch(ev controller.Event) bool { return f(ev) }

// runTUI opens the interactive sign-in screen.
func runTUI(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setupApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var ctrl *controller.Controller
	cc := a.controllerConfig()
	adapter := tui.NewAdapter(
		dispatchFunc(func(ev controller.Event) bool { return ctrl.Dispatch(ev) }),
		tui.Options{HomePath: cc.HomePath, AuthPath: cc.AuthPath, Providers: a.federators},
	)
	ctrl = controller.New(controller.Options{
		Provider:  a.provider,
		Sessions:  a.sessions,
		UI:        adapter,
		Navigator: adapter,
		Config:    cc,
		Watcher:   a.newWatcher(),
		Logger:    a.logger,
	})

	go func() {
		if err := ctrl.Run(ctx); err != nil {
			a.logger.WithError(err).Error("controller stopped")
		}
	}()

	err = adapter.Run(ctx)
	cancel()
	<-ctrl.Done()
	return err
}
