package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/mars-auth/internal/controller"
)

// Adapter bridges the controller and the TUI. It implements
// controller.UI, controller.Navigator and controller.StateObserver by
// forwarding each call to the bubbletea program as a message.
type Adapter struct {
	program *tea.Program
}

// NewAdapter creates the program for a model reporting to d.
func NewAdapter(d Dispatcher, opts Options, programOpts ...tea.ProgramOption) *Adapter {
	model := NewModel(d, opts)
	programOpts = append([]tea.ProgramOption{tea.WithAltScreen()}, programOpts...)
	return &Adapter{program: tea.NewProgram(model, programOpts...)}
}

// Run blocks until the user quits or ctx is done.
func (a *Adapter) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		a.program.Quit()
	}()
	_, err := a.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func (a *Adapter) SetLoading(c controller.Control, label string) {
	a.program.Send(SetLoadingMsg{Control: c, Label: label})
}

func (a *Adapter) ClearLoading(c controller.Control, label string) {
	a.program.Send(ClearLoadingMsg{Control: c, Label: label})
}

func (a *Adapter) HideMessages() {
	a.program.Send(HideMessagesMsg{})
}

func (a *Adapter) ShowError(message string) {
	a.program.Send(ShowErrorMsg{Message: message})
}

func (a *Adapter) ShowSuccess(message string) {
	a.program.Send(ShowSuccessMsg{Message: message})
}

func (a *Adapter) ShowForm(view controller.FormView) {
	a.program.Send(ShowFormMsg{View: view})
}

func (a *Adapter) Navigate(path string) {
	a.program.Send(NavigateMsg{Path: path})
}

func (a *Adapter) StateChanged(s controller.State) {
	a.program.Send(StateMsg{State: s})
}

var (
	_ controller.UI            = (*Adapter)(nil)
	_ controller.Navigator     = (*Adapter)(nil)
	_ controller.StateObserver = (*Adapter)(nil)
)
