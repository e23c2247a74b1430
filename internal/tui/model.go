package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/controller"
)

// Dispatcher receives the events the user triggers.
type Dispatcher interface {
	Dispatch(ev controller.Event) bool
}

// focusKind distinguishes the focusable elements of the auth view.
type focusKind int

const (
	focusInput focusKind = iota
	focusSubmit
	focusProvider
	focusToggle
)

type focusable struct {
	kind  focusKind
	index int
}

// Model is the bubbletea model for the auth and home views. It renders
// what the controller tells it and turns key presses into events.
type Model struct {
	dispatcher Dispatcher
	homePath   string
	authPath   string
	providers  []string

	// Routing and form state
	path  string
	view  controller.FormView
	focus int

	loginInputs  []textinput.Model
	signupInputs []textinput.Model

	// Feedback from the controller
	loading map[controller.Control]string
	errMsg  string
	success string
	state   controller.State

	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	width    int
	height   int
	quitting bool

	styles Styles
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Muted    lipgloss.Style
	Border   lipgloss.Style
	Button   lipgloss.Style
	Focused  lipgloss.Style
	Disabled lipgloss.Style
	Label    lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("202")). // Mars orange
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1),
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("46")).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("202")).
			Padding(1, 2),
		Button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 2),
		Focused: lipgloss.NewStyle().
			Background(lipgloss.Color("202")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 2),
		Disabled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Padding(0, 2),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
}

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Activate key.Binding
	Toggle   key.Binding
	Google   key.Binding
	SignOut  key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
		Activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Toggle:   key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "switch form")),
		Google:   key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "google")),
		SignOut:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sign out")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Activate, k.Toggle, k.Google, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Prev, k.SignOut}}
}

// Options configures a Model.
type Options struct {
	HomePath string
	AuthPath string
	// Providers lists the federated provider ids offered as buttons.
	Providers []string
}

// NewModel creates a model that reports user actions to d.
func NewModel(d Dispatcher, opts Options) Model {
	if opts.HomePath == "" {
		opts.HomePath = "/"
	}
	if opts.AuthPath == "" {
		opts.AuthPath = "/auth"
	}
	if opts.Providers == nil {
		opts.Providers = []string{auth.ProviderGoogle}
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		dispatcher: d,
		homePath:   opts.HomePath,
		authPath:   opts.AuthPath,
		providers:  opts.Providers,
		view:       controller.ViewLogin,
		loginInputs: []textinput.Model{
			newInput("Email", false),
			newInput("Password", true),
		},
		signupInputs: []textinput.Model{
			newInput("Email", false),
			newInput("Password", true),
			newInput("Confirm password", true),
		},
		loading: make(map[controller.Control]string),
		state:   controller.Initial(),
		spinner: s,
		help:    help.New(),
		keys:    defaultKeyMap(),
		styles:  DefaultStyles(),
	}
	m.applyFocus()
	return m
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	ti.Prompt = "› "
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

// Init initializes the TUI model (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SetLoadingMsg:
		m.loading[msg.Control] = msg.Label
		return m, nil

	case ClearLoadingMsg:
		delete(m.loading, msg.Control)
		return m, nil

	case HideMessagesMsg:
		m.errMsg = ""
		m.success = ""
		return m, nil

	case ShowErrorMsg:
		m.errMsg = msg.Message
		m.success = ""
		return m, nil

	case ShowSuccessMsg:
		m.success = msg.Message
		m.errMsg = ""
		return m, nil

	case ShowFormMsg:
		m.view = msg.View
		m.focus = 0
		m.applyFocus()
		return m, nil

	case NavigateMsg:
		m.path = msg.Path
		if m.path == m.authPath {
			m.resetInputs()
		}
		return m, nil

	case StateMsg:
		m.state = msg.State
		return m, nil
	}

	return m, nil
}

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.path {
	case "":
		return m.styles.Muted.Render("Loading...")
	case m.homePath:
		return m.renderHome()
	default:
		return m.renderAuth()
	}
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.path == m.homePath {
		switch {
		case key.Matches(msg, m.keys.SignOut):
			m.dispatch(controller.SignOut{})
		case msg.String() == "q":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		m.moveFocus(1)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.moveFocus(-1)
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		m.dispatch(controller.ToggleForms{})
		return m, nil
	case key.Matches(msg, m.keys.Google):
		m.triggerProvider(auth.ProviderGoogle)
		return m, nil
	case key.Matches(msg, m.keys.Activate):
		return m.activate()
	}

	// Everything else is typing into the focused input.
	inputs := m.inputs()
	f := m.focusables()[m.focus]
	if f.kind != focusInput {
		return m, nil
	}
	var cmd tea.Cmd
	inputs[f.index], cmd = inputs[f.index].Update(msg)
	return m, cmd
}

// activate handles enter: inputs advance, buttons fire.
func (m Model) activate() (tea.Model, tea.Cmd) {
	f := m.focusables()[m.focus]
	switch f.kind {
	case focusInput:
		if f.index < len(m.inputs())-1 {
			m.moveFocus(1)
			return m, nil
		}
		m.submit()
	case focusSubmit:
		m.submit()
	case focusProvider:
		m.triggerProvider(m.providers[f.index])
	case focusToggle:
		m.dispatch(controller.ToggleForms{})
	}
	return m, nil
}

func (m *Model) submit() {
	if m.state.Busy() {
		return
	}
	if m.view == controller.ViewSignup {
		m.dispatch(controller.SubmitSignup{
			Email:           m.signupInputs[0].Value(),
			Password:        m.signupInputs[1].Value(),
			ConfirmPassword: m.signupInputs[2].Value(),
		})
		return
	}
	m.dispatch(controller.SubmitLogin{
		Email:    m.loginInputs[0].Value(),
		Password: m.loginInputs[1].Value(),
	})
}

func (m *Model) triggerProvider(id string) {
	if m.state.Busy() {
		return
	}
	m.dispatch(controller.FederatedSignIn{ProviderID: id})
}

func (m *Model) dispatch(ev controller.Event) {
	if m.dispatcher != nil {
		m.dispatcher.Dispatch(ev)
	}
}

func (m Model) inputs() []textinput.Model {
	if m.view == controller.ViewSignup {
		return m.signupInputs
	}
	return m.loginInputs
}

// focusables lists the auth view's elements in tab order.
func (m Model) focusables() []focusable {
	var out []focusable
	for i := range m.inputs() {
		out = append(out, focusable{kind: focusInput, index: i})
	}
	out = append(out, focusable{kind: focusSubmit})
	for i := range m.providers {
		out = append(out, focusable{kind: focusProvider, index: i})
	}
	return append(out, focusable{kind: focusToggle})
}

func (m *Model) moveFocus(delta int) {
	n := len(m.focusables())
	m.focus = (m.focus + delta + n) % n
	m.applyFocus()
}

// applyFocus focuses the input under the cursor and blurs the rest.
func (m *Model) applyFocus() {
	inputs := m.inputs()
	f := m.focusables()[m.focus]
	for i := range m.loginInputs {
		m.loginInputs[i].Blur()
	}
	for i := range m.signupInputs {
		m.signupInputs[i].Blur()
	}
	if f.kind == focusInput {
		inputs[f.index].Focus()
	}
}

func (m *Model) resetInputs() {
	for i := range m.loginInputs {
		m.loginInputs[i].Reset()
	}
	for i := range m.signupInputs {
		m.signupInputs[i].Reset()
	}
	m.focus = 0
	m.applyFocus()
}

// Messages sent by the Adapter on behalf of the controller.

// SetLoadingMsg shows Label on Control and disables it.
type SetLoadingMsg struct {
	Control controller.Control
	Label   string
}

// ClearLoadingMsg restores Control.
type ClearLoadingMsg struct {
	Control controller.Control
	Label   string
}

type HideMessagesMsg struct{}

type ShowErrorMsg struct {
	Message string
}

type ShowSuccessMsg struct {
	Message string
}

type ShowFormMsg struct {
	View controller.FormView
}

type NavigateMsg struct {
	Path string
}

// StateMsg carries a full controller state snapshot.
type StateMsg struct {
	State controller.State
}
