package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/felixgeelhaar/mars-auth/internal/controller"
)

// renderAuth renders the login or signup form with the feedback regions.
func (m Model) renderAuth() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Mars Mission Control"))
	b.WriteString("\n")
	if m.view == controller.ViewSignup {
		b.WriteString(m.styles.Subtitle.Render("Create your account"))
	} else {
		b.WriteString(m.styles.Subtitle.Render("Sign in to continue"))
	}
	b.WriteString("\n\n")

	var form strings.Builder
	labels := []string{"Email", "Password", "Confirm password"}
	for i, in := range m.inputs() {
		form.WriteString(m.styles.Label.Render(labels[i]))
		form.WriteString("\n")
		form.WriteString(in.View())
		form.WriteString("\n\n")
	}

	submit := controller.ControlLogin
	if m.view == controller.ViewSignup {
		submit = controller.ControlSignup
	}
	form.WriteString(m.renderButton(submit, focusable{kind: focusSubmit}))
	form.WriteString("\n\n")

	form.WriteString(m.styles.Muted.Render("or"))
	form.WriteString("\n\n")
	for i, id := range m.providers {
		form.WriteString(m.renderButton(controller.ControlFor(id), focusable{kind: focusProvider, index: i}))
		form.WriteString("\n")
	}
	form.WriteString("\n")
	form.WriteString(m.renderToggle())

	b.WriteString(m.styles.Border.Render(form.String()))
	b.WriteString("\n\n")

	if msg := m.renderMessages(); msg != "" {
		b.WriteString(msg)
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderButton shows the loading label with a spinner while the control is
// busy, and dims every control while a request is in flight.
func (m Model) renderButton(c controller.Control, f focusable) string {
	if label, ok := m.loading[c]; ok {
		return m.styles.Disabled.Render(m.spinner.View() + " " + label)
	}
	if m.state.Busy() {
		return m.styles.Disabled.Render(c.Label())
	}
	if m.isFocused(f) {
		return m.styles.Focused.Render(c.Label())
	}
	return m.styles.Button.Render(c.Label())
}

func (m Model) renderToggle() string {
	text := "Don't have an account? Sign up"
	if m.view == controller.ViewSignup {
		text = "Already have an account? Sign in"
	}
	if m.isFocused(focusable{kind: focusToggle}) {
		return m.styles.Focused.Render(text)
	}
	return m.styles.Muted.Render(text)
}

// renderMessages shows at most one of the error and success regions.
func (m Model) renderMessages() string {
	switch {
	case m.errMsg != "":
		return m.styles.Error.Render(m.errMsg)
	case m.success != "":
		return m.styles.Success.Render(m.success)
	}
	return ""
}

func (m Model) isFocused(f focusable) bool {
	items := m.focusables()
	return m.focus < len(items) && items[m.focus] == f
}

// renderHome renders the signed-in view.
func (m Model) renderHome() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Mars Mission Control"))
	b.WriteString("\n\n")

	s := m.state.Session
	if s == nil {
		b.WriteString(m.styles.Muted.Render("Signed in"))
	} else {
		lines := []string{
			fmt.Sprintf("Welcome, %s", s.DisplayName),
			m.styles.Muted.Render(s.Email),
			m.styles.Muted.Render(fmt.Sprintf("Signed in with %s", s.AuthMethod)),
		}
		if s.PhotoURL != "" {
			lines = append(lines, m.styles.Muted.Render("Photo: "+s.PhotoURL))
		}
		b.WriteString(m.styles.Border.Render(strings.Join(lines, "\n")))
	}
	b.WriteString("\n\n")

	if msg := m.renderMessages(); msg != "" {
		b.WriteString(msg)
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.SignOut, m.keys.Quit}))
	return b.String()
}
