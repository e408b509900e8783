package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/wirewave/internal/api"
	"github.com/tOgg1/wirewave/internal/messenger"
)

type loginScreen struct {
	email    textInput
	password textInput
	focus    int
	busy     bool
	err      string
}

func newLoginScreen() *loginScreen {
	return &loginScreen{password: textInput{secret: true}}
}

func (s *loginScreen) title() string { return "Sign in" }

func (s *loginScreen) help() string {
	return "tab switch field · enter sign in · ctrl+r register · ctrl+c quit"
}

func (s *loginScreen) field() *textInput {
	if s.focus == 0 {
		return &s.email
	}
	return &s.password
}

func (s *loginScreen) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	if s.busy {
		return nil
	}
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		s.focus = 1 - s.focus
		return nil
	case tea.KeyEnter:
		if s.focus == 0 {
			s.focus = 1
			return nil
		}
		return s.submit(m, false)
	case tea.KeyCtrlR:
		return s.submit(m, true)
	case tea.KeyEsc:
		return tea.Quit
	}
	if s.field().handle(msg) {
		s.err = ""
	}
	return nil
}

func (s *loginScreen) submit(m *Model, register bool) tea.Cmd {
	email := strings.TrimSpace(s.email.String())
	password := s.password.String()
	s.busy = true
	s.err = ""
	client, sess := m.opts.Client, m.opts.Session

	if register {
		var regErr error
		return m.action(func(ctx context.Context) error {
			regErr = client.Register(ctx, email, password)
			return nil
		}, func(m *Model) tea.Cmd {
			s.busy = false
			if regErr != nil {
				s.err = api.UserMessage(regErr, "Registration failed")
				return nil
			}
			return m.showToast(messenger.Notification{Level: messenger.LevelSuccess, Text: "Account created. Sign in to continue."})
		})
	}

	var loginErr error
	return m.action(func(ctx context.Context) error {
		res, err := client.Login(ctx, email, password)
		if err == nil {
			err = sess.Login(ctx, res.Token, res.Email)
		}
		loginErr = err
		return nil
	}, func(m *Model) tea.Cmd {
		s.busy = false
		if loginErr != nil {
			s.err = api.UserMessage(loginErr, "Login failed")
			return nil
		}
		s.password.Reset()
		m.reset(newInboxScreen())
		return tea.Batch(
			m.startSession(),
			m.showToast(messenger.Notification{Level: messenger.LevelSuccess, Text: "Welcome " + sess.Email()}),
		)
	})
}

func (s *loginScreen) view(m *Model, width, _ int) string {
	label := func(i int, name string) string {
		if s.focus == i {
			return m.st.accent.Render("› " + name)
		}
		return m.st.muted.Render("  " + name)
	}
	lines := []string{
		label(0, "Email"),
		"  " + s.email.view(s.focus == 0),
		"",
		label(1, "Password"),
		"  " + s.password.view(s.focus == 1),
		"",
	}
	switch {
	case s.busy:
		lines = append(lines, m.st.muted.Render("  working…"))
	case s.err != "":
		lines = append(lines, m.st.failure.Render("  "+s.err))
	}
	box := m.st.border.Width(min(48, max(20, width-4))).Render(strings.Join(lines, "\n"))
	return lipgloss.PlaceHorizontal(max(width, lipgloss.Width(box)), lipgloss.Center, box)
}
