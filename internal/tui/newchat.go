package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/wirewave/internal/messenger"
)

type recipientState int

const (
	recipientIdle recipientState = iota
	recipientChecking
	recipientFound
	recipientMissing
	recipientFailed
)

type (
	// recipientCheckMsg fires after the debounce for input seq.
	recipientCheckMsg struct{ seq int }
	// recipientResultMsg carries the lookup result for input seq.
	recipientResultMsg struct {
		seq    int
		exists bool
		err    error
	}
)

// newChatScreen asks for an address and checks the user exists while
// typing.
type newChatScreen struct {
	email textInput
	seq   int
	state recipientState
}

func newNewChatScreen() *newChatScreen { return &newChatScreen{} }

func (s *newChatScreen) title() string { return "New chat" }

func (s *newChatScreen) help() string { return "type an email · enter open · esc back" }

func (s *newChatScreen) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.pop()
		return nil
	case tea.KeyEnter:
		if s.state != recipientFound {
			return nil
		}
		peer := strings.TrimSpace(s.email.String())
		m.pop()
		return m.openChat(peer)
	}
	if !s.email.handle(msg) {
		return nil
	}
	s.seq++
	if !messenger.RecipientEligible(s.email.String()) {
		s.state = recipientIdle
		return nil
	}
	s.state = recipientChecking
	seq := s.seq
	return tea.Tick(messenger.RecipientDebounce, func(time.Time) tea.Msg {
		return recipientCheckMsg{seq: seq}
	})
}

// receive handles the debounce tick and the lookup result. Anything for an
// older input is ignored.
func (s *newChatScreen) receive(m *Model, msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case recipientCheckMsg:
		if typed.seq != s.seq {
			return nil
		}
		email := strings.TrimSpace(s.email.String())
		client := m.opts.Client
		ctx := m.ctx
		return func() tea.Msg {
			exists, err := messenger.CheckRecipient(ctx, client, email)
			return recipientResultMsg{seq: typed.seq, exists: exists, err: err}
		}
	case recipientResultMsg:
		if typed.seq != s.seq {
			return nil
		}
		switch {
		case typed.err != nil:
			s.state = recipientFailed
		case typed.exists:
			s.state = recipientFound
		default:
			s.state = recipientMissing
		}
	}
	return nil
}

func (s *newChatScreen) view(m *Model, width, _ int) string {
	status := ""
	switch s.state {
	case recipientChecking:
		status = m.st.muted.Render("checking…")
	case recipientFound:
		status = m.st.success.Render("✓ user found, press enter")
	case recipientMissing:
		status = m.st.failure.Render("no user with this email")
	case recipientFailed:
		status = m.st.failure.Render("could not check this email")
	}
	box := m.st.border.Width(min(56, max(20, width-4))).Render(
		m.st.accent.Render("To") + "\n" + s.email.view(true) + "\n\n" + status,
	)
	return box
}
