package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/wirewave/internal/messenger"
)

type broadcastScreen struct {
	b        *messenger.Broadcast
	contacts []string
	cursor   int
	// drafting moves key input from the contact list to the draft.
	drafting bool
	draft    textInput
	sending  bool
}

func newBroadcastScreen(m *Model) *broadcastScreen {
	s := &broadcastScreen{b: messenger.NewBroadcast(m.opts.Client, m)}
	if m.inbox != nil {
		s.contacts = m.inbox.Contacts()
	}
	return s
}

func (s *broadcastScreen) title() string { return "Broadcast" }

func (s *broadcastScreen) help() string {
	if s.drafting {
		return "type message · enter send · tab recipients · esc back"
	}
	return "↑↓ move · space select · tab write message · esc back"
}

func (s *broadcastScreen) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	if s.sending {
		return nil
	}
	switch msg.Type {
	case tea.KeyEsc:
		m.pop()
		return nil
	case tea.KeyTab:
		s.drafting = !s.drafting
		return nil
	}

	if s.drafting {
		if msg.Type == tea.KeyEnter {
			return s.send(m)
		}
		if s.draft.handle(msg) {
			s.b.SetDraft(s.draft.String())
		}
		return nil
	}

	switch msg.String() {
	case "up", "k":
		s.cursor = max(0, s.cursor-1)
	case "down", "j":
		s.cursor = min(max(0, len(s.contacts)-1), s.cursor+1)
	case " ", "enter":
		if s.cursor < len(s.contacts) {
			s.b.Toggle(s.contacts[s.cursor])
		}
	}
	return nil
}

func (s *broadcastScreen) send(m *Model) tea.Cmd {
	s.sending = true
	b := s.b
	var sendErr error
	return m.action(func(ctx context.Context) error {
		sendErr = b.Send(ctx)
		return sendErr
	}, func(m *Model) tea.Cmd {
		s.sending = false
		if sendErr == nil && m.top() == s {
			m.pop()
		}
		return nil
	})
}

func (s *broadcastScreen) view(m *Model, width, height int) string {
	var rows []string
	if len(s.contacts) == 0 {
		rows = append(rows, m.st.muted.Render("No contacts yet."))
	}
	start, end := window(len(s.contacts), s.cursor, max(1, height-5))
	for i := start; i < end; i++ {
		c := s.contacts[i]
		box := "[ ]"
		if s.b.IsSelected(c) {
			box = m.st.success.Render("[x]")
		}
		line := box + " " + senderStyle(c).Render(c)
		if i == s.cursor && !s.drafting {
			line = m.st.selected.Render(line)
		}
		rows = append(rows, line)
	}

	label := fmt.Sprintf("Message to %d selected", len(s.b.Selected()))
	composer := m.st.border.Width(max(10, width-4)).Render(s.draft.view(s.drafting))
	if s.sending {
		label += " · sending…"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(rows, "\n"),
		"",
		m.st.accent.Render(label),
		composer,
	)
}
