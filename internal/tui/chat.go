package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/wirewave/internal/messenger"
	"github.com/tOgg1/wirewave/internal/models"
)

type chatScreen struct {
	chat  *messenger.DirectChat
	input textInput
	busy  bool

	// selecting switches keys to the message list for bulk mark-read.
	selecting bool
	cursor    int
}

func newDirectChatScreen(chat *messenger.DirectChat) *chatScreen {
	return &chatScreen{chat: chat, input: textInput{limit: 4000}}
}

func (s *chatScreen) title() string { return s.chat.Peer() }

func (s *chatScreen) help() string {
	if s.selecting {
		return "↑↓ move · space select · m mark read · esc done"
	}
	return "enter send · ctrl+e enhance · tab select · /loc lat,lng · /delete · esc back"
}

func (s *chatScreen) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	if s.selecting {
		return s.updateSelecting(m, msg)
	}
	switch msg.Type {
	case tea.KeyEsc:
		m.pop()
		return nil
	case tea.KeyTab:
		s.selecting = true
		s.cursor = max(0, len(s.chat.Thread())-1)
		return nil
	case tea.KeyCtrlE:
		return s.enhance(m)
	case tea.KeyEnter:
		return s.submit(m)
	}
	s.input.handle(msg)
	return nil
}

func (s *chatScreen) updateSelecting(m *Model, msg tea.KeyMsg) tea.Cmd {
	thread := s.chat.Thread()
	switch msg.String() {
	case "esc", "tab":
		s.selecting = false
		s.chat.Selection().Clear()
	case "up", "k":
		s.cursor = max(0, s.cursor-1)
	case "down", "j":
		s.cursor = min(len(thread)-1, s.cursor+1)
	case " ":
		if s.cursor >= 0 && s.cursor < len(thread) {
			s.chat.Selection().Toggle(thread[s.cursor].ID)
		}
	case "m":
		chat := s.chat
		s.selecting = false
		return m.action(func(ctx context.Context) error {
			_, err := chat.MarkSelectedRead(ctx)
			return err
		}, nil)
	}
	return nil
}

func (s *chatScreen) submit(m *Model) tea.Cmd {
	text := s.input.String()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	chat := s.chat
	if name, arg, ok := slashCommand(text); ok {
		switch name {
		case "loc", "location":
			lat, lng, err := models.ParseCoordinates(arg)
			if err != nil {
				return m.showToast(messenger.Notification{Level: messenger.LevelError, Text: "Use /loc <lat>,<lng>"})
			}
			s.input.Reset()
			return m.action(func(ctx context.Context) error {
				_, err := chat.ShareLocation(ctx, lat, lng)
				return err
			}, nil)
		case "delete":
			s.input.Reset()
			m.pop()
			return m.action(chat.Delete, nil)
		default:
			return m.showToast(messenger.Notification{Level: messenger.LevelError, Text: "Unknown command /" + name})
		}
	}

	s.input.Reset()
	return m.action(func(ctx context.Context) error {
		_, err := chat.Send(ctx, text)
		return err
	}, nil)
}

func (s *chatScreen) enhance(m *Model) tea.Cmd {
	if s.busy || s.input.Blank() {
		return nil
	}
	s.busy = true
	draft := s.input.String()
	client := m.opts.Client
	var out string
	return m.action(func(ctx context.Context) error {
		var err error
		out, err = messenger.Enhance(ctx, client, m, draft)
		return err
	}, func(*Model) tea.Cmd {
		s.busy = false
		if out != "" && s.input.String() == draft {
			s.input.Set(out)
		}
		return nil
	})
}

func (s *chatScreen) view(m *Model, width, height int) string {
	composer := m.st.border.Width(max(10, width-4)).Render(s.input.view(!s.selecting))
	if s.busy {
		composer = m.st.muted.Render("enhancing…") + "\n" + composer
	}
	listHeight := max(0, height-lipgloss.Height(composer))

	var lines []string
	now := time.Now()
	self := m.self()
	selection := s.chat.Selection()
	index := 0
	for _, day := range s.chat.Days() {
		lines = append(lines, m.st.muted.Render(centered(day.Label(now), width)))
		for _, msg := range day.Entries {
			line := s.renderMessage(m, msg, self)
			if selection.Has(msg.ID) {
				line = m.st.accent.Render("● ") + line
			}
			if s.selecting && index == s.cursor {
				line = m.st.selected.Render(line)
			}
			lines = append(lines, line)
			index++
		}
	}
	if len(lines) == 0 {
		lines = append(lines, m.st.muted.Render("No messages yet. Say hi!"))
	}
	if len(lines) > listHeight {
		lines = lines[len(lines)-listHeight:]
	}
	return lipgloss.JoinVertical(lipgloss.Left, strings.Join(lines, "\n"), composer)
}

func (s *chatScreen) renderMessage(m *Model, msg models.Message, self string) string {
	stamp := ""
	if m.showTimestamps() {
		stamp = m.st.muted.Render(clock(msg.Time())) + " "
	}
	body := renderBody(m, msg.Content)
	if msg.SenderEmail == self {
		status := "✓"
		switch {
		case msg.Pending:
			status = "…"
		case bool(msg.Read):
			status = "✓✓"
		}
		return stamp + m.st.own.Render("you") + ": " + body + " " + m.st.muted.Render(status)
	}
	return stamp + senderStyle(msg.SenderEmail).Render(m.profiles.Name(msg.SenderEmail)) + ": " + body
}

// renderBody styles broadcast, location and link bodies.
func renderBody(m *Model, body string) string {
	c := models.ParseContent(body)
	switch c.Kind {
	case models.ContentLocation:
		return "📍 " + m.st.accent.Render(fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lng)) + " " + m.st.muted.Render(c.URL)
	case models.ContentBroadcast:
		return m.st.system.Render(models.BroadcastMarker) + c.Text
	}
	if target := models.LinkTarget(c.Text); target != "" {
		return c.Text + " " + m.st.muted.Render("→ "+target)
	}
	return c.Text
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Local().Format("15:04")
}

func centered(s string, width int) string {
	s = "── " + s + " ──"
	return lipgloss.PlaceHorizontal(max(width, lipgloss.Width(s)), lipgloss.Center, s)
}

