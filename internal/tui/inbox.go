package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/wirewave/internal/messenger"
	"github.com/tOgg1/wirewave/internal/models"
)

type inboxScreen struct {
	cursor    int
	searching bool
	search    textInput
	// confirm holds the peer awaiting delete confirmation.
	confirm string
}

func newInboxScreen() *inboxScreen { return &inboxScreen{} }

func (s *inboxScreen) title() string { return "Chats" }

func (s *inboxScreen) help() string {
	switch {
	case s.confirm != "":
		return "delete chat with " + s.confirm + "? y confirm · any key cancel"
	case s.searching:
		return "type to filter · enter keep · esc clear"
	}
	return "↑↓ move · enter open · n new · b broadcast · g groups · / search · s star · a archive · v archived · d delete · L logout · q quit"
}

func (s *inboxScreen) selected(m *Model) (messenger.Conversation, bool) {
	if m.inbox == nil {
		return messenger.Conversation{}, false
	}
	convs := m.inbox.Conversations()
	if len(convs) == 0 {
		return messenger.Conversation{}, false
	}
	s.cursor = max(0, min(s.cursor, len(convs)-1))
	return convs[s.cursor], true
}

func (s *inboxScreen) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	if m.inbox == nil {
		return nil
	}
	if s.confirm != "" {
		peer := s.confirm
		s.confirm = ""
		if msg.String() != "y" {
			return nil
		}
		inbox := m.inbox
		return m.action(func(ctx context.Context) error {
			return inbox.DeleteConversation(ctx, peer)
		}, nil)
	}
	if s.searching {
		switch msg.Type {
		case tea.KeyEnter:
			s.searching = false
		case tea.KeyEsc:
			s.searching = false
			s.search.Reset()
			m.inbox.SetSearch("")
		default:
			if s.search.handle(msg) {
				m.inbox.SetSearch(s.search.String())
				s.cursor = 0
			}
		}
		return nil
	}

	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		s.cursor = max(0, s.cursor-1)
	case "down", "j":
		s.cursor++
		s.selected(m)
	case "enter":
		if c, ok := s.selected(m); ok {
			return m.openChat(c.Peer)
		}
	case "/":
		s.searching = true
	case "v":
		m.inbox.SetShowArchived(!m.inbox.ShowArchived())
		s.cursor = 0
	case "s", "a":
		c, ok := s.selected(m)
		if !ok {
			return nil
		}
		inbox, star := m.inbox, msg.String() == "s"
		return m.action(func(ctx context.Context) error {
			var err error
			if star {
				_, err = inbox.ToggleStar(ctx, c.Peer)
			} else {
				_, err = inbox.ToggleArchive(ctx, c.Peer)
			}
			return err
		}, nil)
	case "d":
		if c, ok := s.selected(m); ok {
			s.confirm = c.Peer
		}
	case "n":
		m.push(newNewChatScreen())
	case "b":
		m.push(newBroadcastScreen(m))
	case "g":
		m.push(newGroupsScreen())
		if groups := m.groups; groups != nil {
			groups.Trigger()
		}
	case "r":
		inbox := m.inbox
		return m.action(inbox.Refresh, nil)
	case "L":
		m.stopSession()
		if err := m.opts.Session.Logout(m.ctx); err != nil {
			m.logger.Warn().Err(err).Msg("logout")
		}
		m.reset(newLoginScreen())
	}
	return nil
}

// openChat pushes the chat screen for peer.
func (m *Model) openChat(peer string) tea.Cmd {
	chat := m.inbox.Chat(peer)
	m.push(newDirectChatScreen(chat))
	return m.action(func(ctx context.Context) error {
		chat.Observe(ctx)
		return nil
	}, nil)
}

func (s *inboxScreen) view(m *Model, width, height int) string {
	if m.inbox == nil {
		return ""
	}
	var b strings.Builder
	if s.searching || !s.search.Blank() {
		fmt.Fprintf(&b, "%s %s\n", m.st.accent.Render("search:"), s.search.view(s.searching))
		height--
	}
	if m.inbox.ShowArchived() {
		b.WriteString(m.st.muted.Render("Archived chats") + "\n")
		height--
	}

	convs := m.inbox.Conversations()
	if len(convs) == 0 {
		switch {
		case !m.inbox.Loaded():
			b.WriteString(m.st.muted.Render("Loading…"))
		case s.search.Blank():
			b.WriteString(m.st.muted.Render("No chats yet. Press n to start one."))
		default:
			b.WriteString(m.st.muted.Render("No matches."))
		}
		return b.String()
	}

	s.cursor = max(0, min(s.cursor, len(convs)-1))
	now := time.Now()
	start, end := window(len(convs), s.cursor, height)
	for i := start; i < end; i++ {
		b.WriteString(s.row(m, convs[i], i == s.cursor, width, now))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *inboxScreen) row(m *Model, c messenger.Conversation, selected bool, width int, now time.Time) string {
	name := m.profiles.Name(c.Peer)
	avatar := senderStyle(c.Peer).Render(fmt.Sprintf("%-2s", models.Initials(name)))

	star := "  "
	if c.Starred {
		star = m.st.star.Render("★ ")
	}
	badge := ""
	if c.UnreadCount > 0 {
		badge = " " + m.st.unread.Render("("+models.UnreadBadge(c.UnreadCount)+")")
	}
	stamp := ""
	if m.showTimestamps() {
		stamp = m.st.muted.Render(shortStamp(c.LastMessageTime, now))
	}

	head := star + avatar + " " + name + badge
	body := preview(c.Last, m.self())
	line := joinEnds(head+"  "+m.st.muted.Render(clip(body, max(0, width/2))), stamp, max(0, width-2))
	if selected {
		return m.st.selected.Render(line)
	}
	return line
}

// preview renders the last message of a conversation on one line.
func preview(msg models.Message, self string) string {
	c := models.ParseContent(msg.Content)
	text := strings.Join(strings.Fields(c.Text), " ")
	switch c.Kind {
	case models.ContentLocation:
		text = "📍 Location"
	case models.ContentBroadcast:
		text = models.BroadcastMarker + text
	}
	if msg.SenderEmail == self {
		text = "You: " + text
	}
	return text
}

// shortStamp is "15:04" today, the weekday within a week, else the date.
func shortStamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Local().Date()
	switch {
	case y1 == y2 && m1 == m2 && d1 == d2:
		return t.Format("15:04")
	case now.Sub(t) < 6*24*time.Hour:
		return t.Format("Mon")
	default:
		return t.Format("Jan 2")
	}
}
