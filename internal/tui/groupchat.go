package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/wirewave/internal/messenger"
	"github.com/tOgg1/wirewave/internal/models"
)

type groupChatScreen struct {
	chat     *messenger.GroupChat
	input    textInput
	showInfo bool
}

func newGroupChatScreen(chat *messenger.GroupChat) *groupChatScreen {
	return &groupChatScreen{chat: chat, input: textInput{limit: 4000}}
}

func (s *groupChatScreen) title() string { return "# " + s.chat.Group().DisplayName() }

func (s *groupChatScreen) help() string {
	return "enter send · /info · /rename · /add · /remove · /admin · /unadmin · /loc · /leave · /delete · esc back"
}

func (s *groupChatScreen) close(m *Model) {
	if m.groups != nil {
		m.groups.Close()
	}
}

func (s *groupChatScreen) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.pop()
		return nil
	case tea.KeyEnter:
		return s.submit(m)
	}
	s.input.handle(msg)
	return nil
}

func (s *groupChatScreen) submit(m *Model) tea.Cmd {
	text := s.input.String()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	chat := s.chat
	name, arg, ok := slashCommand(text)
	if !ok {
		s.input.Reset()
		return m.action(func(ctx context.Context) error {
			_, err := chat.Send(ctx, text)
			return err
		}, nil)
	}

	s.input.Reset()
	leaveScreen := func(m *Model) tea.Cmd {
		if m.top() == s {
			m.stack = m.stack[:len(m.stack)-1]
		}
		return nil
	}
	switch name {
	case "info":
		s.showInfo = !s.showInfo
		if s.showInfo {
			return m.action(func(ctx context.Context) error {
				_, err := chat.Info(ctx)
				return err
			}, nil)
		}
		return nil
	case "rename":
		return m.action(func(ctx context.Context) error { return chat.Rename(ctx, arg) }, nil)
	case "add":
		return m.action(func(ctx context.Context) error { return chat.AddMember(ctx, arg) }, nil)
	case "remove", "kick":
		return m.action(func(ctx context.Context) error { return chat.RemoveMember(ctx, arg) }, nil)
	case "admin":
		return m.action(func(ctx context.Context) error { return chat.SetAdmin(ctx, arg, true) }, nil)
	case "unadmin":
		return m.action(func(ctx context.Context) error { return chat.SetAdmin(ctx, arg, false) }, nil)
	case "loc", "location":
		lat, lng, err := models.ParseCoordinates(arg)
		if err != nil {
			return m.showToast(messenger.Notification{Level: messenger.LevelError, Text: "Use /loc <lat>,<lng>"})
		}
		return m.action(func(ctx context.Context) error {
			_, err := chat.ShareLocation(ctx, lat, lng)
			return err
		}, nil)
	case "leave":
		var leaveErr error
		return m.action(func(ctx context.Context) error {
			leaveErr = chat.Leave(ctx)
			return leaveErr
		}, func(m *Model) tea.Cmd {
			if leaveErr != nil {
				return nil
			}
			return leaveScreen(m)
		})
	case "delete":
		if !chat.IsOwner() {
			return m.showToast(messenger.Notification{Level: messenger.LevelError, Text: "Only the owner can delete the group"})
		}
		var deleteErr error
		return m.action(func(ctx context.Context) error {
			deleteErr = chat.Delete(ctx)
			return deleteErr
		}, func(m *Model) tea.Cmd {
			if deleteErr != nil {
				return nil
			}
			return leaveScreen(m)
		})
	}
	return m.showToast(messenger.Notification{Level: messenger.LevelError, Text: "Unknown command /" + name})
}

func (s *groupChatScreen) view(m *Model, width, height int) string {
	composer := m.st.border.Width(max(10, width-4)).Render(s.input.view(true))
	listWidth := width
	info := ""
	if s.showInfo {
		info = s.renderInfo(m)
		listWidth = max(10, width-lipgloss.Width(info)-1)
	}
	listHeight := max(0, height-lipgloss.Height(composer))

	var lines []string
	now := time.Now()
	self := m.self()
	for _, day := range s.chat.Days() {
		lines = append(lines, m.st.muted.Render(centered(day.Label(now), listWidth)))
		for _, msg := range day.Entries {
			lines = append(lines, s.renderMessage(m, msg, self))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, m.st.muted.Render("No messages yet."))
	}
	if len(lines) > listHeight {
		lines = lines[len(lines)-listHeight:]
	}
	body := lipgloss.NewStyle().Width(listWidth).Render(strings.Join(lines, "\n"))
	if info != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", info)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, composer)
}

func (s *groupChatScreen) renderMessage(m *Model, msg models.GroupMessage, self string) string {
	stamp := ""
	if m.showTimestamps() {
		stamp = m.st.muted.Render(clock(msg.Time())) + " "
	}
	if msg.Mine(self) {
		status := ""
		if msg.Pending {
			status = " " + m.st.muted.Render("…")
		}
		return stamp + m.st.own.Render("you") + ": " + renderBody(m, msg.Content) + status
	}
	return stamp + senderStyle(msg.SenderEmail).Render(m.profiles.Name(msg.SenderEmail)) + ": " + renderBody(m, msg.Content)
}

func (s *groupChatScreen) renderInfo(m *Model) string {
	detail, ok := s.chat.Detail()
	if !ok {
		return m.st.border.Render(m.st.muted.Render("Loading…"))
	}
	lines := []string{m.st.accent.Render(s.chat.Group().DisplayName()), m.st.muted.Render("owner " + detail.Group.OwnerEmail), ""}
	for _, member := range detail.Members {
		role := ""
		switch {
		case detail.IsOwner(member.MemberEmail):
			role = m.st.star.Render(" owner")
		case bool(member.IsAdmin):
			role = m.st.accent.Render(" admin")
		}
		lines = append(lines, senderStyle(member.MemberEmail).Render(member.MemberEmail)+role)
	}
	return m.st.border.Render(strings.Join(lines, "\n"))
}
