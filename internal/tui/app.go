// Package tui is the interactive terminal client.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tOgg1/wirewave/internal/api"
	"github.com/tOgg1/wirewave/internal/config"
	"github.com/tOgg1/wirewave/internal/logging"
	"github.com/tOgg1/wirewave/internal/messenger"
	"github.com/tOgg1/wirewave/internal/session"
	"github.com/tOgg1/wirewave/internal/store"
)

const defaultToastDuration = 2800 * time.Millisecond

// Options wires the program to an API client and local state.
type Options struct {
	Config    *config.Config
	Client    *api.Client
	Session   *session.Session
	Flags     *store.Flags
	Messenger messenger.Config
}

// screen is one entry of the navigation stack.
type screen interface {
	title() string
	help() string
	update(m *Model, msg tea.KeyMsg) tea.Cmd
	view(m *Model, width, height int) string
}

// Messages delivered to Update.
type (
	inboxSyncMsg     struct{}
	groupsSyncMsg    struct{}
	groupChatSyncMsg struct{ chat *messenger.GroupChat }
	notifyMsg        messenger.Notification
	toastExpiredMsg  struct{ id int }
	// doneMsg reports a finished background action; then runs on the
	// UI goroutine when set.
	doneMsg struct {
		err  error
		then func(m *Model) tea.Cmd
	}
)

// Model is the root bubbletea model.
type Model struct {
	ctx    context.Context
	opts   Options
	logger zerolog.Logger
	st     styles
	theme  string

	notes chan messenger.Notification

	inbox     *messenger.Inbox
	groups    *messenger.Groups
	profiles  *messenger.Profiles
	heartbeat *messenger.Heartbeat

	width  int
	height int
	stack  []screen

	toast      messenger.Notification
	toastID    int
	toastShown bool
}

// NewModel builds the root model. The session decides whether the login
// screen or the inbox comes first.
func NewModel(ctx context.Context, opts Options) *Model {
	theme := ThemeDefault
	if opts.Config != nil && opts.Config.TUI.Theme != "" {
		theme = opts.Config.TUI.Theme
	}
	m := &Model{
		ctx:    ctx,
		opts:   opts,
		logger: logging.Component("tui"),
		st:     newStyles(theme),
		theme:  theme,
		notes:  make(chan messenger.Notification, 32),
	}
	if opts.Session != nil && opts.Session.LoggedIn() && !opts.Session.Expired() {
		m.stack = []screen{newInboxScreen()}
	} else {
		m.stack = []screen{newLoginScreen()}
	}
	return m
}

// Run starts the program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	m := NewModel(ctx, opts)
	defer m.Close()

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Close stops every poll.
func (m *Model) Close() {
	m.stopSession()
}

// Notify implements messenger.NotificationSink. It never blocks; toasts
// beyond the buffer are dropped.
func (m *Model) Notify(n messenger.Notification) {
	select {
	case m.notes <- n:
	default:
		m.logger.Debug().Str("text", n.Text).Msg("toast dropped")
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{listenNotes(m.notes)}
	if m.loggedIn() {
		cmds = append(cmds, m.startSession())
	}
	return tea.Batch(cmds...)
}

func (m *Model) loggedIn() bool {
	return m.opts.Session != nil && m.opts.Session.LoggedIn()
}

// startSession creates the controllers for the signed-in user and starts
// their polls.
func (m *Model) startSession() tea.Cmd {
	m.stopSession()
	cfg := m.opts.Messenger
	m.inbox = messenger.NewInbox(m.opts.Client, m.opts.Session, m.opts.Flags, m, cfg)
	m.groups = messenger.NewGroups(m.opts.Client, m.opts.Session, m, cfg)
	m.profiles = messenger.NewProfiles(m.opts.Client)

	if err := m.inbox.Start(m.ctx); err != nil {
		m.logger.Warn().Err(err).Msg("inbox start")
	}
	if err := m.groups.Start(m.ctx); err != nil {
		m.logger.Warn().Err(err).Msg("groups start")
	}
	if cfg.PingInterval > 0 {
		m.heartbeat = messenger.NewHeartbeat(m.opts.Client, cfg.PingInterval)
		if err := m.heartbeat.Start(m.ctx); err != nil {
			m.logger.Warn().Err(err).Msg("presence start")
		}
	}
	return tea.Batch(listenInbox(m.inbox), listenGroups(m.groups))
}

func (m *Model) stopSession() {
	if m.inbox != nil {
		_ = m.inbox.Stop()
		m.inbox = nil
	}
	if m.groups != nil {
		_ = m.groups.Stop()
		m.groups = nil
	}
	if m.heartbeat != nil {
		_ = m.heartbeat.Stop()
		m.heartbeat = nil
	}
}

func listenNotes(ch <-chan messenger.Notification) tea.Cmd {
	return func() tea.Msg { return notifyMsg(<-ch) }
}

// The listeners below return nil once their controller is stopped.

func listenInbox(in *messenger.Inbox) tea.Cmd {
	if in == nil {
		return nil
	}
	ch := in.Updates()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return inboxSyncMsg{}
	}
}

func listenGroups(g *messenger.Groups) tea.Cmd {
	if g == nil {
		return nil
	}
	ch := g.Updates()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return groupsSyncMsg{}
	}
}

func listenGroupChat(chat *messenger.GroupChat) tea.Cmd {
	if chat == nil {
		return nil
	}
	ch := chat.Updates()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return groupChatSyncMsg{chat: chat}
	}
}

// action runs fn off the UI goroutine and reports its result.
func (m *Model) action(fn func(ctx context.Context) error, then func(m *Model) tea.Cmd) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{err: fn(ctx), then: then}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = typed.Width, typed.Height
		return m, nil

	case notifyMsg:
		return m, tea.Batch(m.showToast(messenger.Notification(typed)), listenNotes(m.notes))

	case toastExpiredMsg:
		if typed.id == m.toastID {
			m.toastShown = false
		}
		return m, nil

	case inboxSyncMsg:
		return m, tea.Batch(m.onInboxSync(), listenInbox(m.inbox))

	case groupsSyncMsg:
		return m, listenGroups(m.groups)

	case groupChatSyncMsg:
		if m.groups == nil || m.groups.Active() != typed.chat {
			return m, nil
		}
		return m, listenGroupChat(typed.chat)

	case doneMsg:
		if typed.err != nil {
			m.logger.Debug().Err(typed.err).Msg("action failed")
			if errors.Is(typed.err, api.ErrUnauthorized) {
				return m, m.logout()
			}
		}
		if typed.then != nil {
			return m, typed.then(m)
		}
		return m, nil

	case recipientCheckMsg, recipientResultMsg:
		if s, ok := m.top().(*newChatScreen); ok {
			return m, s.receive(m, typed)
		}
		return m, nil

	case tea.KeyMsg:
		if typed.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if top := m.top(); top != nil {
			return m, top.update(m, typed)
		}
	}
	return m, nil
}

// onInboxSync runs read tracking for an open chat and fills profiles of
// new contacts.
func (m *Model) onInboxSync() tea.Cmd {
	if m.inbox == nil {
		return nil
	}
	var cmds []tea.Cmd
	if chat, ok := m.top().(*chatScreen); ok {
		c := chat.chat
		cmds = append(cmds, m.action(func(ctx context.Context) error {
			c.Observe(ctx)
			return nil
		}, nil))
	}
	contacts := m.inbox.Contacts()
	profiles := m.profiles
	cmds = append(cmds, m.action(func(ctx context.Context) error {
		profiles.Fill(ctx, contacts)
		return nil
	}, nil))
	return tea.Batch(cmds...)
}

func (m *Model) showToast(n messenger.Notification) tea.Cmd {
	if strings.TrimSpace(n.Text) == "" {
		return nil
	}
	m.toastID++
	m.toast = n
	m.toastShown = true
	d := defaultToastDuration
	if m.opts.Config != nil && m.opts.Config.TUI.ToastDuration > 0 {
		d = m.opts.Config.TUI.ToastDuration
	}
	id := m.toastID
	return tea.Tick(d, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

func (m *Model) top() screen {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

func (m *Model) push(s screen) {
	m.stack = append(m.stack, s)
}

func (m *Model) pop() {
	if len(m.stack) <= 1 {
		return
	}
	if closer, ok := m.top().(interface{ close(*Model) }); ok {
		closer.close(m)
	}
	m.stack = m.stack[:len(m.stack)-1]
}

// reset replaces the whole stack.
func (m *Model) reset(s screen) {
	for len(m.stack) > 1 {
		m.pop()
	}
	m.stack = []screen{s}
}

func (m *Model) logout() tea.Cmd {
	m.stopSession()
	if m.opts.Session != nil {
		if err := m.opts.Session.Logout(m.ctx); err != nil {
			m.logger.Warn().Err(err).Msg("logout")
		}
	}
	m.reset(newLoginScreen())
	return m.showToast(messenger.Notification{Level: messenger.LevelError, Text: api.UnauthorizedText})
}

func (m *Model) showTimestamps() bool {
	return m.opts.Config == nil || m.opts.Config.TUI.ShowTimestamps
}

func (m *Model) self() string {
	if m.opts.Session == nil {
		return ""
	}
	return m.opts.Session.Email()
}

func (m *Model) View() string {
	top := m.top()
	if top == nil {
		return ""
	}
	header := m.renderHeader(top)
	footer := m.renderFooter(top)
	height := max(0, m.height-lipgloss.Height(header)-lipgloss.Height(footer))
	body := top.view(m, m.width, height)
	if m.height > 0 {
		body = lipgloss.NewStyle().Height(height).MaxHeight(height).Render(body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
