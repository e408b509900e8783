package messenger

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/wirewave/internal/logging"
	"github.com/tOgg1/wirewave/internal/models"
	"github.com/tOgg1/wirewave/internal/poll"
)

// Groups polls the group list and opens group chats.
type Groups struct {
	api    GroupAPI
	me     Identity
	sink   NotificationSink
	cfg    Config
	sync   *poll.Synchronizer[models.Group]
	logger zerolog.Logger

	mu     sync.Mutex
	active *GroupChat
}

// NewGroups creates a stopped group list.
func NewGroups(groups GroupAPI, me Identity, sink NotificationSink, cfg Config) *Groups {
	cfg = cfg.withDefaults()
	return &Groups{
		api:    groups,
		me:     me,
		sink:   sinkOrDiscard(sink),
		cfg:    cfg,
		logger: logging.Component("groups"),
		sync: poll.New[models.Group](poll.Config{
			Name:        "groups",
			Interval:    cfg.GroupsInterval,
			MinInterval: cfg.GroupsMinInterval,
		}, groups.ListGroups),
	}
}

// Start begins polling the group list.
func (g *Groups) Start(ctx context.Context) error { return g.sync.Start(ctx) }

// Stop halts polling, including the open group chat.
func (g *Groups) Stop() error {
	g.Close()
	return g.sync.Stop()
}

// Trigger asks for a throttled background reload.
func (g *Groups) Trigger() bool { return g.sync.Trigger() }

// Refresh reloads the list now.
func (g *Groups) Refresh(ctx context.Context) error { return g.sync.Refresh(ctx) }

// Updates signals when the list changed.
func (g *Groups) Updates() <-chan struct{} { return g.sync.Updates() }

// Loaded reports whether the group list has been fetched once.
func (g *Groups) Loaded() bool { return g.sync.Loaded() }

// List returns the known groups.
func (g *Groups) List() []models.Group { return g.sync.Snapshot() }

// Find returns the group with id from the last fetch.
func (g *Groups) Find(id models.ID) (models.Group, bool) {
	list := g.List()
	i := slices.IndexFunc(list, func(gr models.Group) bool { return gr.ID == id })
	if i < 0 {
		return models.Group{}, false
	}
	return list[i], true
}

// Create makes a group. rawMembers is free text split on commas and
// whitespace; entries without "@" and the current user are dropped. On
// success the new group is opened.
func (g *Groups) Create(ctx context.Context, name, rawMembers string) (*GroupChat, error) {
	members := models.ParseMemberList(rawMembers, g.me.Email())
	created, err := g.api.CreateGroup(ctx, name, members)
	if err != nil {
		notifyError(g.sink, err, "Create failed")
		return nil, err
	}
	g.reload(ctx)
	if created.ID == "" {
		return nil, nil
	}
	return g.Open(ctx, created), nil
}

func (g *Groups) reload(ctx context.Context) {
	if err := g.sync.Refresh(ctx); err != nil {
		g.logger.Debug().Err(err).Msg("group list reload failed")
	}
}

// Open switches the active group chat to group and starts its poll. Any
// previously open chat is stopped.
func (g *Groups) Open(ctx context.Context, group models.Group) *GroupChat {
	chat := newGroupChat(g, group)

	g.mu.Lock()
	prev := g.active
	g.active = chat
	g.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
	if err := chat.sync.Start(ctx); err != nil {
		g.logger.Debug().Err(err).Msg("group chat start")
	}
	return chat
}

// Active returns the open group chat, if any.
func (g *Groups) Active() *GroupChat {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Close stops the open group chat.
func (g *Groups) Close() {
	g.mu.Lock()
	prev := g.active
	g.active = nil
	g.mu.Unlock()
	if prev != nil {
		prev.stop()
	}
}

func (g *Groups) closeIf(chat *GroupChat) {
	g.mu.Lock()
	if g.active != chat {
		g.mu.Unlock()
		return
	}
	g.active = nil
	g.mu.Unlock()
	chat.stop()
}
