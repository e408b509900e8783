package messenger

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/wirewave/internal/conversation"
	"github.com/tOgg1/wirewave/internal/logging"
	"github.com/tOgg1/wirewave/internal/models"
	"github.com/tOgg1/wirewave/internal/poll"
	"github.com/tOgg1/wirewave/internal/readstate"
	"github.com/tOgg1/wirewave/internal/store"
)

// Conversation is a direct-message conversation summary.
type Conversation = conversation.Conversation[models.Message]

// Inbox polls the direct messages of the signed-in user and derives the
// conversation list from them.
type Inbox struct {
	api     MessageAPI
	me      Identity
	flags   FlagStore
	sink    NotificationSink
	tracker *readstate.Tracker
	sync    *poll.Synchronizer[models.Message]
	logger  zerolog.Logger

	mu           sync.Mutex
	search       string
	showArchived bool
	starredFirst bool
}

// NewInbox creates a stopped inbox. flags may be nil.
func NewInbox(messages MessageAPI, me Identity, flags FlagStore, sink NotificationSink, cfg Config) *Inbox {
	cfg = cfg.withDefaults()
	in := &Inbox{
		api:          messages,
		me:           me,
		flags:        flags,
		sink:         sinkOrDiscard(sink),
		tracker:      readstate.NewTracker(messages),
		logger:       logging.Component("inbox"),
		starredFirst: true,
	}
	in.sync = poll.New[models.Message](poll.Config{Name: "messages", Interval: cfg.MessagesInterval}, messages.ListMessages)
	return in
}

// Start begins polling.
func (in *Inbox) Start(ctx context.Context) error { return in.sync.Start(ctx) }

// Stop halts polling.
func (in *Inbox) Stop() error { return in.sync.Stop() }

// Refresh fetches now.
func (in *Inbox) Refresh(ctx context.Context) error { return in.sync.Refresh(ctx) }

// Updates signals when the message list changed.
func (in *Inbox) Updates() <-chan struct{} { return in.sync.Updates() }

// Loaded reports whether the first fetch has landed.
func (in *Inbox) Loaded() bool { return in.sync.Loaded() }

// Tracker returns the read-state tracker shared by every chat.
func (in *Inbox) Tracker() *readstate.Tracker { return in.tracker }

// Self returns the signed-in email.
func (in *Inbox) Self() string { return in.me.Email() }

// Messages returns every known message with local reads applied.
func (in *Inbox) Messages() []models.Message {
	return in.tracker.Apply(in.sync.Snapshot())
}

// SetSearch filters conversations by peer or last message text.
func (in *Inbox) SetSearch(q string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.search = q
}

// Search returns the current filter.
func (in *Inbox) Search() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.search
}

// SetShowArchived switches between the inbox and the archive.
func (in *Inbox) SetShowArchived(v bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.showArchived = v
}

// ShowArchived reports whether the archive is shown.
func (in *Inbox) ShowArchived() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.showArchived
}

// SetStarredFirst toggles pinning starred peers to the top.
func (in *Inbox) SetStarredFirst(v bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.starredFirst = v
}

// Conversations derives the visible conversation list.
func (in *Inbox) Conversations() []Conversation {
	in.mu.Lock()
	opts := conversation.Options{
		ShowArchived: in.showArchived,
		StarredFirst: in.starredFirst,
		Search:       in.search,
	}
	in.mu.Unlock()
	if in.flags != nil {
		opts.Flags = in.flags
	}
	return conversation.Derive(in.Messages(), in.me.Email(), opts)
}

// Contacts lists every peer, newest first, regardless of archive state.
func (in *Inbox) Contacts() []string {
	convs := conversation.Derive(in.Messages(), in.me.Email(), conversation.Options{})
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.Peer
	}
	return out
}

// UnreadTotal counts unread messages across unarchived conversations.
func (in *Inbox) UnreadTotal() int {
	opts := conversation.Options{}
	if in.flags != nil {
		opts.Flags = in.flags
	}
	return conversation.Unread(conversation.Derive(in.Messages(), in.me.Email(), opts))
}

// ToggleArchive flips the archived flag of peer.
func (in *Inbox) ToggleArchive(ctx context.Context, peer string) (bool, error) {
	return in.toggle(ctx, store.Archived, peer)
}

// ToggleStar flips the starred flag of peer.
func (in *Inbox) ToggleStar(ctx context.Context, peer string) (bool, error) {
	return in.toggle(ctx, store.Starred, peer)
}

func (in *Inbox) toggle(ctx context.Context, set store.FlagSet, peer string) (bool, error) {
	if in.flags == nil {
		return false, nil
	}
	on, err := in.flags.Toggle(ctx, set, peer)
	if err != nil {
		notifyError(in.sink, err, "Could not update chat")
		return on, err
	}
	in.sync.Mutate(func(m []models.Message) []models.Message { return m })
	return on, nil
}

// DeleteConversation removes every message exchanged with peer. The local
// copy is dropped first; a failed call restores it from the server.
func (in *Inbox) DeleteConversation(ctx context.Context, peer string) error {
	self := in.me.Email()
	in.sync.Mutate(func(msgs []models.Message) []models.Message {
		return slices.DeleteFunc(msgs, func(m models.Message) bool {
			return m.Peer(self) == peer
		})
	})

	if err := in.api.DeleteConversation(ctx, peer); err != nil {
		notifyError(in.sink, err, "Delete failed")
		if rerr := in.sync.Refresh(ctx); rerr != nil {
			in.logger.Debug().Err(rerr).Msg("refresh after failed delete")
		}
		return err
	}

	if in.flags != nil {
		if err := in.flags.Remove(ctx, peer); err != nil {
			in.logger.Warn().Err(err).Str("peer", peer).Msg("failed to clear chat flags")
		}
	}
	notifySuccess(in.sink, "Chat deleted")
	return nil
}

// Chat opens the direct conversation with peer.
func (in *Inbox) Chat(peer string) *DirectChat {
	return &DirectChat{
		inbox:     in,
		peer:      peer,
		selection: readstate.NewSelection(),
		logger:    logging.WithPeer(peer),
	}
}
