// Package messenger holds the screen controllers of the client: inbox,
// direct and group chats, broadcasts, profiles and presence. Controllers own
// their polling and optimistic state and report user-facing outcomes through
// a NotificationSink.
package messenger

import (
	"context"
	"time"

	"github.com/tOgg1/wirewave/internal/models"
	"github.com/tOgg1/wirewave/internal/store"
)

// MessageAPI is the direct-message surface of the server.
type MessageAPI interface {
	ListMessages(ctx context.Context) ([]models.Message, error)
	SendMessage(ctx context.Context, receiver, content string) (models.Message, bool, error)
	SendMulti(ctx context.Context, receivers []string, content string) error
	DeleteConversation(ctx context.Context, peer string) error
	MarkRead(ctx context.Context, id models.ID) error
}

// GroupAPI is the group surface of the server.
type GroupAPI interface {
	ListGroups(ctx context.Context) ([]models.Group, error)
	GetGroup(ctx context.Context, id models.ID) (models.GroupDetail, error)
	CreateGroup(ctx context.Context, name string, members []string) (models.Group, error)
	RenameGroup(ctx context.Context, id models.ID, name string) error
	AddMember(ctx context.Context, id models.ID, email string, makeAdmin bool) error
	SetAdmin(ctx context.Context, id models.ID, email string, admin bool) error
	RemoveMember(ctx context.Context, id models.ID, email string) error
	LeaveGroup(ctx context.Context, id models.ID) error
	DeleteGroup(ctx context.Context, id models.ID) error
	GroupMessages(ctx context.Context, id models.ID, limit, offset int) ([]models.GroupMessage, error)
	SendGroupMessage(ctx context.Context, id models.ID, content string) (models.GroupMessage, bool, error)
}

// Enhancer rewrites drafts.
type Enhancer interface {
	Enhance(ctx context.Context, text string) (string, error)
}

// ProfileStore looks up other users' profiles.
type ProfileStore interface {
	SearchUser(ctx context.Context, email string) (models.Profile, error)
}

// Pinger reports liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Identity supplies the signed-in user's email.
type Identity interface {
	Email() string
}

// FlagStore holds the archived and starred peer sets.
type FlagStore interface {
	IsArchived(peer string) bool
	IsStarred(peer string) bool
	Toggle(ctx context.Context, set store.FlagSet, peer string) (bool, error)
	Remove(ctx context.Context, peer string) error
}

// Config holds polling intervals.
type Config struct {
	MessagesInterval      time.Duration
	GroupsInterval        time.Duration
	GroupsMinInterval     time.Duration
	GroupMessagesInterval time.Duration
	GroupMessageLimit     int
	PingInterval          time.Duration
}

// DefaultConfig returns the standard intervals.
func DefaultConfig() Config {
	return Config{
		MessagesInterval:      4 * time.Second,
		GroupsInterval:        10 * time.Second,
		GroupsMinInterval:     2500 * time.Millisecond,
		GroupMessagesInterval: 4 * time.Second,
		GroupMessageLimit:     200,
		PingInterval:          30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MessagesInterval <= 0 {
		c.MessagesInterval = def.MessagesInterval
	}
	if c.GroupsInterval <= 0 {
		c.GroupsInterval = def.GroupsInterval
	}
	if c.GroupsMinInterval < 0 {
		c.GroupsMinInterval = 0
	}
	if c.GroupMessagesInterval <= 0 {
		c.GroupMessagesInterval = def.GroupMessagesInterval
	}
	if c.GroupMessageLimit <= 0 {
		c.GroupMessageLimit = def.GroupMessageLimit
	}
	return c
}
