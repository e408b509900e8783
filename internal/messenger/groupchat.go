package messenger

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/wirewave/internal/conversation"
	"github.com/tOgg1/wirewave/internal/logging"
	"github.com/tOgg1/wirewave/internal/models"
	"github.com/tOgg1/wirewave/internal/poll"
)

// GroupChat is an open group conversation.
type GroupChat struct {
	groups *Groups
	sync   *poll.Synchronizer[models.GroupMessage]
	logger zerolog.Logger

	mu     sync.Mutex
	group  models.Group
	detail *models.GroupDetail
}

func newGroupChat(g *Groups, group models.Group) *GroupChat {
	id := group.ID
	limit := g.cfg.GroupMessageLimit
	return &GroupChat{
		groups: g,
		group:  group,
		logger: logging.WithGroup(string(id)),
		sync: poll.New[models.GroupMessage](poll.Config{
			Name:     "group-messages",
			Interval: g.cfg.GroupMessagesInterval,
		}, func(ctx context.Context) ([]models.GroupMessage, error) {
			return g.api.GroupMessages(ctx, id, limit, 0)
		}),
	}
}

func (c *GroupChat) stop() {
	if err := c.sync.Stop(); err != nil && !errors.Is(err, poll.ErrNotRunning) {
		c.logger.Debug().Err(err).Msg("group chat stop")
	}
}

// Group returns the group as last known.
func (c *GroupChat) Group() models.Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.group
}

// ID returns the group id.
func (c *GroupChat) ID() models.ID { return c.Group().ID }

// Updates signals when the message list changed.
func (c *GroupChat) Updates() <-chan struct{} { return c.sync.Updates() }

// Refresh reloads the messages now.
func (c *GroupChat) Refresh(ctx context.Context) error { return c.sync.Refresh(ctx) }

// Messages returns the group messages, oldest first.
func (c *GroupChat) Messages() []models.GroupMessage {
	return conversation.ForPeer(c.sync.Snapshot(), c.groups.me.Email(), models.GroupPeer(c.ID()))
}

// Days returns the messages in date buckets.
func (c *GroupChat) Days() []conversation.Day[models.GroupMessage] {
	return conversation.GroupByDay(c.Messages())
}

// Send posts text to the group. Empty text is ignored without a request.
// The server's copy is appended when the response carries one.
func (c *GroupChat) Send(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}
	msg, ok, err := c.groups.api.SendGroupMessage(ctx, c.ID(), text)
	if err != nil {
		notifyError(c.groups.sink, err, "Send failed")
		return false, err
	}
	if ok {
		if msg.GroupID == "" {
			msg.GroupID = c.ID()
		}
		c.sync.AddPending(msg)
	}
	return true, nil
}

// ShareLocation posts a map link for the given coordinates.
func (c *GroupChat) ShareLocation(ctx context.Context, lat, lng float64) (bool, error) {
	return c.Send(ctx, models.FormatLocation(lat, lng))
}

// system posts a membership notice. Failures are ignored.
func (c *GroupChat) system(ctx context.Context, text string) {
	if _, _, err := c.groups.api.SendGroupMessage(ctx, c.ID(), text); err != nil {
		c.logger.Debug().Err(err).Msg("system message failed")
	}
}

// Info loads the group's details and members.
func (c *GroupChat) Info(ctx context.Context) (models.GroupDetail, error) {
	detail, err := c.groups.api.GetGroup(ctx, c.ID())
	if err != nil {
		return models.GroupDetail{}, err
	}
	c.mu.Lock()
	c.detail = &detail
	if detail.Group.ID != "" {
		c.group = detail.Group
	}
	c.mu.Unlock()
	return detail, nil
}

// Detail returns the last loaded details.
func (c *GroupChat) Detail() (models.GroupDetail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detail == nil {
		return models.GroupDetail{}, false
	}
	return *c.detail, true
}

// IsOwner reports whether the signed-in user owns the group.
func (c *GroupChat) IsOwner() bool {
	d, ok := c.Detail()
	return ok && d.IsOwner(c.groups.me.Email())
}

// IsAdmin reports whether the signed-in user administers the group.
func (c *GroupChat) IsAdmin() bool {
	d, ok := c.Detail()
	return ok && d.IsAdmin(c.groups.me.Email())
}

func (c *GroupChat) reloadInfo(ctx context.Context) {
	if _, err := c.Info(ctx); err != nil {
		c.logger.Debug().Err(err).Msg("group info reload failed")
	}
}

// Rename changes the group name. Empty names are ignored.
func (c *GroupChat) Rename(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if err := c.groups.api.RenameGroup(ctx, c.ID(), name); err != nil {
		notifyError(c.groups.sink, err, "Rename failed")
		return err
	}
	c.mu.Lock()
	c.group.Name = name
	c.mu.Unlock()
	c.reloadInfo(ctx)
	c.groups.reload(ctx)
	return nil
}

// AddMember adds a non-admin member. Empty input is ignored.
func (c *GroupChat) AddMember(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if err := c.groups.api.AddMember(ctx, c.ID(), email, false); err != nil {
		notifyError(c.groups.sink, err, "Add member failed")
		return err
	}
	c.reloadInfo(ctx)
	c.groups.reload(ctx)
	return nil
}

// RemoveMember removes a member and posts a notice.
func (c *GroupChat) RemoveMember(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}
	if err := c.groups.api.RemoveMember(ctx, c.ID(), email); err != nil {
		notifyError(c.groups.sink, err, "Remove failed")
		return err
	}
	c.reloadInfo(ctx)
	c.system(ctx, models.MemberRemovedNotice(c.groups.me.Email(), email))
	return nil
}

// SetAdmin promotes or demotes a member and posts a notice.
func (c *GroupChat) SetAdmin(ctx context.Context, email string, admin bool) error {
	if email == "" {
		return nil
	}
	if err := c.groups.api.SetAdmin(ctx, c.ID(), email, admin); err != nil {
		notifyError(c.groups.sink, err, "Admin update failed")
		return err
	}
	c.reloadInfo(ctx)
	me := c.groups.me.Email()
	if admin {
		c.system(ctx, models.AdminGrantedNotice(me, email))
	} else {
		c.system(ctx, models.AdminRevokedNotice(me, email))
	}
	return nil
}

// Leave posts a notice while still a member, then leaves and closes the
// chat.
func (c *GroupChat) Leave(ctx context.Context) error {
	c.system(ctx, models.MemberLeftNotice(c.groups.me.Email()))
	if err := c.groups.api.LeaveGroup(ctx, c.ID()); err != nil {
		notifyError(c.groups.sink, err, "Leave failed")
		return err
	}
	c.groups.closeIf(c)
	c.groups.reload(ctx)
	return nil
}

// Delete removes the group for everyone and closes the chat.
func (c *GroupChat) Delete(ctx context.Context) error {
	if err := c.groups.api.DeleteGroup(ctx, c.ID()); err != nil {
		notifyError(c.groups.sink, err, "Delete failed")
		return err
	}
	c.groups.closeIf(c)
	c.groups.reload(ctx)
	return nil
}
