package messenger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tOgg1/wirewave/internal/conversation"
	"github.com/tOgg1/wirewave/internal/models"
	"github.com/tOgg1/wirewave/internal/readstate"
)

// DirectChat is the open conversation with one peer. It reads from the
// inbox's message poll.
type DirectChat struct {
	inbox     *Inbox
	peer      string
	selection *readstate.Selection
	logger    zerolog.Logger
}

// Peer returns the other participant.
func (c *DirectChat) Peer() string { return c.peer }

// Thread returns the conversation, oldest first.
func (c *DirectChat) Thread() []models.Message {
	return conversation.ForPeer(c.inbox.Messages(), c.inbox.Self(), c.peer)
}

// Days returns the thread in date buckets.
func (c *DirectChat) Days() []conversation.Day[models.Message] {
	return conversation.GroupByDay(c.Thread())
}

// Observe marks unread incoming messages of the thread as read. Call it
// after every update while the chat is open.
func (c *DirectChat) Observe(ctx context.Context) []models.ID {
	flipped := c.inbox.tracker.Observe(ctx, c.inbox.Messages(), c.inbox.Self(), c.peer)
	c.flip(flipped)
	return flipped
}

func (c *DirectChat) flip(ids []models.ID) {
	if len(ids) == 0 {
		return
	}
	set := make(map[models.ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	c.inbox.sync.Mutate(func(msgs []models.Message) []models.Message {
		for i := range msgs {
			if _, ok := set[msgs[i].ID]; ok {
				msgs[i].Read = true
			}
		}
		return msgs
	})
}

// Send posts text to the peer. Empty text is ignored without a request.
// The message is shown immediately and replaced by the server copy.
func (c *DirectChat) Send(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" || c.peer == "" {
		return false, nil
	}

	localID := "local-" + uuid.NewString()
	c.inbox.sync.AddPending(models.Message{
		ID:            models.ID(localID),
		SenderEmail:   c.inbox.Self(),
		ReceiverEmail: c.peer,
		Content:       text,
		SentAt:        models.FormatTime(time.Now()),
		Read:          true,
		Pending:       true,
	})

	sent, ok, err := c.inbox.api.SendMessage(ctx, c.peer, text)
	if err != nil {
		c.inbox.sync.DropPending(localID)
		notifyError(c.inbox.sink, err, "Send failed")
		return false, err
	}
	if ok {
		c.inbox.sync.Confirm(localID, sent)
	} else {
		c.inbox.sync.DropPending(localID)
	}

	if err := c.inbox.sync.Refresh(ctx); err != nil {
		c.logger.Debug().Err(err).Msg("refresh after send")
	}
	return true, nil
}

// ShareLocation sends a map link for the given coordinates.
func (c *DirectChat) ShareLocation(ctx context.Context, lat, lng float64) (bool, error) {
	return c.Send(ctx, models.FormatLocation(lat, lng))
}

// Selection returns the ids picked for bulk actions.
func (c *DirectChat) Selection() *readstate.Selection { return c.selection }

// MarkSelectedRead marks the selected incoming unread messages read and
// leaves selection mode.
func (c *DirectChat) MarkSelectedRead(ctx context.Context) ([]models.ID, error) {
	ids, err := c.inbox.tracker.MarkSelectedRead(ctx, c.selection, c.Thread(), c.inbox.Self())
	c.flip(ids)
	if err != nil {
		notifyError(c.inbox.sink, err, "Mark read failed")
		return ids, err
	}
	return ids, nil
}

// Delete removes the whole conversation.
func (c *DirectChat) Delete(ctx context.Context) error {
	return c.inbox.DeleteConversation(ctx, c.peer)
}
