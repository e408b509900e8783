package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tOgg1/wirewave/internal/models"
)

// ListMessages returns every direct message involving the session user.
func (c *Client) ListMessages(ctx context.Context) ([]models.Message, error) {
	req := request{method: http.MethodGet, segments: []string{"messages"}, auth: true}
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Message](req, raw)
}

// SendMessage posts a direct message. The returned message is the server's
// copy when the response carries one; ok is false otherwise.
func (c *Client) SendMessage(ctx context.Context, receiver, content string) (models.Message, bool, error) {
	receiver = strings.TrimSpace(receiver)
	if err := models.ValidateDirectMessage(receiver, content); err != nil {
		return models.Message{}, false, err
	}

	raw, err := c.send(ctx, request{
		method:   http.MethodPost,
		segments: []string{"messages"},
		body: map[string]string{
			"receiver_email": receiver,
			"content":        content,
		},
		auth: true,
	})
	if err != nil {
		return models.Message{}, false, err
	}
	msg, ok := decodeCreated[models.Message](raw)
	return msg, ok, nil
}

// SendMulti posts the same content to several receivers.
func (c *Client) SendMulti(ctx context.Context, receivers []string, content string) error {
	if err := models.ValidateRecipients(receivers); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{"messages", "multi"},
		body: map[string]any{
			"receiver_emails": receivers,
			"content":         content,
		},
		auth: true,
	}, nil)
}

// DeleteConversation deletes every message exchanged with peer.
func (c *Client) DeleteConversation(ctx context.Context, peer string) error {
	if err := models.ValidateMemberEmail(peer); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, segments: []string{"messages", peer}, auth: true}, nil)
}

// MarkRead marks one message read.
func (c *Client) MarkRead(ctx context.Context, id models.ID) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		segments: []string{"messages", "read"},
		body:     map[string]models.ID{"message_id": id},
		auth:     true,
	}, nil)
}

// decodeCreated decodes a created entity, accepting either the bare object or
// one wrapped as {"data": {...}} / {"message": {...}}. ok is false when no id
// was found.
func decodeCreated[T interface{ EntryID() string }](raw []byte) (T, bool) {
	var zero T
	var direct T
	if err := json.Unmarshal(raw, &direct); err == nil && direct.EntryID() != "" {
		return direct, true
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return zero, false
	}
	for _, key := range []string{"data", "message"} {
		inner, ok := wrapped[key]
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal(inner, &v); err == nil && v.EntryID() != "" {
			return v, true
		}
	}
	return zero, false
}
