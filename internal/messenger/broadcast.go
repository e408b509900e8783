package messenger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tOgg1/wirewave/internal/models"
)

// Broadcast sends one message to several contacts.
type Broadcast struct {
	api  MessageAPI
	sink NotificationSink

	mu       sync.Mutex
	selected []string
	draft    string
}

// NewBroadcast creates an empty broadcast.
func NewBroadcast(messages MessageAPI, sink NotificationSink) *Broadcast {
	return &Broadcast{api: messages, sink: sinkOrDiscard(sink)}
}

// Toggle adds or removes a recipient and reports whether it is selected.
func (b *Broadcast) Toggle(email string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := slices.Index(b.selected, email); i >= 0 {
		b.selected = slices.Delete(b.selected, i, i+1)
		return false
	}
	b.selected = append(b.selected, email)
	return true
}

// Selected returns the recipients in selection order.
func (b *Broadcast) Selected() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.selected)
}

// IsSelected reports whether email is a recipient.
func (b *Broadcast) IsSelected(email string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Contains(b.selected, email)
}

// SetDraft replaces the text to send.
func (b *Broadcast) SetDraft(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft = text
}

// Draft returns the text to send.
func (b *Broadcast) Draft() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draft
}

// Send posts the draft to every selected recipient with the broadcast
// marker. Selection and draft are cleared on success.
func (b *Broadcast) Send(ctx context.Context) error {
	b.mu.Lock()
	recipients := slices.Clone(b.selected)
	draft := b.draft
	b.mu.Unlock()

	if err := models.ValidateRecipients(recipients); err != nil {
		notifyError(b.sink, err, "Select at least one recipient.")
		return err
	}

	if err := b.api.SendMulti(ctx, recipients, models.FormatBroadcast(draft)); err != nil {
		notifyError(b.sink, err, "Failed to send")
		return err
	}

	b.mu.Lock()
	b.selected = nil
	b.draft = ""
	b.mu.Unlock()

	notifySuccess(b.sink, fmt.Sprintf("Broadcast sent to %d %s", len(recipients), plural(len(recipients), "contact")))
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// FilterContacts keeps the contacts whose address contains q.
func FilterContacts(contacts []string, q string) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return contacts
	}
	out := make([]string, 0, len(contacts))
	for _, c := range contacts {
		if strings.Contains(strings.ToLower(c), q) {
			out = append(out, c)
		}
	}
	return out
}
