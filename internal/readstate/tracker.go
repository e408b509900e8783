// Package readstate tracks which direct messages have been marked read and
// which are selected for bulk actions.
package readstate

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/wirewave/internal/logging"
	"github.com/tOgg1/wirewave/internal/models"
)

// State is the read state of one message.
type State int

const (
	Unread State = iota
	PendingRead
	Read
)

func (s State) String() string {
	switch s {
	case PendingRead:
		return "pending_read"
	case Read:
		return "read"
	default:
		return "unread"
	}
}

// Marker issues the server-side mark-read call.
type Marker interface {
	MarkRead(ctx context.Context, id models.ID) error
}

// Tracker issues at most one in-flight mark-read per message and remembers
// the messages it has marked.
type Tracker struct {
	marker Marker
	logger zerolog.Logger

	mu    sync.Mutex
	state map[models.ID]State
}

// NewTracker creates a tracker.
func NewTracker(marker Marker) *Tracker {
	return &Tracker{
		marker: marker,
		logger: logging.Component("readstate"),
		state:  make(map[models.ID]State),
	}
}

// State returns the tracked state of id.
func (t *Tracker) State(id models.ID) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state[id]
}

// IsRead reports whether the tracker has flipped id to read locally.
func (t *Tracker) IsRead(id models.ID) bool {
	return t.State(id) == Read
}

// Apply returns messages with tracked reads flipped to read. A message that
// has been read locally never reads as unread again.
func (t *Tracker) Apply(messages []models.Message) []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Message, len(messages))
	for i, m := range messages {
		if t.state[m.ID] == Read {
			m.Read = true
		}
		out[i] = m
	}
	return out
}

// Observe marks read every unread message from peer addressed to self. It
// returns the ids it flipped locally, whether or not the server call
// succeeded. Failed ids go back to Unread and are not retried until the
// next observation.
func (t *Tracker) Observe(ctx context.Context, messages []models.Message, self, peer string) []models.ID {
	var candidates []models.ID
	for _, m := range messages {
		if m.Pending || m.Peer(self) != peer || !m.UnreadFor(self) {
			continue
		}
		candidates = append(candidates, m.ID)
	}
	flipped, err := t.mark(ctx, candidates)
	if err != nil {
		t.logger.Debug().Err(err).Str("peer", peer).Msg("mark read failed")
	}
	return flipped
}

// MarkSelectedRead marks the selected messages that are unread and
// addressed to self, ignores the rest, and clears the selection.
func (t *Tracker) MarkSelectedRead(ctx context.Context, sel *Selection, messages []models.Message, self string) ([]models.ID, error) {
	defer sel.Clear()

	var candidates []models.ID
	for _, m := range messages {
		if sel.Has(m.ID) && !m.Pending && m.UnreadFor(self) {
			candidates = append(candidates, m.ID)
		}
	}
	return t.mark(ctx, candidates)
}

func (t *Tracker) mark(ctx context.Context, ids []models.ID) ([]models.ID, error) {
	t.mu.Lock()
	var claimed []models.ID
	for _, id := range ids {
		if id == "" || t.state[id] != Unread {
			continue
		}
		t.state[id] = PendingRead
		claimed = append(claimed, id)
	}
	t.mu.Unlock()

	var errs []error
	for _, id := range claimed {
		err := t.marker.MarkRead(ctx, id)

		t.mu.Lock()
		if err != nil {
			t.state[id] = Unread
		} else {
			t.state[id] = Read
		}
		t.mu.Unlock()

		if err != nil {
			errs = append(errs, err)
		}
	}
	return claimed, errors.Join(errs...)
}

// Reset forgets all tracked state, for example after logout.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = make(map[models.ID]State)
}
