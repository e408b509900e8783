// Package conversation derives per-peer conversation summaries from a flat
// list of messages.
package conversation

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// Entry is a message-like item that belongs to a conversation.
type Entry interface {
	EntryID() string
	// Peer is the conversation key relative to self. Empty means the entry
	// belongs to no conversation.
	Peer(self string) string
	Body() string
	Time() time.Time
	UnreadFor(self string) bool
}

// Flags reports the local per-peer markers.
type Flags interface {
	IsArchived(peer string) bool
	IsStarred(peer string) bool
}

// Options controls filtering and ordering.
type Options struct {
	// Flags may be nil, which disables archive partitioning and starring.
	Flags Flags
	// ShowArchived selects archived peers only; otherwise they are hidden.
	ShowArchived bool
	// StarredFirst orders starred peers ahead of the rest.
	StarredFirst bool
	// Search is a case-insensitive substring matched against the peer and
	// the last message body.
	Search string
}

// Conversation summarizes one peer.
type Conversation[T Entry] struct {
	Peer            string
	Last            T
	LastMessageTime time.Time
	UnreadCount     int
	MessageCount    int
	Starred         bool
	Archived        bool
}

// Derive groups entries by peer and returns one conversation per peer,
// newest first. It is recomputed from scratch on every call.
func Derive[T Entry](entries []T, self string, opts Options) []Conversation[T] {
	byPeer := make(map[string]int)
	out := make([]Conversation[T], 0)

	for _, e := range entries {
		peer := e.Peer(self)
		if peer == "" || peer == self {
			continue
		}
		ts := e.Time()

		idx, ok := byPeer[peer]
		if !ok {
			byPeer[peer] = len(out)
			out = append(out, Conversation[T]{Peer: peer, Last: e, LastMessageTime: ts})
			idx = len(out) - 1
		} else if ts.After(out[idx].LastMessageTime) {
			out[idx].Last = e
			out[idx].LastMessageTime = ts
		}

		c := &out[idx]
		c.MessageCount++
		if e.UnreadFor(self) {
			c.UnreadCount++
		}
	}

	if opts.Flags != nil {
		for i := range out {
			out[i].Archived = opts.Flags.IsArchived(out[i].Peer)
			out[i].Starred = opts.Flags.IsStarred(out[i].Peer)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if opts.StarredFirst && out[i].Starred != out[j].Starred {
			return out[i].Starred
		}
		return newer(out[i].LastMessageTime, out[j].LastMessageTime)
	})

	return slices.DeleteFunc(out, func(c Conversation[T]) bool {
		if opts.Flags != nil && c.Archived != opts.ShowArchived {
			return true
		}
		return !matches(c, opts.Search)
	})
}

// newer orders valid timestamps descending; zero times sort last.
func newer(a, b time.Time) bool {
	if a.IsZero() != b.IsZero() {
		return b.IsZero()
	}
	return a.After(b)
}

func matches[T Entry](c Conversation[T], search string) bool {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Peer), q) ||
		strings.Contains(strings.ToLower(c.Last.Body()), q)
}

// Unread sums the unread counts.
func Unread[T Entry](convs []Conversation[T]) int {
	total := 0
	for _, c := range convs {
		total += c.UnreadCount
	}
	return total
}
