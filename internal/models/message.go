// Package models defines the core data types used throughout WireWave.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a server-assigned identifier. The API returns ids either as JSON
// strings or as integers; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a string, a number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids back as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.Numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Numeric reports whether the id is a plain non-negative integer.
func (id ID) Numeric() bool {
	if id == "" {
		return false
	}
	_, err := strconv.ParseUint(string(id), 10, 64)
	return err == nil
}

func (id ID) String() string {
	return string(id)
}

// Flag is a boolean that also decodes from 0/1 and "true"/"false".
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch strings.Trim(strings.TrimSpace(string(data)), `"`) {
	case "true", "1", "t", "TRUE", "True":
		*f = true
	case "false", "0", "f", "FALSE", "False", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid boolean %s", string(data))
	}
	return nil
}

// Message is a direct message between two users.
type Message struct {
	ID            ID     `json:"id"`
	SenderEmail   string `json:"sender_email"`
	ReceiverEmail string `json:"receiver_email"`
	Content       string `json:"content"`
	SentAt        string `json:"sent_at"`
	Read          Flag   `json:"read"`

	// Pending marks an optimistic local copy not yet seen on the server.
	Pending bool `json:"-"`
}

// EntryID returns the message id.
func (m Message) EntryID() string { return string(m.ID) }

// Peer returns the other participant relative to self.
func (m Message) Peer(self string) string {
	if m.SenderEmail == self {
		return m.ReceiverEmail
	}
	return m.SenderEmail
}

// Body returns the message content.
func (m Message) Body() string { return m.Content }

// Time returns the parsed send time, or the zero time when unparseable.
func (m Message) Time() time.Time { return ParseTime(m.SentAt) }

// UnreadFor reports whether the message is addressed to self and unread.
func (m Message) UnreadFor(self string) bool {
	return self != "" && m.ReceiverEmail == self && !bool(m.Read)
}

// Key identifies the message across fetches.
func (m Message) Key() string { return string(m.ID) }

// Fingerprint changes whenever a re-fetched copy differs in a way the
// user can see.
func (m Message) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%t", m.ID, m.SentAt, bool(m.Read))
}

// GroupPeerPrefix prefixes group ids when groups share a roster with
// direct contacts.
const GroupPeerPrefix = "group:"

// GroupPeer returns the peer key for a group.
func GroupPeer(groupID ID) string {
	return GroupPeerPrefix + string(groupID)
}

// GroupMessage is a message posted to a group.
type GroupMessage struct {
	ID          ID     `json:"id"`
	GroupID     ID     `json:"group_id"`
	SenderEmail string `json:"sender_email"`
	Content     string `json:"content"`
	SentAt      string `json:"sent_at"`

	Pending bool `json:"-"`
}

// EntryID returns the message id.
func (m GroupMessage) EntryID() string { return string(m.ID) }

// Peer returns the group's peer key; every member shares it.
func (m GroupMessage) Peer(string) string {
	if m.GroupID == "" {
		return ""
	}
	return GroupPeer(m.GroupID)
}

// Body returns the message content.
func (m GroupMessage) Body() string { return m.Content }

// Time returns the parsed send time, or the zero time when unparseable.
func (m GroupMessage) Time() time.Time { return ParseTime(m.SentAt) }

// UnreadFor is always false; groups carry no read flags.
func (m GroupMessage) UnreadFor(string) bool { return false }

// Key identifies the message across fetches.
func (m GroupMessage) Key() string { return string(m.ID) }

// Fingerprint compares by id and send time.
func (m GroupMessage) Fingerprint() string {
	return string(m.ID) + "|" + m.SentAt
}

// Mine reports whether self sent the message.
func (m GroupMessage) Mine(self string) bool {
	return self != "" && m.SenderEmail == self
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	time.RFC1123Z,
	time.RFC1123,
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses an API timestamp. Strings without a zone are read as
// local time. Anything unparseable yields the zero time, which sorts last.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FormatTime renders a time the way the API emits it.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
