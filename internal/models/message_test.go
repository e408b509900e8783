package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessageDecodesFlexibleFields(t *testing.T) {
	var msgs []Message
	err := json.Unmarshal([]byte(`[
		{"id": 7, "sender_email": "a@x.io", "receiver_email": "b@x.io", "content": "hi", "sent_at": "2024-03-01T10:00:00Z", "read": 1},
		{"id": "m-8", "sender_email": "b@x.io", "receiver_email": "a@x.io", "content": "yo", "sent_at": "2024-03-01T10:01:00Z", "read": false}
	]`), &msgs)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, ID("7"), msgs[0].ID)
	require.True(t, bool(msgs[0].Read))
	require.Equal(t, ID("m-8"), msgs[1].ID)
	require.False(t, bool(msgs[1].Read))
}

func TestIDMarshalKeepsNumbers(t *testing.T) {
	out, err := json.Marshal(map[string]ID{"message_id": "42"})
	require.NoError(t, err)
	require.JSONEq(t, `{"message_id": 42}`, string(out))

	out, err = json.Marshal(map[string]ID{"message_id": "abc"})
	require.NoError(t, err)
	require.JSONEq(t, `{"message_id": "abc"}`, string(out))
}

func TestMessagePeerAndUnread(t *testing.T) {
	m := Message{ID: "1", SenderEmail: "b@x.io", ReceiverEmail: "a@x.io"}
	require.Equal(t, "b@x.io", m.Peer("a@x.io"))
	require.Equal(t, "a@x.io", m.Peer("b@x.io"))
	require.True(t, m.UnreadFor("a@x.io"))
	require.False(t, m.UnreadFor("b@x.io"))

	m.Read = true
	require.False(t, m.UnreadFor("a@x.io"))
}

func TestMessageFingerprintTracksRead(t *testing.T) {
	m := Message{ID: "1", SentAt: "2024-03-01T10:00:00Z"}
	before := m.Fingerprint()
	m.Read = true
	require.NotEqual(t, before, m.Fingerprint())
	require.Equal(t, "1", m.Key())
}

func TestGroupMessagePeer(t *testing.T) {
	m := GroupMessage{ID: "5", GroupID: "12", SenderEmail: "a@x.io"}
	require.Equal(t, "group:12", m.Peer("a@x.io"))
	require.False(t, m.UnreadFor("a@x.io"))
	require.True(t, m.Mine("a@x.io"))
	require.Equal(t, "5|", m.Fingerprint())
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.True(t, ParseTime("2024-03-01T10:00:00Z").Equal(want))
	require.True(t, ParseTime("2024-03-01T10:00:00.000Z").Equal(want))
	require.True(t, ParseTime("2024-03-01T12:00:00+02:00").Equal(want))
	require.True(t, ParseTime("2024-03-01T10:00:00+0000").Equal(want))

	local := ParseTime("2024-03-01 10:00:00")
	require.Equal(t, time.Local, local.Location())
	require.Equal(t, 10, local.Hour())

	require.True(t, ParseTime("").IsZero())
	require.True(t, ParseTime("yesterday").IsZero())
}
