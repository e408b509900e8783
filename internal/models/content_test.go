package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBroadcast(t *testing.T) {
	require.Equal(t, "📢 Meeting at 5", FormatBroadcast("  Meeting at 5 "))
	require.Equal(t, "📢 Broadcast message sent", FormatBroadcast(""))
}

func TestLocationRoundTrip(t *testing.T) {
	body := FormatLocation(-6.2, 106.816666)
	require.Equal(t, "📍 My location: https://www.google.com/maps/search/?api=1&query=-6.2,106.816666", body)

	c := ParseContent(body)
	require.Equal(t, ContentLocation, c.Kind)
	require.InDelta(t, -6.2, c.Lat, 1e-9)
	require.InDelta(t, 106.816666, c.Lng, 1e-9)
	require.Contains(t, c.URL, "query=-6.2,106.816666")
}

func TestParseContentKinds(t *testing.T) {
	require.Equal(t, ContentBroadcast, ParseContent("📢 hello").Kind)
	require.Equal(t, "hello", ParseContent("📢 hello").Text)
	require.Equal(t, ContentText, ParseContent("plain").Kind)
	require.Equal(t, ContentText, ParseContent("📍 My location: nowhere").Kind)
}

func TestParseCoordinates(t *testing.T) {
	lat, lng, err := ParseCoordinates("51.5, -0.12")
	require.NoError(t, err)
	require.InDelta(t, 51.5, lat, 1e-9)
	require.InDelta(t, -0.12, lng, 1e-9)

	_, _, err = ParseCoordinates("91,0")
	require.Error(t, err)
	_, _, err = ParseCoordinates("abc")
	require.Error(t, err)
}

func TestLinkTarget(t *testing.T) {
	require.Equal(t, "https://example.com/x", LinkTarget("see https://example.com/x now"))
	require.Equal(t, "https://www.example.com", LinkTarget("go to www.example.com"))
	require.Equal(t, "mailto:bob@example.com", LinkTarget("mail bob@example.com"))
	require.Equal(t, "tel:+15551234567", LinkTarget("call +1 (555) 123-4567"))
	require.Equal(t, "", LinkTarget("nothing here"))
}

func TestParseMemberList(t *testing.T) {
	got := ParseMemberList("b@x.io, c@x.io  me@x.io,bob\n d@x.io", "me@x.io")
	require.Equal(t, []string{"b@x.io", "c@x.io", "d@x.io"}, got)
	require.Empty(t, ParseMemberList("   ", "me@x.io"))
}

func TestSystemNotices(t *testing.T) {
	require.Equal(t, "a@x.io removed b@x.io", MemberRemovedNotice("a@x.io", "b@x.io"))
	require.Equal(t, "a@x.io left the group", MemberLeftNotice("a@x.io"))
	require.Equal(t, "a@x.io made b@x.io an admin", AdminGrantedNotice("a@x.io", "b@x.io"))
	require.Equal(t, "a@x.io removed b@x.io as admin", AdminRevokedNotice("a@x.io", "b@x.io"))
}

func TestUnreadBadge(t *testing.T) {
	require.Equal(t, "", UnreadBadge(0))
	require.Equal(t, "7", UnreadBadge(7))
	require.Equal(t, "99", UnreadBadge(99))
	require.Equal(t, "99+", UnreadBadge(100))
}

func TestGroupDetailAdmin(t *testing.T) {
	d := GroupDetail{
		Group:   Group{ID: "1", OwnerEmail: "o@x.io"},
		Members: []Member{{MemberEmail: "a@x.io", IsAdmin: true}, {MemberEmail: "m@x.io"}},
	}
	require.True(t, d.IsAdmin("o@x.io"))
	require.True(t, d.IsOwner("o@x.io"))
	require.True(t, d.IsAdmin("a@x.io"))
	require.False(t, d.IsAdmin("m@x.io"))
	require.False(t, d.IsAdmin("z@x.io"))
	require.Equal(t, "Group #1", d.Group.DisplayName())
}
