package messenger

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/wirewave/internal/api"
)

func TestInboxLatestMessagePerPeer(t *testing.T) {
	env := newEnv(t)
	seed(env.fake, "a@x.io", me, "hi from a", "2024-03-01T09:00:00Z")
	seed(env.fake, "b@x.io", me, "old b", "2024-03-01T08:00:00Z")
	seed(env.fake, me, "b@x.io", "newest b", "2024-03-01T10:00:00Z")

	in := env.inbox()
	require.NoError(t, in.Refresh(env.ctx))

	convs := in.Conversations()
	require.Len(t, convs, 2)
	require.Equal(t, "b@x.io", convs[0].Peer)
	require.Equal(t, "newest b", convs[0].Last.Content)
	require.Equal(t, 1, convs[0].UnreadCount)
	require.Equal(t, 2, in.UnreadTotal())
	require.Equal(t, []string{"b@x.io", "a@x.io"}, in.Contacts())
}

func TestInboxArchiveAndStar(t *testing.T) {
	env := newEnv(t)
	seed(env.fake, "a@x.io", me, "a", "2024-03-01T09:00:00Z")
	seed(env.fake, "b@x.io", me, "b", "2024-03-01T10:00:00Z")
	in := env.inbox()
	require.NoError(t, in.Refresh(env.ctx))

	on, err := in.ToggleArchive(env.ctx, "b@x.io")
	require.NoError(t, err)
	require.True(t, on)

	convs := in.Conversations()
	require.Len(t, convs, 1)
	require.Equal(t, "a@x.io", convs[0].Peer)
	require.Equal(t, 1, in.UnreadTotal(), "archived chats do not count")

	in.SetShowArchived(true)
	convs = in.Conversations()
	require.Len(t, convs, 1)
	require.Equal(t, "b@x.io", convs[0].Peer)

	in.SetShowArchived(false)
	_, err = in.ToggleArchive(env.ctx, "b@x.io")
	require.NoError(t, err)
	_, err = in.ToggleStar(env.ctx, "a@x.io")
	require.NoError(t, err)
	convs = in.Conversations()
	require.Equal(t, "a@x.io", convs[0].Peer, "starred chats come first")
	require.True(t, convs[0].Starred)

	in.SetSearch("B@X")
	convs = in.Conversations()
	require.Len(t, convs, 1)
	require.Equal(t, "b@x.io", convs[0].Peer)
}

func TestInboxDeleteConversation(t *testing.T) {
	env := newEnv(t)
	seed(env.fake, "a@x.io", me, "a", "2024-03-01T09:00:00Z")
	seed(env.fake, "b@x.io", me, "b", "2024-03-01T10:00:00Z")
	in := env.inbox()
	require.NoError(t, in.Refresh(env.ctx))
	_, err := in.ToggleStar(env.ctx, "b@x.io")
	require.NoError(t, err)

	require.NoError(t, in.DeleteConversation(env.ctx, "b@x.io"))
	require.Equal(t, []string{"a@x.io"}, in.Contacts())
	require.False(t, env.flags.IsStarred("b@x.io"))
	require.Equal(t, LevelSuccess, lastNotice(t, env.sink).Level)

	require.NoError(t, in.Refresh(env.ctx))
	require.Equal(t, []string{"a@x.io"}, in.Contacts())
}

func TestInboxDeleteFailureRestores(t *testing.T) {
	env := newEnv(t)
	seed(env.fake, "a@x.io", me, "a", "2024-03-01T09:00:00Z")
	in := env.inbox()
	require.NoError(t, in.Refresh(env.ctx))
	_, err := in.ToggleArchive(env.ctx, "a@x.io")
	require.NoError(t, err)

	env.fake.Fail(http.MethodDelete, "/messages/a@x.io", http.StatusInternalServerError, "Delete blew up")
	require.Error(t, in.DeleteConversation(env.ctx, "a@x.io"))

	require.Equal(t, []string{"a@x.io"}, in.Contacts())
	require.True(t, env.flags.IsArchived("a@x.io"), "flags kept on failure")
	n := lastNotice(t, env.sink)
	require.Equal(t, LevelError, n.Level)
	require.Equal(t, "Delete blew up", n.Text)
}

func TestInboxPeerDisappearsWhenItsOnlyMessageIsDeleted(t *testing.T) {
	env := newEnv(t)
	seed(env.fake, "a@x.io", me, "a", "2024-03-01T09:00:00Z")
	seed(env.fake, "b@x.io", me, "b", "2024-03-01T10:00:00Z")
	in := env.inbox()
	require.NoError(t, in.Refresh(env.ctx))
	require.Len(t, in.Conversations(), 2)

	other := clientFor(t, env.fake, "b@x.io")
	require.NoError(t, other.DeleteConversation(env.ctx, me))

	require.NoError(t, in.Refresh(env.ctx))
	convs := in.Conversations()
	require.Len(t, convs, 1)
	require.Equal(t, "a@x.io", convs[0].Peer)
}

func TestInboxWithoutFlags(t *testing.T) {
	env := newEnv(t)
	seed(env.fake, "a@x.io", me, "a", "2024-03-01T09:00:00Z")
	in := NewInbox(env.client, identity(me), nil, nil, Config{})
	require.NoError(t, in.Refresh(env.ctx))

	on, err := in.ToggleArchive(env.ctx, "a@x.io")
	require.NoError(t, err)
	require.False(t, on)
	require.Len(t, in.Conversations(), 1)
}

func TestInboxKeepsSnapshotOnMalformedPoll(t *testing.T) {
	env := newEnv(t)
	seed(env.fake, "a@x.io", me, "hi", "2024-03-01T09:00:00Z")
	seed(env.fake, "b@x.io", me, "yo", "2024-03-01T10:00:00Z")
	in := env.inbox()
	require.NoError(t, in.Refresh(env.ctx))
	before := in.Messages()
	require.Len(t, before, 2)

	for _, body := range []string{
		`[{"id": 1, "sender_email": "a@x.io", "read": "maybe"}]`,
		`[{"id": 1, "sender_email": "a@x.io"`,
		`{"messages": []}`,
	} {
		env.fake.Garble(http.MethodGet, "/messages", body)
		err := in.Refresh(env.ctx)
		require.ErrorIs(t, err, api.ErrBadResponse)
		require.Equal(t, before, in.Messages())
		require.Len(t, in.Conversations(), 2)
	}

	require.NoError(t, in.Refresh(env.ctx))
	require.Len(t, in.Conversations(), 2)
}

func TestGroupListKeepsSnapshotOnMalformedPoll(t *testing.T) {
	env := newEnv(t)
	env.fake.SeedGroup("Crew", me, "m@x.io")
	g := env.groups()
	require.NoError(t, g.Refresh(env.ctx))
	require.Len(t, g.List(), 1)

	env.fake.Garble(http.MethodGet, "/groups", `[{"id": 1, "name": `)
	require.ErrorIs(t, g.Refresh(env.ctx), api.ErrBadResponse)
	require.Len(t, g.List(), 1)
	require.Equal(t, "Crew", g.List()[0].Name)
}
