package messenger

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/wirewave/internal/models"
)

func TestSendEmptyFiresNoRequest(t *testing.T) {
	env := newEnv(t)
	chat := env.inbox().Chat("b@x.io")

	sent, err := chat.Send(env.ctx, "   \n\t ")
	require.NoError(t, err)
	require.False(t, sent)
	require.Zero(t, env.fake.Count(http.MethodPost, "/messages"))
	require.Empty(t, chat.Thread())
}

func TestSendAppendsServerCopy(t *testing.T) {
	env := newEnv(t)
	in := env.inbox()
	chat := in.Chat("b@x.io")

	sent, err := chat.Send(env.ctx, "  hello  ")
	require.NoError(t, err)
	require.True(t, sent)

	thread := chat.Thread()
	require.Len(t, thread, 1)
	require.Equal(t, "hello", thread[0].Content)
	require.False(t, thread[0].Pending)
	require.False(t, strings.HasPrefix(string(thread[0].ID), "local-"))
	require.Equal(t, 1, env.fake.Count(http.MethodPost, "/messages"))
	require.Equal(t, 1, env.fake.Count(http.MethodGet, "/messages"), "refreshed after send")
}

func TestSendFailureDropsOptimisticCopy(t *testing.T) {
	env := newEnv(t)
	chat := env.inbox().Chat("b@x.io")
	env.fake.Fail(http.MethodPost, "/messages", http.StatusBadRequest, "Receiver not found")

	sent, err := chat.Send(env.ctx, "hello")
	require.Error(t, err)
	require.False(t, sent)
	require.Empty(t, chat.Thread())

	n := lastNotice(t, env.sink)
	require.Equal(t, LevelError, n.Level)
	require.Equal(t, "Receiver not found", n.Text)
}

func TestSendShowsPendingWhileInFlight(t *testing.T) {
	env := newEnv(t)
	chat := env.inbox().Chat("b@x.io")
	release := env.fake.Hold(http.MethodPost, "/messages")

	done := make(chan error, 1)
	go func() {
		_, err := chat.Send(env.ctx, "hello")
		done <- err
	}()

	require.Eventually(t, func() bool {
		thread := chat.Thread()
		return len(thread) == 1 && thread[0].Pending
	}, 2*time.Second, 5*time.Millisecond)

	release()
	require.NoError(t, <-done)
	thread := chat.Thread()
	require.Len(t, thread, 1)
	require.False(t, thread[0].Pending)
}

func TestShareLocation(t *testing.T) {
	env := newEnv(t)
	chat := env.inbox().Chat("b@x.io")

	_, err := chat.ShareLocation(env.ctx, 1.5, -2.25)
	require.NoError(t, err)

	msgs := env.fake.Messages()
	require.Len(t, msgs, 1)
	content := models.ParseContent(msgs[0].Content)
	require.Equal(t, models.ContentLocation, content.Kind)
	require.InDelta(t, 1.5, content.Lat, 1e-9)
	require.InDelta(t, -2.25, content.Lng, 1e-9)
}

func TestObserveMarksIncomingRead(t *testing.T) {
	env := newEnv(t)
	seed(env.fake, "b@x.io", me, "one", "2024-03-01T09:00:00Z")
	seed(env.fake, "b@x.io", me, "two", "2024-03-01T10:00:00Z")
	seed(env.fake, "c@x.io", me, "other", "2024-03-01T10:00:00Z")
	in := env.inbox()
	require.NoError(t, in.Refresh(env.ctx))
	chat := in.Chat("b@x.io")

	flipped := chat.Observe(env.ctx)
	require.Len(t, flipped, 2)
	for _, m := range chat.Thread() {
		require.True(t, bool(m.Read))
	}
	require.Equal(t, 1, in.UnreadTotal())

	require.Empty(t, chat.Observe(env.ctx))
	require.NoError(t, in.Refresh(env.ctx))
	require.Empty(t, chat.Observe(env.ctx))
	require.Equal(t, 2, env.fake.Count(http.MethodPost, "/messages/read"))

	for _, m := range env.fake.Messages() {
		if m.SenderEmail == "b@x.io" {
			require.True(t, bool(m.Read))
		}
	}
}

func TestMarkSelectedRead(t *testing.T) {
	env := newEnv(t)
	one := seed(env.fake, "b@x.io", me, "one", "2024-03-01T09:00:00Z")
	two := seed(env.fake, "b@x.io", me, "two", "2024-03-01T10:00:00Z")
	mine := seed(env.fake, me, "b@x.io", "mine", "2024-03-01T11:00:00Z")
	in := env.inbox()
	require.NoError(t, in.Refresh(env.ctx))
	chat := in.Chat("b@x.io")

	chat.Selection().Toggle(one.ID)
	chat.Selection().Toggle(mine.ID)
	require.True(t, chat.Selection().Mode())

	ids, err := chat.MarkSelectedRead(env.ctx)
	require.NoError(t, err)
	require.Equal(t, []models.ID{one.ID}, ids)
	require.False(t, chat.Selection().Mode())

	for _, m := range chat.Thread() {
		if m.ID == two.ID {
			require.False(t, bool(m.Read))
		}
	}
}

func TestDirectChatDays(t *testing.T) {
	env := newEnv(t)
	seed(env.fake, "b@x.io", me, "one", "2024-03-01T09:00:00Z")
	seed(env.fake, "b@x.io", me, "two", "2024-03-05T09:00:00Z")
	in := env.inbox()
	require.NoError(t, in.Refresh(env.ctx))

	days := in.Chat("b@x.io").Days()
	require.Len(t, days, 2)
	require.Equal(t, "one", days[0].Entries[0].Content)
}
