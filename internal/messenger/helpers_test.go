package messenger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/wirewave/internal/api"
	"github.com/tOgg1/wirewave/internal/models"
	"github.com/tOgg1/wirewave/internal/store"
	"github.com/tOgg1/wirewave/internal/testutil"
)

const me = "me@x.io"

type identity string

func (i identity) Email() string { return string(i) }

type bearer string

func (b bearer) AuthToken() (string, error) { return string(b), nil }

type testEnv struct {
	fake   *testutil.FakeAPI
	client *api.Client
	sink   *Recorder
	flags  *store.Flags
	ctx    context.Context
}

func newEnv(t *testing.T) testEnv {
	t.Helper()
	fake := testutil.NewFakeAPI(t)
	return testEnv{
		fake:   fake,
		client: clientFor(t, fake, me),
		sink:   &Recorder{},
		flags:  store.NewFlags(store.NewMemory()),
		ctx:    context.Background(),
	}
}

func clientFor(t *testing.T, fake *testutil.FakeAPI, email string) *api.Client {
	t.Helper()
	token := fake.AddUser(email, "pw")
	c, err := api.New(api.Options{BaseURL: fake.URL(), Timeout: 5 * time.Second}, bearer(token))
	require.NoError(t, err)
	return c
}

func (e testEnv) inbox() *Inbox {
	return NewInbox(e.client, identity(me), e.flags, e.sink, Config{MessagesInterval: time.Hour})
}

func (e testEnv) groups() *Groups {
	return NewGroups(e.client, identity(me), e.sink, Config{
		GroupsInterval:        time.Hour,
		GroupMessagesInterval: time.Hour,
	})
}

func seed(fake *testutil.FakeAPI, from, to, content, at string) models.Message {
	return fake.SeedMessage(models.Message{
		SenderEmail:   from,
		ReceiverEmail: to,
		Content:       content,
		SentAt:        at,
	})
}

func lastNotice(t *testing.T, r *Recorder) Notification {
	t.Helper()
	n, ok := r.Last()
	require.True(t, ok, "expected a notification")
	return n
}
