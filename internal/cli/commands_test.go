package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/wirewave/internal/models"
	"github.com/tOgg1/wirewave/internal/testutil"
)

const me = "me@x.io"

type cliEnv struct {
	fake  *testutil.FakeAPI
	store string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	return cliEnv{
		fake:  testutil.NewFakeAPI(t),
		store: filepath.Join(dir, "data", "wirewave.db"),
	}
}

func (e cliEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{
		"--env-file", "",
		"--api-url", e.fake.URL(),
		"--store", e.store,
		"--log-level", "error",
	}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// login registers email with the fake and logs the CLI in as it.
func (e cliEnv) login(t *testing.T, email string) {
	t.Helper()
	e.fake.AddUser(email, "secret")
	out, _, err := e.run(t, "secret\n", "login", email, "--password-stdin")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as "+email)
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "want ExitError, got %v", err)
	return exitErr.Code
}

func TestCommandAliases(t *testing.T) {
	root := newRootCmd("test")

	cases := map[string]string{
		"ls":    "chats",
		"inbox": "chats",
		"chat":  "read",
		"g":     "groups",
	}
	for alias, name := range cases {
		cmd, _, err := root.Find([]string{alias})
		require.NoError(t, err)
		require.Equal(t, name, cmd.Name())
	}

	cmd, _, err := root.Find([]string{"groups", "promote"})
	require.NoError(t, err)
	require.Equal(t, "promote", cmd.Name())
}

func TestLoginThenWhoami(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, me)

	out, _, err := env.run(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, me)

	_, _, err = env.run(t, "", "logout")
	require.NoError(t, err)

	_, _, err = env.run(t, "", "whoami")
	require.Equal(t, ExitCodeAuth, exitCode(t, err))
}

func TestLoginWrongPassword(t *testing.T) {
	env := newCLIEnv(t)
	env.fake.AddUser(me, "secret")

	_, _, err := env.run(t, "nope\n", "login", me, "--password-stdin")
	require.Error(t, err)
}

func TestCommandsRequireLogin(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "", "chats")
	require.Equal(t, ExitCodeAuth, exitCode(t, err))
	require.Zero(t, env.fake.Count("GET", "/messages"))
}

func TestSendAndListChats(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, me)
	env.fake.AddUser("peer@x.io", "pw")

	out, _, err := env.run(t, "", "send", "peer@x.io", "hello", "there")
	require.NoError(t, err)
	require.Contains(t, out, "Sent to peer@x.io")

	msgs := env.fake.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "hello there", msgs[0].Content)
	require.Equal(t, me, msgs[0].SenderEmail)

	out, _, err = env.run(t, "", "chats")
	require.NoError(t, err)
	require.Contains(t, out, "PEER")
	require.Contains(t, out, "peer@x.io")
	require.Contains(t, out, "hello there")
}

func TestSendBlankMessageMakesNoRequest(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, me)

	_, _, err := env.run(t, "", "send", "peer@x.io", "   ")
	require.Equal(t, ExitCodeUsage, exitCode(t, err))
	require.Zero(t, env.fake.Count("POST", "/messages"))
}

func TestReadMarksIncomingRead(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, me)
	env.fake.SeedMessage(models.Message{
		SenderEmail:   "peer@x.io",
		ReceiverEmail: me,
		Content:       "ping",
		SentAt:        "2024-03-01T10:00:00Z",
	})

	out, _, err := env.run(t, "", "read", "peer@x.io", "--no-mark")
	require.NoError(t, err)
	require.Contains(t, out, "peer@x.io: ping")
	require.False(t, bool(env.fake.Messages()[0].Read))

	_, _, err = env.run(t, "", "read", "peer@x.io")
	require.NoError(t, err)
	require.True(t, bool(env.fake.Messages()[0].Read))
}

func TestArchiveHidesConversation(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, me)
	env.fake.SeedMessage(models.Message{
		SenderEmail:   "peer@x.io",
		ReceiverEmail: me,
		Content:       "old news",
		SentAt:        "2024-03-01T10:00:00Z",
	})

	out, _, err := env.run(t, "", "archive", "peer@x.io")
	require.NoError(t, err)
	require.Contains(t, out, "peer@x.io archived")

	out, _, err = env.run(t, "", "chats")
	require.NoError(t, err)
	require.Contains(t, out, "No conversations")

	out, _, err = env.run(t, "", "chats", "--archived")
	require.NoError(t, err)
	require.Contains(t, out, "old news")
}

func TestDeleteConversation(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, me)
	env.fake.SeedMessage(models.Message{SenderEmail: "peer@x.io", ReceiverEmail: me, Content: "bye"})

	out, _, err := env.run(t, "", "delete", "peer@x.io")
	require.NoError(t, err)
	require.Contains(t, out, "Chat deleted")
	require.Empty(t, env.fake.Messages())
}

func TestBroadcastRequiresRecipients(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, me)

	_, errOut, err := env.run(t, "", "broadcast", "hi all")
	require.Error(t, err)
	require.Contains(t, errOut, "error:")
	require.Zero(t, env.fake.Count("POST", "/messages/multi"))

	out, _, err := env.run(t, "", "broadcast", "--to", "a@x.io", "--to", "b@x.io", "hi all")
	require.NoError(t, err)
	require.Contains(t, out, "Broadcast sent to 2 contacts")
	for _, m := range env.fake.Messages() {
		require.Equal(t, models.FormatBroadcast("hi all"), m.Content)
	}
}

func TestGroupsLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, me)

	out, _, err := env.run(t, "", "groups", "create", "Team", "a@x.io,", "b@x.io")
	require.NoError(t, err)
	require.Contains(t, out, "Created Team")

	out, _, err = env.run(t, "", "groups", "ls")
	require.NoError(t, err)
	require.Contains(t, out, "Team")
	require.Contains(t, out, "yes")

	_, _, err = env.run(t, "", "groups", "send", "team", "standup", "now")
	require.NoError(t, err)

	out, _, err = env.run(t, "", "groups", "messages", "Team")
	require.NoError(t, err)
	require.Contains(t, out, "you: standup now")

	out, _, err = env.run(t, "", "groups", "show", "Team")
	require.NoError(t, err)
	require.Contains(t, out, "a@x.io")
	require.Contains(t, out, "owner")

	_, _, err = env.run(t, "", "groups", "show", "missing")
	require.Equal(t, ExitCodeFailure, exitCode(t, err))
}

func TestProfileSetAndShow(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, me)

	out, _, err := env.run(t, "", "profile", "show")
	require.NoError(t, err)
	require.Contains(t, out, "No profile yet")

	out, _, err = env.run(t, "", "profile", "set", "--name", "Me Myself", "--about", "hi")
	require.NoError(t, err)
	require.Contains(t, out, "Profile saved")

	out, _, err = env.run(t, "", "profile", "show")
	require.NoError(t, err)
	require.Contains(t, out, "Me Myself")
}

func TestHealth(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run(t, "", "health")
	require.NoError(t, err)
	require.Contains(t, out, "Server:")
}

func TestRevokedSessionIsAuthFailure(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t, me)
	env.fake.RevokeTokens(me)

	_, _, err := env.run(t, "", "chats")
	require.Equal(t, ExitCodeAuth, exitCode(t, err))
}
