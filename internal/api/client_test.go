package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/wirewave/internal/logging"
	"github.com/tOgg1/wirewave/internal/models"
	"github.com/tOgg1/wirewave/internal/testutil"
)

type staticToken string

func (s staticToken) AuthToken() (string, error) {
	if s == "" {
		return "", errors.New("no token")
	}
	return string(s), nil
}

func newTestClient(t *testing.T, fake *testutil.FakeAPI, token string) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: fake.URL(), Timeout: 5 * time.Second}, staticToken(token))
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(Options{}, nil)
	require.Error(t, err)
	_, err = New(Options{BaseURL: "ftp://x"}, nil)
	require.Error(t, err)
}

func TestLoginAndRegister(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	c := newTestClient(t, fake, "")
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "a@x.io", "pw"))

	err := c.Register(ctx, "a@x.io", "pw")
	require.Error(t, err)
	require.Equal(t, "User already exists", UserMessage(err, "Registration failed"))

	res, err := c.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "a@x.io", res.Email)

	_, err = c.Login(ctx, "a@x.io", "wrong")
	require.True(t, errors.Is(err, ErrUnauthorized))
	require.Equal(t, "Invalid email or password", UserMessage(err, "Login failed"))

	_, err = c.Login(ctx, "not-an-email", "pw")
	require.True(t, errors.Is(err, models.ErrInvalidEmail))
}

func TestAuthHeaderAndUnauthorized(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	token := fake.AddUser("a@x.io", "pw")
	ctx := context.Background()

	c := newTestClient(t, fake, token)
	msgs, err := c.ListMessages(ctx)
	require.NoError(t, err)
	require.Empty(t, msgs)
	reqs := fake.Requests()
	require.Equal(t, "a@x.io", reqs[len(reqs)-1].Email)

	noSession := newTestClient(t, fake, "")
	_, err = noSession.ListMessages(ctx)
	require.True(t, errors.Is(err, ErrUnauthorized))
	require.Equal(t, UnauthorizedText, UserMessage(err, "x"))
	require.Equal(t, 1, fake.Count(http.MethodGet, "/messages"), "no request without a token")

	fake.RevokeTokens("a@x.io")
	_, err = c.ListMessages(ctx)
	require.True(t, errors.Is(err, ErrUnauthorized))
}

func TestMessagesRoundTrip(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	tokA := fake.AddUser("a@x.io", "pw")
	tokB := fake.AddUser("b@x.io", "pw")
	ctx := context.Background()

	a := newTestClient(t, fake, tokA)
	b := newTestClient(t, fake, tokB)

	sent, ok, err := a.SendMessage(ctx, "b@x.io", "hello")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", sent.Content)

	_, _, err = a.SendMessage(ctx, "b@x.io", "   ")
	require.True(t, errors.Is(err, models.ErrEmptyContent))

	inbox, err := b.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.True(t, inbox[0].UnreadFor("b@x.io"))

	require.NoError(t, b.MarkRead(ctx, inbox[0].ID))
	inbox, err = b.ListMessages(ctx)
	require.NoError(t, err)
	require.False(t, inbox[0].UnreadFor("b@x.io"))

	var body map[string]any
	for _, req := range fake.Requests() {
		if req.Path == "/messages/read" {
			require.NoError(t, json.Unmarshal(req.Body, &body))
		}
	}
	require.Equal(t, float64(1), body["message_id"], "numeric ids are sent back as numbers")

	require.NoError(t, a.SendMulti(ctx, []string{"b@x.io", "c@x.io"}, models.FormatBroadcast("")))
	require.Len(t, fake.Messages(), 3)

	require.NoError(t, b.DeleteConversation(ctx, "a@x.io"))
	inbox, err = b.ListMessages(ctx)
	require.NoError(t, err)
	require.Empty(t, inbox)
	require.Equal(t, 1, fake.Count(http.MethodDelete, "/messages/a@x.io"))
}

func TestGroupsRoundTrip(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	tok := fake.AddUser("o@x.io", "pw")
	memberTok := fake.AddUser("m@x.io", "pw")
	ctx := context.Background()
	c := newTestClient(t, fake, tok)

	g, err := c.CreateGroup(ctx, " Team ", []string{"m@x.io"})
	require.NoError(t, err)
	require.Equal(t, "Team", g.Name)
	require.NotEmpty(t, g.ID)

	_, err = c.CreateGroup(ctx, "", nil)
	require.True(t, errors.Is(err, models.ErrMissingGroupName))

	groups, err := c.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	require.NoError(t, c.RenameGroup(ctx, g.ID, "Crew"))
	require.NoError(t, c.AddMember(ctx, g.ID, "n@x.io", false))
	require.NoError(t, c.SetAdmin(ctx, g.ID, "m@x.io", true))

	detail, err := c.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, "Crew", detail.Group.Name)
	require.True(t, detail.IsAdmin("m@x.io"))
	require.False(t, detail.IsAdmin("n@x.io"))

	require.NoError(t, c.RemoveMember(ctx, g.ID, "n@x.io"))

	msg, ok, err := c.SendGroupMessage(ctx, g.ID, " hi all ")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hi all", msg.Content)
	require.Equal(t, g.ID, msg.GroupID)

	page, err := c.GroupMessages(ctx, g.ID, 200, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	last := fake.Requests()[len(fake.Requests())-1]
	require.Equal(t, "limit=200&offset=0", last.Query)

	member := newTestClient(t, fake, memberTok)
	require.NoError(t, member.LeaveGroup(ctx, g.ID))
	_, err = member.GetGroup(ctx, g.ID)
	require.True(t, errors.Is(err, ErrUnauthorized), "403 counts as unauthorized")

	require.NoError(t, c.DeleteGroup(ctx, g.ID))
	_, err = c.GetGroup(ctx, g.ID)
	require.True(t, IsNotFound(err))
}

func TestProfileCreateThenUpdate(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	tok := fake.AddUser("a@x.io", "pw")
	ctx := context.Background()
	c := newTestClient(t, fake, tok)

	_, exists, err := c.Profile(ctx)
	require.NoError(t, err)
	require.False(t, exists)

	saved, err := c.SaveProfile(ctx, models.Profile{Name: " Ann ", About: "hi"}, exists)
	require.NoError(t, err)
	require.Equal(t, "Ann", saved.Name)
	require.Equal(t, 1, fake.Count(http.MethodPost, "/profile"))

	p, exists, err := c.Profile(ctx)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "Ann", p.Name)

	_, err = c.SaveProfile(ctx, models.Profile{Name: "Anne"}, exists)
	require.NoError(t, err)
	require.Equal(t, 1, fake.Count(http.MethodPut, "/profile"))
}

func TestUsersPresenceAndAI(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	tok := fake.AddUser("a@x.io", "pw")
	fake.AddUser("b@x.io", "pw")
	fake.SetProfile("b@x.io", models.Profile{Name: "Bea", AvatarURL: "https://img/b.png"})
	ctx := context.Background()
	c := newTestClient(t, fake, tok)

	p, err := c.SearchUser(ctx, "b@x.io")
	require.NoError(t, err)
	require.Equal(t, "https://img/b.png", p.AvatarURL)

	_, err = c.SearchUser(ctx, "ghost@x.io")
	require.True(t, IsNotFound(err))

	require.NoError(t, c.Ping(ctx))
	pres, err := c.Presence(ctx, "a@x.io")
	require.NoError(t, err)
	require.True(t, bool(pres.Online))

	out, err := c.Enhance(ctx, "make this better")
	require.NoError(t, err)
	require.Equal(t, "MAKE THIS BETTER", out)

	fake.SetEnhance(func(string) string { return "   " })
	out, err = c.Enhance(ctx, "x")
	require.NoError(t, err)
	require.Empty(t, out)

	ans, err := c.Assist(ctx, "what is up")
	require.NoError(t, err)
	require.Equal(t, "answer: what is up", ans)

	status, err := c.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "Database connected", status)

	require.NoError(t, c.DeleteAccount(ctx))
	_, err = c.ListMessages(ctx)
	require.True(t, errors.Is(err, ErrUnauthorized))
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url, Timeout: time.Second}, staticToken("t"))
	require.NoError(t, err)
	_, err = c.ListMessages(context.Background())
	require.True(t, IsTransport(err))
	require.Equal(t, "Failed to load", UserMessage(err, "Failed to load"))
}

func listServer(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL}, staticToken("t"))
	require.NoError(t, err)
	return c
}

func TestMalformedListIsAnError(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"object":      `{"groups": "nope"}`,
		"bad element": `[{"id": 1, "sender_email": "a@x.io", "read": "maybe"}]`,
		"truncated":   `[{"id": 1, "sender_email": "a@x.io", "content": "hi"`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			msgs, err := listServer(t, body).ListMessages(ctx)
			require.ErrorIs(t, err, ErrBadResponse)
			require.Nil(t, msgs)
		})
	}

	_, err := listServer(t, `{"groups": "nope"}`).ListGroups(ctx)
	require.ErrorIs(t, err, ErrBadResponse)
	_, err = listServer(t, `[{"id": 1, "content": `).GroupMessages(ctx, "7", 200, 0)
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestEmptyListBodies(t *testing.T) {
	for _, body := range []string{"", "  ", "null", "[]"} {
		groups, err := listServer(t, body).ListGroups(context.Background())
		require.NoError(t, err, "body %q", body)
		require.NotNil(t, groups)
		require.Empty(t, groups)
	}
}

func TestOversizedBodyIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("["))
		chunk := []byte(`{"id":1,"content":"` + strings.Repeat("x", 4096) + `"},`)
		for written := 0; written <= maxResponseBytes; written += len(chunk) {
			_, _ = w.Write(chunk)
		}
		_, _ = w.Write([]byte(`{"id":2}]`))
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL}, staticToken("t"))
	require.NoError(t, err)
	msgs, err := c.ListMessages(context.Background())
	require.ErrorIs(t, err, ErrBadResponse)
	require.Nil(t, msgs)
}

func TestPathSegmentsAreEscaped(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL + "/api/"}, staticToken("t"))
	require.NoError(t, err)
	require.NoError(t, c.RemoveMember(context.Background(), "a/b", "x+y@x.io"))
	require.Equal(t, "/api/groups/a%2Fb/members/x+y@x.io", got)
}

func TestUserMessagePrefersServerText(t *testing.T) {
	err := &APIError{Status: http.StatusUnauthorized, Message: "Token expired"}
	require.Equal(t, "Token expired", UserMessage(err, "fallback"))
	require.Equal(t, UnauthorizedText, UserMessage(&APIError{Status: http.StatusForbidden}, "fallback"))
	require.Equal(t, "fallback", UserMessage(&APIError{Status: http.StatusInternalServerError}, "fallback"))
	require.Equal(t, "Message is empty", UserMessage(models.ValidateDirectMessage("a@x.io", ""), "fallback"))
	require.Equal(t, "", UserMessage(nil, "fallback"))
}

func TestUserMessageCapitalizesMultibyteRune(t *testing.T) {
	var v models.ValidationErrors
	v.Add("content", errors.New("école is closed"))
	require.Equal(t, "École is closed", UserMessage(v.Err(), "fallback"))

	var empty models.ValidationErrors
	empty.Add("content", errors.New(""))
	require.Equal(t, "fallback", UserMessage(empty.Err(), "fallback"))
}

func TestRateLimiterPacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, RateLimit: 20, RateBurst: 1}, staticToken("t"))
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.ListMessages(context.Background())
		require.NoError(t, err)
	}
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestDebugLogRedactsAuthorization(t *testing.T) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	fake := testutil.NewFakeAPI(t)
	token := fake.AddUser("a@x.io", "pw")
	c := newTestClient(t, fake, token)
	var buf bytes.Buffer
	c.logger = zerolog.New(&buf)

	_, err := c.ListMessages(context.Background())
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "sending request")
	require.Contains(t, out, `"Authorization":"`+logging.RedactedValue+`"`)
	require.NotContains(t, out, token)
}
