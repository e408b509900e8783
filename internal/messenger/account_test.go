package messenger

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/wirewave/internal/models"
)

func TestEnhance(t *testing.T) {
	env := newEnv(t)

	out, err := Enhance(env.ctx, env.client, env.sink, "  make it nice ")
	require.NoError(t, err)
	require.Equal(t, strings.ToUpper(models.EnhancePrompt+"make it nice"), out)

	env.fake.SetEnhance(func(string) string { return "" })
	out, err = Enhance(env.ctx, env.client, env.sink, "keep me")
	require.NoError(t, err)
	require.Equal(t, "keep me", out, "empty result leaves the draft")

	before := env.fake.Count(http.MethodPost, "/ai/enhance-chat")
	out, err = Enhance(env.ctx, env.client, env.sink, "   ")
	require.NoError(t, err)
	require.Equal(t, "   ", out)
	require.Equal(t, before, env.fake.Count(http.MethodPost, "/ai/enhance-chat"))

	env.fake.Fail(http.MethodPost, "/ai/enhance-chat", http.StatusBadGateway, "AI unavailable")
	out, err = Enhance(env.ctx, env.client, env.sink, "draft")
	require.Error(t, err)
	require.Equal(t, "draft", out)
	require.Equal(t, "AI unavailable", lastNotice(t, env.sink).Text)
}

func TestProfilesFillCachesMisses(t *testing.T) {
	env := newEnv(t)
	env.fake.SetProfile("b@x.io", models.Profile{Name: "Bea", AvatarURL: "https://img/b.png"})
	p := NewProfiles(env.client)

	require.Equal(t, 2, p.Fill(env.ctx, []string{"b@x.io", "ghost@x.io"}))
	require.Equal(t, "https://img/b.png", p.Avatar("b@x.io"))
	require.Equal(t, "Bea", p.Name("b@x.io"))

	ghost, known := p.Get("ghost@x.io")
	require.True(t, known)
	require.Nil(t, ghost)
	require.Equal(t, "ghost@x.io", p.Name("ghost@x.io"))

	require.Zero(t, p.Fill(env.ctx, []string{"b@x.io", "ghost@x.io", ""}))
	require.Equal(t, 2, env.fake.Count(http.MethodGet, "/users/search"))

	_, known = p.Get("new@x.io")
	require.False(t, known)
}

func TestCheckRecipient(t *testing.T) {
	env := newEnv(t)
	env.fake.AddUser("b@x.io", "pw")

	require.False(t, RecipientEligible("b@x"))
	require.False(t, RecipientEligible("bxxxxx"))
	require.True(t, RecipientEligible(" b@x.io "))

	exists, err := CheckRecipient(env.ctx, env.client, "b@x.io")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = CheckRecipient(env.ctx, env.client, "nobody@x.io")
	require.NoError(t, err)
	require.False(t, exists)

	exists, err = CheckRecipient(env.ctx, env.client, "a@b")
	require.NoError(t, err)
	require.False(t, exists)
	require.Equal(t, 2, env.fake.Count(http.MethodGet, "/users/search"))
}

type logoutSpy struct{ calls int }

func (l *logoutSpy) Logout(context.Context) error {
	l.calls++
	return nil
}

func TestAccountHealthProfileAndDelete(t *testing.T) {
	env := newEnv(t)
	spy := &logoutSpy{}
	acct := NewAccount(env.client, spy, env.sink)

	status, err := acct.Health(env.ctx)
	require.NoError(t, err)
	require.Equal(t, "Database connected", status)
	require.Equal(t, "Server: Database connected", lastNotice(t, env.sink).Text)

	saved, err := acct.SaveProfile(env.ctx, models.Profile{Name: "Me"})
	require.NoError(t, err)
	require.Equal(t, "Me", saved.Name)
	require.Equal(t, 1, env.fake.Count(http.MethodPost, "/profile"))

	_, err = acct.SaveProfile(env.ctx, models.Profile{Name: "Me again"})
	require.NoError(t, err)
	require.Equal(t, 1, env.fake.Count(http.MethodPut, "/profile"))
	require.Equal(t, "Profile saved", lastNotice(t, env.sink).Text)

	p, exists, err := acct.LoadProfile(env.ctx)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "Me again", p.Name)

	require.NoError(t, acct.Delete(env.ctx))
	require.Equal(t, 1, spy.calls)
	require.Equal(t, "Account deleted", lastNotice(t, env.sink).Text)
}

func TestAccountHealthFailure(t *testing.T) {
	env := newEnv(t)
	env.fake.Fail(http.MethodGet, "/testdb", http.StatusServiceUnavailable, "")
	_, err := NewAccount(env.client, nil, env.sink).Health(env.ctx)
	require.Error(t, err)
	require.Equal(t, "Connection Failed", lastNotice(t, env.sink).Text)
}

func TestHeartbeatPings(t *testing.T) {
	env := newEnv(t)
	hb := NewHeartbeat(env.client, time.Hour)
	require.NoError(t, hb.Start(env.ctx))
	require.Eventually(t, func() bool {
		return env.fake.Count(http.MethodPost, "/presence/ping") == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, hb.Stop())
	hb.Wait()

	pres, err := env.client.Presence(env.ctx, me)
	require.NoError(t, err)
	require.True(t, bool(pres.Online))
}
