package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/wirewave/internal/store"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestLoginPersistsAndInitRestores(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	s := New(kv)
	require.NoError(t, s.Init(ctx))
	require.False(t, s.LoggedIn())
	_, err := s.AuthToken()
	require.True(t, errors.Is(err, ErrNoSession))

	require.NoError(t, s.Login(ctx, "opaque-token", "a@x.io"))
	require.True(t, s.LoggedIn())
	require.True(t, s.ExpiresAt().IsZero())

	restored := New(kv)
	require.NoError(t, restored.Init(ctx))
	require.Equal(t, "opaque-token", restored.Token())
	require.Equal(t, "a@x.io", restored.Email())
}

func TestLoginFallsBackToEmailClaim(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signed(t, jwt.MapClaims{"email": "claim@x.io", "exp": exp.Unix()})

	s := New(store.NewMemory())
	require.NoError(t, s.Login(context.Background(), token, ""))
	require.Equal(t, "claim@x.io", s.Email())
	require.True(t, s.ExpiresAt().Equal(exp))

	got, err := s.AuthToken()
	require.NoError(t, err)
	require.Equal(t, token, got)
}

func TestExpiredTokenShortCircuits(t *testing.T) {
	token := signed(t, jwt.MapClaims{"email": "a@x.io", "exp": time.Now().Add(-time.Minute).Unix()})

	s := New(store.NewMemory())
	require.NoError(t, s.Login(context.Background(), token, "a@x.io"))
	require.True(t, s.Expired())
	_, err := s.AuthToken()
	require.True(t, errors.Is(err, ErrExpired))

	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	require.False(t, s.Expired())
}

func TestLogoutClears(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	s := New(kv)
	require.NoError(t, s.Login(ctx, "tok", "a@x.io"))
	require.NoError(t, s.Logout(ctx))
	require.False(t, s.LoggedIn())

	values, err := kv.MultiGet(ctx, store.KeyUserToken, store.KeyUserEmail)
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestLoginRejectsEmpty(t *testing.T) {
	s := New(store.NewMemory())
	require.Error(t, s.Login(context.Background(), " ", "a@x.io"))
	require.Error(t, s.Login(context.Background(), "opaque", ""))
}
