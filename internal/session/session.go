// Package session holds the authenticated identity: the bearer token and the
// email it belongs to, persisted in the local store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tOgg1/wirewave/internal/logging"
	"github.com/tOgg1/wirewave/internal/store"
)

var (
	// ErrNoSession is returned when no token is stored.
	ErrNoSession = errors.New("not logged in")
	// ErrExpired is returned when the stored token's exp claim has passed.
	ErrExpired = errors.New("session expired")
)

// Session is the explicit replacement for a process-wide auth header.
type Session struct {
	kv  store.KV
	now func() time.Time

	mu        sync.RWMutex
	token     string
	email     string
	expiresAt time.Time
}

// New creates a session backed by kv. Call Init to restore a saved login.
func New(kv store.KV) *Session {
	return &Session{kv: kv, now: time.Now}
}

// Init restores the token and email from the store.
func (s *Session) Init(ctx context.Context) error {
	values, err := s.kv.MultiGet(ctx, store.KeyUserToken, store.KeyUserEmail)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(values[store.KeyUserToken], values[store.KeyUserEmail])
	return nil
}

// Login stores token and email. An empty email falls back to the token's
// email claim.
func (s *Session) Login(ctx context.Context, token, email string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		email = claimsOf(token).email
	}
	if email == "" {
		return errors.New("login response carried no email")
	}

	if err := s.kv.MultiSet(ctx, map[string]string{
		store.KeyUserToken: token,
		store.KeyUserEmail: email,
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(token, email)
	logger := logging.Component("session")
	logger.Info().Str("email", email).Msg("logged in")
	return nil
}

// Logout clears the stored session. The in-memory session is cleared even
// when the store write fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.set("", "")
	s.mu.Unlock()

	if err := s.kv.MultiRemove(ctx, store.KeyUserToken, store.KeyUserEmail); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Session) set(token, email string) {
	s.token = token
	s.email = email
	s.expiresAt = time.Time{}
	if token != "" {
		s.expiresAt = claimsOf(token).expiresAt
	}
}

// Token returns the raw bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Email returns the logged-in user's email.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// LoggedIn reports whether both token and email are present.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.email != ""
}

// ExpiresAt returns the token's exp claim, or the zero time when the token
// is opaque or carries none.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Expired reports whether a known expiry has passed.
func (s *Session) Expired() bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && !s.now().Before(exp)
}

// AuthToken returns the token to send, or ErrNoSession / ErrExpired.
func (s *Session) AuthToken() (string, error) {
	token := s.Token()
	if token == "" {
		return "", ErrNoSession
	}
	if s.Expired() {
		return "", ErrExpired
	}
	return token, nil
}

type tokenClaims struct {
	email     string
	expiresAt time.Time
}

// claimsOf reads claims without verifying the signature; the server owns
// the key. Opaque tokens yield empty claims.
func claimsOf(token string) tokenClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return tokenClaims{}
	}

	var out tokenClaims
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.expiresAt = exp.Time
	}
	if email, ok := claims["email"].(string); ok {
		out.email = email
	}
	return out
}
