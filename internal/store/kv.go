// Package store provides the local key-value persistence used by WireWave:
// the session and the archived/starred flag sets.
package store

import (
	"context"
	"errors"
)

// Persisted keys.
const (
	KeyUserToken     = "userToken"
	KeyUserEmail     = "userEmail"
	KeyArchivedChats = "archivedChats"
	KeyStarredChats  = "starredChats"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// KV is a string key-value store.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// MultiGet returns the present keys only.
	MultiGet(ctx context.Context, keys ...string) (map[string]string, error)
	// MultiSet writes every pair atomically.
	MultiSet(ctx context.Context, pairs map[string]string) error
	MultiRemove(ctx context.Context, keys ...string) error
}
