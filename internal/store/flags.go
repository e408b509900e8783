package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/tOgg1/wirewave/internal/logging"
)

// FlagSet names one of the persisted peer sets.
type FlagSet string

const (
	Archived FlagSet = KeyArchivedChats
	Starred  FlagSet = KeyStarredChats
)

// Flags holds the archived and starred peer sets. Each set is persisted as
// a JSON array of peer keys under its own KV key.
type Flags struct {
	kv KV

	mu   sync.RWMutex
	sets map[FlagSet][]string
}

// NewFlags creates an empty flag store over kv. Call Load to read persisted sets.
func NewFlags(kv KV) *Flags {
	return &Flags{
		kv: kv,
		sets: map[FlagSet][]string{
			Archived: {},
			Starred:  {},
		},
	}
}

// Load reads both sets. A malformed value is treated as empty.
func (f *Flags) Load(ctx context.Context) error {
	values, err := f.kv.MultiGet(ctx, string(Archived), string(Starred))
	if err != nil {
		return fmt.Errorf("failed to load flags: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, set := range []FlagSet{Archived, Starred} {
		f.sets[set] = decodeSet(set, values[string(set)])
	}
	return nil
}

func decodeSet(set FlagSet, raw string) []string {
	if raw == "" {
		return []string{}
	}
	var peers []string
	if err := json.Unmarshal([]byte(raw), &peers); err != nil {
		logger := logging.Component("store")
		logger.Warn().Err(err).Str("key", string(set)).Msg("ignoring malformed flag set")
		return []string{}
	}
	out := make([]string, 0, len(peers))
	for _, p := range peers {
		if p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// Has reports whether peer is in set.
func (f *Flags) Has(set FlagSet, peer string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Contains(f.sets[set], peer)
}

// IsArchived reports whether peer is archived.
func (f *Flags) IsArchived(peer string) bool { return f.Has(Archived, peer) }

// IsStarred reports whether peer is starred.
func (f *Flags) IsStarred(peer string) bool { return f.Has(Starred, peer) }

// List returns a copy of set in insertion order.
func (f *Flags) List(set FlagSet) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.sets[set])
}

// Toggle flips peer's membership in set and persists it. It returns the new
// membership. On a write failure the in-memory set is restored.
func (f *Flags) Toggle(ctx context.Context, set FlagSet, peer string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev := f.sets[set]
	var next []string
	on := !slices.Contains(prev, peer)
	if on {
		next = append(slices.Clone(prev), peer)
	} else {
		next = slices.DeleteFunc(slices.Clone(prev), func(p string) bool { return p == peer })
	}

	f.sets[set] = next
	if err := f.persistLocked(ctx, set); err != nil {
		f.sets[set] = prev
		return !on, err
	}
	return on, nil
}

// Remove drops peer from both sets.
func (f *Flags) Remove(ctx context.Context, peer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pairs := make(map[string]string, 2)
	prev := make(map[FlagSet][]string, 2)
	for _, set := range []FlagSet{Archived, Starred} {
		if !slices.Contains(f.sets[set], peer) {
			continue
		}
		prev[set] = f.sets[set]
		f.sets[set] = slices.DeleteFunc(slices.Clone(f.sets[set]), func(p string) bool { return p == peer })
		raw, err := json.Marshal(f.sets[set])
		if err != nil {
			return err
		}
		pairs[string(set)] = string(raw)
	}
	if len(pairs) == 0 {
		return nil
	}
	if err := f.kv.MultiSet(ctx, pairs); err != nil {
		for set, peers := range prev {
			f.sets[set] = peers
		}
		return fmt.Errorf("failed to save flags: %w", err)
	}
	return nil
}

func (f *Flags) persistLocked(ctx context.Context, set FlagSet) error {
	raw, err := json.Marshal(f.sets[set])
	if err != nil {
		return err
	}
	if err := f.kv.Set(ctx, string(set), string(raw)); err != nil {
		return fmt.Errorf("failed to save %s: %w", set, err)
	}
	return nil
}
