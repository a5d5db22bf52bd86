// Package cache holds the in-memory mirror of server-side state. The
// gateway read loop is the only event-driven writer; application code
// reads concurrently through the accessors. The store is a mirror of
// authoritative remote state, not a bounded cache; entries live until
// the server deletes them or a fresh Ready baseline replaces them.
package cache

import (
	"sync"

	"github.com/dgnsrekt/revoltkit/model"
)

type shard struct {
	mu      sync.RWMutex
	entries map[string]model.Snapshot
}

// Store maps entity id to snapshot, one shard per entity kind. Reads
// share a lock per kind and never block each other; no lock is held
// across anything that can block.
type Store struct {
	shards map[model.Kind]*shard
}

// NewStore creates an empty store covering every entity kind.
func NewStore() *Store {
	shards := make(map[model.Kind]*shard, len(model.Kinds))
	for _, k := range model.Kinds {
		shards[k] = &shard{entries: make(map[string]model.Snapshot)}
	}
	return &Store{shards: shards}
}

// Get returns the snapshot for id, if present.
func (s *Store) Get(kind model.Kind, id string) (model.Snapshot, bool) {
	sh, ok := s.shards[kind]
	if !ok {
		return nil, false
	}
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	snap, ok := sh.entries[id]
	return snap, ok
}

// Put upserts a full snapshot, overwriting any prior entry wholesale.
func (s *Store) Put(kind model.Kind, snap model.Snapshot) {
	sh, ok := s.shards[kind]
	if !ok {
		return
	}
	sh.mu.Lock()
	sh.entries[snap.SnapshotID()] = snap
	sh.mu.Unlock()
}

// Patch merges a partial update over the existing snapshot for id and
// returns the merged result. If the id is absent the store is left
// untouched and ok is false; the caller decides whether absence
// matters.
func (s *Store) Patch(kind model.Kind, id string, partial model.Partial) (model.Snapshot, bool) {
	sh, okKind := s.shards[kind]
	if !okKind {
		return nil, false
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	prior, ok := sh.entries[id]
	if !ok {
		return nil, false
	}
	merged := partial.Apply(prior)
	sh.entries[id] = merged
	return merged, true
}

// Remove deletes the snapshot for id and returns it. Removing an
// absent id is a no-op.
func (s *Store) Remove(kind model.Kind, id string) (model.Snapshot, bool) {
	sh, okKind := s.shards[kind]
	if !okKind {
		return nil, false
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	prior, ok := sh.entries[id]
	if !ok {
		return nil, false
	}
	delete(sh.entries, id)
	return prior, true
}

// ClearAll drops every entry of every kind. Called when a fresh Ready
// baseline invalidates prior state.
func (s *Store) ClearAll() {
	for _, k := range model.Kinds {
		sh := s.shards[k]
		sh.mu.Lock()
		sh.entries = make(map[string]model.Snapshot)
		sh.mu.Unlock()
	}
}

// Len returns the number of entries of a kind.
func (s *Store) Len(kind model.Kind) int {
	sh, ok := s.shards[kind]
	if !ok {
		return 0
	}
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.entries)
}

// collect copies the current contents of a shard into a typed slice.
// The copy is taken under the read lock, so iteration sees a stable
// snapshot regardless of concurrent mutation.
func collect[T model.Snapshot](s *Store, kind model.Kind) []T {
	sh, ok := s.shards[kind]
	if !ok {
		return nil
	}
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	out := make([]T, 0, len(sh.entries))
	for _, snap := range sh.entries {
		if v, ok := snap.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Users returns a stable copy of every cached user.
func (s *Store) Users() []model.User { return collect[model.User](s, model.KindUser) }

// Servers returns a stable copy of every cached server.
func (s *Store) Servers() []model.Server { return collect[model.Server](s, model.KindServer) }

// Channels returns a stable copy of every cached channel.
func (s *Store) Channels() []model.Channel { return collect[model.Channel](s, model.KindChannel) }

// Members returns a stable copy of every cached member.
func (s *Store) Members() []model.Member { return collect[model.Member](s, model.KindMember) }

// Messages returns a stable copy of every cached message.
func (s *Store) Messages() []model.Message { return collect[model.Message](s, model.KindMessage) }
