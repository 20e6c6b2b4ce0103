package namestore

import (
	"context"
	"sync"

	"github.com/feedup/feedup-backend/internal/profile/domain"
	"github.com/feedup/feedup-backend/pkg/logger"
)

// DefaultDisplayName is cached when a user's name cannot be resolved, so a
// flaky lookup is not retried on every render.
const DefaultDisplayName = "Unknown User"

// UserNameStore is an in-memory user-id to display-name cache. Concurrent
// resolves of the same id are collapsed into a single fetch by a per-key
// lock; distinct ids resolve in parallel.
type UserNameStore struct {
	profiles domain.Repository

	mu    sync.RWMutex
	names map[string]string

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewUserNameStore creates a name store backed by the profile repository.
func NewUserNameStore(profiles domain.Repository) *UserNameStore {
	return &UserNameStore{
		profiles: profiles,
		names:    make(map[string]string),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Resolve returns the display name for the user id, fetching it at most once
// per cache lifetime. Failed lookups cache DefaultDisplayName.
func (s *UserNameStore) Resolve(ctx context.Context, userID string) string {
	if name, ok := s.lookup(userID); ok {
		return name
	}

	lock := s.keyLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// A concurrent resolve may have filled the cache while we waited.
	if name, ok := s.lookup(userID); ok {
		return name
	}

	name := s.fetch(ctx, userID)
	s.mu.Lock()
	s.names[userID] = name
	s.mu.Unlock()
	return name
}

// ResolveMany resolves a batch of user ids, deduplicating them first.
func (s *UserNameStore) ResolveMany(ctx context.Context, userIDs []string) map[string]string {
	result := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		if _, ok := result[id]; ok {
			continue
		}
		result[id] = s.Resolve(ctx, id)
	}
	return result
}

// Preload warms the cache for the given user ids.
func (s *UserNameStore) Preload(ctx context.Context, userIDs []string) {
	s.ResolveMany(ctx, userIDs)
}

// Update overwrites the cached name, e.g. after the user edits their profile.
func (s *UserNameStore) Update(userID, name string) {
	s.mu.Lock()
	s.names[userID] = name
	s.mu.Unlock()
}

// Invalidate drops a single cached name.
func (s *UserNameStore) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.names, userID)
	s.mu.Unlock()
}

// Clear drops every cached name.
func (s *UserNameStore) Clear() {
	s.mu.Lock()
	s.names = make(map[string]string)
	s.mu.Unlock()
}

// IsCached reports whether the user id has a cached name.
func (s *UserNameStore) IsCached(userID string) bool {
	_, ok := s.lookup(userID)
	return ok
}

// CacheSize returns the number of cached names.
func (s *UserNameStore) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}

func (s *UserNameStore) lookup(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[userID]
	return name, ok
}

func (s *UserNameStore) keyLock(userID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *UserNameStore) fetch(ctx context.Context, userID string) string {
	profile, err := s.profiles.Get(ctx, userID, false)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("user_id", userID).Msg("Failed to resolve user name")
		return DefaultDisplayName
	}
	if profile == nil || profile.Username == "" {
		return DefaultDisplayName
	}
	return profile.Username
}
