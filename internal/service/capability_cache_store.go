package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CapabilityCacheStore caches the resolved project capability set per
// (user, project) pair. Invalidation is epoch-based: bumping a user's or
// the global epoch changes every affected key, so stale entries are
// simply never read again and age out by TTL.
type CapabilityCacheStore interface {
	Get(ctx context.Context, userID, projectID string) ([]string, bool, error)
	Set(ctx context.Context, userID, projectID string, capabilities []string, ttl time.Duration) error
	InvalidateUser(ctx context.Context, userID string) error
	InvalidateAll(ctx context.Context) error
}

type NoopCapabilityCacheStore struct{}

func NewNoopCapabilityCacheStore() *NoopCapabilityCacheStore {
	return &NoopCapabilityCacheStore{}
}

func (s *NoopCapabilityCacheStore) Get(context.Context, string, string) ([]string, bool, error) {
	return nil, false, nil
}

func (s *NoopCapabilityCacheStore) Set(context.Context, string, string, []string, time.Duration) error {
	return nil
}

func (s *NoopCapabilityCacheStore) InvalidateUser(context.Context, string) error { return nil }

func (s *NoopCapabilityCacheStore) InvalidateAll(context.Context) error { return nil }

type capabilityCacheEntry struct {
	capabilities []string
	expiresAt    time.Time
}

type InMemoryCapabilityCacheStore struct {
	mu          sync.RWMutex
	data        map[string]capabilityCacheEntry
	globalEpoch uint64
	userEpoch   map[string]uint64
}

func NewInMemoryCapabilityCacheStore() *InMemoryCapabilityCacheStore {
	return &InMemoryCapabilityCacheStore{
		data:      make(map[string]capabilityCacheEntry),
		userEpoch: make(map[string]uint64),
	}
}

func (s *InMemoryCapabilityCacheStore) Get(_ context.Context, userID, projectID string) ([]string, bool, error) {
	now := time.Now().UTC()
	s.mu.RLock()
	key := s.cacheKeyLocked(userID, projectID)
	entry, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if now.After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]string(nil), entry.capabilities...), true, nil
}

func (s *InMemoryCapabilityCacheStore) Set(_ context.Context, userID, projectID string, capabilities []string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.cacheKeyLocked(userID, projectID)
	s.data[key] = capabilityCacheEntry{
		capabilities: append([]string(nil), capabilities...),
		expiresAt:    time.Now().UTC().Add(ttl),
	}
	return nil
}

func (s *InMemoryCapabilityCacheStore) InvalidateUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userEpoch[userID]++
	return nil
}

func (s *InMemoryCapabilityCacheStore) InvalidateAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalEpoch++
	return nil
}

func (s *InMemoryCapabilityCacheStore) cacheKeyLocked(userID, projectID string) string {
	return buildCapabilityCacheKey(s.globalEpoch, s.userEpoch[userID], userID, projectID)
}

func buildCapabilityCacheKey(globalEpoch, userEpoch uint64, userID, projectID string) string {
	return fmt.Sprintf("projcap:g%d:u%d:user:%s:project:%s", globalEpoch, userEpoch, userID, projectID)
}
