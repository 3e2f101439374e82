package store

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is a mutex-guarded in-process Store with lazy TTL eviction.
// Used for tests and as a development fallback when Redis is unavailable.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]memoryEntry
	sets   map[string]map[string]struct{}
}

// NewMemoryStore initializes an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]memoryEntry),
		sets:   make(map[string]map[string]struct{}),
	}
}

// Get returns the stored value, evicting it first when lapsed.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.values[key]
	if !ok {
		return "", nil
	}
	if entry.expired(time.Now()) {
		delete(s.values, key)
		return "", nil
	}
	return entry.value, nil
}

// SetWithTTL stores a value; ttl <= 0 means no expiry.
func (s *MemoryStore) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.values[key] = entry
	return nil
}

// Delete removes the key and returns the previous live value.
func (s *MemoryStore) Delete(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.values[key]
	if !ok {
		return "", nil
	}
	delete(s.values, key)
	if entry.expired(time.Now()) {
		return "", nil
	}
	return entry.value, nil
}

// Increment bumps a counter stored as a decimal string.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	entry, ok := s.values[key]
	if !ok || entry.expired(now) {
		entry = memoryEntry{value: "0"}
		if window > 0 {
			entry.expiresAt = now.Add(window)
		}
	}
	count, err := strconv.ParseInt(entry.value, 10, 64)
	if err != nil {
		count = 0
	}
	count++
	entry.value = strconv.FormatInt(count, 10)
	s.values[key] = entry
	return count, nil
}

// ScanKeys matches live keys against a glob pattern.
func (s *MemoryStore) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var keys []string
	for key, entry := range s.values {
		if entry.expired(now) {
			delete(s.values, key)
			continue
		}
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// SetAdd adds members to a set.
func (s *MemoryStore) SetAdd(_ context.Context, setKey string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[setKey]
	if !ok {
		set = make(map[string]struct{})
		s.sets[setKey] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

// SetRemove removes members from a set.
func (s *MemoryStore) SetRemove(_ context.Context, setKey string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[setKey]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set, m)
	}
	if len(set) == 0 {
		delete(s.sets, setKey)
	}
	return nil
}

// SetMembers lists the members of a set.
func (s *MemoryStore) SetMembers(_ context.Context, setKey string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]string, 0, len(s.sets[setKey]))
	for m := range s.sets[setKey] {
		members = append(members, m)
	}
	return members, nil
}
