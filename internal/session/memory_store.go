package session

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	now      func() time.Time
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memoryEntry), now: time.Now}
}

// live returns the entry for token, evicting it if expired. Callers hold mu.
func (s *MemoryStore) live(token string) (*memoryEntry, bool) {
	e, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, token)
		return nil, false
	}
	return e, true
}

func (s *MemoryStore) Get(_ context.Context, token, field string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(token)
	if !ok {
		return "", false, nil
	}
	v, ok := e.values[field]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, token string, values map[string]string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(token)
	for k, v := range values {
		e.values[strings.Clone(k)] = strings.Clone(v)
	}
	e.expiresAt = s.now().Add(ttl)
	return nil
}

// entry returns the live entry for token, creating it when absent. Keys are
// cloned since request strings may alias buffers fasthttp reuses. Callers hold mu.
func (s *MemoryStore) entry(token string) *memoryEntry {
	if e, ok := s.live(token); ok {
		return e
	}
	e := &memoryEntry{values: make(map[string]string)}
	s.sessions[strings.Clone(token)] = e
	return e
}

func (s *MemoryStore) Append(_ context.Context, token, field, value, sep string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(token)
	if cur := e.values[field]; cur != "" {
		value = cur + sep + value
	}
	e.values[strings.Clone(field)] = strings.Clone(value)
	e.expiresAt = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Take(_ context.Context, token, field string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(token)
	if !ok {
		return "", false, nil
	}
	v, ok := e.values[field]
	if ok {
		delete(e.values, field)
	}
	return v, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.live(token); ok {
		e.expiresAt = s.now().Add(ttl)
	}
	return nil
}
