package sessionsvc

import (
	"context"
	"sync"
	"time"

	"github.com/mzhou3299/2-web-app-spogs/core"
)

// MemoryStore keeps revoked session ids in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time // id -> expiry
	now     func() time.Time
}

var _ core.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, k)
		}
	}
	s.revoked[id] = now.Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.revoked[id]
	return ok && exp.After(s.now()), nil
}

func (s *MemoryStore) Close() error { return nil }
