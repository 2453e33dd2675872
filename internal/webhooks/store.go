package webhooks

import (
	"context"
	"sync"
	"time"
)

// ProcessedStore remembers which provider events were already handled.
type ProcessedStore interface {
	// MarkProcessed records the event and reports false if it was already recorded.
	MarkProcessed(ctx context.Context, processor, eventID string) (bool, error)
	// Forget drops a mark so a failed delivery can be retried by the provider.
	Forget(ctx context.Context, processor, eventID string) error
}

// MemoryStore is the in-process fallback used when neither redis nor
// postgres is configured. Marks expire after ttl.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &MemoryStore{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

func (s *MemoryStore) MarkProcessed(_ context.Context, processor, eventID string) (bool, error) {
	now := s.now()
	key := processor + ":" + eventID

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, exp := range s.seen {
		if now.After(exp) {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = now.Add(s.ttl)
	return true, nil
}

func (s *MemoryStore) Forget(_ context.Context, processor, eventID string) error {
	s.mu.Lock()
	delete(s.seen, processor+":"+eventID)
	s.mu.Unlock()
	return nil
}
