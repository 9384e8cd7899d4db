package subscriptions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store, keyed by endpoint.
// Suitable for development and testing.
type MemoryStore struct {
	byEndpoint map[string]Subscription
	mu         sync.RWMutex
}

// NewMemoryStore creates a new in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEndpoint: make(map[string]Subscription)}
}

func (s *MemoryStore) Upsert(ctx context.Context, endpoint string, keys Keys, userID string) (string, error) {
	if endpoint == "" {
		return "", ErrInvalidEndpoint
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byEndpoint[endpoint]; ok {
		existing.Keys = keys
		if userID != "" {
			existing.UserID = userID
		}
		s.byEndpoint[endpoint] = existing
		return existing.ID, nil
	}

	sub := Subscription{
		ID:        uuid.New().String(),
		UserID:    userID,
		Endpoint:  endpoint,
		Keys:      keys,
		CreatedAt: time.Now(),
	}
	s.byEndpoint[endpoint] = sub
	return sub.ID, nil
}

func (s *MemoryStore) DetachByEndpoint(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byEndpoint, endpoint)
	return nil
}

func (s *MemoryStore) DetachAllForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for endpoint, sub := range s.byEndpoint {
		if sub.UserID == userID {
			delete(s.byEndpoint, endpoint)
		}
	}
	return nil
}

func (s *MemoryStore) ListForUser(ctx context.Context, userID string) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := []Subscription{}
	for _, sub := range s.byEndpoint {
		if sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}
