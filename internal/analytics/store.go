package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists the append-only activity stream.
type Store interface {
	Record(ctx context.Context, a Activity) (string, error)
	ByUser(ctx context.Context, userID string) ([]Activity, error)
}

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]Activity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: map[string][]Activity{}}
}

func (s *MemoryStore) Record(_ context.Context, a Activity) (string, error) {
	if a.UserID == "" {
		return "", fmt.Errorf("user_id is required")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.byUser[a.UserID] = append(s.byUser[a.UserID], a)
	s.mu.Unlock()

	return a.ID, nil
}

func (s *MemoryStore) ByUser(_ context.Context, userID string) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Activity{}, s.byUser[userID]...), nil
}
