package tos

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists TOS versions and tracks which one is active per subject.
type Store interface {
	Create(ctx context.Context, t TOS) (string, error)
	Get(ctx context.Context, id string) (*TOS, error)
	// ActiveTOS returns the unique active TOS for a subject, or (nil, nil)
	// when no version is active. It never falls back to the most recent
	// version: absence of an active flag means no aligned generation is
	// possible.
	ActiveTOS(ctx context.Context, subjectID string) (*TOS, error)
	// Activate marks the given version active and deactivates every other
	// version for the same subject in one atomic step.
	Activate(ctx context.Context, id string) error
	BySubject(ctx context.Context, subjectID string) ([]TOS, error)
}

// MemoryStore is an in-memory Store implementation for tests and development.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*TOS
}

// NewMemoryStore creates an empty in-memory TOS store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*TOS)}
}

func (s *MemoryStore) Create(_ context.Context, t TOS) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.SubjectID == "" {
		return "", fmt.Errorf("subject_id is required")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := s.items[t.ID]; exists {
		return "", fmt.Errorf("tos already exists: %s", t.ID)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Active {
		for _, other := range s.items {
			if other.SubjectID == t.SubjectID {
				other.Active = false
			}
		}
	}
	copy := t
	s.items[t.ID] = &copy
	return t.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*TOS, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("tos not found: %s", id)
	}
	copy := *t
	return &copy, nil
}

func (s *MemoryStore) ActiveTOS(_ context.Context, subjectID string) (*TOS, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.items {
		if t.SubjectID == subjectID && t.Active {
			copy := *t
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Activate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.items[id]
	if !ok {
		return fmt.Errorf("tos not found: %s", id)
	}
	for _, t := range s.items {
		if t.SubjectID == target.SubjectID {
			t.Active = false
		}
	}
	target.Active = true
	return nil
}

func (s *MemoryStore) BySubject(_ context.Context, subjectID string) ([]TOS, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []TOS
	for _, t := range s.items {
		if t.SubjectID == subjectID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
