package motivation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store persists the two message slots per student. Implementations must
// keep the slots independent: writing one never clears the other.
type Store interface {
	Get(ctx context.Context, userID string) (*Record, error)
	SetOverride(ctx context.Context, userID, text string) error
	ClearOverride(ctx context.Context, userID string) error
	SetGenerated(ctx context.Context, userID, text string) error
}

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]*Record{}}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	out := Record{}
	if rec.Override != nil {
		m := *rec.Override
		out.Override = &m
	}
	if rec.Generated != nil {
		m := *rec.Generated
		out.Generated = &m
	}
	return &out, nil
}

func (s *MemoryStore) SetOverride(_ context.Context, userID, text string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(userID)
	rec.Override = &Message{Text: text, Source: SourceCustom, UpdatedAt: time.Now()}
	return nil
}

func (s *MemoryStore) ClearOverride(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[userID]; ok {
		rec.Override = nil
	}
	return nil
}

func (s *MemoryStore) SetGenerated(_ context.Context, userID, text string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(userID)
	rec.Generated = &Message{Text: text, Source: SourceAI, UpdatedAt: time.Now()}
	return nil
}

func (s *MemoryStore) record(userID string) *Record {
	rec, ok := s.records[userID]
	if !ok {
		rec = &Record{}
		s.records[userID] = rec
	}
	return rec
}
