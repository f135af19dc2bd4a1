package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPageLimit is used when a listing request carries no limit.
const DefaultPageLimit = 20

// ErrModuleNotFound is returned for lookups of unknown or deleted modules.
var ErrModuleNotFound = errors.New("module not found")

// ModuleStore reads the module records owned by the content-management
// collaborator.
type ModuleStore interface {
	Get(ctx context.Context, id string) (*Module, error)
	Put(ctx context.Context, m Module) error
}

// Store persists generated artifacts. Listings are cursor-paginated over a
// strictly-ordered insertion key: startAfter is the last seen document id,
// and the returned cursor is the id of the final item in the page. Pages are
// stable under concurrent inserts, but newly-inserted items will not appear
// in pages already fetched.
type Store interface {
	SaveSummary(ctx context.Context, s *Summary) error
	SaveQuiz(ctx context.Context, q *Quiz) error
	SaveDeck(ctx context.Context, d *FlashcardDeck) error

	SummariesForModule(ctx context.Context, moduleID string, limit int, startAfter string) ([]Summary, string, error)
	QuizzesForModule(ctx context.Context, moduleID string, limit int, startAfter string) ([]Quiz, string, error)
	DecksForModule(ctx context.Context, moduleID string, limit int, startAfter string) ([]FlashcardDeck, string, error)
}

// MemoryModuleStore is an in-memory ModuleStore.
type MemoryModuleStore struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewMemoryModuleStore creates an empty in-memory module store.
func NewMemoryModuleStore() *MemoryModuleStore {
	return &MemoryModuleStore{modules: make(map[string]Module)}
}

func (s *MemoryModuleStore) Get(_ context.Context, id string) (*Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.modules[id]
	if !ok || m.Deleted {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	copy := m
	return &copy, nil
}

func (s *MemoryModuleStore) Put(_ context.Context, m Module) error {
	if m.ID == "" {
		return fmt.Errorf("module id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[m.ID] = m
	return nil
}

// MemoryStore is an in-memory artifact Store. Slices preserve insertion
// order, which is the pagination key.
type MemoryStore struct {
	mu        sync.RWMutex
	summaries []Summary
	quizzes   []Quiz
	decks     []FlashcardDeck
}

// NewMemoryStore creates an empty in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveSummary(_ context.Context, sum *Summary) error {
	if sum.ModuleID == "" {
		return fmt.Errorf("module_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stampID(&sum.ID)
	if sum.GeneratedAt.IsZero() {
		sum.GeneratedAt = time.Now()
	}
	s.summaries = append(s.summaries, *sum)
	return nil
}

func (s *MemoryStore) SaveQuiz(_ context.Context, q *Quiz) error {
	if q.ModuleID == "" {
		return fmt.Errorf("module_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stampID(&q.ID)
	if q.GeneratedAt.IsZero() {
		q.GeneratedAt = time.Now()
	}
	s.quizzes = append(s.quizzes, *q)
	return nil
}

func (s *MemoryStore) SaveDeck(_ context.Context, d *FlashcardDeck) error {
	if d.ModuleID == "" {
		return fmt.Errorf("module_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stampID(&d.ID)
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now()
	}
	s.decks = append(s.decks, *d)
	return nil
}

func (s *MemoryStore) SummariesForModule(_ context.Context, moduleID string, limit int, startAfter string) ([]Summary, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, last := paginate(s.summaries, moduleID, limit, startAfter,
		func(v Summary) (string, string) { return v.ModuleID, v.ID })
	return page, last, nil
}

func (s *MemoryStore) QuizzesForModule(_ context.Context, moduleID string, limit int, startAfter string) ([]Quiz, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, last := paginate(s.quizzes, moduleID, limit, startAfter,
		func(v Quiz) (string, string) { return v.ModuleID, v.ID })
	return page, last, nil
}

func (s *MemoryStore) DecksForModule(_ context.Context, moduleID string, limit int, startAfter string) ([]FlashcardDeck, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, last := paginate(s.decks, moduleID, limit, startAfter,
		func(v FlashcardDeck) (string, string) { return v.ModuleID, v.ID })
	return page, last, nil
}

// paginate walks items in insertion order, skipping until the startAfter id
// has been passed, and returns up to limit matches plus the cursor.
func paginate[T any](items []T, moduleID string, limit int, startAfter string, key func(T) (moduleID, id string)) ([]T, string) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	skipping := startAfter != ""
	var page []T
	last := ""
	for _, item := range items {
		mod, id := key(item)
		if mod != moduleID {
			continue
		}
		if skipping {
			if id == startAfter {
				skipping = false
			}
			continue
		}
		page = append(page, item)
		last = id
		if len(page) == limit {
			break
		}
	}
	return page, last
}

func stampID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
