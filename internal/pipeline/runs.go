package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunState is the lifecycle state of one generation run.
type RunState string

const (
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
)

// Pipeline stages, recorded on the run as it advances so a failure names
// where it happened.
const (
	StageClaimed  = "claimed"
	StageExtract  = "extract"
	StageResolve  = "resolve_tos"
	StageGenerate = "generate"
	StagePersist  = "persist"
)

// staleReclaimReason marks runs failed because their marker outlived the
// stale-run TTL, usually a crashed process.
const staleReclaimReason = "run marker exceeded stale TTL, reclaimed"

// RunCounts summarizes what a completed run persisted.
type RunCounts struct {
	Summaries      int      `json:"summaries"`
	QuizItems      int      `json:"quiz_items"`
	Flashcards     int      `json:"flashcards"`
	FailedSections []string `json:"failed_sections,omitempty"`
}

// Run is the durable record of one generation attempt for a module. Runs are
// append-only history: a re-trigger after a terminal state starts a fresh
// run, it never rewrites an old one.
type Run struct {
	ID         string    `json:"id"`
	ModuleID   string    `json:"module_id"`
	State      RunState  `json:"state"`
	Stage      string    `json:"stage"`
	Reason     string    `json:"reason,omitempty"`
	Counts     RunCounts `json:"counts"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// RunStore persists runs and enforces the single-flight guarantee. Claim is
// atomic: for a given module, exactly one concurrent caller gets a run, the
// rest get ErrAlreadyRunning. A running marker older than staleAfter is
// failed and reclaimed instead of wedging the module forever.
type RunStore interface {
	Claim(ctx context.Context, moduleID string, staleAfter time.Duration) (*Run, error)
	SetStage(ctx context.Context, runID, stage string) error
	Complete(ctx context.Context, runID string, counts RunCounts) error
	Fail(ctx context.Context, runID, stage, reason string) error
	Get(ctx context.Context, runID string) (*Run, error)
	Latest(ctx context.Context, moduleID string) (*Run, error)
	History(ctx context.Context, moduleID string) ([]Run, error)
}

// MemoryRunStore is an in-memory RunStore for tests and development.
type MemoryRunStore struct {
	mu       sync.Mutex
	runs     map[string]*Run
	byModule map[string][]string // run IDs in start order
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs:     map[string]*Run{},
		byModule: map[string][]string{},
	}
}

func (s *MemoryRunStore) Claim(_ context.Context, moduleID string, staleAfter time.Duration) (*Run, error) {
	if moduleID == "" {
		return nil, fmt.Errorf("module id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byModule[moduleID] {
		r := s.runs[id]
		if r.State != StateRunning {
			continue
		}
		if staleAfter > 0 && time.Since(r.StartedAt) > staleAfter {
			r.State = StateFailed
			r.Reason = staleReclaimReason
			r.FinishedAt = time.Now()
			continue
		}
		return nil, ErrAlreadyRunning
	}

	run := &Run{
		ID:        uuid.NewString(),
		ModuleID:  moduleID,
		State:     StateRunning,
		Stage:     StageClaimed,
		StartedAt: time.Now(),
	}
	s.runs[run.ID] = run
	s.byModule[moduleID] = append(s.byModule[moduleID], run.ID)
	out := *run
	return &out, nil
}

func (s *MemoryRunStore) SetStage(_ context.Context, runID, stage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	r.Stage = stage
	return nil
}

func (s *MemoryRunStore) Complete(_ context.Context, runID string, counts RunCounts) error {
	return s.finish(runID, StateCompleted, "", "", counts)
}

func (s *MemoryRunStore) Fail(_ context.Context, runID, stage, reason string) error {
	return s.finish(runID, StateFailed, stage, reason, RunCounts{})
}

func (s *MemoryRunStore) finish(runID string, state RunState, stage, reason string, counts RunCounts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	if r.State != StateRunning {
		return fmt.Errorf("run %s already terminal (%s)", runID, r.State)
	}
	r.State = state
	if stage != "" {
		r.Stage = stage
	}
	r.Reason = reason
	r.Counts = counts
	r.FinishedAt = time.Now()
	return nil
}

func (s *MemoryRunStore) Get(_ context.Context, runID string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	out := *r
	return &out, nil
}

func (s *MemoryRunStore) Latest(_ context.Context, moduleID string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byModule[moduleID]
	if len(ids) == 0 {
		return nil, nil
	}
	out := *s.runs[ids[len(ids)-1]]
	return &out, nil
}

func (s *MemoryRunStore) History(_ context.Context, moduleID string) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, 0, len(s.byModule[moduleID]))
	for _, id := range s.byModule[moduleID] {
		out = append(out, *s.runs[id])
	}
	return out, nil
}
