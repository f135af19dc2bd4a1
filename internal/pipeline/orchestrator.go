package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cognify-app/cognify-backend/internal/content"
	"github.com/cognify-app/cognify-backend/internal/tos"
)

const (
	defaultStaleRunTTL = 10 * time.Minute
	defaultRunTimeout  = 3 * time.Minute
)

// TextExtractor is the slice of the extractor the orchestrator needs.
type TextExtractor interface {
	Text(ctx context.Context, url string) (string, error)
}

// OrchestratorConfig holds dependencies for the pipeline orchestrator.
type OrchestratorConfig struct {
	Runs      RunStore
	Modules   content.ModuleStore
	TOS       tos.Store
	Extractor TextExtractor
	Generator *Generator
	Artifacts content.Store
	Events    EventLogger
	Notifier  *Notifier

	StaleRunTTL time.Duration // running marker older than this is reclaimed (default 10m)
	RunTimeout  time.Duration // wall-clock bound on one background run (default 3m)
}

// Orchestrator owns the generation run lifecycle: it claims the run
// synchronously so the caller gets AlreadyRunning conflicts immediately,
// then executes the pipeline in the background. Every step error becomes the
// run's terminal failed state; nothing escapes the run boundary.
type Orchestrator struct {
	runs      RunStore
	modules   content.ModuleStore
	tosStore  tos.Store
	extractor TextExtractor
	generator *Generator
	artifacts content.Store
	events    EventLogger
	notifier  *Notifier

	staleRunTTL time.Duration
	runTimeout  time.Duration

	wg sync.WaitGroup
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NewNotifier()
	}
	staleTTL := cfg.StaleRunTTL
	if staleTTL == 0 {
		staleTTL = defaultStaleRunTTL
	}
	runTimeout := cfg.RunTimeout
	if runTimeout == 0 {
		runTimeout = defaultRunTimeout
	}
	return &Orchestrator{
		runs:        cfg.Runs,
		modules:     cfg.Modules,
		tosStore:    cfg.TOS,
		extractor:   cfg.Extractor,
		generator:   cfg.Generator,
		artifacts:   cfg.Artifacts,
		events:      events,
		notifier:    notifier,
		staleRunTTL: staleTTL,
		runTimeout:  runTimeout,
	}
}

// Notifier exposes the transition feed for run watchers.
func (o *Orchestrator) Notifier() *Notifier {
	return o.notifier
}

// Wait blocks until all in-flight background runs finish. Used on shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Trigger starts a generation run for the module and returns its run ID.
// Returns content.ErrModuleNotFound for unknown or deleted modules and
// ErrAlreadyRunning when the module has a live run. The pipeline itself
// executes in the background; callers poll or watch the run for the outcome.
func (o *Orchestrator) Trigger(ctx context.Context, moduleID string) (string, error) {
	module, err := o.modules.Get(ctx, moduleID)
	if err != nil {
		return "", err
	}

	run, err := o.runs.Claim(ctx, moduleID, o.staleRunTTL)
	if err != nil {
		return "", err
	}

	slog.Info("generation run claimed",
		"run_id", run.ID,
		"module_id", moduleID,
		"subject_id", module.SubjectID,
	)
	o.logEvent(run, "run_claimed", nil)
	o.notifier.Publish(RunUpdate{RunID: run.ID, ModuleID: moduleID, State: StateRunning, Stage: run.Stage})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.execute(run, module)
	}()

	return run.ID, nil
}

// execute runs the pipeline for one claimed run. It owns its own context:
// the triggering request has already returned.
func (o *Orchestrator) execute(run *Run, module *content.Module) {
	ctx, cancel := context.WithTimeout(context.Background(), o.runTimeout)
	defer cancel()

	o.advance(ctx, run, StageExtract)
	text, err := o.extractor.Text(ctx, module.MaterialURL)
	if err != nil {
		o.fail(run, StageExtract, err)
		return
	}

	o.advance(ctx, run, StageResolve)
	active, err := o.tosStore.ActiveTOS(ctx, module.SubjectID)
	if err != nil {
		o.fail(run, StageResolve, err)
		return
	}
	if active == nil {
		o.fail(run, StageResolve, fmt.Errorf("%w: subject %s", ErrNoActiveTOS, module.SubjectID))
		return
	}

	o.advance(ctx, run, StageGenerate)
	bundle, err := o.generator.Generate(ctx, text, active)
	if err != nil {
		o.fail(run, StageGenerate, err)
		return
	}
	for _, secErr := range bundle.SectionErrors {
		slog.Warn("bundle section failed",
			"run_id", run.ID,
			"section", secErr.Section,
			"error", secErr.Err,
		)
		o.logEvent(run, "section_failed", map[string]any{
			"section": secErr.Section,
			"error":   secErr.Err.Error(),
		})
	}

	o.advance(ctx, run, StagePersist)
	counts, err := o.persist(ctx, run, module, active, bundle)
	if err != nil {
		o.fail(run, StagePersist, err)
		return
	}
	for _, sec := range bundle.SectionErrors {
		counts.FailedSections = append(counts.FailedSections, sec.Section)
	}

	if err := o.runs.Complete(ctx, run.ID, counts); err != nil {
		slog.Error("failed to mark run completed", "run_id", run.ID, "error", err)
		return
	}
	slog.Info("generation run completed",
		"run_id", run.ID,
		"module_id", run.ModuleID,
		"quiz_items", counts.QuizItems,
		"flashcards", counts.Flashcards,
		"failed_sections", counts.FailedSections,
		"model", bundle.Model,
		"tokens", bundle.TotalTokens,
	)
	o.logEvent(run, "run_completed", map[string]any{
		"quiz_items":      counts.QuizItems,
		"flashcards":      counts.Flashcards,
		"failed_sections": counts.FailedSections,
	})
	o.notifier.Publish(RunUpdate{RunID: run.ID, ModuleID: run.ModuleID, State: StateCompleted, Stage: StagePersist})
}

// persist stores whichever sections came back valid. The summary always
// exists at this point; quiz and deck are skipped when their section failed.
func (o *Orchestrator) persist(ctx context.Context, run *Run, module *content.Module, active *tos.TOS, bundle *Bundle) (RunCounts, error) {
	now := time.Now()
	var counts RunCounts

	summary := &content.Summary{
		ModuleID:    module.ID,
		TOSID:       active.ID,
		RunID:       run.ID,
		Text:        bundle.Summary,
		Tag:         Classify(bundle.Summary, "", "", active),
		Truncated:   bundle.Truncated,
		GeneratedAt: now,
	}
	if err := o.artifacts.SaveSummary(ctx, summary); err != nil {
		return counts, fmt.Errorf("save summary: %w", err)
	}
	counts.Summaries = 1

	if len(bundle.Quiz) > 0 {
		quiz := &content.Quiz{
			ModuleID:    module.ID,
			TOSID:       active.ID,
			RunID:       run.ID,
			GeneratedAt: now,
		}
		for _, item := range bundle.Quiz {
			quiz.Items = append(quiz.Items, content.QuizItem{
				Question: item.Question,
				Options:  item.Options,
				Answer:   item.Answer,
				Tag:      Classify(item.Question, item.TopicHint, item.BloomHint, active),
			})
		}
		if err := o.artifacts.SaveQuiz(ctx, quiz); err != nil {
			return counts, fmt.Errorf("save quiz: %w", err)
		}
		counts.QuizItems = len(quiz.Items)
	}

	if len(bundle.Flashcards) > 0 {
		deck := &content.FlashcardDeck{
			ModuleID:    module.ID,
			TOSID:       active.ID,
			RunID:       run.ID,
			GeneratedAt: now,
		}
		for _, card := range bundle.Flashcards {
			deck.Cards = append(deck.Cards, content.Flashcard{
				Question: card.Question,
				Answer:   card.Answer,
				Tag:      Classify(card.Question, card.TopicHint, card.BloomHint, active),
			})
		}
		if err := o.artifacts.SaveDeck(ctx, deck); err != nil {
			return counts, fmt.Errorf("save deck: %w", err)
		}
		counts.Flashcards = len(deck.Cards)
	}

	return counts, nil
}

func (o *Orchestrator) advance(ctx context.Context, run *Run, stage string) {
	if err := o.runs.SetStage(ctx, run.ID, stage); err != nil {
		slog.Warn("failed to record stage", "run_id", run.ID, "stage", stage, "error", err)
	}
	run.Stage = stage
	o.notifier.Publish(RunUpdate{RunID: run.ID, ModuleID: run.ModuleID, State: StateRunning, Stage: stage})
}

// fail marks the run terminal. It uses a fresh context so a run killed by
// its own timeout can still record why.
func (o *Orchestrator) fail(run *Run, stage string, cause error) {
	slog.Error("generation run failed",
		"run_id", run.ID,
		"module_id", run.ModuleID,
		"stage", stage,
		"error", cause,
	)
	if err := o.runs.Fail(context.Background(), run.ID, stage, cause.Error()); err != nil {
		slog.Error("failed to mark run failed", "run_id", run.ID, "error", err)
	}
	o.logEvent(run, "run_failed", map[string]any{
		"stage": stage,
		"error": cause.Error(),
	})
	o.notifier.Publish(RunUpdate{RunID: run.ID, ModuleID: run.ModuleID, State: StateFailed, Stage: stage, Reason: cause.Error()})
}

func (o *Orchestrator) logEvent(run *Run, eventType string, data map[string]any) {
	err := o.events.LogEvent(Event{
		RunID:     run.ID,
		ModuleID:  run.ModuleID,
		EventType: eventType,
		Data:      data,
	})
	if err != nil {
		slog.Warn("failed to log pipeline event", "type", eventType, "run_id", run.ID, "error", err)
	}
}
