// Package motivation manages the per-student motivational message shown on
// the dashboard. A teacher-set override shadows the AI-generated message
// without deleting it; clearing the override makes the generated message
// visible again.
package motivation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cognify-app/cognify-backend/internal/ai"
	"github.com/cognify-app/cognify-backend/internal/analytics"
	"github.com/cognify-app/cognify-backend/internal/bloom"
)

// Message sources.
const (
	SourceCustom = "custom"
	SourceAI     = "ai"
)

// fallbackQuote is served when AI generation fails. Never an error to the
// student.
const fallbackQuote = "Every step you take in learning counts. Keep going!"

// Message is one motivational message with its provenance.
type Message struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record holds both message slots for a student.
type Record struct {
	Override  *Message `json:"override,omitempty"`
	Generated *Message `json:"generated,omitempty"`
}

// ReportSource is the slice of analytics the generator needs.
type ReportSource interface {
	StudentReport(ctx context.Context, userID string) (*analytics.Report, error)
}

// Completer is the slice of the AI surface the generator needs.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// ServiceConfig holds dependencies for the motivation service.
type ServiceConfig struct {
	Store     Store
	Reports   ReportSource // nil generates without performance context
	Completer Completer    // nil always falls back to the stock quote
}

// Service resolves and generates motivational messages.
type Service struct {
	store     Store
	reports   ReportSource
	completer Completer
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		store:     cfg.Store,
		reports:   cfg.Reports,
		completer: cfg.Completer,
	}
}

// Resolve returns the message a student should currently see: the override
// when set, else the generated message, else nil.
func (s *Service) Resolve(ctx context.Context, userID string) (*Message, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if rec.Override != nil {
		return rec.Override, nil
	}
	return rec.Generated, nil
}

// SetOverride stores a custom message. The generated message is untouched.
func (s *Service) SetOverride(ctx context.Context, userID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("message text is required")
	}
	return s.store.SetOverride(ctx, userID, text)
}

// ClearOverride removes the custom message, re-exposing the generated one.
func (s *Service) ClearOverride(ctx context.Context, userID string) error {
	return s.store.ClearOverride(ctx, userID)
}

// GenerateFor produces a fresh AI message grounded in the student's report
// and stores it in the generated slot. A failed AI call degrades to a stock
// quote rather than an error.
func (s *Service) GenerateFor(ctx context.Context, userID string) (*Message, error) {
	text := fallbackQuote
	if s.completer != nil {
		generated, err := s.generate(ctx, userID)
		if err != nil {
			slog.Warn("motivation generation failed, using fallback",
				"user_id", userID,
				"error", err,
			)
		} else {
			text = generated
		}
	}

	if err := s.store.SetGenerated(ctx, userID, text); err != nil {
		return nil, err
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return rec.Generated, nil
}

func (s *Service) generate(ctx context.Context, userID string) (string, error) {
	prompt := "Write a short, upbeat motivational message (max 2 sentences) for a student."
	if s.reports != nil {
		report, err := s.reports.StudentReport(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("load report: %w", err)
		}
		prompt = buildPrompt(report)
	}

	resp, err := s.completer.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: "You write brief, warm, encouraging messages for students. Never mention scores or statistics directly. Two sentences at most."},
			{Role: "user", Content: prompt},
		},
		Task:      ai.TaskMotivation,
		MaxTokens: 128,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

func buildPrompt(report *analytics.Report) string {
	var b strings.Builder
	b.WriteString("Write a short, upbeat motivational message (max 2 sentences) for this student:\n")
	fmt.Fprintf(&b, "- activities completed: %d\n", report.Summary.TotalActivities)
	fmt.Fprintf(&b, "- currently on track to pass: %v\n", report.Prediction.PredictedToPass)
	if weakest := weakestArea(report); weakest != "" {
		fmt.Fprintf(&b, "- area that needs gentle encouragement: %s\n", weakest)
	}
	return b.String()
}

func weakestArea(report *analytics.Report) bloom.Level {
	var (
		weakest bloom.Level
		lowest  = 101.0
	)
	for level, score := range report.PerBloom {
		if score < lowest {
			lowest = score
			weakest = level
		}
	}
	return weakest
}
