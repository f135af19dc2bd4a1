package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cognify-app/cognify-backend/internal/ai"
	"github.com/cognify-app/cognify-backend/internal/tos"
)

const (
	defaultMaxModuleChars = 14000
	defaultMaxRetries     = 2
	defaultMaxTokens      = 8192
)

// Completer is the slice of the AI surface the generator needs. Satisfied by
// *ai.Router and the mock provider.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// GeneratorConfig holds dependencies and tunables for the generator.
type GeneratorConfig struct {
	Completer      Completer
	MaxModuleChars int // module text cap in the prompt (default 14000)
	MaxRetries     int // retries after a structurally invalid attempt (0 = default 2, negative = none)
	MaxTokens      int // completion budget per attempt (default 8192)
}

// Generator turns module text plus an active TOS into a learning bundle with
// exactly one AI call per attempt.
type Generator struct {
	completer      Completer
	maxModuleChars int
	maxRetries     int
	maxTokens      int
}

// NewGenerator creates a generator, filling zero-value tunables with
// defaults.
func NewGenerator(cfg GeneratorConfig) *Generator {
	maxChars := cfg.MaxModuleChars
	if maxChars == 0 {
		maxChars = defaultMaxModuleChars
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	} else if retries < 0 {
		retries = 0
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return &Generator{
		completer:      cfg.Completer,
		maxModuleChars: maxChars,
		maxRetries:     retries,
		maxTokens:      maxTokens,
	}
}

// Generate produces a bundle for the given module text and TOS. A response
// whose overall structure is invalid, or a failed completion call, is retried
// up to MaxRetries times. Individually malformed quiz or flashcard sections
// never retry: the valid sections are returned and the failures recorded in
// Bundle.SectionErrors.
func (g *Generator) Generate(ctx context.Context, moduleText string, t *tos.TOS) (*Bundle, error) {
	truncated := false
	if len(moduleText) > g.maxModuleChars {
		moduleText = moduleText[:g.maxModuleChars]
		truncated = true
	}

	req := ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: bundleSystemPrompt},
			{Role: "user", Content: buildBundlePrompt(moduleText, t)},
		},
		Task:      ai.TaskBundle,
		MaxTokens: g.maxTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 0 {
			slog.Warn("retrying bundle generation",
				"attempt", attempt,
				"error", lastErr,
			)
		}

		resp, err := g.completer.Complete(ctx, req)
		if err != nil {
			// Timeouts and provider failures count as invalid attempts.
			lastErr = err
			continue
		}

		doc := []byte(stripFences(resp.Content))
		if err := validateSchema(bundleSchema, doc); err != nil {
			lastErr = err
			continue
		}

		bundle, err := parseBundle(doc)
		if err != nil {
			lastErr = err
			continue
		}
		bundle.Truncated = truncated
		bundle.Model = resp.Model
		bundle.TotalTokens = resp.TotalTokens()
		return bundle, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, lastErr)
}

// parseBundle splits a schema-valid response into sections, validating quiz
// and flashcards independently so one bad section does not sink the other.
func parseBundle(doc []byte) (*Bundle, error) {
	var raw struct {
		Summary    string          `json:"summary"`
		Quiz       json.RawMessage `json:"quiz"`
		Flashcards json.RawMessage `json:"flashcards"`
	}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	b := &Bundle{Summary: raw.Summary}

	if err := validateSchema(quizSchema, raw.Quiz); err != nil {
		b.SectionErrors = append(b.SectionErrors, GenerationError{Section: "quiz", Err: err})
	} else if err := json.Unmarshal(raw.Quiz, &b.Quiz); err != nil {
		b.SectionErrors = append(b.SectionErrors, GenerationError{Section: "quiz", Err: err})
		b.Quiz = nil
	}

	if err := validateSchema(flashcardSchema, raw.Flashcards); err != nil {
		b.SectionErrors = append(b.SectionErrors, GenerationError{Section: "flashcards", Err: err})
	} else if err := json.Unmarshal(raw.Flashcards, &b.Flashcards); err != nil {
		b.SectionErrors = append(b.SectionErrors, GenerationError{Section: "flashcards", Err: err})
		b.Flashcards = nil
	}

	return b, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag. Models wrap JSON this way often enough that it is cheaper to
// strip than to prompt against.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

const bundleSystemPrompt = `You are a curriculum content generator for a learning platform.
You produce study material strictly aligned to a table of specifications (TOS).
Respond with a single JSON object and nothing else. No prose, no markdown fences.`

func buildBundlePrompt(moduleText string, t *tos.TOS) string {
	var b strings.Builder
	b.WriteString("Generate a learning package from the module text below, aligned to the TOS.\n\n")
	b.WriteString("TOS:\n")
	b.WriteString(t.PromptText(0))
	b.WriteString("\nReturn a JSON object with exactly these keys:\n")
	b.WriteString(`- "summary": a concise study summary of the module text (3-6 paragraphs)` + "\n")
	b.WriteString(`- "quiz": exactly 5 multiple-choice questions, each an object with "question", "options" (exactly 4 strings), "answer" (one of the options), "tos_topic_title" (a topic title from the TOS), "aligned_bloom_level" (one of remembering, understanding, applying, analyzing, evaluating, creating)` + "\n")
	b.WriteString(`- "flashcards": exactly 10 cards, each an object with "question", "answer", "tos_topic_title", "aligned_bloom_level"` + "\n")
	b.WriteString("\nDistribute questions and cards across topics following the TOS weights and Bloom distribution.\n\n")
	b.WriteString("MODULE TEXT:\n")
	b.WriteString(moduleText)
	return b.String()
}
