package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/cognify-app/cognify-backend/internal/ai"
	"github.com/cognify-app/cognify-backend/internal/pipeline"
	"github.com/cognify-app/cognify-backend/internal/tos"
)

func testTOS() *tos.TOS {
	return &tos.TOS{
		ID:          "tos-1",
		SubjectID:   "subj-1",
		SubjectName: "Biology",
		Active:      true,
		Topics: []tos.Topic{
			{Title: "Cell Structure", Weight: 0.6},
			{Title: "Photosynthesis", Weight: 0.4},
		},
	}
}

// bundleJSON builds a schema-valid response, then applies overrides to
// individual top-level sections.
func bundleJSON(t *testing.T, overrides map[string]any) string {
	t.Helper()

	quiz := make([]map[string]any, 5)
	for i := range quiz {
		quiz[i] = map[string]any{
			"question":            fmt.Sprintf("Question %d about cell structure?", i+1),
			"options":             []string{"A", "B", "C", "D"},
			"answer":              "A",
			"tos_topic_title":     "Cell Structure",
			"aligned_bloom_level": "understanding",
		}
	}
	cards := make([]map[string]any, 10)
	for i := range cards {
		cards[i] = map[string]any{
			"question":            fmt.Sprintf("Card %d on photosynthesis", i+1),
			"answer":              "Because chloroplasts capture light energy.",
			"tos_topic_title":     "Photosynthesis",
			"aligned_bloom_level": "remembering",
		}
	}

	doc := map[string]any{
		"summary":    "Cells are the basic unit of life. Photosynthesis converts light to chemical energy.",
		"quiz":       quiz,
		"flashcards": cards,
	}
	for k, v := range overrides {
		doc[k] = v
	}

	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	return string(out)
}

func TestGenerator_Generate(t *testing.T) {
	mock := ai.NewMockProvider(bundleJSON(t, nil))
	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{Completer: mock})

	bundle, err := gen.Generate(context.Background(), "Cells are small. Photosynthesis is important.", testTOS())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if bundle.Summary == "" {
		t.Error("Generate() returned empty summary")
	}
	if len(bundle.Quiz) != 5 {
		t.Errorf("quiz items = %d, want 5", len(bundle.Quiz))
	}
	if len(bundle.Flashcards) != 10 {
		t.Errorf("flashcards = %d, want 10", len(bundle.Flashcards))
	}
	if len(bundle.SectionErrors) != 0 {
		t.Errorf("unexpected section errors: %v", bundle.SectionErrors)
	}
	if mock.Calls() != 1 {
		t.Errorf("AI calls = %d, want exactly 1", mock.Calls())
	}
}

func TestGenerator_Generate_StripsFences(t *testing.T) {
	fenced := "```json\n" + bundleJSON(t, nil) + "\n```"
	mock := ai.NewMockProvider(fenced)
	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{Completer: mock})

	bundle, err := gen.Generate(context.Background(), "module text", testTOS())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(bundle.Quiz) != 5 {
		t.Errorf("quiz items = %d, want 5", len(bundle.Quiz))
	}
}

func TestGenerator_Generate_TruncatesLongModuleText(t *testing.T) {
	mock := ai.NewMockProvider(bundleJSON(t, nil))
	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{Completer: mock, MaxModuleChars: 50})

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	bundle, err := gen.Generate(context.Background(), string(long), testTOS())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !bundle.Truncated {
		t.Error("bundle.Truncated = false, want true")
	}

	req := mock.LastRequest()
	if req == nil {
		t.Fatal("no request captured")
	}
	for _, msg := range req.Messages {
		if len(msg.Content) > 1000 {
			t.Errorf("prompt message unexpectedly long: %d chars", len(msg.Content))
		}
	}
}

func TestGenerator_Generate_RetriesInvalidResponse(t *testing.T) {
	mock := ai.NewScriptedProvider("this is not json", bundleJSON(t, nil))
	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{Completer: mock})

	bundle, err := gen.Generate(context.Background(), "module text", testTOS())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if bundle.Summary == "" {
		t.Error("expected summary from the retried attempt")
	}
	if mock.Calls() != 2 {
		t.Errorf("AI calls = %d, want 2 (one failure, one retry)", mock.Calls())
	}
}

func TestGenerator_Generate_GivesUpAfterRetries(t *testing.T) {
	mock := ai.NewMockProvider("{\"not\": \"a bundle\"}")
	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{Completer: mock, MaxRetries: 2})

	_, err := gen.Generate(context.Background(), "module text", testTOS())
	if !errors.Is(err, pipeline.ErrInvalidResponse) {
		t.Fatalf("Generate() error = %v, want ErrInvalidResponse", err)
	}
	if mock.Calls() != 3 {
		t.Errorf("AI calls = %d, want 3 (initial + 2 retries)", mock.Calls())
	}
}

func TestGenerator_Generate_RetriesDisabled(t *testing.T) {
	mock := ai.NewMockProvider("{\"not\": \"a bundle\"}")
	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{Completer: mock, MaxRetries: -1})

	_, err := gen.Generate(context.Background(), "module text", testTOS())
	if !errors.Is(err, pipeline.ErrInvalidResponse) {
		t.Fatalf("Generate() error = %v, want ErrInvalidResponse", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("AI calls = %d, want 1 with retries disabled", mock.Calls())
	}
}

func TestGenerator_Generate_ProviderErrorRetried(t *testing.T) {
	mock := ai.NewMockProvider("unused")
	mock.Err = errors.New("deadline exceeded")
	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{Completer: mock, MaxRetries: 2})

	_, err := gen.Generate(context.Background(), "module text", testTOS())
	if !errors.Is(err, pipeline.ErrInvalidResponse) {
		t.Fatalf("Generate() error = %v, want ErrInvalidResponse", err)
	}
	if mock.Calls() != 3 {
		t.Errorf("AI calls = %d, want 3", mock.Calls())
	}
}

func TestGenerator_Generate_PartialSuccess(t *testing.T) {
	// Flashcards section carries too few cards: section fails, summary and
	// quiz survive, and there is no retry.
	mock := ai.NewMockProvider(bundleJSON(t, map[string]any{
		"flashcards": []map[string]any{{"question": "only one", "answer": "card"}},
	}))
	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{Completer: mock})

	bundle, err := gen.Generate(context.Background(), "module text", testTOS())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if bundle.Summary == "" {
		t.Error("summary should survive a failed flashcards section")
	}
	if len(bundle.Quiz) != 5 {
		t.Errorf("quiz items = %d, want 5", len(bundle.Quiz))
	}
	if len(bundle.Flashcards) != 0 {
		t.Errorf("flashcards = %d, want 0 after section failure", len(bundle.Flashcards))
	}
	if len(bundle.SectionErrors) != 1 || bundle.SectionErrors[0].Section != "flashcards" {
		t.Errorf("section errors = %v, want one flashcards error", bundle.SectionErrors)
	}
	if mock.Calls() != 1 {
		t.Errorf("AI calls = %d, want 1 (section failures never retry)", mock.Calls())
	}
}

func TestGenerator_Generate_MissingSummaryRetries(t *testing.T) {
	mock := ai.NewScriptedProvider(
		bundleJSON(t, map[string]any{"summary": ""}),
		bundleJSON(t, nil),
	)
	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{Completer: mock})

	bundle, err := gen.Generate(context.Background(), "module text", testTOS())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if bundle.Summary == "" {
		t.Error("expected summary from retried attempt")
	}
	if mock.Calls() != 2 {
		t.Errorf("AI calls = %d, want 2", mock.Calls())
	}
}

func TestGenerator_Generate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := ai.NewMockProvider(bundleJSON(t, nil))
	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{Completer: mock})

	_, err := gen.Generate(ctx, "module text", testTOS())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	if mock.Calls() != 0 {
		t.Errorf("AI calls = %d, want 0 after cancellation", mock.Calls())
	}
}
