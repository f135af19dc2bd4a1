// Package content holds the generated study artifacts produced by a
// generation run and the module read model the pipeline consumes. Artifacts
// are immutable: regeneration creates a new run's worth of documents, it
// never edits prior output.
package content

import (
	"time"

	"github.com/cognify-app/cognify-backend/internal/bloom"
)

// Module is the curriculum unit the pipeline reads. It is owned by the
// content-management collaborator; the pipeline only needs the subject
// reference and the uploaded document URL.
type Module struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	Title       string    `json:"title"`
	MaterialURL string    `json:"material_url"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tag links one generated item to a TOS topic and Bloom level. Fallback marks
// tags assigned by the classifier's default rather than a confident match.
type Tag struct {
	Topic    string      `json:"topic"`
	Bloom    bloom.Level `json:"bloom_level"`
	Fallback bool        `json:"fallback,omitempty"`
}

// Summary is a generated module summary.
type Summary struct {
	ID          string    `json:"id"`
	ModuleID    string    `json:"module_id"`
	TOSID       string    `json:"tos_id"`
	RunID       string    `json:"run_id"`
	Text        string    `json:"text"`
	Tag         Tag       `json:"tag"`
	Truncated   bool      `json:"truncated"` // source text was cut to the prompt cap
	GeneratedAt time.Time `json:"generated_at"`
}

// QuizItem is a single generated multiple-choice question.
type QuizItem struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Tag      Tag      `json:"tag"`
}

// Quiz is a generated quiz for a module.
type Quiz struct {
	ID          string     `json:"id"`
	ModuleID    string     `json:"module_id"`
	TOSID       string     `json:"tos_id"`
	RunID       string     `json:"run_id"`
	Items       []QuizItem `json:"items"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Flashcard is a single question/answer card.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Tag      Tag    `json:"tag"`
}

// FlashcardDeck is a generated flashcard set for a module.
type FlashcardDeck struct {
	ID          string      `json:"id"`
	ModuleID    string      `json:"module_id"`
	TOSID       string      `json:"tos_id"`
	RunID       string      `json:"run_id"`
	Cards       []Flashcard `json:"cards"`
	GeneratedAt time.Time   `json:"generated_at"`
}
