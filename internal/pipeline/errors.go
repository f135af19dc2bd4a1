package pipeline

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned when a generation run is triggered for a
// module that already has a live run. The caller gets a conflict, the second
// request is never queued.
var ErrAlreadyRunning = errors.New("generation already running for module")

// ErrNoActiveTOS is returned when the module's subject has no active table of
// specifications. Generation cannot proceed without an alignment target.
var ErrNoActiveTOS = errors.New("no active TOS for subject")

// ErrInvalidResponse marks an AI response whose overall structure could not
// be parsed after all retries.
var ErrInvalidResponse = errors.New("AI response structurally invalid")

// GenerationError reports a single malformed section inside an otherwise
// usable response. Section errors do not trigger a retry; the valid sections
// are persisted and the failed ones surface in the run summary.
type GenerationError struct {
	Section string // "summary", "quiz", or "flashcards"
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Section, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
