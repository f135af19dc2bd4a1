// Package ai provides a provider-agnostic structured-completion capability.
// The pipeline's retry, parse, and partial-success logic lives above this
// boundary so the concrete provider can be swapped or mocked.
package ai

import "context"

// TaskType defines the kind of AI task for logging and routing purposes.
type TaskType int

const (
	TaskBundle     TaskType = iota // full learning-package generation
	TaskMotivation                 // short motivational message
)

func (t TaskType) String() string {
	switch t {
	case TaskBundle:
		return "bundle"
	case TaskMotivation:
		return "motivation"
	default:
		return "unknown"
	}
}

// Message represents a single prompt message.
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Provider is the interface all AI providers must implement. Calls are
// synchronous and bounded by the request context; callers never hold a lock
// across a Complete call.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}
