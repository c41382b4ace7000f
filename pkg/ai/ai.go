package ai

import (
	"context"
)

// Prompt roles understood by every adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Prompt is a single message of an ordered prompt sequence.
//
// Role must be one of:
//   - "system"    → instructions for the model
//   - "user"      → a user-provided message
//   - "assistant" → a previous reply of the model
type Prompt struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemPrompt returns a prompt with the system role.
func SystemPrompt(content string) Prompt {
	return Prompt{Role: RoleSystem, Content: content}
}

// UserPrompt returns a prompt with the user role.
func UserPrompt(content string) Prompt {
	return Prompt{Role: RoleUser, Content: content}
}

// AssistantPrompt returns a prompt with the assistant role.
func AssistantPrompt(content string) Prompt {
	return Prompt{Role: RoleAssistant, Content: content}
}

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model       string  // Model identifier to use for generation
	Temperature float64 // Sampling temperature (0.0-2.0)
	MaxTokens   int     // Upper bound of generated tokens, 0 leaves it to the provider
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// Stream event types.
const (
	StreamEventContent = "content"
	StreamEventError   = "error"
)

// StreamEvent represents an event in a streaming response.
// A stream ends when its channel is closed; an "error" event is always the last
// event sent before closing.
type StreamEvent struct {
	Type    string // "content" | "error"
	Content string // text delta (when Type="content")
	Err     error  // failure (when Type="error")
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
// Higher values (e.g., 1.0) produce more random outputs, while lower values
// (e.g., 0.2) make outputs more focused and deterministic.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens returns a GenerateOption that caps the number of generated tokens.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// ApplyOptions folds opts over the given defaults.
func ApplyOptions(defaults GenerateOptions, opts ...GenerateOption) GenerateOptions {
	for _, o := range opts {
		o(&defaults)
	}
	return defaults
}

// ModelClient is the request collaborator used by the answer pipeline.
// Implementations own every transport detail (endpoint, headers, retries);
// callers only supply prompts and consume text or deltas.
type ModelClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompts []Prompt,
		opts ...GenerateOption,
	) (string, error)
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompts []Prompt,
		out any,
		opts ...GenerateOption,
	) error
	GenerateStream(
		ctx context.Context,
		prompts []Prompt,
		opts ...GenerateOption,
	) (<-chan StreamEvent, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
