package llm

import "context"

type Provider interface {
	// Complete sends a system instruction and user-facing prompt to the
	// model and returns the generated text with usage accounting.
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (*Response, error)
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Option func(*Options)

type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Response is the generation result forwarded to the orchestrators.
type Response struct {
	Content string
	Usage   Usage

	// Metadata carries provider-side details such as the resolved model
	// id and the finish reason.
	Metadata map[string]string
}
