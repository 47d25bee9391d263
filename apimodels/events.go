package apimodels

import "time"

// StreamEventType tags a streaming event envelope.
type StreamEventType string

const (
	EventStateUpdate StreamEventType = "state_update"
	EventCitations   StreamEventType = "citations"
	EventToken       StreamEventType = "token"
	EventComplete    StreamEventType = "complete"
	EventError       StreamEventType = "error"
)

// StreamEvent is the envelope framed over the streaming transport. The
// payload shape depends on Type; Complete and Error are always terminal.
type StreamEvent struct {
	Type      StreamEventType `json:"type"`
	Payload   any             `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// StatePayload reports pipeline progress before any text is available.
type StatePayload struct {
	State string `json:"state"`
}

// CitationsPayload carries the retrieved passages as soon as retrieval
// finishes, ahead of generation.
type CitationsPayload struct {
	Snippets []Snippet `json:"snippets"`
}

// TokenPayload carries a chunk of generated text.
type TokenPayload struct {
	Text string `json:"text"`
}

// CompletePayload closes a successful stream with token accounting.
type CompletePayload struct {
	PromptTokens     int64    `json:"promptTokens"`
	CompletionTokens int64    `json:"completionTokens"`
	TotalTokens      int64    `json:"totalTokens"`
	Confidence       *float64 `json:"confidence,omitempty"`
}

// ErrorPayload closes a failed stream with a machine-readable code.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
