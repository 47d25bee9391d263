package apimodels

// Snippet is a retrieved rulebook passage returned to the caller as
// grounding material for a generated answer.
type Snippet struct {
	// Text is the passage content as stored in the vector index
	Text string `json:"text"`

	// Source is a human-readable label for the source document
	Source string `json:"source"`

	// Page is the rulebook page the passage was extracted from
	Page int `json:"page"`

	// Line is the passage's position within the page, when known
	Line int `json:"line"`
}

// QAResponse is the answer to a single rules question.
type QAResponse struct {
	Answer   string    `json:"answer"`
	Snippets []Snippet `json:"snippets"`

	// Token accounting from the generation service. TotalTokens is
	// always PromptTokens+CompletionTokens when non-zero.
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`

	// Confidence is the top retrieved passage's similarity score in
	// [0,1]. Absent when nothing was retrieved.
	Confidence *float64 `json:"confidence,omitempty"`

	// Metadata carries generation-side details such as model id and
	// finish reason.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Outline is the structured skeleton of an explanation.
type Outline struct {
	MainTopic string `json:"mainTopic"`

	// Sections holds at most five short labels derived from the
	// retrieved passages.
	Sections []string `json:"sections"`
}

// ExplainResponse is a long-form explanation of a rule or concept.
type ExplainResponse struct {
	Outline Outline `json:"outline"`

	// Script is the full narration text
	Script string `json:"script"`

	// Citations lists every retrieved passage, uncapped
	Citations []Snippet `json:"citations"`

	EstimatedReadingMinutes int `json:"estimatedReadingTimeMinutes"`

	PromptTokens     int64             `json:"promptTokens"`
	CompletionTokens int64             `json:"completionTokens"`
	TotalTokens      int64             `json:"totalTokens"`
	Confidence       *float64          `json:"confidence,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// SetupStep is one discrete instruction in a setup guide.
type SetupStep struct {
	// StepNumber is sequential from 1 with no gaps
	StepNumber int `json:"stepNumber"`

	Title       string `json:"title"`
	Instruction string `json:"instruction"`

	// References are the retrieved passages backing this step
	References []Snippet `json:"references"`

	// IsOptional is true when the generated title carried the
	// optional marker
	IsOptional bool `json:"isOptional"`
}

// SetupGuideResponse is an ordered checklist for setting up a game.
type SetupGuideResponse struct {
	GameTitle string      `json:"gameTitle"`
	Steps     []SetupStep `json:"steps"`

	PromptTokens     int64             `json:"promptTokens"`
	CompletionTokens int64             `json:"completionTokens"`
	TotalTokens      int64             `json:"totalTokens"`
	Confidence       *float64          `json:"confidence,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}
