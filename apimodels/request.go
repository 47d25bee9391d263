package apimodels

type QARequest struct {
	// GameID identifies the rulebook corpus to query
	GameID string `json:"gameId"`

	// Query is the natural language rules question
	Query string `json:"query"`

	// ConversationID is an optional opaque id supplied by the caller
	ConversationID string `json:"conversationId,omitempty"`
}

type ExplainRequest struct {
	// GameID identifies the rulebook corpus to query
	GameID string `json:"gameId"`

	// Topic is the rule or concept to explain
	Topic string `json:"topic"`
}

type SetupGuideRequest struct {
	// GameID identifies the game whose setup should be described
	GameID string `json:"gameId"`
}

type ChessRequest struct {
	// Query is the natural language chess question
	Query string `json:"query"`
}

// InvalidateRequest drives the cache administration endpoint. When
// Endpoint is empty every cached entry for the game is removed.
type InvalidateRequest struct {
	GameID   string `json:"gameId"`
	Endpoint string `json:"endpoint,omitempty"`
}
