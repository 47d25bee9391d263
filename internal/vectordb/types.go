package vectordb

import "context"

// Snippet is a ranked rulebook passage returned by the vector index,
// ordered descending by score.
type Snippet struct {
	Text     string
	SourceID string
	Page     int
	Line     int
	Score    float64
}

type SearchRequest struct {
	// GameID scopes the search to one rulebook corpus
	GameID string

	Vector []float32
	Limit  int

	// Category is an optional payload filter, used by the
	// chess-knowledge variant
	Category string
}

type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]Snippet, error)
}
