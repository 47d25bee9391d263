// Package rag orchestrates retrieval-augmented answering over an
// embedded rulebook corpus: embed the question, retrieve ranked
// passages, and only then ask the model to compose a grounded answer.
// When nothing is retrieved the model is never called.
package rag

import (
	"time"

	"github.com/DegrassiAaron/meepleai/apimodels"
	"github.com/DegrassiAaron/meepleai/internal/cache"
	"github.com/DegrassiAaron/meepleai/internal/catalog"
	"github.com/DegrassiAaron/meepleai/internal/embed"
	"github.com/DegrassiAaron/meepleai/internal/llm"
	"github.com/DegrassiAaron/meepleai/internal/vectordb"
)

const (
	// Context window sizes per endpoint.
	topKAnswer  = 3
	topKExplain = 5
	topKSetup   = 5

	// Chess questions are answered from a dedicated knowledge
	// category inside the shared index.
	chessGameID   = "chess"
	chessCategory = "chess-knowledge"
)

type Engine struct {
	embedder embed.Provider
	search   vectordb.Searcher
	llm      llm.Provider
	cache    cache.Store
	catalog  catalog.Catalog
	ttl      time.Duration
}

func New(
	embedder embed.Provider,
	search vectordb.Searcher,
	provider llm.Provider,
	store cache.Store,
	games catalog.Catalog,
	ttl time.Duration,
) *Engine {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Engine{
		embedder: embedder,
		search:   search,
		llm:      provider,
		cache:    store,
		catalog:  games,
		ttl:      ttl,
	}
}

func searchRequest(gameID string, vector []float32, limit int, category string) vectordb.SearchRequest {
	return vectordb.SearchRequest{
		GameID:   gameID,
		Vector:   vector,
		Limit:    limit,
		Category: category,
	}
}

// toAPISnippets converts retrieval results to the caller-facing shape,
// preserving the gateway's ranking order.
func toAPISnippets(snippets []vectordb.Snippet) []apimodels.Snippet {
	out := make([]apimodels.Snippet, len(snippets))
	for i, s := range snippets {
		out[i] = apimodels.Snippet{
			Text:   s.Text,
			Source: s.SourceID,
			Page:   s.Page,
			Line:   s.Line,
		}
	}
	return out
}

// confidenceOf returns the top passage's similarity score, the proxy
// for answer trustworthiness. Nil when nothing was retrieved.
func confidenceOf(snippets []vectordb.Snippet) *float64 {
	if len(snippets) == 0 {
		return nil
	}
	score := snippets[0].Score
	return &score
}

func truncateWithEllipsis(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
