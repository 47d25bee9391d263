package rag

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DegrassiAaron/meepleai/apimodels"
	"github.com/DegrassiAaron/meepleai/internal/cache"
)

// Fixed user-facing sentinel strings for the Q&A path. The distinct
// messages let a caller tell "nothing retrieved" apart from "retrieval
// worked but generation failed".
const (
	msgEmptyQuery       = "Please provide a question."
	msgEmptyGame        = "Please provide a game."
	msgEmbeddingFailed  = "Unable to process query."
	msgNoContext        = "No relevant information found in the rulebook."
	msgGenerationFailed = "Unable to generate answer."
	msgQAInternal       = "An error occurred while processing your question."
)

// Ask answers a natural-language rules question for one game.
func (e *Engine) Ask(ctx context.Context, gameID, query string) *apimodels.QAResponse {
	return e.answer(ctx, cache.EndpointQA, gameID, query, "", qaSystemPrompt)
}

// AskChess answers a chess question from the dedicated knowledge
// category, otherwise following Ask's rules.
func (e *Engine) AskChess(ctx context.Context, query string) *apimodels.QAResponse {
	return e.answer(ctx, cache.EndpointChess, chessGameID, query, chessCategory, chessSystemPrompt)
}

// answer runs the shared Q&A pipeline: cache check, embed, retrieve,
// anti-hallucination gate, generate, cache write. Every failure mode
// maps to a sentinel response; nothing escapes to the caller.
func (e *Engine) answer(ctx context.Context, endpoint, gameID, query, category, systemPrompt string) (resp *apimodels.QAResponse) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Q&A pipeline panicked", "gameId", gameID, "panic", r)
			resp = &apimodels.QAResponse{Answer: msgQAInternal, Snippets: []apimodels.Snippet{}}
		}
	}()

	if strings.TrimSpace(query) == "" {
		return &apimodels.QAResponse{Answer: msgEmptyQuery, Snippets: []apimodels.Snippet{}}
	}

	if strings.TrimSpace(gameID) == "" {
		return &apimodels.QAResponse{Answer: msgEmptyGame, Snippets: []apimodels.Snippet{}}
	}

	key := cache.Key(endpoint, gameID, query)
	var cached apimodels.QAResponse
	if e.cache.Get(ctx, key, &cached) {
		slog.Debug("Q&A cache hit", "gameId", gameID, "key", key)
		return &cached
	}

	vectors, err := e.embedder.Embed(ctx, query)
	if err != nil || len(vectors) == 0 {
		if err != nil {
			slog.Error("Embedding failed", "gameId", gameID, "error", err)
		}
		return &apimodels.QAResponse{Answer: msgEmbeddingFailed, Snippets: []apimodels.Snippet{}}
	}

	if ctx.Err() != nil {
		return &apimodels.QAResponse{Answer: msgQAInternal, Snippets: []apimodels.Snippet{}}
	}

	snippets, err := e.search.Search(ctx, searchRequest(gameID, vectors[0], topKAnswer, category))
	if err != nil {
		slog.Error("Vector search failed", "gameId", gameID, "error", err)
		return &apimodels.QAResponse{Answer: msgNoContext, Snippets: []apimodels.Snippet{}}
	}
	if len(snippets) == 0 {
		// Anti-hallucination gate: no context, no model call.
		slog.Info("No passages retrieved, skipping generation", "gameId", gameID)
		return &apimodels.QAResponse{Answer: msgNoContext, Snippets: []apimodels.Snippet{}}
	}

	if ctx.Err() != nil {
		return &apimodels.QAResponse{Answer: msgQAInternal, Snippets: []apimodels.Snippet{}}
	}

	gen, err := e.llm.Complete(ctx, systemPrompt, buildQAPrompt(query, snippets))
	if err != nil {
		slog.Error("Generation failed", "gameId", gameID, "error", err)
		// Keep the grounding material even though generation failed.
		return &apimodels.QAResponse{Answer: msgGenerationFailed, Snippets: toAPISnippets(snippets)}
	}

	resp = &apimodels.QAResponse{
		Answer:           gen.Content,
		Snippets:         toAPISnippets(snippets),
		PromptTokens:     gen.Usage.PromptTokens,
		CompletionTokens: gen.Usage.CompletionTokens,
		TotalTokens:      gen.Usage.TotalTokens,
		Confidence:       confidenceOf(snippets),
		Metadata:         gen.Metadata,
	}

	e.cache.Set(ctx, key, resp, e.ttl)
	return resp
}
