package rag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/DegrassiAaron/meepleai/apimodels"
	"github.com/DegrassiAaron/meepleai/internal/cache"
)

// Machine-readable codes carried by terminal Error events.
const (
	CodeEmptyQuery       = "EMPTY_QUERY"
	CodeEmptyGame        = "EMPTY_GAME_ID"
	CodeEmbeddingFailed  = "EMBEDDING_FAILED"
	CodeSearchFailed     = "SEARCH_FAILED"
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeInternal         = "INTERNAL"
)

// tokenChunkWords is how many words each Token event carries.
const tokenChunkWords = 12

// StreamAsk drives the Ask pipeline while emitting incremental events:
// state updates as retrieval progresses, the citations as soon as the
// context window is known, token chunks as text becomes available, and
// a terminal Complete or Error. The channel closes after the terminal
// event. Cancelling ctx stops both event emission and any remaining
// gateway calls; a cancelled consumer is owed nothing.
func (e *Engine) StreamAsk(ctx context.Context, gameID, query string) <-chan apimodels.StreamEvent {
	events := make(chan apimodels.StreamEvent)
	go func() {
		defer close(events)
		e.streamAsk(ctx, gameID, query, events)
	}()
	return events
}

func (e *Engine) streamAsk(ctx context.Context, gameID, query string, events chan<- apimodels.StreamEvent) {
	// emit delivers one event unless the consumer is gone. Every yield
	// point doubles as a cancellation check.
	emit := func(t apimodels.StreamEventType, payload any) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case events <- apimodels.StreamEvent{Type: t, Payload: payload, Timestamp: time.Now()}:
			return true
		case <-ctx.Done():
			return false
		}
	}

	fail := func(code, message string) {
		emit(apimodels.EventError, apimodels.ErrorPayload{Code: code, Message: message})
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Streaming pipeline panicked", "gameId", gameID, "panic", r)
			fail(CodeInternal, msgQAInternal)
		}
	}()

	if strings.TrimSpace(query) == "" {
		fail(CodeEmptyQuery, msgEmptyQuery)
		return
	}

	if strings.TrimSpace(gameID) == "" {
		fail(CodeEmptyGame, msgEmptyGame)
		return
	}

	key := cache.Key(cache.EndpointQA, gameID, query)
	var cached apimodels.QAResponse
	if e.cache.Get(ctx, key, &cached) {
		slog.Debug("Streaming cache hit", "gameId", gameID, "key", key)
		e.streamResult(ctx, emit, &cached)
		return
	}

	if !emit(apimodels.EventStateUpdate, apimodels.StatePayload{State: "retrieving"}) {
		return
	}

	vectors, err := e.embedder.Embed(ctx, query)
	if err != nil || len(vectors) == 0 {
		if err != nil {
			slog.Error("Embedding failed", "gameId", gameID, "error", err)
		}
		fail(CodeEmbeddingFailed, msgEmbeddingFailed)
		return
	}

	if ctx.Err() != nil {
		return
	}

	snippets, err := e.search.Search(ctx, searchRequest(gameID, vectors[0], topKAnswer, ""))
	if err != nil {
		slog.Error("Vector search failed", "gameId", gameID, "error", err)
		fail(CodeSearchFailed, msgNoContext)
		return
	}

	if len(snippets) > 0 {
		// State updates may only precede the citations event, so the
		// generation phase is announced before the context window is
		// published.
		if !emit(apimodels.EventStateUpdate, apimodels.StatePayload{State: "generating"}) {
			return
		}
	}

	if !emit(apimodels.EventCitations, apimodels.CitationsPayload{Snippets: toAPISnippets(snippets)}) {
		return
	}

	if len(snippets) == 0 {
		// Anti-hallucination gate: stream the sentinel instead of
		// calling the model.
		if !emit(apimodels.EventToken, apimodels.TokenPayload{Text: msgNoContext}) {
			return
		}
		emit(apimodels.EventComplete, apimodels.CompletePayload{})
		return
	}

	gen, err := e.llm.Complete(ctx, qaSystemPrompt, buildQAPrompt(query, snippets))
	if err != nil {
		slog.Error("Generation failed", "gameId", gameID, "error", err)
		fail(CodeGenerationFailed, msgGenerationFailed)
		return
	}

	for _, chunk := range chunkWords(gen.Content, tokenChunkWords) {
		if !emit(apimodels.EventToken, apimodels.TokenPayload{Text: chunk}) {
			return
		}
	}

	result := &apimodels.QAResponse{
		Answer:           gen.Content,
		Snippets:         toAPISnippets(snippets),
		PromptTokens:     gen.Usage.PromptTokens,
		CompletionTokens: gen.Usage.CompletionTokens,
		TotalTokens:      gen.Usage.TotalTokens,
		Confidence:       confidenceOf(snippets),
		Metadata:         gen.Metadata,
	}
	e.cache.Set(ctx, key, result, e.ttl)

	emit(apimodels.EventComplete, apimodels.CompletePayload{
		PromptTokens:     gen.Usage.PromptTokens,
		CompletionTokens: gen.Usage.CompletionTokens,
		TotalTokens:      gen.Usage.TotalTokens,
		Confidence:       result.Confidence,
	})
}

// streamResult replays a cached answer as a citation event, one token
// event with the full text, and a terminal Complete.
func (e *Engine) streamResult(ctx context.Context, emit func(apimodels.StreamEventType, any) bool, resp *apimodels.QAResponse) {
	if !emit(apimodels.EventCitations, apimodels.CitationsPayload{Snippets: resp.Snippets}) {
		return
	}
	if !emit(apimodels.EventToken, apimodels.TokenPayload{Text: resp.Answer}) {
		return
	}
	emit(apimodels.EventComplete, apimodels.CompletePayload{
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
		TotalTokens:      resp.TotalTokens,
		Confidence:       resp.Confidence,
	})
}

// chunkWords splits text into word-bounded chunks of at most n words,
// preserving the original spacing between chunks as single spaces.
func chunkWords(text string, n int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(words); start += n {
		end := start + n
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if end < len(words) {
			chunk += " "
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
