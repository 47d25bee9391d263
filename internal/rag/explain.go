package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DegrassiAaron/meepleai/apimodels"
	"github.com/DegrassiAaron/meepleai/internal/cache"
	"github.com/DegrassiAaron/meepleai/internal/vectordb"
)

const (
	msgEmptyTopic          = "Please provide a topic to explain."
	msgTopicEmbedFailed    = "Unable to process topic."
	msgExplainInternal     = "An error occurred while generating the explanation."
	noTopicContextTemplate = "No relevant information found about '%s' in the rulebook."
)

const (
	// Outline sections are short labels: at most five of them, each
	// capped at 57 visible characters before the ellipsis.
	maxOutlineSections     = 5
	outlineSectionMaxChars = 57

	// Reading speed used for the script length estimate.
	wordsPerMinute = 200
)

// Explain produces a structured outline plus a long-form script for a
// rule or concept, following the same retrieval substrate as Ask but
// with a five-passage context window.
func (e *Engine) Explain(ctx context.Context, gameID, topic string) (resp *apimodels.ExplainResponse) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Explain pipeline panicked", "gameId", gameID, "panic", r)
			resp = emptyExplanation(topic, msgExplainInternal)
		}
	}()

	if strings.TrimSpace(topic) == "" {
		return emptyExplanation(topic, msgEmptyTopic)
	}

	if strings.TrimSpace(gameID) == "" {
		return emptyExplanation(topic, msgEmptyGame)
	}

	key := cache.Key(cache.EndpointExplain, gameID, topic)
	var cached apimodels.ExplainResponse
	if e.cache.Get(ctx, key, &cached) {
		slog.Debug("Explain cache hit", "gameId", gameID, "key", key)
		return &cached
	}

	vectors, err := e.embedder.Embed(ctx, topic)
	if err != nil || len(vectors) == 0 {
		if err != nil {
			slog.Error("Embedding failed", "gameId", gameID, "error", err)
		}
		return emptyExplanation(topic, msgTopicEmbedFailed)
	}

	if ctx.Err() != nil {
		return emptyExplanation(topic, msgExplainInternal)
	}

	snippets, err := e.search.Search(ctx, searchRequest(gameID, vectors[0], topKExplain, ""))
	if err != nil {
		slog.Error("Vector search failed", "gameId", gameID, "error", err)
		return emptyExplanation(topic, fmt.Sprintf(noTopicContextTemplate, topic))
	}
	if len(snippets) == 0 {
		slog.Info("No passages retrieved for topic, skipping generation", "gameId", gameID, "topic", topic)
		return emptyExplanation(topic, fmt.Sprintf(noTopicContextTemplate, topic))
	}

	if ctx.Err() != nil {
		return emptyExplanation(topic, msgExplainInternal)
	}

	gen, err := e.llm.Complete(ctx, explainSystemPrompt, buildExplainPrompt(topic, snippets))
	if err != nil {
		slog.Error("Generation failed", "gameId", gameID, "error", err)
		return &apimodels.ExplainResponse{
			Outline:                 buildOutline(topic, snippets),
			Script:                  msgGenerationFailed,
			Citations:               toAPISnippets(snippets),
			EstimatedReadingMinutes: 1,
			Confidence:              confidenceOf(snippets),
		}
	}

	resp = &apimodels.ExplainResponse{
		Outline:                 buildOutline(topic, snippets),
		Script:                  gen.Content,
		Citations:               toAPISnippets(snippets),
		EstimatedReadingMinutes: estimateReadingMinutes(gen.Content),
		PromptTokens:            gen.Usage.PromptTokens,
		CompletionTokens:        gen.Usage.CompletionTokens,
		TotalTokens:             gen.Usage.TotalTokens,
		Confidence:              confidenceOf(snippets),
		Metadata:                gen.Metadata,
	}

	e.cache.Set(ctx, key, resp, e.ttl)
	return resp
}

// buildOutline derives short section labels from the retrieved
// passages. The outline is capped at five sections, while the full
// snippet list stays uncapped as citations.
func buildOutline(topic string, snippets []vectordb.Snippet) apimodels.Outline {
	count := len(snippets)
	if count > maxOutlineSections {
		count = maxOutlineSections
	}

	sections := make([]string, 0, count)
	for _, s := range snippets[:count] {
		label := strings.Join(strings.Fields(s.Text), " ")
		sections = append(sections, truncateWithEllipsis(label, outlineSectionMaxChars))
	}

	return apimodels.Outline{MainTopic: topic, Sections: sections}
}

// estimateReadingMinutes estimates spoken reading time for the script,
// never less than one minute.
func estimateReadingMinutes(script string) int {
	words := len(strings.Fields(script))
	minutes := words / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func emptyExplanation(topic, script string) *apimodels.ExplainResponse {
	return &apimodels.ExplainResponse{
		Outline:                 apimodels.Outline{MainTopic: topic, Sections: []string{}},
		Script:                  script,
		Citations:               []apimodels.Snippet{},
		EstimatedReadingMinutes: 1,
	}
}
