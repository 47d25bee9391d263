package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DegrassiAaron/meepleai/internal/llm"
	"github.com/DegrassiAaron/meepleai/internal/vectordb"
)

func TestExplainBlankTopic(t *testing.T) {
	engine, fx := newTestEngine()

	resp := engine.Explain(context.Background(), "monopoly", "   ")

	assert.Equal(t, "Please provide a topic to explain.", resp.Script)
	assert.Empty(t, resp.Citations)
	assert.Zero(t, fx.embedder.calls)
}

func TestExplainBlankGameID(t *testing.T) {
	engine, fx := newTestEngine()

	resp := engine.Explain(context.Background(), "  ", "trading")

	assert.Equal(t, "Please provide a game.", resp.Script)
	assert.Empty(t, resp.Citations)
	assert.Zero(t, fx.embedder.calls, "blank game id must not reach the embedding gateway")
	assert.Zero(t, fx.searcher.calls)
	assert.Zero(t, fx.provider.calls)
}

func TestExplainEmbeddingFailure(t *testing.T) {
	engine, fx := newTestEngine()
	fx.embedder.err = errors.New("down")

	resp := engine.Explain(context.Background(), "monopoly", "trading")

	assert.Equal(t, "Unable to process topic.", resp.Script)
	assert.Zero(t, fx.searcher.calls)
}

func TestExplainNoContext(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = nil

	resp := engine.Explain(context.Background(), "monopoly", "trading")

	assert.Equal(t, "No relevant information found about 'trading' in the rulebook.", resp.Script)
	assert.Zero(t, fx.provider.calls)
}

func TestExplainUsesFivePassageWindow(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = testSnippets(5)

	engine.Explain(context.Background(), "monopoly", "trading")

	assert.Equal(t, 5, fx.searcher.lastReq.Limit)
}

func TestExplainOutlineCapsAndTruncates(t *testing.T) {
	engine, fx := newTestEngine()

	long := strings.Repeat("trading rules and auction timing explained at length ", 3)
	snippets := make([]vectordb.Snippet, 7)
	for i := range snippets {
		snippets[i] = vectordb.Snippet{Text: long, SourceID: "rules.pdf", Page: i + 1, Score: 0.9}
	}
	fx.searcher.snippets = snippets
	fx.provider.resp = &llm.Response{Content: "Trading works like this."}

	resp := engine.Explain(context.Background(), "monopoly", "trading")

	// Outline stops at five sections, but every retrieved snippet is
	// cited.
	require.Len(t, resp.Outline.Sections, 5)
	assert.Len(t, resp.Citations, 7)

	for _, section := range resp.Outline.Sections {
		assert.LessOrEqual(t, len([]rune(section)), 60)
		assert.True(t, strings.HasSuffix(section, "..."))
	}
	assert.Equal(t, "trading", resp.Outline.MainTopic)
}

func TestExplainReadingTimeFloor(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = testSnippets(1)
	fx.provider.resp = &llm.Response{Content: "Short answer."}

	resp := engine.Explain(context.Background(), "monopoly", "trading")
	assert.Equal(t, 1, resp.EstimatedReadingMinutes)
}

func TestExplainReadingTimeScalesWithScript(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = testSnippets(1)
	fx.provider.resp = &llm.Response{Content: strings.Repeat("word ", 650)}

	resp := engine.Explain(context.Background(), "monopoly", "trading")
	assert.Equal(t, 3, resp.EstimatedReadingMinutes)
}

func TestExplainSuccessAccounting(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = testSnippets(2)
	fx.provider.resp = &llm.Response{
		Content: "Trading lets players exchange properties.",
		Usage:   llm.Usage{PromptTokens: 200, CompletionTokens: 80, TotalTokens: 280},
	}

	resp := engine.Explain(context.Background(), "monopoly", "trading")

	assert.Equal(t, resp.PromptTokens+resp.CompletionTokens, resp.TotalTokens)
	require.NotNil(t, resp.Confidence)
	assert.InDelta(t, 0.94, *resp.Confidence, 1e-9)
	assert.Equal(t, 1, fx.cache.sets)
}

func TestExplainCacheHit(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = testSnippets(2)

	first := engine.Explain(context.Background(), "monopoly", "Trading Rules")
	second := engine.Explain(context.Background(), "monopoly", "  trading   rules ")

	assert.Equal(t, first.Script, second.Script)
	assert.Equal(t, 1, fx.provider.calls)
}
