package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DegrassiAaron/meepleai/apimodels"
	"github.com/DegrassiAaron/meepleai/internal/llm"
)

func collectEvents(t *testing.T, ch <-chan apimodels.StreamEvent) []apimodels.StreamEvent {
	t.Helper()
	var events []apimodels.StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out draining stream events")
		}
	}
}

func eventTypes(events []apimodels.StreamEvent) []apimodels.StreamEventType {
	types := make([]apimodels.StreamEventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestStreamAskSuccessfulOrder(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = testSnippets(3)
	fx.provider.resp = &llm.Response{
		Content: strings.TrimSpace(strings.Repeat("Monopoly supports players. ", 10)),
		Usage:   llm.Usage{PromptTokens: 100, CompletionTokens: 40, TotalTokens: 140},
	}

	events := collectEvents(t, engine.StreamAsk(context.Background(), "monopoly", "How many players?"))
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, apimodels.EventComplete, last.Type, "Complete is always the terminal event")

	// Exactly one Complete, Citations precedes every Token, and at
	// least one Token is emitted.
	var completes, tokens int
	citationsAt, firstTokenAt := -1, -1
	for i, ev := range events {
		switch ev.Type {
		case apimodels.EventComplete:
			completes++
		case apimodels.EventToken:
			tokens++
			if firstTokenAt < 0 {
				firstTokenAt = i
			}
		case apimodels.EventCitations:
			citationsAt = i
		}
	}
	assert.Equal(t, 1, completes)
	assert.GreaterOrEqual(t, tokens, 1)
	require.GreaterOrEqual(t, citationsAt, 0)
	assert.Less(t, citationsAt, firstTokenAt)

	// State updates only ever precede the citations event.
	for i, ev := range events {
		if ev.Type == apimodels.EventStateUpdate {
			assert.Less(t, i, citationsAt, "no StateUpdate may follow Citations")
		}
	}

	// Token chunks reassemble to the generated text.
	var sb strings.Builder
	for _, ev := range events {
		if ev.Type == apimodels.EventToken {
			sb.WriteString(ev.Payload.(apimodels.TokenPayload).Text)
		}
	}
	assert.Equal(t, fx.provider.resp.Content, sb.String())

	done := last.Payload.(apimodels.CompletePayload)
	assert.Equal(t, int64(140), done.TotalTokens)
	require.NotNil(t, done.Confidence)
	assert.InDelta(t, 0.94, *done.Confidence, 1e-9)
}

func TestStreamAskCitationsBeforeGeneration(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = testSnippets(2)

	events := collectEvents(t, engine.StreamAsk(context.Background(), "monopoly", "How many players?"))

	var payload apimodels.CitationsPayload
	for _, ev := range events {
		if ev.Type == apimodels.EventCitations {
			payload = ev.Payload.(apimodels.CitationsPayload)
			break
		}
	}
	assert.Len(t, payload.Snippets, 2)
}

func TestStreamAskNoContext(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = nil

	events := collectEvents(t, engine.StreamAsk(context.Background(), "monopoly", "How many players?"))
	require.NotEmpty(t, events)

	assert.Zero(t, fx.provider.calls, "no context, no model call")

	last := events[len(events)-1]
	assert.Equal(t, apimodels.EventComplete, last.Type)

	var tokenText string
	for _, ev := range events {
		if ev.Type == apimodels.EventToken {
			tokenText = ev.Payload.(apimodels.TokenPayload).Text
		}
	}
	assert.Equal(t, "No relevant information found in the rulebook.", tokenText)
}

func TestStreamAskErrorIsTerminal(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = testSnippets(1)
	fx.provider.err = errors.New("model unavailable")

	events := collectEvents(t, engine.StreamAsk(context.Background(), "monopoly", "How many players?"))
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.Equal(t, apimodels.EventError, last.Type, "Error, if present, is always last")

	payload := last.Payload.(apimodels.ErrorPayload)
	assert.Equal(t, CodeGenerationFailed, payload.Code)

	for _, ev := range events[:len(events)-1] {
		assert.NotEqual(t, apimodels.EventComplete, ev.Type)
		assert.NotEqual(t, apimodels.EventError, ev.Type)
	}
}

func TestStreamAskBlankQuery(t *testing.T) {
	engine, fx := newTestEngine()

	events := collectEvents(t, engine.StreamAsk(context.Background(), "monopoly", "  "))

	require.Len(t, events, 1)
	assert.Equal(t, apimodels.EventError, events[0].Type)
	assert.Equal(t, CodeEmptyQuery, events[0].Payload.(apimodels.ErrorPayload).Code)
	assert.Zero(t, fx.embedder.calls)
}

func TestStreamAskBlankGameID(t *testing.T) {
	engine, fx := newTestEngine()

	events := collectEvents(t, engine.StreamAsk(context.Background(), " ", "How many players?"))

	require.Len(t, events, 1)
	assert.Equal(t, apimodels.EventError, events[0].Type)
	assert.Equal(t, CodeEmptyGame, events[0].Payload.(apimodels.ErrorPayload).Code)
	assert.Zero(t, fx.embedder.calls)
}

func TestStreamAskCancellationStopsEvents(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = testSnippets(1)

	ctx, cancel := context.WithCancel(context.Background())
	ch := engine.StreamAsk(ctx, "monopoly", "How many players?")

	// Consume the first event, then walk away.
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first event")
	}
	cancel()

	events := collectEvents(t, ch)
	for _, ev := range events {
		assert.NotEqual(t, apimodels.EventComplete, ev.Type,
			"a cancelled stream must not deliver a delayed Complete")
	}
}

func TestStreamAskCacheHitReplaysWithoutGateways(t *testing.T) {
	engine, fx := newTestEngine()
	fx.searcher.snippets = testSnippets(2)
	fx.provider.resp = &llm.Response{
		Content: "Monopoly supports 2-8 players.",
		Usage:   llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}

	collectEvents(t, engine.StreamAsk(context.Background(), "monopoly", "How many players?"))
	require.Equal(t, 1, fx.provider.calls)

	events := collectEvents(t, engine.StreamAsk(context.Background(), "monopoly", "how many players?"))

	assert.Equal(t, 1, fx.embedder.calls)
	assert.Equal(t, 1, fx.searcher.calls)
	assert.Equal(t, 1, fx.provider.calls)

	types := eventTypes(events)
	assert.Equal(t, []apimodels.StreamEventType{
		apimodels.EventCitations,
		apimodels.EventToken,
		apimodels.EventComplete,
	}, types)
}
