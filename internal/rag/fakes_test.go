package rag

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DegrassiAaron/meepleai/internal/catalog"
	"github.com/DegrassiAaron/meepleai/internal/llm"
	"github.com/DegrassiAaron/meepleai/internal/vectordb"
)

// fakeEmbedder is the deterministic embedding gateway double.
type fakeEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

// fakeSearcher is the deterministic vector search gateway double.
type fakeSearcher struct {
	snippets []vectordb.Snippet
	err      error
	calls    int
	lastReq  vectordb.SearchRequest
}

func (f *fakeSearcher) Search(ctx context.Context, req vectordb.SearchRequest) ([]vectordb.Snippet, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.snippets, nil
}

// fakeProvider is the deterministic generation gateway double.
type fakeProvider struct {
	resp       *llm.Response
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ...llm.Option) (*llm.Response, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

// memoryCache is an in-process cache double with call accounting.
type memoryCache struct {
	entries map[string][]byte
	gets    int
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest any) bool {
	m.gets++
	raw, ok := m.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	m.entries[key] = raw
}

func (m *memoryCache) InvalidateGame(ctx context.Context, gameID string) error {
	return nil
}

func (m *memoryCache) InvalidateEndpoint(ctx context.Context, gameID, endpoint string) error {
	return nil
}

func testCatalog() catalog.Catalog {
	return catalogFunc(func(gameID string) (string, bool) {
		switch gameID {
		case "monopoly":
			return "Monopoly", true
		case "chess":
			return "Chess", true
		}
		return "", false
	})
}

type catalogFunc func(string) (string, bool)

func (f catalogFunc) Resolve(gameID string) (string, bool) { return f(gameID) }

type fixtures struct {
	embedder *fakeEmbedder
	searcher *fakeSearcher
	provider *fakeProvider
	cache    *memoryCache
}

func newTestEngine() (*Engine, *fixtures) {
	fx := &fixtures{
		embedder: &fakeEmbedder{vectors: [][]float32{{0.1, 0.2, 0.3}}},
		searcher: &fakeSearcher{},
		provider: &fakeProvider{resp: &llm.Response{Content: "generated answer"}},
		cache:    newMemoryCache(),
	}
	engine := New(fx.embedder, fx.searcher, fx.provider, fx.cache, testCatalog(), time.Hour)
	return engine, fx
}

func testSnippets(n int) []vectordb.Snippet {
	snippets := make([]vectordb.Snippet, n)
	scores := []float64{0.94, 0.81, 0.75, 0.62, 0.51}
	for i := range snippets {
		score := 0.5
		if i < len(scores) {
			score = scores[i]
		}
		snippets[i] = vectordb.Snippet{
			Text:     "Monopoly is a multiplayer economics-themed board game for 2-8 players.",
			SourceID: "monopoly-rulebook.pdf",
			Page:     1 + i,
			Line:     i,
			Score:    score,
		}
	}
	return snippets
}
