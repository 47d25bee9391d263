// Package vectordb implements passage retrieval against a Qdrant
// collection over its JSON HTTP API.
package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/DegrassiAaron/meepleai/internal/config"
)

type Qdrant struct {
	baseURL    string
	collection string
	client     *http.Client
}

func NewQdrant(cfg *config.QdrantConfig) (*Qdrant, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant URL cannot be empty")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Qdrant{
		baseURL:    cfg.URL,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

type searchBody struct {
	Vector      []float32      `json:"vector"`
	Limit       int            `json:"limit"`
	WithPayload bool           `json:"with_payload"`
	Filter      map[string]any `json:"filter,omitempty"`
}

type searchResponse struct {
	Result []struct {
		Score   float64 `json:"score"`
		Payload struct {
			Text     string `json:"text"`
			SourceID string `json:"source_id"`
			Page     int    `json:"page"`
			Line     int    `json:"line"`
			GameID   string `json:"game_id"`
			Category string `json:"category"`
		} `json:"payload"`
	} `json:"result"`
}

// Search runs a scored vector query filtered to the requested game.
// Results keep Qdrant's ranking order.
func (q *Qdrant) Search(ctx context.Context, req SearchRequest) ([]Snippet, error) {
	must := []map[string]any{
		{"key": "game_id", "match": map[string]any{"value": req.GameID}},
	}
	if req.Category != "" {
		must = append(must, map[string]any{
			"key": "category", "match": map[string]any{"value": req.Category},
		})
	}

	body := searchBody{
		Vector:      req.Vector,
		Limit:       req.Limit,
		WithPayload: true,
		Filter:      map[string]any{"must": must},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/collections/%s/points/search", q.baseURL, q.collection)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(httpReq)
	if err != nil {
		slog.Error("Vector search request failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("Vector search returned non-OK status", "status", resp.Status)
		return nil, fmt.Errorf("qdrant search: %s: %s", resp.Status, raw)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	snippets := make([]Snippet, 0, len(parsed.Result))
	for _, r := range parsed.Result {
		snippets = append(snippets, Snippet{
			Text:     r.Payload.Text,
			SourceID: r.Payload.SourceID,
			Page:     r.Payload.Page,
			Line:     r.Payload.Line,
			Score:    r.Score,
		})
	}

	slog.Debug("Vector search completed", "gameId", req.GameID, "results", len(snippets))
	return snippets, nil
}

var _ Searcher = (*Qdrant)(nil)
