// Package embed turns free text into fixed-length vectors via the
// OpenAI embeddings API.
package embed

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/DegrassiAaron/meepleai/internal/config"
)

type Provider interface {
	// Embed returns one vector per input text.
	Embed(ctx context.Context, text string) ([][]float32, error)
}

// OpenAI client implementation
type OpenAI struct {
	client *openai.Client
	cfg    *config.OpenAIConfig
}

func NewOpenAI(cfg *config.OpenAIConfig) (*OpenAI, error) {
	var client *openai.Client

	switch cfg.Provider {
	case "azure":
		client = openai.NewClient(
			azure.WithEndpoint(cfg.APIEndpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
		)
	default: // "openai"
		client = openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.APIEndpoint),
		)
	}

	return &OpenAI{
		client: client,
		cfg:    cfg,
	}, nil
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([][]float32, error) {
	resp, err := o.client.Embeddings.New(
		ctx,
		openai.EmbeddingNewParams{
			Model: openai.F(openai.EmbeddingModel(o.cfg.EmbeddingModel)),
			Input: openai.F[openai.EmbeddingNewParamsInputUnion](
				openai.EmbeddingNewParamsInputArrayOfStrings([]string{text}),
			),
		},
	)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		vectors = append(vectors, vec)
	}

	return vectors, nil
}
