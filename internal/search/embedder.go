package search

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiEmbedder produces embeddings through the Gemini API. A client is
// created per call; the API key may be empty, in which case the genai SDK
// falls back to its environment variables.
type GeminiEmbedder struct {
	apiKey     string
	model      string
	dimensions int32
}

// NewGeminiEmbedder creates an embedder for the given model. dimensions
// must match the width of the database embedding column.
func NewGeminiEmbedder(apiKey, model string, dimensions int32) *GeminiEmbedder {
	return &GeminiEmbedder{
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
	}
}

// Embed implements the Embedder interface.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      e.apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("Embed: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: text},
			},
		},
	}

	dims := e.dimensions
	resp, err := client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("Embed: embed content: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("Embed: empty embedding response")
	}

	return resp.Embeddings[0].Values, nil
}

var _ Embedder = (*GeminiEmbedder)(nil)
