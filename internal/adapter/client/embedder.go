package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const embedTimeout = 15 * time.Second

// Embedder turns directory queries and team descriptions into vectors for
// the qdrant index.
type Embedder struct {
	client *genai.Client
	model  string // e.g. "text-embedding-004"
}

func NewEmbedder(client *genai.Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

func (e *Embedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	res, err := e.client.Models.EmbedContent(callCtx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding response for %q is empty", e.model)
	}
	return res.Embeddings[0].Values, nil
}
