package embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"askpdf/internal/upstream"
)

// ErrEmbedding is returned when the embedding call fails. The wrapped
// chain carries the upstream failure kind.
var ErrEmbedding = errors.New("embedding service failure")

// Embedder converts texts into fixed-length vectors.
type Embedder interface {
	// Embed returns one vector per non-blank input, in input order.
	// Blank inputs are dropped first; all-blank input yields an empty
	// result, not an error.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model returns the embedding model name.
	Model() string
}

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an embedder using the given API key and model.
func NewOpenAI(apiKey, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Model returns the configured model name.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed sends a batch of texts to OpenAI and returns their embeddings.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: cleaned},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, upstream.Classify("openai embed", err))
	}
	if len(resp.Data) != len(cleaned) {
		return nil, fmt.Errorf("%w: %w: expected %d embeddings, got %d",
			ErrEmbedding, upstream.ErrMalformedResponse, len(cleaned), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}
