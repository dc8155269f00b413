package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"askpdf/internal/upstream"
)

// ErrGeneration is returned when the chat completion call fails. The
// wrapped chain carries the upstream failure kind.
var ErrGeneration = errors.New("answer generation failure")

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Reply is the generator's answer plus its token usage.
type Reply struct {
	Text  string
	Usage Usage
}

// Generator produces a completion from a system instruction and a user
// prompt. Implementations make a single attempt; callers may retry.
type Generator interface {
	Generate(ctx context.Context, system, user string, temperature float64, maxTokens int) (*Reply, error)
}

// OpenAIChat calls the OpenAI chat completions API.
type OpenAIChat struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a chat client using the given API key and model.
func NewOpenAI(apiKey, model string) *OpenAIChat {
	return &OpenAIChat{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Model returns the configured model name.
func (c *OpenAIChat) Model() string { return c.model }

// Generate sends the prompt pair to OpenAI and returns the reply.
func (c *OpenAIChat) Generate(ctx context.Context, system, user string, temperature float64, maxTokens int) (*Reply, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, upstream.Classify("openai chat", err))
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: %w: no choices returned", ErrGeneration, upstream.ErrMalformedResponse)
	}

	return &Reply{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
