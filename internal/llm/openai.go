package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/agentcore/orchestrator/internal/retry"
)

// OpenAIConfig configures OpenAIAdapter.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
}

// OpenAIAdapter implements IntentLLM over OpenAI's chat completions API.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
	retry  retry.Config
}

// NewOpenAIAdapter builds an adapter from cfg.
func NewOpenAIAdapter(cfg OpenAIConfig) *OpenAIAdapter {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	r := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		r.MaxAttempts = cfg.MaxRetries
	}
	return &OpenAIAdapter{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
		retry:  r,
	}
}

// GenerateJSON sends the system/user prompt pair as a single-turn chat
// completion and returns the raw text reply.
func (a *OpenAIAdapter) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, res := retry.DoWithValue(ctx, a.retry, func() (string, error) {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		if err != nil {
			return "", fmt.Errorf("llm: openai completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("llm: openai completion: no choices returned")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if res.Err != nil {
		return "", res.Err
	}
	return out, nil
}
