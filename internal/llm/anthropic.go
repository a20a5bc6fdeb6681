package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentcore/orchestrator/internal/retry"
)

// AnthropicConfig configures AnthropicAdapter.
type AnthropicConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
}

// AnthropicAdapter implements IntentLLM over Anthropic's Claude API. It
// makes exactly one non-streaming completion call per GenerateJSON
// invocation; the core handles malformed JSON itself, so the adapter
// does not need tool-calling or streaming support at all.
type AnthropicAdapter struct {
	client anthropic.Client
	model  string
	retry  retry.Config
}

// NewAnthropicAdapter builds an adapter from cfg.
func NewAnthropicAdapter(cfg AnthropicConfig) *AnthropicAdapter {
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	r := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		r.MaxAttempts = cfg.MaxRetries
	}
	return &AnthropicAdapter{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
		retry:  r,
	}
}

// GenerateJSON sends the system/user prompt pair as a single-turn
// completion and returns the raw text reply.
func (a *AnthropicAdapter) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, res := retry.DoWithValue(ctx, a.retry, func() (string, error) {
		msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: 1024,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("llm: anthropic completion: %w", err)
		}
		var text string
		for _, block := range msg.Content {
			if block.Text != "" {
				text += block.Text
			}
		}
		return text, nil
	})
	if res.Err != nil {
		return "", res.Err
	}
	return out, nil
}
