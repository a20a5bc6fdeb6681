package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/agentcore/orchestrator/internal/retry"
)

// GeminiConfig configures GeminiAdapter.
type GeminiConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
}

// GeminiAdapter implements IntentLLM over Google's Gemini API.
type GeminiAdapter struct {
	client *genai.Client
	model  string
	retry  retry.Config
}

// NewGeminiAdapter builds an adapter from cfg.
func NewGeminiAdapter(cfg GeminiConfig) (*GeminiAdapter, error) {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: gemini client: %w", err)
	}
	r := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		r.MaxAttempts = cfg.MaxRetries
	}
	return &GeminiAdapter{
		client: client,
		model:  model,
		retry:  r,
	}, nil
}

// GenerateJSON sends the system/user prompt pair as a single-turn
// generate-content call and returns the raw text reply.
func (a *GeminiAdapter) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, res := retry.DoWithValue(ctx, a.retry, func() (string, error) {
		resp, err := a.client.Models.GenerateContent(ctx, a.model,
			genai.Text(userPrompt),
			&genai.GenerateContentConfig{
				SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			},
		)
		if err != nil {
			return "", fmt.Errorf("llm: gemini generate content: %w", err)
		}
		return resp.Text(), nil
	})
	if res.Err != nil {
		return "", res.Err
	}
	return out, nil
}
