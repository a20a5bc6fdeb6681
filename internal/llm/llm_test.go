package llm

import "testing"

func TestAnthropicAdapterDefaultsModel(t *testing.T) {
	a := NewAnthropicAdapter(AnthropicConfig{APIKey: "test-key"})
	if a.model != "claude-sonnet-4-20250514" {
		t.Fatalf("expected default model, got %q", a.model)
	}
}

func TestAnthropicAdapterHonorsExplicitModel(t *testing.T) {
	a := NewAnthropicAdapter(AnthropicConfig{APIKey: "test-key", Model: "claude-3-haiku"})
	if a.model != "claude-3-haiku" {
		t.Fatalf("expected explicit model, got %q", a.model)
	}
}

func TestAnthropicAdapterDefaultsRetryConfig(t *testing.T) {
	a := NewAnthropicAdapter(AnthropicConfig{APIKey: "test-key"})
	if a.retry.MaxAttempts <= 0 {
		t.Fatalf("expected a positive default MaxAttempts, got %d", a.retry.MaxAttempts)
	}
}

func TestAnthropicAdapterHonorsMaxRetries(t *testing.T) {
	a := NewAnthropicAdapter(AnthropicConfig{APIKey: "test-key", MaxRetries: 7})
	if a.retry.MaxAttempts != 7 {
		t.Fatalf("expected MaxAttempts 7, got %d", a.retry.MaxAttempts)
	}
}

func TestOpenAIAdapterDefaultsModel(t *testing.T) {
	a := NewOpenAIAdapter(OpenAIConfig{APIKey: "test-key"})
	if a.model == "" {
		t.Fatal("expected a non-empty default model")
	}
}

func TestOpenAIAdapterHonorsExplicitModel(t *testing.T) {
	a := NewOpenAIAdapter(OpenAIConfig{APIKey: "test-key", Model: "gpt-4-turbo"})
	if a.model != "gpt-4-turbo" {
		t.Fatalf("expected explicit model, got %q", a.model)
	}
}

func TestBedrockAdapterDefaultsModel(t *testing.T) {
	a, err := NewBedrockAdapter(BedrockConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.model != "anthropic.claude-3-sonnet-20240229-v1:0" {
		t.Fatalf("expected default model, got %q", a.model)
	}
}

func TestGeminiAdapterDefaultsModel(t *testing.T) {
	a, err := NewGeminiAdapter(GeminiConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.model != "gemini-2.0-flash" {
		t.Fatalf("expected default model, got %q", a.model)
	}
}
