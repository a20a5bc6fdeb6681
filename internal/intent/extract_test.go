package intent

import "testing"

func TestParseLLMOutputDirect(t *testing.T) {
	v, err := parseLLMOutput(`{"intent":"write_data","confidence":0.9}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v["intent"] != "write_data" {
		t.Fatalf("unexpected intent: %v", v["intent"])
	}
}

func TestParseLLMOutputStripsCodeFence(t *testing.T) {
	text := "Here you go:\n```json\n{\"intent\":\"format_range\",\"confidence\":0.8}\n```"
	v, err := parseLLMOutput(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v["intent"] != "format_range" {
		t.Fatalf("unexpected intent: %v", v["intent"])
	}
}

func TestParseLLMOutputRemovesTrailingComma(t *testing.T) {
	text := `prefix noise {"intent":"sort_data","confidence":0.7,} suffix noise`
	v, err := parseLLMOutput(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v["intent"] != "sort_data" {
		t.Fatalf("unexpected intent: %v", v["intent"])
	}
}

func TestParseLLMOutputRepairsSingleQuotes(t *testing.T) {
	text := `{'intent': 'clarify', 'confidence': 0.3}`
	v, err := parseLLMOutput(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v["intent"] != "clarify" {
		t.Fatalf("unexpected intent: %v", v["intent"])
	}
}

func TestParseLLMOutputFailsOnGarbage(t *testing.T) {
	if _, err := parseLLMOutput("not json at all, just prose."); err == nil {
		t.Fatal("expected an error for unparseable text")
	}
}
