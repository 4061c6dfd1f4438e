package llm

import "testing"

func TestGetProviderOption(t *testing.T) {
	cfg := LLMConfig{
		ProviderOptions: map[string]map[string]any{
			"anthropic": {
				"reasoning":          true,
				"thinkingBudgetTokens": 4096,
			},
		},
	}

	if v, ok := GetProviderOption[bool](cfg, "anthropic", "reasoning"); !ok || !v {
		t.Errorf("expected reasoning=true, got %v, ok=%v", v, ok)
	}

	if v, ok := GetProviderOption[int](cfg, "anthropic", "thinkingBudgetTokens"); !ok || v != 4096 {
		t.Errorf("expected thinkingBudgetTokens=4096, got %v, ok=%v", v, ok)
	}

	if _, ok := GetProviderOption[string](cfg, "anthropic", "reasoning"); ok {
		t.Error("expected type mismatch to return ok=false")
	}

	if _, ok := GetProviderOption[bool](cfg, "openai", "reasoning"); ok {
		t.Error("expected unknown provider to return ok=false")
	}

	if _, ok := GetProviderOption[bool](cfg, "anthropic", "missing"); ok {
		t.Error("expected unknown key to return ok=false")
	}
}
