package google

import (
	"encoding/base64"
	"encoding/json"

	"github.com/dshills/llmcore/llm"
)

// buildRequestBody renders cfg and messages into a JSON body for
// POST {base_url}/models/{model}:generateContent (and the streaming/SSE
// variant, which shares the same body shape). System messages become the
// top-level systemInstruction; everything else becomes a content turn.
func buildRequestBody(cfg llm.LLMConfig, messages []llm.ChatMessage) ([]byte, error) {
	body := map[string]any{}

	var systemParts []map[string]any
	var contents []map[string]any
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			systemParts = append(systemParts, map[string]any{"text": m.ContentText})
			continue
		}
		content, err := buildContent(m)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	if cfg.SystemPrompt != "" {
		systemParts = append([]map[string]any{{"text": cfg.SystemPrompt}}, systemParts...)
	}
	if len(systemParts) > 0 {
		body["systemInstruction"] = map[string]any{"parts": systemParts}
	}
	body["contents"] = contents

	genConfig := map[string]any{}
	if cfg.Temperature != nil {
		genConfig["temperature"] = *cfg.Temperature
	}
	if cfg.TopP != nil {
		genConfig["topP"] = *cfg.TopP
	}
	if cfg.TopK != nil {
		genConfig["topK"] = *cfg.TopK
	}
	if cfg.MaxTokens != nil {
		genConfig["maxOutputTokens"] = *cfg.MaxTokens
	}
	if len(cfg.StopSequences) > 0 {
		genConfig["stopSequences"] = cfg.StopSequences
	}
	if n, ok := llm.GetProviderOption[int](cfg, "google", "candidateCount"); ok {
		genConfig["candidateCount"] = n
	}
	if modalities, ok := llm.GetProviderOption[[]string](cfg, "google", "responseModalities"); ok {
		genConfig["responseModalities"] = modalities
	}
	if includeThoughts, ok := llm.GetProviderOption[bool](cfg, "google", "includeThoughts"); ok {
		genConfig["thinkingConfig"] = thinkingConfig(cfg, includeThoughts)
	} else if budget, ok := llm.GetProviderOption[int](cfg, "google", "thinkingBudgetTokens"); ok {
		genConfig["thinkingConfig"] = map[string]any{"thinkingBudget": budget}
	}
	if cfg.JSONSchema != nil {
		genConfig["responseMimeType"] = "application/json"
		genConfig["responseSchema"] = cfg.JSONSchema
	}
	if len(genConfig) > 0 {
		body["generationConfig"] = genConfig
	}

	if len(cfg.Tools) > 0 {
		body["tools"] = []map[string]any{{"functionDeclarations": buildFunctionDeclarations(cfg.Tools)}}
	}
	if toolConfig := buildToolConfig(cfg.ToolChoice); toolConfig != nil {
		body["toolConfig"] = toolConfig
	}
	if safety, ok := llm.GetProviderOption[[]map[string]any](cfg, "google", "safetySettings"); ok {
		body["safetySettings"] = safety
	}

	return json.Marshal(body)
}

func thinkingConfig(cfg llm.LLMConfig, includeThoughts bool) map[string]any {
	tc := map[string]any{"includeThoughts": includeThoughts}
	if budget, ok := llm.GetProviderOption[int](cfg, "google", "thinkingBudgetTokens"); ok {
		tc["thinkingBudget"] = budget
	}
	return tc
}

func buildContent(m llm.ChatMessage) (map[string]any, error) {
	role := "user"
	if m.Role == llm.RoleAssistant {
		role = "model"
	}

	if m.TypedBody == nil {
		return map[string]any{"role": role, "parts": []map[string]any{{"text": m.ContentText}}}, nil
	}

	switch m.TypedBody.Kind {
	case llm.BodyText:
		return map[string]any{"role": role, "parts": []map[string]any{{"text": m.TypedBody.Text}}}, nil
	case llm.BodyImage:
		return map[string]any{"role": role, "parts": []map[string]any{{
			"inlineData": map[string]any{"mimeType": m.TypedBody.MIME, "data": base64.StdEncoding.EncodeToString(m.TypedBody.Bytes)},
		}}}, nil
	case llm.BodyToolUse:
		var parts []map[string]any
		for _, tc := range m.TypedBody.ToolCalls {
			var args map[string]any
			_ = json.Unmarshal([]byte(tc.Function.ArgumentsJSON), &args)
			parts = append(parts, map[string]any{"functionCall": map[string]any{"name": tc.Function.Name, "args": args}})
		}
		return map[string]any{"role": "model", "parts": parts}, nil
	case llm.BodyToolResult:
		// Gemini keys functionResponse by function name, not call id; the
		// core's ToolResult only carries the id, so the id is forwarded as
		// the name. This round-trips correctly as long as the caller's tool
		// names and call ids do not collide with a different tool's name.
		var parts []map[string]any
		for _, tr := range m.TypedBody.ToolResults {
			var response map[string]any
			if err := json.Unmarshal([]byte(tr.Content), &response); err != nil {
				response = map[string]any{"result": tr.Content}
			}
			parts = append(parts, map[string]any{"functionResponse": map[string]any{"name": tr.ToolCallID, "response": response}})
		}
		return map[string]any{"role": "user", "parts": parts}, nil
	default:
		return nil, llm.NewError(llm.KindInvalidRequest, "unrepresentable message body kind %v for google", m.TypedBody.Kind)
	}
}

func buildFunctionDeclarations(tools []llm.FunctionTool) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"parameters":  t.ParametersSchema,
		})
	}
	return out
}

func buildToolChoiceMode(mode llm.ToolChoiceMode) string {
	switch mode {
	case llm.ToolChoiceNone:
		return "NONE"
	case llm.ToolChoiceRequired, llm.ToolChoiceFunction:
		return "ANY"
	default:
		return "AUTO"
	}
}

func buildToolConfig(choice *llm.ToolChoice) map[string]any {
	if choice == nil {
		return nil
	}
	fc := map[string]any{"mode": buildToolChoiceMode(choice.Mode)}
	if choice.Mode == llm.ToolChoiceFunction && choice.FunctionName != "" {
		fc["allowedFunctionNames"] = []string{choice.FunctionName}
	}
	return map[string]any{"functionCallingConfig": fc}
}
