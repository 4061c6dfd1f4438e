package ollama

import (
	"encoding/base64"
	"encoding/json"

	"github.com/dshills/llmcore/llm"
)

// buildRequestBody renders cfg and messages into a JSON request body for
// POST {base_url}/api/chat. Ollama's options bag (num_ctx, num_gpu, ...)
// is sourced from providerOptions["ollama"] and merged alongside the
// sampling parameters already present on cfg.
func buildRequestBody(cfg llm.LLMConfig, messages []llm.ChatMessage, stream bool) ([]byte, error) {
	msgs, err := buildMessages(messages)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"model":    cfg.Model,
		"messages": msgs,
		"stream":   stream,
	}

	if len(cfg.Tools) > 0 {
		body["tools"] = buildTools(cfg.Tools)
	}

	options := map[string]any{}
	if cfg.Temperature != nil {
		options["temperature"] = *cfg.Temperature
	}
	if cfg.TopP != nil {
		options["top_p"] = *cfg.TopP
	}
	if cfg.TopK != nil {
		options["top_k"] = *cfg.TopK
	}
	if cfg.MaxTokens != nil {
		options["num_predict"] = *cfg.MaxTokens
	}
	if len(cfg.StopSequences) > 0 {
		options["stop"] = cfg.StopSequences
	}
	for _, key := range []string{"numCtx", "numGpu", "numThread", "numa", "numBatch"} {
		if v, ok := cfg.ProviderOptions["ollama"][key]; ok {
			options[snakeCase(key)] = v
		}
	}
	if len(options) > 0 {
		body["options"] = options
	}

	if keepAlive, ok := llm.GetProviderOption[string](cfg, "ollama", "keepAlive"); ok {
		body["keep_alive"] = keepAlive
	}
	if raw, ok := llm.GetProviderOption[bool](cfg, "ollama", "raw"); ok {
		body["raw"] = raw
	}
	if reasoning, ok := llm.GetProviderOption[bool](cfg, "ollama", "reasoning"); ok {
		body["think"] = reasoning
	}
	if schema, ok := llm.GetProviderOption[map[string]any](cfg, "ollama", "jsonSchema"); ok {
		body["format"] = schema
	}

	return json.Marshal(body)
}

func buildMessages(messages []llm.ChatMessage) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		msg := map[string]any{"role": string(m.Role)}

		if m.TypedBody == nil {
			msg["content"] = m.ContentText
			out = append(out, msg)
			continue
		}

		switch m.TypedBody.Kind {
		case llm.BodyText:
			msg["content"] = m.TypedBody.Text
		case llm.BodyImage:
			msg["content"] = m.ContentText
			msg["images"] = []string{base64.StdEncoding.EncodeToString(m.TypedBody.Bytes)}
		case llm.BodyToolUse:
			msg["content"] = m.TypedBody.Text
			var calls []map[string]any
			for _, tc := range m.TypedBody.ToolCalls {
				var args map[string]any
				_ = jsonUnmarshal(tc.Function.ArgumentsJSON, &args)
				calls = append(calls, map[string]any{
					"function": map[string]any{"name": tc.Function.Name, "arguments": args},
				})
			}
			msg["tool_calls"] = calls
		case llm.BodyToolResult:
			if len(m.TypedBody.ToolResults) == 0 {
				msg["content"] = ""
				out = append(out, msg)
				continue
			}
			for _, tr := range m.TypedBody.ToolResults {
				out = append(out, map[string]any{"role": "tool", "content": tr.Content})
			}
			continue
		default:
			return nil, llm.NewError(llm.KindInvalidRequest, "unrepresentable message body kind %v for ollama", m.TypedBody.Kind)
		}
		out = append(out, msg)
	}
	return out, nil
}

func buildTools(tools []llm.FunctionTool) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.ParametersSchema,
			},
		})
	}
	return out
}

func snakeCase(camel string) string {
	out := make([]byte, 0, len(camel)+4)
	for i := 0; i < len(camel); i++ {
		ch := camel[i]
		if ch >= 'A' && ch <= 'Z' {
			out = append(out, '_', ch-'A'+'a')
			continue
		}
		out = append(out, ch)
	}
	return string(out)
}

func jsonUnmarshal(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}
