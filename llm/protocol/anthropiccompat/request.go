// Package anthropiccompat builds Anthropic Messages API request bodies and
// parses both full and streamed responses into the unified core types. It
// is shared by every provider whose wire protocol mirrors the Anthropic
// Messages API (Anthropic itself and MiniMax's Anthropic-compatible
// route).
package anthropiccompat

import (
	"encoding/base64"
	"encoding/json"

	"github.com/tidwall/sjson"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/internal/jsonmerge"
)

// BetaWebFetchHeader is the beta header value required to enable the
// web_fetch server tool.
const BetaWebFetchHeader = "web-fetch-2025-09-10"

// BuildRequestBody renders cfg and messages into a JSON request body for
// POST {base_url}/messages. It enforces the sequence rule (first
// non-system message must be user), emits the system prompt as a top-level
// `system` array holding one text block (with cache_control when
// cacheSystemPrompt is set), converts content blocks, injects
// server-tool definitions, applies tool-result cache-control markers, and
// merges extra_body last. Extra headers are read separately through
// ExtraHeaders.
func BuildRequestBody(cfg llm.LLMConfig, messages []llm.ChatMessage, stream bool) ([]byte, []string, error) {
	if err := checkSequenceRule(messages); err != nil {
		return nil, nil, err
	}

	body := []byte(`{}`)
	set := func(path string, value any) error {
		b, err := sjson.SetBytes(body, path, value)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	if err := set("model", cfg.Model); err != nil {
		return nil, nil, err
	}
	maxTokens := 4096
	if cfg.MaxTokens != nil {
		maxTokens = *cfg.MaxTokens
	}
	if err := set("max_tokens", maxTokens); err != nil {
		return nil, nil, err
	}
	if stream {
		if err := set("stream", true); err != nil {
			return nil, nil, err
		}
	}

	if cfg.SystemPrompt != "" {
		sysBlock := map[string]any{"type": "text", "text": cfg.SystemPrompt}
		if cache, ok := llm.GetProviderOption[bool](cfg, "anthropic", "cacheSystemPrompt"); ok && cache {
			sysBlock["cache_control"] = map[string]any{"type": "ephemeral"}
		}
		if err := set("system", []map[string]any{sysBlock}); err != nil {
			return nil, nil, err
		}
	}

	msgs, err := buildMessages(messages)
	if err != nil {
		return nil, nil, err
	}
	if err := set("messages", msgs); err != nil {
		return nil, nil, err
	}

	if cfg.Temperature != nil {
		if err := set("temperature", *cfg.Temperature); err != nil {
			return nil, nil, err
		}
	}
	if cfg.TopP != nil {
		if err := set("top_p", *cfg.TopP); err != nil {
			return nil, nil, err
		}
	}
	if cfg.TopK != nil {
		if err := set("top_k", *cfg.TopK); err != nil {
			return nil, nil, err
		}
	}
	if len(cfg.StopSequences) > 0 {
		if err := set("stop_sequences", cfg.StopSequences); err != nil {
			return nil, nil, err
		}
	}

	var betaHeaders []string

	if len(cfg.Tools) > 0 || len(cfg.ProviderTools) > 0 {
		tools, betas, err := buildTools(cfg)
		if err != nil {
			return nil, nil, err
		}
		betaHeaders = append(betaHeaders, betas...)
		if err := set("tools", tools); err != nil {
			return nil, nil, err
		}
	}
	if cfg.ToolChoice != nil {
		if err := set("tool_choice", buildToolChoice(*cfg.ToolChoice)); err != nil {
			return nil, nil, err
		}
	}

	if reasoning, ok := llm.GetProviderOption[bool](cfg, "anthropic", "reasoning"); ok && reasoning {
		budget, _ := llm.GetProviderOption[int](cfg, "anthropic", "thinkingBudgetTokens")
		if budget == 0 {
			budget = 1024
		}
		if err := set("thinking", map[string]any{"type": "enabled", "budget_tokens": budget}); err != nil {
			return nil, nil, err
		}
	}

	for _, key := range []string{"mcpServers", "metadata", "container"} {
		if v, ok := llm.GetProviderOption[any](cfg, "anthropic", key); ok {
			if err := set(snakeCase(key), v); err != nil {
				return nil, nil, err
			}
		}
	}

	if extraBody, ok := llm.GetProviderOption[map[string]any](cfg, "anthropic", "extraBody"); ok {
		merged, err := jsonmerge.MergeExtraBody(body, extraBody)
		if err != nil {
			return nil, nil, err
		}
		body = merged
	}

	return body, betaHeaders, nil
}

// ExtraHeaders returns the extra_headers entry from ProviderOptions, if
// any.
func ExtraHeaders(cfg llm.LLMConfig) map[string]string {
	v, ok := llm.GetProviderOption[map[string]string](cfg, "anthropic", "extraHeaders")
	if !ok {
		return nil
	}
	return v
}

func checkSequenceRule(messages []llm.ChatMessage) error {
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		if m.Role != llm.RoleUser {
			return llm.NewError(llm.KindInvalidRequest, "first non-system message must be user, got %s", m.Role)
		}
		return nil
	}
	return nil
}

func buildMessages(messages []llm.ChatMessage) ([]map[string]any, error) {
	var out []map[string]any
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		blocks, err := buildContentBlocks(m)
		if err != nil {
			return nil, err
		}
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "assistant"
		}
		out = append(out, map[string]any{"role": role, "content": blocks})
	}
	return out, nil
}

func buildContentBlocks(m llm.ChatMessage) ([]map[string]any, error) {
	if m.TypedBody == nil {
		return []map[string]any{{"type": "text", "text": m.ContentText}}, nil
	}

	switch m.TypedBody.Kind {
	case llm.BodyText:
		return []map[string]any{{"type": "text", "text": m.TypedBody.Text}}, nil
	case llm.BodyImage:
		return []map[string]any{{
			"type": "image",
			"source": map[string]any{
				"type":       "base64",
				"media_type": m.TypedBody.MIME,
				"data":       base64.StdEncoding.EncodeToString(m.TypedBody.Bytes),
			},
		}}, nil
	case llm.BodyImageURL:
		return nil, llm.NewError(llm.KindInvalidRequest, "image URLs are not representable in the Anthropic content model; provide base64 image bytes instead")
	case llm.BodyFile:
		return []map[string]any{{
			"type": "document",
			"source": map[string]any{
				"type":       "base64",
				"media_type": m.TypedBody.MIME,
				"data":       base64.StdEncoding.EncodeToString(m.TypedBody.Bytes),
			},
		}}, nil
	case llm.BodyToolUse:
		var blocks []map[string]any
		if m.ContentText != "" {
			blocks = append(blocks, map[string]any{"type": "text", "text": m.ContentText})
		}
		for _, tc := range m.TypedBody.ToolCalls {
			var input any
			_ = json.Unmarshal([]byte(tc.Function.ArgumentsJSON), &input)
			blocks = append(blocks, map[string]any{
				"type":  "tool_use",
				"id":    tc.ID,
				"name":  tc.Function.Name,
				"input": input,
			})
		}
		return blocks, nil
	case llm.BodyToolResult:
		var blocks []map[string]any
		for _, tr := range m.TypedBody.ToolResults {
			block := map[string]any{
				"type":        "tool_result",
				"tool_use_id": tr.ToolCallID,
				"content":     tr.Content,
			}
			if tr.IsError || isErrorJSON(tr.Content) {
				block["is_error"] = true
			}
			if cc, ok := tr.ProviderOptions["anthropic"]["cacheControl"]; ok {
				block["cache_control"] = cc
			}
			blocks = append(blocks, block)
		}
		return blocks, nil
	default:
		return nil, llm.NewError(llm.KindInvalidRequest, "unrepresentable typed body kind %d", m.TypedBody.Kind)
	}
}

// isErrorJSON reports whether content parses as a JSON object carrying an
// "error" key, inferring is_error when the caller didn't set it.
func isErrorJSON(content string) bool {
	var v map[string]any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return false
	}
	_, ok := v["error"]
	return ok
}

func buildTools(cfg llm.LLMConfig) ([]map[string]any, []string, error) {
	var tools []map[string]any
	var betas []string

	for _, t := range cfg.Tools {
		tools = append(tools, map[string]any{
			"name":         t.Name,
			"description":  t.Description,
			"input_schema": t.ParametersSchema,
		})
	}

	for _, pt := range cfg.ProviderTools {
		wireType := pt.ID
		if hasPrefix(wireType, "anthropic.") {
			wireType = wireType[len("anthropic."):]
		}
		tool := map[string]any{"type": wireType}
		for k, v := range pt.Options {
			tool[k] = v
		}
		tools = append(tools, tool)
		if hasPrefix(wireType, "web_fetch") {
			betas = append(betas, BetaWebFetchHeader)
		}
	}

	return tools, betas, nil
}

func buildToolChoice(choice llm.ToolChoice) any {
	switch choice.Mode {
	case llm.ToolChoiceNone:
		return map[string]any{"type": "none"}
	case llm.ToolChoiceRequired:
		return map[string]any{"type": "any"}
	case llm.ToolChoiceFunction:
		return map[string]any{"type": "tool", "name": choice.FunctionName}
	default:
		return map[string]any{"type": "auto"}
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func snakeCase(camel string) string {
	var out []byte
	for i := 0; i < len(camel); i++ {
		c := camel[i]
		if c >= 'A' && c <= 'Z' {
			out = append(out, '_', c+32)
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
