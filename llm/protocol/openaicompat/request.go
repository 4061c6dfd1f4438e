// Package openaicompat builds OpenAI Chat Completions request bodies and
// parses both full and streamed responses into the unified core types. It
// is shared by every provider in this module whose wire protocol is OpenAI
// Chat Completions: OpenAI itself, Groq, DeepSeek, xAI, OpenRouter, and
// Gemini's OpenAI-compatible route (googleopenai). Requests are built as raw JSON
// documents so provider-specific passthrough fields and extra_body/
// extra_headers merges can be applied without fighting a typed schema.
package openaicompat

import (
	"encoding/base64"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/internal/jsonmerge"
)

// reasoningModelFamilies lists model name prefixes treated as "reasoning"
// models: they take max_completion_tokens instead of max_tokens and
// suppress temperature/top_p.
var reasoningModelFamilies = []string{"o1", "o3", "o4", "gpt-5"}

// IsReasoningModel reports whether model belongs to a reasoning family.
func IsReasoningModel(model string) bool {
	for _, prefix := range reasoningModelFamilies {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// passthroughKeys are provider-specific fields only read for a matching
// provider id, passed through verbatim when present in ProviderOptions.
var passthroughKeys = []string{
	"frequency_penalty", "presence_penalty", "logit_bias", "seed",
	"parallel_tool_calls", "logprobs", "top_logprobs", "verbosity",
	"reasoning_format",
}

// BuildRequestBody renders cfg and messages into a JSON request body for
// POST {base_url}/chat/completions (adapters use their endpoint prefix in
// place of base_url when one is set), applying the
// reasoning-model token/sampling dispatch, reasoning-effort encoding,
// tool_choice, json_schema response format, provider passthroughs, xAI
// search parameters, and an extra_body/extra_headers merge that wins on
// key collision.
func BuildRequestBody(cfg llm.LLMConfig, messages []llm.ChatMessage, stream bool) ([]byte, error) {
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
		return nil, err
	}
	if stream {
		if err := set("stream", true); err != nil {
			return nil, err
		}
	}

	msgs, err := buildMessages(cfg, messages)
	if err != nil {
		return nil, err
	}
	if err := set("messages", msgs); err != nil {
		return nil, err
	}

	reasoning := IsReasoningModel(cfg.Model)
	if cfg.MaxTokens != nil {
		key := "max_tokens"
		if reasoning {
			key = "max_completion_tokens"
		}
		if err := set(key, *cfg.MaxTokens); err != nil {
			return nil, err
		}
	}
	if !reasoning {
		if cfg.Temperature != nil {
			if err := set("temperature", *cfg.Temperature); err != nil {
				return nil, err
			}
		}
		if cfg.TopP != nil {
			if err := set("top_p", *cfg.TopP); err != nil {
				return nil, err
			}
		}
		if cfg.TopK != nil {
			if err := set("top_k", *cfg.TopK); err != nil {
				return nil, err
			}
		}
	}

	if err := applyReasoningEffort(&body, cfg); err != nil {
		return nil, err
	}

	if len(cfg.Tools) > 0 {
		if err := set("tools", buildTools(cfg.Tools)); err != nil {
			return nil, err
		}
	}
	if cfg.ToolChoice != nil {
		if err := set("tool_choice", buildToolChoice(*cfg.ToolChoice)); err != nil {
			return nil, err
		}
	}
	if len(cfg.StopSequences) > 0 {
		if err := set("stop", cfg.StopSequences); err != nil {
			return nil, err
		}
	}
	if cfg.User != "" {
		if err := set("user", cfg.User); err != nil {
			return nil, err
		}
	}
	if cfg.ServiceTier != "" {
		if err := set("service_tier", cfg.ServiceTier); err != nil {
			return nil, err
		}
	}
	if cfg.JSONSchema != nil {
		if err := applyJSONSchema(&body, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyPassthroughs(&body, cfg); err != nil {
		return nil, err
	}
	if err := applyXAISearch(&body, cfg); err != nil {
		return nil, err
	}

	if extraBody, ok := llm.GetProviderOption[map[string]any](cfg, cfg.ProviderID, "extraBody"); ok {
		body, err = mergeExtraBody(body, extraBody)
		if err != nil {
			return nil, err
		}
	}

	return body, nil
}

// ExtraHeaders returns the extra_headers entry from ProviderOptions, if
// any, for the caller's transport to merge onto the outgoing request.
func ExtraHeaders(cfg llm.LLMConfig) map[string]string {
	v, ok := llm.GetProviderOption[map[string]string](cfg, cfg.ProviderID, "extraHeaders")
	if !ok {
		return nil
	}
	return v
}

func buildMessages(cfg llm.LLMConfig, messages []llm.ChatMessage) ([]map[string]any, error) {
	var out []map[string]any

	hasSystem := false
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			hasSystem = true
			break
		}
	}
	if cfg.SystemPrompt != "" && !hasSystem {
		out = append(out, map[string]any{"role": "system", "content": cfg.SystemPrompt})
	}

	for _, m := range messages {
		converted, err := convertMessage(m)
		if err != nil {
			return nil, err
		}
		out = append(out, converted...)
	}
	return out, nil
}

func convertMessage(m llm.ChatMessage) ([]map[string]any, error) {
	if m.TypedBody != nil && m.TypedBody.Kind == llm.BodyToolResult {
		var out []map[string]any
		for _, tr := range m.TypedBody.ToolResults {
			out = append(out, map[string]any{
				"role":         "tool",
				"tool_call_id": tr.ToolCallID,
				"content":      tr.Content,
			})
		}
		return out, nil
	}

	if m.TypedBody != nil && m.TypedBody.Kind == llm.BodyToolUse {
		msg := map[string]any{"role": "assistant"}
		if m.ContentText != "" {
			msg["content"] = m.ContentText
		} else {
			msg["content"] = nil
		}
		var calls []map[string]any
		for _, tc := range m.TypedBody.ToolCalls {
			calls = append(calls, map[string]any{
				"id":   tc.ID,
				"type": "function",
				"function": map[string]any{
					"name":      tc.Function.Name,
					"arguments": tc.Function.ArgumentsJSON,
				},
			})
		}
		msg["tool_calls"] = calls
		return []map[string]any{msg}, nil
	}

	content, err := buildContent(m)
	if err != nil {
		return nil, err
	}

	role := "user"
	switch m.Role {
	case llm.RoleSystem:
		role = "system"
	case llm.RoleAssistant:
		role = "assistant"
	case llm.RoleTool:
		role = "tool"
	}
	return []map[string]any{{"role": role, "content": content}}, nil
}

// buildContent renders a message's body into OpenAI content form: a plain
// string for text-only messages, or a content-part array for image/file
// bodies.
func buildContent(m llm.ChatMessage) (any, error) {
	if m.TypedBody == nil {
		return m.ContentText, nil
	}
	switch m.TypedBody.Kind {
	case llm.BodyText:
		return m.TypedBody.Text, nil
	case llm.BodyImage:
		dataURL := "data:" + m.TypedBody.MIME + ";base64," + base64.StdEncoding.EncodeToString(m.TypedBody.Bytes)
		return []map[string]any{{"type": "image_url", "image_url": map[string]any{"url": dataURL}}}, nil
	case llm.BodyImageURL:
		return []map[string]any{{"type": "image_url", "image_url": map[string]any{"url": m.TypedBody.URL}}}, nil
	case llm.BodyFile:
		return []map[string]any{{
			"type": "file",
			"file": map[string]any{
				"file_data": base64.StdEncoding.EncodeToString(m.TypedBody.Bytes),
			},
		}}, nil
	default:
		return m.ContentText, nil
	}
}

func buildTools(tools []llm.FunctionTool) []map[string]any {
	out := make([]map[string]any, len(tools))
	for i, t := range tools {
		out[i] = map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.ParametersSchema,
			},
		}
	}
	return out
}

func buildToolChoice(choice llm.ToolChoice) any {
	switch choice.Mode {
	case llm.ToolChoiceNone:
		return "none"
	case llm.ToolChoiceRequired:
		return "required"
	case llm.ToolChoiceFunction:
		return map[string]any{"type": "function", "function": map[string]any{"name": choice.FunctionName}}
	default:
		return "auto"
	}
}

// applyReasoningEffort dispatches by provider id to produce the form each
// OpenAI-compatible vendor expects for reasoning depth.
func applyReasoningEffort(body *[]byte, cfg llm.LLMConfig) error {
	if cfg.ReasoningEffort == "" {
		return nil
	}

	switch cfg.ProviderID {
	case "openrouter":
		b, err := sjson.SetBytes(*body, "reasoning.effort", cfg.ReasoningEffort)
		if err != nil {
			return err
		}
		*body = b
	case "groq-openai":
		// Groq does not support a reasoning-effort knob on this route.
	default:
		b, err := sjson.SetBytes(*body, "reasoning_effort", cfg.ReasoningEffort)
		if err != nil {
			return err
		}
		*body = b
	}
	return nil
}

// applyJSONSchema emits response_format={type:"json_schema", ...},
// injecting additionalProperties:false when the schema does not already
// specify it, and downgrading to {type:"json_object"} for providers that
// disable structured outputs via a provider option.
func applyJSONSchema(body *[]byte, cfg llm.LLMConfig) error {
	if downgrade, ok := llm.GetProviderOption[bool](cfg, cfg.ProviderID, "structuredOutputs"); ok && !downgrade {
		b, err := sjson.SetBytes(*body, "response_format", map[string]any{"type": "json_object"})
		if err != nil {
			return err
		}
		*body = b
		return nil
	}

	schema := cfg.JSONSchema
	if _, ok := schema["additionalProperties"]; !ok {
		withDefault := make(map[string]any, len(schema)+1)
		for k, v := range schema {
			withDefault[k] = v
		}
		withDefault["additionalProperties"] = false
		schema = withDefault
	}

	name, _ := llm.GetProviderOption[string](cfg, cfg.ProviderID, "jsonSchemaName")
	if name == "" {
		name = "response"
	}

	b, err := sjson.SetBytes(*body, "response_format", map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   name,
			"schema": schema,
			"strict": true,
		},
	})
	if err != nil {
		return err
	}
	*body = b
	return nil
}

func applyPassthroughs(body *[]byte, cfg llm.LLMConfig) error {
	ns, ok := cfg.ProviderOptions[cfg.ProviderID]
	if !ok {
		return nil
	}
	for _, key := range passthroughKeys {
		v, ok := ns[key]
		if !ok {
			continue
		}
		b, err := jsonmerge.Set(*body, key, v)
		if err != nil {
			return err
		}
		*body = b
	}
	return nil
}

// applyXAISearch injects xAI's live-search parameters with safe defaults
// when enabled via provider options.
func applyXAISearch(body *[]byte, cfg llm.LLMConfig) error {
	if cfg.ProviderID != "xai" {
		return nil
	}
	enabled, ok := llm.GetProviderOption[bool](cfg, "xai", "searchEnabled")
	if !ok || !enabled {
		return nil
	}
	mode, _ := llm.GetProviderOption[string](cfg, "xai", "searchMode")
	if mode == "" {
		mode = "auto"
	}
	b, err := sjson.SetBytes(*body, "search_parameters", map[string]any{"mode": mode})
	if err != nil {
		return err
	}
	*body = b
	return nil
}

// mergeExtraBody sets each top-level key of extraBody on body, with
// extraBody winning on any key collision; nested objects are replaced
// whole, not merged.
func mergeExtraBody(body []byte, extraBody map[string]any) ([]byte, error) {
	return jsonmerge.MergeExtraBody(body, extraBody)
}
