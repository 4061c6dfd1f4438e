package task

import (
	"context"
	"encoding/json"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const returnObjectToolName = "return_object"

// ObjectSource identifies how GenerateObject recovered the structured
// result.
type ObjectSource int

const (
	ObjectFromToolCall ObjectSource = iota
	ObjectFromTextExtraction
)

// ObjectResult is the outcome of a successful GenerateObject call.
type ObjectResult struct {
	Object map[string]any
	Source ObjectSource
	Raw    llm.ChatResponseWithAssistantMessage
}

// GenerateObjectInput extends TextInput with the JSON schema the response
// must validate against.
type GenerateObjectInput struct {
	TextInput
	Schema map[string]any
}

// GenerateObject first attempts tool-call-based structured output: it
// synthesizes a return_object function tool whose parameters equal the
// requested schema, nudges the system prompt to require exactly one call,
// and validates the returned arguments against the schema. If the model
// instead answers in plain text, it extracts the first balanced JSON object
// from the text and validates that. Schema validation failures and
// unparseable output both produce a KindStructuredOutput error.
func GenerateObject(ctx context.Context, in GenerateObjectInput, cfg llm.LLMConfig, chat capability.ChatCapability, cancel *llm.CancelToken) (ObjectResult, error) {
	schema, err := compileSchema(in.Schema)
	if err != nil {
		return ObjectResult{}, llm.NewError(llm.KindStructuredOutput, "invalid schema: %v", err).WithCause(err)
	}

	nudge := "Respond by calling the return_object function exactly once with arguments matching its schema. Do not respond with plain text."
	if in.System != "" {
		nudge = in.System + "\n\n" + nudge
	}
	callCfg := cfg
	callCfg.Tools = append(append([]llm.FunctionTool(nil), cfg.Tools...), llm.FunctionTool{
		Name:             returnObjectToolName,
		Description:      "Return the requested structured result.",
		ParametersSchema: in.Schema,
	})
	callCfg.ToolChoice = &llm.ToolChoice{Mode: llm.ToolChoiceFunction, FunctionName: returnObjectToolName}

	resp, err := GenerateText(ctx, TextInput{Prompt: in.Prompt, Messages: in.Messages, PromptIR: in.PromptIR, System: nudge}, callCfg, chat, cancel)
	if err != nil {
		return ObjectResult{}, err
	}

	for _, call := range resp.ChatResponse.ToolCalls {
		if call.Function.Name != returnObjectToolName {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(call.Function.ArgumentsJSON), &obj); err != nil {
			return ObjectResult{}, llm.NewError(llm.KindStructuredOutput, "return_object arguments are not valid JSON").WithCause(err)
		}
		if err := validateAgainst(schema, obj); err != nil {
			return ObjectResult{}, err
		}
		return ObjectResult{Object: obj, Source: ObjectFromToolCall, Raw: resp}, nil
	}

	extracted, ok := extractBalancedJSONObject(resp.ChatResponse.Text)
	if !ok {
		return ObjectResult{}, llm.NewError(llm.KindStructuredOutput, "response contained neither a return_object call nor an extractable JSON object")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(extracted), &obj); err != nil {
		return ObjectResult{}, llm.NewError(llm.KindStructuredOutput, "extracted text is not valid JSON").WithCause(err)
	}
	if err := validateAgainst(schema, obj); err != nil {
		return ObjectResult{}, err
	}
	return ObjectResult{Object: obj, Source: ObjectFromTextExtraction, Raw: resp}, nil
}

func compileSchema(schemaDoc map[string]any) (*jsonschema.Schema, error) {
	if schemaDoc == nil {
		return nil, nil
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("generate_object_schema.json", schemaDoc); err != nil {
		return nil, err
	}
	return c.Compile("generate_object_schema.json")
}

func validateAgainst(schema *jsonschema.Schema, obj map[string]any) error {
	if schema == nil {
		return nil
	}
	if err := schema.Validate(obj); err != nil {
		return llm.NewError(llm.KindStructuredOutput, "schema validation failed: %v", err).WithCause(err)
	}
	return nil
}

// extractBalancedJSONObject finds the first top-level balanced {...} span in
// text, respecting string literals and escapes, and returns it verbatim.
func extractBalancedJSONObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
