package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPTool is a ready-made Handler that lets an agent issue GET/POST
// requests, useful for fetching REST resources or hitting webhooks without
// a hand-written handler per workflow.
//
// Arguments:
//   - url (string, required)
//   - method (string, "GET" or "POST", default "GET")
//   - headers (map[string]any, optional)
//   - body (string, optional, POST only)
//
// Result: {"status_code": int, "headers": map[string]any, "body": string}.
type HTTPTool struct {
	ToolName string
	Client   *http.Client
}

// NewHTTPTool returns an HTTPTool named "http_request" using http.DefaultClient
// unless overridden via the Client field.
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{ToolName: "http_request"}
}

func (h *HTTPTool) Name() string {
	if h.ToolName != "" {
		return h.ToolName
	}
	return "http_request"
}

func (h *HTTPTool) Call(ctx context.Context, args map[string]any) (any, error) {
	urlStr, ok := args["url"].(string)
	if !ok || urlStr == "" {
		return nil, fmt.Errorf("url parameter required (string)")
	}

	method := "GET"
	if m, ok := args["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if method != "GET" && method != "POST" {
		return nil, fmt.Errorf("unsupported HTTP method: %s (supported: GET, POST)", method)
	}

	var body io.Reader
	if bodyStr, ok := args["body"].(string); ok && bodyStr != "" {
		body = bytes.NewBufferString(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if headers, ok := args["headers"].(map[string]any); ok {
		for key, value := range headers {
			if valueStr, ok := value.(string); ok {
				req.Header.Set(key, valueStr)
			}
		}
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	respHeaders := make(map[string]any, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) == 1 {
			respHeaders[key] = values[0]
		} else {
			respHeaders[key] = values
		}
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"body":        string(respBody),
	}, nil
}
