package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPTool_Name(t *testing.T) {
	tool := NewHTTPTool()
	if tool.Name() != "http_request" {
		t.Errorf("Name() = %q, want %q", tool.Name(), "http_request")
	}
}

func TestHTTPTool_GET_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET request, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "success"})
	}))
	defer server.Close()

	result, err := NewHTTPTool().Call(context.Background(), map[string]any{"method": "GET", "url": server.URL})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	m, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any result, got %T", result)
	}
	if m["status_code"] != http.StatusOK {
		t.Fatalf("expected status 200, got %v", m["status_code"])
	}
}

func TestHTTPTool_POST_SendsBody(t *testing.T) {
	var receivedBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		receivedBody = string(buf[:n])
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	result, err := NewHTTPTool().Call(context.Background(), map[string]any{
		"method": "POST",
		"url":    server.URL,
		"body":   "hello",
	})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	m := result.(map[string]any)
	if m["status_code"] != http.StatusCreated {
		t.Fatalf("expected status 201, got %v", m["status_code"])
	}
	if receivedBody != "hello" {
		t.Fatalf("expected server to receive body %q, got %q", "hello", receivedBody)
	}
}

func TestHTTPTool_Call_RejectsMissingURL(t *testing.T) {
	if _, err := NewHTTPTool().Call(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected an error for missing url")
	}
}

func TestHTTPTool_Call_RejectsUnsupportedMethod(t *testing.T) {
	if _, err := NewHTTPTool().Call(context.Background(), map[string]any{"url": "http://example.com", "method": "DELETE"}); err == nil {
		t.Fatal("expected an error for unsupported method")
	}
}
