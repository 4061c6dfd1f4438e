package transport

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/dshills/llmcore/llm"
)

// MockTransport is a scripted Transport for provider adapter tests. Each
// method pulls its next response off the matching queue, repeating the last
// entry once exhausted.
type MockTransport struct {
	JSONResponses   [][]byte
	StreamResponses []string
	RawResponses    [][]byte
	Err             error

	jsonCalls, streamCalls, rawCalls int
	LastEndpoint                     string
	LastBody                         []byte
	LastHeaders                      map[string]string
}

func (m *MockTransport) nextJSON() []byte {
	if len(m.JSONResponses) == 0 {
		return []byte(`{}`)
	}
	idx := m.jsonCalls
	if idx >= len(m.JSONResponses) {
		idx = len(m.JSONResponses) - 1
	}
	m.jsonCalls++
	return m.JSONResponses[idx]
}

func (m *MockTransport) PostJSON(ctx context.Context, endpoint string, headers map[string]string, body []byte, cancel *llm.CancelToken) ([]byte, error) {
	m.LastEndpoint, m.LastBody, m.LastHeaders = endpoint, body, headers
	if m.Err != nil {
		return nil, m.Err
	}
	return m.nextJSON(), nil
}

func (m *MockTransport) GetJSON(ctx context.Context, endpoint string, headers map[string]string, query map[string]string, cancel *llm.CancelToken) ([]byte, error) {
	m.LastEndpoint, m.LastHeaders = endpoint, headers
	if m.Err != nil {
		return nil, m.Err
	}
	return m.nextJSON(), nil
}

func (m *MockTransport) PostForm(ctx context.Context, endpoint string, headers map[string]string, form map[string]string, fileField, fileName string, fileBytes []byte, cancel *llm.CancelToken) ([]byte, error) {
	m.LastEndpoint, m.LastHeaders = endpoint, headers
	if m.Err != nil {
		return nil, m.Err
	}
	return m.nextJSON(), nil
}

func (m *MockTransport) PostRawBytes(ctx context.Context, endpoint string, headers map[string]string, body []byte, cancel *llm.CancelToken) ([]byte, error) {
	m.LastEndpoint, m.LastBody, m.LastHeaders = endpoint, body, headers
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.RawResponses) == 0 {
		return nil, errors.New("no raw response scripted")
	}
	idx := m.rawCalls
	if idx >= len(m.RawResponses) {
		idx = len(m.RawResponses) - 1
	}
	m.rawCalls++
	return m.RawResponses[idx], nil
}

func (m *MockTransport) PostStream(ctx context.Context, endpoint string, headers map[string]string, body []byte, cancel *llm.CancelToken) (io.ReadCloser, error) {
	m.LastEndpoint, m.LastBody, m.LastHeaders = endpoint, body, headers
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.StreamResponses) == 0 {
		return io.NopCloser(strings.NewReader("")), nil
	}
	idx := m.streamCalls
	if idx >= len(m.StreamResponses) {
		idx = len(m.StreamResponses) - 1
	}
	m.streamCalls++
	return io.NopCloser(strings.NewReader(m.StreamResponses[idx])), nil
}
