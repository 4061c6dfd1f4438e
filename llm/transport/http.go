package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dshills/llmcore/llm"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// HTTPTransport is the default Transport, built on net/http with optional
// client-side pacing via golang.org/x/time/rate. It is safe for concurrent
// use by many callers.
type HTTPTransport struct {
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) { t.client = c }
}

// WithRateLimit caps outgoing requests to qps, bursting up to burst.
func WithRateLimit(qps float64, burst int) Option {
	return func(t *HTTPTransport) { t.limiter = rate.NewLimiter(rate.Limit(qps), burst) }
}

// NewHTTPTransport builds a default Transport from the given
// llm.TransportOptions plus functional overrides.
func NewHTTPTransport(opts llm.TransportOptions, options ...Option) *HTTPTransport {
	client := &http.Client{}
	if custom, ok := opts.CustomHTTPClient.(*http.Client); ok && custom != nil {
		client = custom
	} else {
		timeout := opts.ReceiveTimeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		client.Timeout = timeout
	}

	t := &HTTPTransport{client: client}
	for _, o := range options {
		o(t)
	}
	return t
}

func (t *HTTPTransport) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

func (t *HTTPTransport) do(ctx context.Context, req *http.Request, cancel *llm.CancelToken) ([]byte, error) {
	if cancel != nil {
		if err := cancel.Err(); err != nil {
			return nil, err
		}
	}
	if err := t.wait(ctx); err != nil {
		return nil, mapTransportError(err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mapTransportError(err)
	}

	if resp.StatusCode >= 300 {
		return nil, mapHTTPStatus(resp.StatusCode, data)
	}
	return data, nil
}

func (t *HTTPTransport) PostJSON(ctx context.Context, endpoint string, headers map[string]string, body []byte, cancel *llm.CancelToken) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, llm.NewError(llm.KindInvalidRequest, "build request: %v", err).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	applyHeaders(req, headers)
	return t.do(ctx, req, cancel)
}

func (t *HTTPTransport) GetJSON(ctx context.Context, endpoint string, headers map[string]string, query map[string]string, cancel *llm.CancelToken) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, llm.NewError(llm.KindInvalidRequest, "parse endpoint: %v", err).WithCause(err)
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, llm.NewError(llm.KindInvalidRequest, "build request: %v", err).WithCause(err)
	}
	applyHeaders(req, headers)
	return t.do(ctx, req, cancel)
}

func (t *HTTPTransport) PostForm(ctx context.Context, endpoint string, headers map[string]string, form map[string]string, fileField, fileName string, fileBytes []byte, cancel *llm.CancelToken) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range form {
		if err := w.WriteField(k, v); err != nil {
			return nil, llm.NewError(llm.KindInvalidRequest, "write form field: %v", err).WithCause(err)
		}
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			return nil, llm.NewError(llm.KindInvalidRequest, "create form file: %v", err).WithCause(err)
		}
		if _, err := fw.Write(fileBytes); err != nil {
			return nil, llm.NewError(llm.KindInvalidRequest, "write form file: %v", err).WithCause(err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, llm.NewError(llm.KindInvalidRequest, "close form writer: %v", err).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, llm.NewError(llm.KindInvalidRequest, "build request: %v", err).WithCause(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	applyHeaders(req, headers)
	return t.do(ctx, req, cancel)
}

func (t *HTTPTransport) PostRawBytes(ctx context.Context, endpoint string, headers map[string]string, body []byte, cancel *llm.CancelToken) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, llm.NewError(llm.KindInvalidRequest, "build request: %v", err).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	applyHeaders(req, headers)
	return t.do(ctx, req, cancel)
}

func (t *HTTPTransport) PostStream(ctx context.Context, endpoint string, headers map[string]string, body []byte, cancel *llm.CancelToken) (io.ReadCloser, error) {
	if cancel != nil {
		if err := cancel.Err(); err != nil {
			return nil, err
		}
	}
	if err := t.wait(ctx); err != nil {
		return nil, mapTransportError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, llm.NewError(llm.KindInvalidRequest, "build request: %v", err).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	applyHeaders(req, headers)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, mapHTTPStatus(resp.StatusCode, data)
	}
	return resp.Body, nil
}

func applyHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

func mapTransportError(cause error) *llm.Error {
	if strings.Contains(strings.ToLower(cause.Error()), "context deadline exceeded") {
		return llm.NewError(llm.KindTimeout, "request timed out").WithCause(cause)
	}
	return llm.NewError(llm.KindHTTP, "transport error: %v", cause).WithCause(cause)
}

func mapHTTPStatus(status int, body []byte) *llm.Error {
	bodyStr := string(body)
	base := &llm.Error{HTTPStatus: status, Body: bodyStr}

	switch {
	case status == 401 || status == 403:
		base.Kind = llm.KindAuth
		base.Message = fmt.Sprintf("authentication failed (status %d)", status)
	case status == 429:
		if isQuotaExceeded(bodyStr) {
			base.Kind = llm.KindQuotaExceeded
			base.Message = "quota exceeded"
		} else {
			base.Kind = llm.KindRateLimit
			base.Message = "rate limited"
		}
	case status == 404:
		base.Kind = llm.KindModelNotAvailable
		base.Message = "model or resource not found"
	case status == 408 || status == 504:
		base.Kind = llm.KindTimeout
		base.Message = fmt.Sprintf("request timed out (status %d)", status)
	case status >= 500:
		base.Kind = llm.KindServer
		base.Message = fmt.Sprintf("server error (status %d)", status)
	case status >= 400:
		base.Kind = llm.KindInvalidRequest
		base.Message = fmt.Sprintf("invalid request (status %d)", status)
	default:
		base.Kind = llm.KindGeneric
		base.Message = fmt.Sprintf("unexpected status %d", status)
	}
	return base
}

func isQuotaExceeded(body string) bool {
	msg := strings.ToLower(gjson.Get(body, "error.message").String())
	if msg == "" {
		msg = strings.ToLower(body)
	}
	return strings.Contains(msg, "quota") || strings.Contains(msg, "insufficient_quota") || strings.Contains(msg, "billing")
}
