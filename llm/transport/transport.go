// Package transport declares the HTTP collaborator every provider adapter
// is built against (§6): post_json, get_json, post_form, post_raw_bytes, and
// post_stream. The core never constructs an HTTP client itself; adapters
// accept a Transport and a default net/http-backed implementation is
// supplied for convenience.
package transport

import (
	"context"
	"io"

	"github.com/dshills/llmcore/llm"
)

// Transport is the HTTP collaborator contract. Every method maps non-2xx
// responses into the llm error taxonomy rather than returning a raw HTTP
// error: 401/403 -> Auth, 429 -> RateLimit (or QuotaExceeded, inferred from
// the body), 404 -> ModelNotAvailable, 408/504 -> Timeout, 5xx -> Server,
// other 4xx -> InvalidRequest.
type Transport interface {
	// PostJSON sends body as a JSON request and returns the raw JSON
	// response body.
	PostJSON(ctx context.Context, endpoint string, headers map[string]string, body []byte, cancel *llm.CancelToken) ([]byte, error)

	// GetJSON issues a JSON GET with the given query parameters.
	GetJSON(ctx context.Context, endpoint string, headers map[string]string, query map[string]string, cancel *llm.CancelToken) ([]byte, error)

	// PostForm submits a multipart/form-data request (audio uploads,
	// speech-to-text) and returns the raw JSON response body.
	PostForm(ctx context.Context, endpoint string, headers map[string]string, form map[string]string, fileField, fileName string, fileBytes []byte, cancel *llm.CancelToken) ([]byte, error)

	// PostRawBytes sends body verbatim and returns the raw response bytes
	// (e.g. synthesized audio) rather than parsing JSON.
	PostRawBytes(ctx context.Context, endpoint string, headers map[string]string, body []byte, cancel *llm.CancelToken) ([]byte, error)

	// PostStream sends body and returns the response as a byte stream for
	// SSE/JSONL consumption. The caller owns closing the returned reader.
	PostStream(ctx context.Context, endpoint string, headers map[string]string, body []byte, cancel *llm.CancelToken) (io.ReadCloser, error)
}

// PartPusher is satisfied by every protocol package's StreamState: Push
// feeds raw bytes and returns any resulting parts, Close flushes a
// best-effort terminal part once the underlying stream ends.
type PartPusher interface {
	Push(chunk string) []llm.Part
	Close() []llm.Part
}

// PumpParts drains rc in a background goroutine, feeding each read into
// state and forwarding every resulting Part onto the returned channel. rc is
// closed when the stream ends.
func PumpParts(rc io.ReadCloser, state PartPusher) llm.StreamParts {
	out := make(chan llm.Part)
	go func() {
		defer close(out)
		defer rc.Close()

		buf := make([]byte, 4096)
		for {
			n, err := rc.Read(buf)
			if n > 0 {
				for _, p := range state.Push(string(buf[:n])) {
					out <- p
				}
			}
			if err != nil {
				for _, p := range state.Close() {
					out <- p
				}
				return
			}
		}
	}()
	return out
}
