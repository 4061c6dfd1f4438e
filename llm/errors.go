// Package llm is the provider-agnostic core of the client SDK: prompt
// construction, the unified streaming model, capability traits, the
// provider registry/builder, and the agentic tool-loop engine. Concrete
// providers (OpenAI, Anthropic, Google, …) live under llm/provider and
// depend on this package; this package never depends on them.
package llm

import (
	"errors"
	"fmt"
)

// Kind identifies the category of an Error. Every capability method fails
// with exactly one Kind; callers pattern-match on it rather than on
// provider-specific error types.
type Kind int

const (
	KindGeneric Kind = iota
	KindAuth
	KindInvalidRequest
	KindRateLimit
	KindQuotaExceeded
	KindModelNotAvailable
	KindTimeout
	KindCancelled
	KindResponseFormat
	KindToolConfig
	KindToolValidation
	KindToolExecution
	KindStructuredOutput
	KindContentFilter
	KindServer
	KindUnsupportedCapability
	KindJSON
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindInvalidRequest:
		return "invalid_request"
	case KindRateLimit:
		return "rate_limit"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindModelNotAvailable:
		return "model_not_available"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	case KindResponseFormat:
		return "response_format"
	case KindToolConfig:
		return "tool_config"
	case KindToolValidation:
		return "tool_validation"
	case KindToolExecution:
		return "tool_execution"
	case KindStructuredOutput:
		return "structured_output"
	case KindContentFilter:
		return "content_filter"
	case KindServer:
		return "server"
	case KindUnsupportedCapability:
		return "unsupported_capability"
	case KindJSON:
		return "json"
	case KindHTTP:
		return "http"
	default:
		return "generic"
	}
}

// Error is the single error type returned by every public operation in this
// module. Provider-specific detail belongs in Message/Body, never in a new
// Go error type — callers should only ever need errors.As(err, &llm.Error{}).
type Error struct {
	Kind Kind

	// Message is a human-readable description.
	Message string

	// Provider is the provider_id that produced this error, when known.
	Provider string

	// HTTPStatus is set when Kind == KindHTTP or the error originated from
	// an HTTP response (e.g. a 429 classified as KindRateLimit).
	HTTPStatus int

	// Body is a best-effort excerpt of the raw response body, for debugging.
	Body string

	// Cause wraps the underlying error, if any (e.g. a JSON decode error).
	Cause error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("llm: %s: %s: %s", e.Provider, e.Kind, e.Message)
	}
	return fmt.Sprintf("llm: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds an Error of the given kind with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithProvider returns a copy of e tagged with provider.
func (e *Error) WithProvider(provider string) *Error {
	cp := *e
	cp.Provider = provider
	return &cp
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
