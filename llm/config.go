package llm

import "time"

// TransportOptions configures the HTTP transport collaborator (§6). The core
// never constructs an HTTP client itself; it only reads this struct.
type TransportOptions struct {
	Proxy           string
	CustomHeaders   map[string]string
	BypassSSL       bool
	SSLCertPath     string
	ConnectTimeout  time.Duration
	ReceiveTimeout  time.Duration
	SendTimeout     time.Duration
	EnableLogging   bool
	CustomHTTPClient any // concrete *http.Client or equivalent; type-asserted by provider adapters
}

// LLMConfig is the immutable configuration a provider capability is built
// from. Once a capability is constructed from a LLMConfig, the config is
// never mutated; a new call to the Builder produces a new LLMConfig.
type LLMConfig struct {
	ProviderID      string
	ProviderName    string
	APIKey          string
	BaseURL         string
	EndpointPrefix  string
	Model           string
	SystemPrompt    string
	Temperature     *float64
	MaxTokens       *int
	TopP            *float64
	TopK            *int
	StopSequences   []string
	Tools           []FunctionTool
	ToolChoice      *ToolChoice
	User            string
	ServiceTier     string
	ReasoningEffort string
	JSONSchema      map[string]any

	ProviderOptions map[string]map[string]any
	ProviderTools   []ProviderTool

	TransportOptions TransportOptions
}

// GetProviderOption returns a typed value from ProviderOptions[providerID][key].
// It returns (zero, false) when the provider, key, or type doesn't match —
// callers must never panic on a caller-controlled escape hatch.
func GetProviderOption[T any](cfg LLMConfig, providerID, key string) (T, bool) {
	var zero T
	ns, ok := cfg.ProviderOptions[providerID]
	if !ok {
		return zero, false
	}
	raw, ok := ns[key]
	if !ok {
		return zero, false
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
