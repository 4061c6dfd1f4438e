package registry

import (
	"github.com/dshills/llmcore/llm"
)

// Option is a functional option applied to a Builder. Options that set
// provider-scoped values (provider options, provider tools) before a
// provider has been selected are buffered and attributed to whichever
// provider is selected later.
type Option func(*Builder)

// Builder accumulates an llm.LLMConfig and provider-option writes across
// calls, only attributing provider-only writes to a concrete provider id
// once one has been chosen via WithProvider.
type Builder struct {
	cfg llm.LLMConfig

	// pendingProviderOptions holds per-key option writes made before a
	// provider was selected; they are attributed to cfg.ProviderID once
	// Build is called.
	pendingProviderOptions map[string]any
	pendingProviderTools   []llm.ProviderTool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		pendingProviderOptions: make(map[string]any),
	}
}

// Apply runs every option against the Builder in order, returning it for
// chaining.
func (b *Builder) Apply(opts ...Option) *Builder {
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithProvider selects the provider id. Any option writes buffered before
// this call are attributed to this provider when Build is called.
func WithProvider(id string) Option {
	return func(b *Builder) { b.cfg.ProviderID = id }
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(b *Builder) { b.cfg.APIKey = key }
}

// WithBaseURL overrides the provider's default base URL.
func WithBaseURL(url string) Option {
	return func(b *Builder) { b.cfg.BaseURL = url }
}

// WithModel sets the model id.
func WithModel(model string) Option {
	return func(b *Builder) { b.cfg.Model = model }
}

// WithSystemPrompt sets the top-level system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(b *Builder) { b.cfg.SystemPrompt = prompt }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(b *Builder) { b.cfg.Temperature = &t }
}

// WithMaxTokens sets the output token cap.
func WithMaxTokens(n int) Option {
	return func(b *Builder) { b.cfg.MaxTokens = &n }
}

// WithTopP sets nucleus sampling.
func WithTopP(p float64) Option {
	return func(b *Builder) { b.cfg.TopP = &p }
}

// WithTools sets the callable function tools offered to the model.
func WithTools(tools ...llm.FunctionTool) Option {
	return func(b *Builder) { b.cfg.Tools = tools }
}

// WithToolChoice sets how the model must use the offered tools.
func WithToolChoice(choice llm.ToolChoice) Option {
	return func(b *Builder) { b.cfg.ToolChoice = &choice }
}

// WithProviderOption buffers one provider-options key write. If a provider
// id is already selected, it is written immediately under that id;
// otherwise it is held pending until WithProvider (or Build) resolves one.
func WithProviderOption(key string, value any) Option {
	return func(b *Builder) {
		if b.cfg.ProviderID != "" {
			b.setProviderOption(b.cfg.ProviderID, key, value)
			return
		}
		b.pendingProviderOptions[key] = value
	}
}

// WithProviderOptionFor writes directly into a named provider's options
// namespace, regardless of which provider is currently selected. Use this
// to pre-stage options for a provider that will be selected later.
func WithProviderOptionFor(providerID, key string, value any) Option {
	return func(b *Builder) { b.setProviderOption(providerID, key, value) }
}

// WithProviderTool appends a server-side provider tool. If a provider id is
// already selected it is attached immediately; otherwise it is buffered.
func WithProviderTool(tool llm.ProviderTool) Option {
	return func(b *Builder) {
		if b.cfg.ProviderID != "" {
			b.cfg.ProviderTools = append(b.cfg.ProviderTools, tool)
			return
		}
		b.pendingProviderTools = append(b.pendingProviderTools, tool)
	}
}

// WithTransportOptions sets the transport-level overrides.
func WithTransportOptions(opts llm.TransportOptions) Option {
	return func(b *Builder) { b.cfg.TransportOptions = opts }
}

func (b *Builder) setProviderOption(providerID, key string, value any) {
	if b.cfg.ProviderOptions == nil {
		b.cfg.ProviderOptions = make(map[string]map[string]any)
	}
	ns, ok := b.cfg.ProviderOptions[providerID]
	if !ok {
		ns = make(map[string]any)
		b.cfg.ProviderOptions[providerID] = ns
	}
	ns[key] = value
}

// Build finalizes the config: pending provider-scoped writes are
// attributed to cfg.ProviderID (later writes override earlier ones, and
// writes already attached to an explicit provider id via
// WithProviderOptionFor / a prior WithProvider selection take precedence
// over generically-buffered ones), and the resulting llm.LLMConfig is
// returned.
func (b *Builder) Build() (llm.LLMConfig, error) {
	if b.cfg.ProviderID == "" {
		return llm.LLMConfig{}, llm.NewError(llm.KindInvalidRequest, "no provider selected")
	}

	for key, value := range b.pendingProviderOptions {
		if _, exists := b.cfg.ProviderOptions[b.cfg.ProviderID][key]; exists {
			continue
		}
		b.setProviderOption(b.cfg.ProviderID, key, value)
	}
	b.cfg.ProviderTools = append(b.cfg.ProviderTools, b.pendingProviderTools...)

	return b.cfg, nil
}
