// Package registry implements the provider factory registry and the
// functional-options config builder used to construct an llm.LLMConfig and
// select a provider capability instance from it.
package registry

import (
	"fmt"
	"sync"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
)

// ProviderFactory describes one registrable provider: its identity,
// defaults, best-effort capability set, and a constructor that turns a
// resolved LLMConfig into a concrete capability instance.
type ProviderFactory struct {
	ID                     string
	DisplayName            string
	RequiredAPIKey         bool
	DefaultBaseURL         string
	DefaultModel           string
	BestEffortCapabilities []capability.Capability
	Create                 func(cfg llm.LLMConfig) (any, error)
}

// Registry maps provider id to ProviderFactory. The zero value is not
// usable; construct one with NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

// Register adds a factory under its ID. Registration is idempotent against
// unrelated providers but rejects re-registering an existing ID; use
// RegisterOrReplace to override explicitly.
func (r *Registry) Register(f ProviderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.ID == "" {
		return llm.NewError(llm.KindInvalidRequest, "provider factory has no id")
	}
	if _, exists := r.factories[f.ID]; exists {
		return llm.NewError(llm.KindInvalidRequest, "provider %q is already registered", f.ID)
	}
	r.factories[f.ID] = f
	return nil
}

// RegisterOrReplace adds a factory under its ID, overwriting any existing
// registration for that ID.
func (r *Registry) RegisterOrReplace(f ProviderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.ID == "" {
		return llm.NewError(llm.KindInvalidRequest, "provider factory has no id")
	}
	r.factories[f.ID] = f
	return nil
}

// Lookup returns the factory registered under id.
func (r *Registry) Lookup(id string) (ProviderFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[id]
	return f, ok
}

// IDs returns the currently registered provider ids, in no particular
// order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	return ids
}

// Create resolves the provider factory for cfg.ProviderID and invokes its
// constructor, applying the factory's defaults for any field cfg left
// unset.
func (r *Registry) Create(cfg llm.LLMConfig) (any, error) {
	f, ok := r.Lookup(cfg.ProviderID)
	if !ok {
		return nil, llm.NewError(llm.KindModelNotAvailable, "no provider registered under id %q", cfg.ProviderID)
	}
	if f.RequiredAPIKey && cfg.APIKey == "" {
		return nil, llm.NewError(llm.KindAuth, "provider %q requires an api key", cfg.ProviderID).WithProvider(cfg.ProviderID)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = f.DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = f.DefaultModel
	}
	inst, err := f.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating provider %q: %w", cfg.ProviderID, err)
	}
	return inst, nil
}
