package llmclient

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lookatitude/policyopt/config"
)

// Factory constructs a Client from provider configuration. Provider
// packages register a Factory under their name from an init() function.
type Factory func(cfg config.ProviderConfig) (Client, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register associates name with factory, overwriting any existing
// registration for that name.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates a Client for modelSpec, a "provider:model" identifier (e.g.
// "anthropic:claude-sonnet-4-5-20250929"). The provider portion selects the
// registered Factory; the model portion is written into cfg.Model before
// the factory runs, overriding whatever cfg.Model already held.
func New(modelSpec string, cfg config.ProviderConfig) (Client, error) {
	provider, model, ok := strings.Cut(modelSpec, ":")
	if !ok {
		return nil, fmt.Errorf("llmclient: model identifier %q is not in \"provider:model\" form", modelSpec)
	}

	registryMu.RLock()
	factory, ok := registry[provider]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("llmclient: unknown provider %q", provider)
	}

	cfg.Model = model
	return factory(cfg)
}

// List returns the sorted names of all registered providers.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
