package provider

import "sync"

// Registry holds named providers and serves lookups with a default
// fallback: an unrecognized name yields the default provider, never an
// error. Registration happens at startup; lookups are concurrent.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	defaultName string
}

// NewRegistry constructs an empty registry whose Get falls back to
// defaultName.
func NewRegistry(defaultName string) *Registry {
	return &Registry{
		providers:   make(map[string]Provider),
		defaultName: defaultName,
	}
}

// Register adds or replaces a provider under its own name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	r.providers[p.Name()] = p
	r.mu.Unlock()
}

// Get returns the provider registered under name, or the default provider
// when the name is unknown or empty. Returns nil only if the default itself
// was never registered.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[name]; ok {
		return p
	}
	return r.providers[r.defaultName]
}
