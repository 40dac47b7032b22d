package registry

import (
	"errors"
	"sync"
)

// Provider is the subset of the music provider contract the registry needs.
// Keeping the dependency this thin lets the registry be tested in isolation.
type Provider interface {
	// Name returns the provider's unique identifier.
	Name() string
}

// Registry manages registered Provider implementations in a thread-safe
// manner. Registration order is preserved: fan-out searches merge results in
// the order providers were registered.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	ordered   []Provider
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		ordered:   make([]Provider, 0),
	}
}

// Register adds a provider to the registry.
// Returns an error if the provider is nil, has an empty name, or is already
// registered.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New("provider cannot be nil")
	}

	name := p.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return errors.New("provider already registered: " + name)
	}

	r.providers[name] = p
	r.ordered = append(r.ordered, p)

	return nil
}

// Get retrieves a provider by name.
// Returns the provider and true if found, or nil and false if not found.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	return p, ok
}

// GetAll returns all registered providers in registration order.
// The returned slice is a copy and safe for concurrent use.
func (r *Registry) GetAll() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Provider, 0, len(r.ordered))
	result = append(result, r.ordered...)

	return result
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// Reset clears all registered providers.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[string]Provider)
	r.ordered = r.ordered[:0]
}

// Default is the global default registry instance.
var Default = New()
