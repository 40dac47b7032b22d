package music

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/liuran001/MusicDesk-Go/server"
	"github.com/liuran001/MusicDesk-Go/server/music/registry"
)

// SelectorAll is the selector value that requests a fan-out across every
// registered provider. An empty selector means the same thing.
const SelectorAll = "all"

// DefaultManager implements the Manager interface by wrapping the registry.
// The provider set is fixed at startup and read-only afterwards, so lookups
// take no locks beyond the registry's own.
type DefaultManager struct {
	registry *registry.Registry
	logger   server.Logger

	mu          sync.RWMutex
	meta        map[string]Meta
	defaultName string
}

// NewManager creates a new manager instance with the default global registry.
func NewManager(logger server.Logger) *DefaultManager {
	return NewManagerWithRegistry(registry.Default, logger)
}

// NewManagerWithRegistry creates a new manager with a custom registry.
// This is useful for testing or isolated instances.
func NewManagerWithRegistry(reg *registry.Registry, logger server.Logger) *DefaultManager {
	return &DefaultManager{
		registry: reg,
		logger:   logger,
		meta:     make(map[string]Meta),
	}
}

// SetDefault configures the provider returned for empty or unknown names.
// When never called (or set to an unregistered name) the first registered
// provider is the default.
func (m *DefaultManager) SetDefault(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = normalizeName(name)
}

// Register adds a provider implementation to the manager.
func (m *DefaultManager) Register(p Provider) error {
	if err := m.registry.Register(p); err != nil {
		return err
	}
	m.mu.Lock()
	m.meta[p.Name()] = buildMeta(p, p.Name())
	m.mu.Unlock()
	return nil
}

// Get retrieves a provider by name. Absent, empty, or unrecognized names
// fall back to the default provider so callers never have to special-case
// unknown selectors. Returns nil only when no provider is registered.
func (m *DefaultManager) Get(name string) Provider {
	if p, ok := m.registry.Get(normalizeName(name)); ok {
		return p.(Provider)
	}
	return m.defaultProvider()
}

func (m *DefaultManager) defaultProvider() Provider {
	m.mu.RLock()
	name := m.defaultName
	m.mu.RUnlock()

	if name != "" {
		if p, ok := m.registry.Get(name); ok {
			return p.(Provider)
		}
	}
	all := m.registry.GetAll()
	if len(all) == 0 {
		return nil
	}
	return all[0].(Provider)
}

// GetAll returns every registered provider in registration order.
func (m *DefaultManager) GetAll() []Provider {
	regs := m.registry.GetAll()
	providers := make([]Provider, 0, len(regs))
	for _, p := range regs {
		providers = append(providers, p.(Provider))
	}
	return providers
}

// Names returns all registered provider names in registration order.
func (m *DefaultManager) Names() []string {
	regs := m.registry.GetAll()
	names := make([]string, 0, len(regs))
	for _, p := range regs {
		names = append(names, p.Name())
	}
	return names
}

// Search dispatches a query to one provider or fans it out to all of them.
//
// The fan-out is a join-all barrier: every provider is queried concurrently
// and the call waits until each has settled. A provider failure (including a
// panic, on top of each provider's own swallow-and-log contract) only
// removes that provider's contribution; it never aborts the others or the
// overall call. Results are concatenated in registration order with no
// cross-provider deduplication: the same track from two sources is two
// distinct entries, told apart by their Provider field.
func (m *DefaultManager) Search(ctx context.Context, query, selector string) []MusicItem {
	selector = normalizeName(selector)
	if selector != "" && selector != SelectorAll {
		p := m.Get(selector)
		if p == nil {
			return nil
		}
		return p.Search(ctx, query)
	}

	providers := m.GetAll()
	if len(providers) == 0 {
		return nil
	}

	results := make([][]MusicItem, len(providers))
	g := new(errgroup.Group)
	for i, p := range providers {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil && m.logger != nil {
					m.logger.Error("provider search panicked", "provider", p.Name(), "panic", r)
				}
			}()
			results[i] = p.Search(ctx, query)
			return nil
		})
	}
	_ = g.Wait()

	var merged []MusicItem
	for _, items := range results {
		merged = append(merged, items...)
	}
	return merged
}

// Resolve dispatches a resolution call to the named provider, falling back
// to the default provider for empty or unknown names like Get does.
func (m *DefaultManager) Resolve(ctx context.Context, providerName, id string, extra map[string]string) (*PlayInfo, error) {
	p := m.Get(providerName)
	if p == nil {
		return nil, ErrNoProviders
	}
	return p.Resolve(ctx, id, extra)
}

// Meta returns metadata for a provider name.
func (m *DefaultManager) Meta(name string) (Meta, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Meta{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.meta[trimmed]
	if !ok {
		return Meta{Name: trimmed, DisplayName: trimmed}, false
	}
	return meta, true
}

// ListMeta returns metadata for all registered providers in registration
// order.
func (m *DefaultManager) ListMeta() []Meta {
	names := m.Names()
	metas := make([]Meta, 0, len(names))
	for _, name := range names {
		meta, _ := m.Meta(name)
		metas = append(metas, meta)
	}
	return metas
}
