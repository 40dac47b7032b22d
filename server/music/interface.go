package music

import "context"

// Provider defines the interface that all music source implementations must
// satisfy. A provider translates one external source's request/response
// shapes into the normalized model.
//
// Provider implementations should be safe for concurrent use by multiple
// goroutines and hold no per-call mutable state.
type Provider interface {
	// Name returns the provider identifier (e.g., "gequbao", "qqmp3").
	// This name should be lowercase and URL-safe.
	Name() string

	// Search returns tracks matching the query string. Search is
	// best-effort by contract: on any internal failure (network, parse,
	// unexpected shape) the provider logs and returns an empty slice so
	// that one broken source can never poison a multi-provider fan-out.
	Search(ctx context.Context, query string) []MusicItem

	// Resolve turns a track ID from an earlier Search into a playable
	// URL. extra is the opaque payload carried from the search result,
	// passed through unchanged.
	//
	// Unlike Search, Resolve reports failure: it is invoked for exactly
	// one user-chosen item and there is no fallback source to mask an
	// error with. Returned errors wrap ErrExtraction or ErrResolution.
	Resolve(ctx context.Context, id string, extra map[string]string) (*PlayInfo, error)
}

// Manager provides a registry for multiple provider implementations and the
// aggregation operations the route layer calls.
type Manager interface {
	// Register adds a provider. Registration order is preserved and
	// determines merge order for fan-out searches.
	Register(p Provider) error

	// Get retrieves a provider by name. Empty or unknown names return the
	// default provider; callers never have to special-case "unknown
	// provider" before searching. Returns nil only when nothing is
	// registered.
	Get(name string) Provider

	// GetAll returns every registered provider in registration order.
	GetAll() []Provider

	// Names returns all registered provider names in registration order.
	Names() []string

	// Search dispatches a query. A selector naming one provider delegates
	// to it alone; an empty selector or "all" fans out to every provider
	// concurrently and concatenates results in registration order. Search
	// never fails: a provider outage surfaces as a missing contribution.
	Search(ctx context.Context, query, selector string) []MusicItem

	// Resolve dispatches a resolution call to the named provider
	// (falling back to the default for unknown names, like Get).
	Resolve(ctx context.Context, providerName, id string, extra map[string]string) (*PlayInfo, error)

	// Meta returns metadata for a provider name.
	Meta(name string) (Meta, bool)

	// ListMeta returns metadata for all registered providers.
	ListMeta() []Meta
}
