package music

import (
	"errors"
	"fmt"
)

// Common provider errors that can be checked with errors.Is.
var (
	// ErrNotFound is returned when a track cannot be located at the source.
	ErrNotFound = errors.New("music: resource not found")

	// ErrExtraction is returned when the metadata a resolution depends on
	// (an embedded token, a data blob inside a page) cannot be located or
	// parsed.
	ErrExtraction = errors.New("music: embedded metadata extraction failed")

	// ErrResolution is returned when the source's own API reports a
	// non-success status or omits the media URL.
	ErrResolution = errors.New("music: source reported failure")

	// ErrNoProviders is returned by manager operations when no provider
	// has been registered at all.
	ErrNoProviders = errors.New("music: no providers registered")
)

// ProviderError wraps an error with provider-specific context so callers can
// both check the underlying kind with errors.Is and report which source and
// track the failure belongs to.
type ProviderError struct {
	// Provider is the name of the provider that returned the error.
	Provider string

	// Op is the operation that failed (e.g., "search", "resolve").
	Op string

	// ID is the track identifier involved (if applicable).
	ID string

	// Msg carries the source's own error message when it reported one.
	Msg string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch {
	case e.ID != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s %s: %s: %v", e.Provider, e.Op, e.ID, e.Msg, e.Err)
	case e.ID != "":
		return fmt.Sprintf("%s: %s %s: %v", e.Provider, e.Op, e.ID, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s: %s: %v", e.Provider, e.Op, e.Msg, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
	}
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a ProviderError for a failed metadata
// extraction during resolution.
func NewExtractionError(provider, id string) error {
	return &ProviderError{
		Provider: provider,
		Op:       "resolve",
		ID:       id,
		Err:      ErrExtraction,
	}
}

// NewResolutionError creates a ProviderError for a source API that reported
// a non-success status. msg is the source's message when available.
func NewResolutionError(provider, id, msg string) error {
	return &ProviderError{
		Provider: provider,
		Op:       "resolve",
		ID:       id,
		Msg:      msg,
		Err:      ErrResolution,
	}
}

// NewNotFoundError creates a ProviderError for a track that was not found.
func NewNotFoundError(provider, id string) error {
	return &ProviderError{
		Provider: provider,
		Op:       "resolve",
		ID:       id,
		Err:      ErrNotFound,
	}
}
