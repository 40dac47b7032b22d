package music

import "strings"

// Meta describes optional provider metadata used by the UI's provider
// selector.
type Meta struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// MetadataProvider can be implemented by providers to expose metadata.
type MetadataProvider interface {
	Metadata() Meta
}

func buildMeta(p Provider, name string) Meta {
	meta := Meta{}
	if provider, ok := p.(MetadataProvider); ok {
		meta = provider.Metadata()
	}
	if meta.Name == "" {
		meta.Name = name
	}
	if meta.DisplayName == "" {
		meta.DisplayName = meta.Name
	}
	return meta
}

// normalizeName prepares a provider name token for lookup.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
