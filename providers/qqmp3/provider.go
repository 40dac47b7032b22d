package qqmp3

import (
	"context"

	"github.com/liuran001/MusicDesk-Go/server"
	"github.com/liuran001/MusicDesk-Go/server/music"
)

// Name is the registry name of this provider.
const Name = "qqmp3"

// DisplayName is what clients show for this provider.
const DisplayName = "QQ音乐解析"

// Provider adapts the qqmp3 JSON API.
type Provider struct {
	client *Client
	logger server.Logger
}

// New creates a qqmp3 provider.
func New(client *Client, logger server.Logger) *Provider {
	return &Provider{client: client, logger: logger}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return Name }

// Metadata returns the provider metadata for the provider selector.
func (p *Provider) Metadata() music.Meta {
	return music.Meta{Name: Name, DisplayName: DisplayName}
}

// Search queries the upstream API. Failures are logged and surface as an
// empty result, never as an error.
func (p *Provider) Search(ctx context.Context, query string) []music.MusicItem {
	list, err := p.client.Search(ctx, query)
	if err != nil {
		p.logger.Warn("qqmp3 search failed", "query", query, "error", err)
		return nil
	}

	items := make([]music.MusicItem, 0, len(list))
	for _, entry := range list {
		items = append(items, music.MusicItem{
			ID:       entry.RID,
			Title:    entry.Name,
			Artist:   entry.Artist,
			Cover:    entry.Pic,
			Provider: Name,
			// Lyrics come from the detail endpoint at resolve time.
			Extra: map[string]string{"lrc": ""},
		})
	}

	p.logger.Debug("qqmp3 search done", "query", query, "results", len(items))
	return items
}

// Resolve asks the detail endpoint for a direct stream URL. The cover is
// deliberately left empty: search results already carry it.
func (p *Provider) Resolve(ctx context.Context, id string, _ map[string]string) (*music.PlayInfo, error) {
	res, err := p.client.Detail(ctx, id)
	if err != nil {
		return nil, &music.ProviderError{Provider: Name, Op: "resolve", ID: id, Err: err}
	}
	if res.Code != 200 || res.Data.URL == "" {
		return nil, music.NewResolutionError(Name, id, res.Msg)
	}

	return &music.PlayInfo{URL: res.Data.URL, Type: "mp3"}, nil
}
