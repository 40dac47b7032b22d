package netease

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/liuran001/MusicDesk-Go/server"
	"github.com/liuran001/MusicDesk-Go/server/music"
)

// Name is the registry name of this provider.
const Name = "netease"

// DisplayName is what clients show for this provider.
const DisplayName = "网易云音乐"

// searchLimit bounds how many songs one search pulls from the API.
const searchLimit = 30

// Provider adapts the NetEase Cloud Music API.
type Provider struct {
	client *Client
	level  string
	logger server.Logger
}

// New creates a NetEase provider. level is the quality level requested at
// resolution time ("standard", "exhigh", "lossless"); empty means exhigh.
func New(client *Client, level string, logger server.Logger) *Provider {
	if level == "" {
		level = "exhigh"
	}
	return &Provider{client: client, level: level, logger: logger}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return Name }

// Metadata returns the provider metadata for the provider selector.
func (p *Provider) Metadata() music.Meta {
	return music.Meta{Name: Name, DisplayName: DisplayName}
}

// Search queries the NetEase search API. Failures are logged and surface as
// an empty result, never as an error.
func (p *Provider) Search(ctx context.Context, query string) []music.MusicItem {
	result, err := p.client.Search(ctx, query, searchLimit)
	if err != nil {
		p.logger.Warn("netease search failed", "query", query, "error", err)
		return nil
	}

	items := make([]music.MusicItem, 0, len(result.Result.Songs))
	for _, song := range result.Result.Songs {
		names := make([]string, 0, len(song.Artists))
		for _, ar := range song.Artists {
			if ar.Name != "" {
				names = append(names, ar.Name)
			}
		}
		artist := strings.Join(names, "/")
		if artist == "" {
			artist = music.UnknownArtist
		}

		item := music.MusicItem{
			ID:       strconv.Itoa(song.Id),
			Title:    song.Name,
			Artist:   artist,
			Album:    song.Album.Name,
			Duration: formatDuration(song.Duration),
			Provider: Name,
		}
		if song.Album.PicId != 0 {
			item.Cover = fmt.Sprintf("https://p4.music.126.net/%d/%d.jpg", song.Album.PicId, song.Album.PicId)
		}
		items = append(items, item)
	}

	p.logger.Debug("netease search done", "query", query, "results", len(items))
	return items
}

// Resolve asks the song-url API for a direct stream URL at the configured
// quality level.
func (p *Provider) Resolve(ctx context.Context, id string, _ map[string]string) (*music.PlayInfo, error) {
	musicID, err := strconv.Atoi(id)
	if err != nil {
		return nil, music.NewNotFoundError(Name, id)
	}

	result, err := p.client.GetSongURL(ctx, musicID, p.level)
	if err != nil {
		return nil, &music.ProviderError{Provider: Name, Op: "resolve", ID: id, Err: err}
	}
	if len(result.Data) == 0 || result.Data[0].Url == "" {
		return nil, music.NewResolutionError(Name, id, "no stream url (possibly VIP-only)")
	}

	urlData := result.Data[0]
	info := &music.PlayInfo{URL: urlData.Url, Type: "mp3"}
	if urlData.Type != "" {
		info.Type = strings.ToLower(urlData.Type)
	}
	if urlData.Br > 0 {
		info.Bitrate = fmt.Sprintf("%dkbps", urlData.Br/1000)
	}
	return info, nil
}

// formatDuration renders a millisecond track length as m:ss.
func formatDuration(ms int) string {
	if ms <= 0 {
		return ""
	}
	totalSec := ms / 1000
	return fmt.Sprintf("%d:%02d", totalSec/60, totalSec%60)
}
