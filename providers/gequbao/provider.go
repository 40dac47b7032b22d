package gequbao

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/liuran001/MusicDesk-Go/server"
	"github.com/liuran001/MusicDesk-Go/server/music"
)

// Name is the registry name of this provider.
const Name = "gequbao"

// DisplayName is what clients show for this provider.
const DisplayName = "歌曲宝"

var (
	trackHrefPattern = regexp.MustCompile(`/music/([0-9]+)`)
	whitespaceRuns   = regexp.MustCompile(`\s+`)
	appDataPattern   = regexp.MustCompile(`window\.appData\s*=\s*(\{[\s\S]*?\});`)
)

// chromeLabels are anchor texts that link to a track page but are UI chrome,
// not track titles.
var chromeLabels = map[string]bool{
	"播放&下载": true,
	"播放":    true,
	"下载":    true,
}

// promoPrefix marks the "somebody just downloaded..." ticker links that also
// point at track pages.
const promoPrefix = "网友刚刚下载了"

// Provider scrapes the gequbao site. The site ships no JSON search API, so
// search works off the rendered result page and playback needs a second
// round trip through the track page to pick up the play token.
type Provider struct {
	client *Client
	logger server.Logger
}

// New creates a gequbao provider.
func New(client *Client, logger server.Logger) *Provider {
	return &Provider{client: client, logger: logger}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return Name }

// Metadata returns the provider metadata for the provider selector.
func (p *Provider) Metadata() music.Meta {
	return music.Meta{Name: Name, DisplayName: DisplayName}
}

// Search scrapes the search result page for the query. Failures are logged
// and surface as an empty result, never as an error.
func (p *Provider) Search(ctx context.Context, query string) []music.MusicItem {
	page, err := p.client.SearchPage(ctx, query)
	if err != nil {
		p.logger.Warn("gequbao search failed", "query", query, "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		p.logger.Warn("gequbao search page unparseable", "query", query, "error", err)
		return nil
	}

	items := parseSearch(doc)
	p.logger.Debug("gequbao search done", "query", query, "results", len(items))
	return items
}

// parseSearch extracts track entries from a search result document.
//
// The page carries no stable result-list markup, so extraction anchors on
// the one invariant the site has kept across redesigns: every result links
// to /music/<id>. Artist attribution is best effort, tried in order of
// reliability: a singer link in the same row, a "title - artist" split of
// the row text, then a split of the anchor text itself.
func parseSearch(doc *goquery.Document) []music.MusicItem {
	var items []music.MusicItem

	doc.Find(`a[href^="/music/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		match := trackHrefPattern.FindStringSubmatch(href)
		if match == nil {
			return
		}
		id := match[1]

		title := collapseSpace(a.Text())
		if title == "" || chromeLabels[title] || strings.HasPrefix(title, promoPrefix) {
			return
		}

		artist := ""
		if row := a.Closest("li, div, tr"); row.Length() > 0 {
			if link := row.Find(`a[href*="/singer/"], a[href*="/artist/"]`); link.Length() > 0 {
				artist = collapseSpace(link.Text())
			}
			if artist == "" {
				rowText := collapseSpace(row.Text())
				if strings.Contains(rowText, " - ") {
					parts := splitNonBlank(rowText, " - ")
					if len(parts) >= 2 && strings.Contains(parts[0], title) {
						artist = strings.TrimSpace(parts[1])
					}
				}
			}
		}

		// Last resort: the anchor text itself is often "title - artist".
		if artist == "" {
			sep := "-"
			if strings.Contains(title, " - ") {
				sep = " - "
			}
			if parts := strings.SplitN(title, sep, 2); len(parts) == 2 && strings.TrimSpace(parts[1]) != "" {
				artist = strings.TrimSpace(parts[1])
			}
		}

		if artist != "" {
			for _, suffix := range []string{" - " + artist, "-" + artist} {
				if strings.Contains(title, suffix) {
					title = strings.TrimSpace(strings.Replace(title, suffix, "", 1))
					break
				}
			}
		} else {
			artist = music.UnknownArtist
		}

		items = append(items, music.MusicItem{
			ID:       id,
			Title:    title,
			Artist:   artist,
			Provider: Name,
		})
	})

	return dedupItems(items)
}

// dedupItems drops repeat (id, title) pairs, keeping the first occurrence.
// The same track anchor appears several times per result row.
func dedupItems(items []music.MusicItem) []music.MusicItem {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		key := item.ID + "-" + item.Title
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
}

func splitNonBlank(s, sep string) []string {
	var parts []string
	for _, part := range strings.Split(s, sep) {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

type appData struct {
	PlayID string
	Cover  string
}

// extractAppData pulls the inline window.appData object out of a track page.
func extractAppData(page string) (appData, error) {
	match := appDataPattern.FindStringSubmatch(page)
	if match == nil {
		return appData{}, errors.New("no appData object in page")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(match[1]), &raw); err != nil {
		return appData{}, err
	}

	data := appData{
		PlayID: stringField(raw, "play_id"),
		Cover:  stringField(raw, "mp3_cover"),
	}
	if data.PlayID == "" {
		return appData{}, errors.New("appData has no play_id")
	}
	return data, nil
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Resolve fetches the track page, extracts the play token, and exchanges it
// for a direct stream URL.
func (p *Provider) Resolve(ctx context.Context, id string, _ map[string]string) (*music.PlayInfo, error) {
	page, pageURL, err := p.client.TrackPage(ctx, id)
	if err != nil {
		return nil, &music.ProviderError{Provider: Name, Op: "resolve", ID: id, Err: err}
	}

	data, err := extractAppData(page)
	if err != nil {
		p.logger.Warn("gequbao track page missing play token", "id", id, "error", err)
		return nil, music.NewExtractionError(Name, id)
	}

	res, err := p.client.PlayURL(ctx, data.PlayID, pageURL)
	if err != nil {
		return nil, &music.ProviderError{Provider: Name, Op: "resolve", ID: id, Err: err}
	}
	if res.Code != 1 || res.Data.URL == "" {
		return nil, music.NewResolutionError(Name, id, res.Msg)
	}

	return &music.PlayInfo{
		URL:   res.Data.URL,
		Type:  "mp3",
		Cover: data.Cover,
	}, nil
}
