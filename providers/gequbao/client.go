package gequbao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/liuran001/MusicDesk-Go/server"
)

const defaultBaseURL = "https://www.gequbao.com"

// maxBodySize caps how much of an upstream response is read. Search pages
// are well under 1MB; anything larger is not a page we want to parse.
const maxBodySize = 5 << 20

// pageHeaders is the browser profile for document navigation requests. The
// site rejects or degrades responses for non-browser traffic, so every value
// here is a compatibility requirement; update the whole set together when
// the site changes its bot detection.
var pageHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Language":           "zh-CN,zh;q=0.9,en;q=0.8",
	"Cache-Control":             "max-age=0",
	"Priority":                  "u=0, i",
	"Sec-Ch-Ua":                 `"Google Chrome";v="143", "Chromium";v="143", "Not A(Brand";v="24"`,
	"Sec-Ch-Ua-Mobile":          "?0",
	"Sec-Ch-Ua-Platform":        `"Windows"`,
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "same-origin",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
}

// apiHeaders is the XHR-style profile for the play-url endpoint.
var apiHeaders = map[string]string{
	"Accept":             "application/json, text/javascript, */*; q=0.01",
	"Accept-Language":    "zh-CN,zh;q=0.9,en;q=0.8",
	"Content-Type":       "application/x-www-form-urlencoded; charset=UTF-8",
	"Priority":           "u=1, i",
	"Sec-Ch-Ua":          `"Google Chrome";v="143", "Chromium";v="143", "Not A(Brand";v="24"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"Windows"`,
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-origin",
	"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
	"X-Requested-With":   "XMLHttpRequest",
}

// Client talks to the gequbao site. All outbound calls go through a circuit
// breaker so a source that starts failing is left alone for a while instead
// of being hammered.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	baseURL    string
	logger     server.Logger
}

// Options configures a Client. The zero value of every field has a usable
// default; BaseURL is overridable for tests.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  server.Logger
}

// NewClient creates a gequbao client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "gequbao",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		logger:     opts.Logger,
	}
}

// SearchPage fetches the search results document for the query.
func (c *Client) SearchPage(ctx context.Context, query string) (string, error) {
	return c.getPage(ctx, c.baseURL+"/s/"+url.PathEscape(query))
}

// TrackPage fetches the track detail document. The returned page URL is
// needed as the referer of the follow-up play-url call.
func (c *Client) TrackPage(ctx context.Context, id string) (html, pageURL string, err error) {
	pageURL = c.baseURL + "/music/" + id
	html, err = c.getPage(ctx, pageURL)
	return html, pageURL, err
}

type playURLResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

// PlayURL posts the playback token extracted from a track page to the
// play-url endpoint. referer must be the track page URL.
func (c *Client) PlayURL(ctx context.Context, playID, referer string) (*playURLResponse, error) {
	form := "id=" + url.QueryEscape(playID)
	body, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/play-url", strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		applyHeaders(req, apiHeaders)
		req.Header.Set("Origin", c.baseURL)
		req.Header.Set("Referer", referer)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var res playURLResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("gequbao: decode play-url response: %w", err)
	}
	return &res, nil
}

func (c *Client) getPage(ctx context.Context, rawURL string) (string, error) {
	body, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		applyHeaders(req, pageHeaders)
		req.Header.Set("Referer", c.baseURL+"/")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gequbao: unexpected status %s", resp.Status)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func applyHeaders(req *http.Request, headers map[string]string) {
	for name, value := range headers {
		req.Header.Set(name, value)
	}
}
