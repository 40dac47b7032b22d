package qqmp3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/liuran001/MusicDesk-Go/server"
)

const defaultBaseURL = "https://api.qqmp3.vip"

const maxBodySize = 5 << 20

// requestHeaders mirrors the browser profile the site's own frontend sends.
// The API is CORS-gated on origin/referer, so the whole set is a
// compatibility requirement.
var requestHeaders = map[string]string{
	"Accept":             "*/*",
	"Accept-Language":    "zh-CN,zh;q=0.9,en;q=0.8",
	"Origin":             "https://www.qqmp3.vip",
	"Priority":           "u=1, i",
	"Referer":            "https://www.qqmp3.vip/",
	"Sec-Ch-Ua":          `"Google Chrome";v="143", "Chromium";v="143", "Not A(Brand";v="24"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"Windows"`,
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-site",
	"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
}

// searchItem is one entry of the search endpoint's data array.
type searchItem struct {
	RID    string `json:"rid"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Pic    string `json:"pic"`
}

// searchResponse wraps the search payload. Data stays raw because the API
// answers errors with a non-array data field instead of an error status.
type searchResponse struct {
	Data json.RawMessage `json:"data"`
}

type detailResponse struct {
	Code int `json:"code"`
	Data struct {
		Lrc            string `json:"lrc"`
		URL            string `json:"url"`
		ProcessingTime string `json:"processing_time"`
	} `json:"data"`
	Msg string `json:"msg"`
}

// Client talks to the qqmp3 JSON API.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	baseURL    string
	logger     server.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  server.Logger
}

// NewClient creates a qqmp3 client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "qqmp3",
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
		baseURL:    opts.BaseURL,
		logger:     opts.Logger,
	}
}

// Search queries the song search endpoint. A data field that is not an
// array (how the API reports "nothing found") comes back as an empty slice,
// not an error.
func (c *Client) Search(ctx context.Context, keyword string) ([]searchItem, error) {
	params := url.Values{}
	params.Set("type", "search")
	params.Set("keyword", keyword)

	body, err := c.get(ctx, "/api/songs.php", params)
	if err != nil {
		return nil, err
	}

	var envelope searchResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("qqmp3: decode search response: %w", err)
	}

	var list []searchItem
	if err := json.Unmarshal(envelope.Data, &list); err != nil {
		return nil, nil
	}
	return list, nil
}

// Detail fetches the playback detail for a track.
func (c *Client) Detail(ctx context.Context, rid string) (*detailResponse, error) {
	params := url.Values{}
	params.Set("rid", rid)
	params.Set("type", "json")
	params.Set("level", "exhigh")
	params.Set("lrc", "true")

	body, err := c.get(ctx, "/api/kw.php", params)
	if err != nil {
		return nil, err
	}

	var res detailResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("qqmp3: decode detail response: %w", err)
	}
	return &res, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		for name, value := range requestHeaders {
			req.Header.Set(name, value)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("qqmp3: unexpected status %s", resp.Status)
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
