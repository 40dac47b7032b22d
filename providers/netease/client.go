package netease

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/XiaoMengXinX/Music163Api-Go/api"
	"github.com/XiaoMengXinX/Music163Api-Go/types"
	"github.com/XiaoMengXinX/Music163Api-Go/utils"
	"github.com/sony/gobreaker"

	"github.com/liuran001/MusicDesk-Go/server"
)

// Client wraps the NetEase API behind a circuit breaker. Calls are issued
// exactly once: a failed search or resolution is reported, not retried.
type Client struct {
	baseData utils.RequestData
	spoofIP  bool
	breaker  *gobreaker.CircuitBreaker
	logger   server.Logger
}

// Some NetEase endpoints geo-fence to mainland address space. When spoofing
// is enabled each request carries a random plausible mainland IPv4 in the
// usual forwarding headers.
var mainlandIPPrefixes = [][2]uint8{
	{113, 0}, {113, 64}, {113, 128}, {114, 214},
	{118, 122}, {119, 112}, {211, 161}, {221, 238},
	{116, 224}, {222, 128}, {183, 128}, {116, 128},
	{101, 226}, {61, 128},
}

// NewClient creates a NetEase client. musicU is the optional MUSIC_U
// session cookie; without it only standard-quality URLs resolve.
func NewClient(musicU string, spoofIP bool, logger server.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        "netease-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	data := utils.RequestData{}
	if musicU != "" {
		data.Cookies = []*http.Cookie{{Name: "MUSIC_U", Value: musicU}}
		if logger != nil {
			logger.Info("netease client initialized with MUSIC_U cookie")
		}
	}

	return &Client{
		baseData: data,
		spoofIP:  spoofIP,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		logger:   logger,
	}
}

// Search searches songs by keyword.
func (c *Client) Search(ctx context.Context, keyword string, limit int) (*types.SearchSongData, error) {
	var result types.SearchSongData
	err := c.execute(ctx, func() error {
		data, err := api.SearchSong(c.requestData(), api.SearchSongConfig{Keyword: keyword, Limit: limit})
		if err != nil {
			return err
		}
		result = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSongURL retrieves the stream URL for a song at the given quality level.
func (c *Client) GetSongURL(ctx context.Context, musicID int, level string) (*types.SongsURLData, error) {
	var result types.SongsURLData
	err := c.execute(ctx, func() error {
		data, err := api.GetSongURL(c.requestData(), api.SongURLConfig{Ids: []int{musicID}, Level: level})
		if err != nil {
			return err
		}
		result = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (c *Client) requestData() utils.RequestData {
	data := c.baseData

	headers := make(utils.Headers, 0, len(c.baseData.Headers)+4)
	headers = append(headers, c.baseData.Headers...)

	if c.spoofIP {
		if ip, err := randomMainlandIPv4(); err == nil {
			headers = append(headers,
				struct {
					Name  string
					Value string
				}{Name: "X-Real-IP", Value: ip},
				struct {
					Name  string
					Value string
				}{Name: "X-Forwarded-For", Value: ip},
				struct {
					Name  string
					Value string
				}{Name: "HTTP_X_FORWARDED_FOR", Value: ip},
				struct {
					Name  string
					Value string
				}{Name: "CLIENT-IP", Value: ip},
			)
		} else if c.logger != nil {
			c.logger.Warn("failed to generate random spoof ip", "error", err)
		}
	}

	data.Headers = headers
	return data
}

func randomMainlandIPv4() (string, error) {
	prefixIdx, err := cryptoRandInt(len(mainlandIPPrefixes))
	if err != nil {
		return "", err
	}
	prefix := mainlandIPPrefixes[prefixIdx]

	third, err := cryptoRandInt(254)
	if err != nil {
		return "", err
	}
	fourth, err := cryptoRandInt(254)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d.%d.%d.%d", prefix[0], prefix[1], third+1, fourth+1), nil
}

func cryptoRandInt(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("invalid max: %d", max)
	}
	n, err := crand.Int(crand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
