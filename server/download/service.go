package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/liuran001/MusicDesk-Go/server"
	"github.com/liuran001/MusicDesk-Go/server/worker"
)

// browserUA is sent on every upstream fetch. Several sources return 403 to
// non-browser user agents on their media hosts.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

// providerReferers maps a provider name to the referer its media host
// expects. Unknown providers get no referer.
var providerReferers = map[string]string{
	"gequbao": "https://www.gequbao.com/",
	"qqmp3":   "https://www.qqmp3.vip/",
	"netease": "https://music.163.com/",
}

// Request describes one proxied download.
type Request struct {
	// URL is the already-resolved upstream media URL.
	URL string

	// Provider names the source the URL came from; it selects the referer
	// and the rate-limit bucket.
	Provider string

	// Filename is the client-facing attachment name, extension included.
	Filename string

	// Type is the audio container hint from resolution ("mp3", "flac").
	// Used when the upstream response carries no usable content type.
	Type string
}

// Service proxies media downloads. Fetches retry on transient upstream
// errors, are rate limited per provider, and run on a bounded worker pool.
type Service struct {
	client  *retryablehttp.Client
	limiter *ProviderLimiter
	pool    *worker.Pool
	logger  server.Logger
}

// Options configures a Service.
type Options struct {
	Timeout       time.Duration
	Retries       int
	RatePerSecond float64
	RateBurst     int
	Pool          *worker.Pool
	Logger        server.Logger
}

// NewService creates a download service.
func NewService(opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   minDuration(opts.Timeout, 10*time.Second),
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   minDuration(opts.Timeout, 10*time.Second),
		ResponseHeaderTimeout: opts.Timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.Retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	client.HTTPClient = &http.Client{Transport: transport}

	return &Service{
		client:  client,
		limiter: NewProviderLimiter(opts.RatePerSecond, opts.RateBurst),
		pool:    opts.Pool,
		logger:  opts.Logger,
	}
}

// Stream fetches the upstream media and writes it to w as an attachment.
// The call occupies one pool worker for its whole duration. A client that
// goes away while the request is still queued stops waiting; the queued
// task then sees the dead context and never touches w.
func (s *Service) Stream(ctx context.Context, w http.ResponseWriter, req Request) error {
	if req.URL == "" {
		return errors.New("download: url missing")
	}
	if s.pool == nil {
		return s.stream(ctx, w, req)
	}
	return s.pool.SubmitWaitContext(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return s.stream(ctx, w, req)
	})
}

func (s *Service) stream(ctx context.Context, w http.ResponseWriter, req Request) error {
	if err := s.limiter.Wait(ctx, req.Provider); err != nil {
		return err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("User-Agent", browserUA)
	if referer, ok := providerReferers[req.Provider]; ok {
		httpReq.Header.Set("Referer", referer)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("download: upstream fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: upstream status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = guessMediaType(req.Type)
	}
	w.Header().Set("Content-Type", contentType)
	if resp.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}
	w.Header().Set("Content-Disposition", contentDisposition(req.Filename))

	start := time.Now()
	written, err := io.Copy(w, resp.Body)
	if err != nil {
		// Headers are long gone; all we can do is log the broken stream.
		if s.logger != nil {
			s.logger.Warn("download stream interrupted",
				"provider", req.Provider, "bytes", written, "error", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Info("download streamed",
			"provider", req.Provider, "bytes", written, "duration", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// contentDisposition builds an attachment header that survives non-ASCII
// filenames: a sanitized ASCII fallback plus an RFC 5987 encoded full name.
func contentDisposition(filename string) string {
	if filename == "" {
		filename = "download.mp3"
	}
	filename = SanitizeFilename(filename)

	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)

	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		fallback, encodeRFC5987(filename))
}

func encodeRFC5987(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// SanitizeFilename strips path separators and control characters from a
// client-facing filename and bounds its length.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	const maxLen = 200
	if len(name) > maxLen {
		ext := ""
		if idx := strings.LastIndex(name, "."); idx > 0 && len(name)-idx <= 8 {
			ext = name[idx:]
		}
		cut := maxLen - len(ext)
		for cut > 0 && !isRuneBoundary(name, cut) {
			cut--
		}
		name = name[:cut] + ext
	}
	if name == "" {
		name = "download"
	}
	return name
}

func isRuneBoundary(s string, i int) bool {
	return i == 0 || i == len(s) || (s[i]&0xc0) != 0x80
}

// guessMediaType maps an audio container hint to a MIME type, falling back
// on the extension tables.
func guessMediaType(typ string) string {
	switch strings.ToLower(typ) {
	case "mp3":
		return "audio/mpeg"
	case "m4a", "mp4":
		return "audio/mp4"
	case "flac":
		return "audio/flac"
	case "ogg":
		return "audio/ogg"
	case "wav":
		return "audio/wav"
	}
	if mt := mime.TypeByExtension("." + strings.ToLower(typ)); mt != "" {
		return mt
	}
	return "audio/mpeg"
}

func minDuration(a, b time.Duration) time.Duration {
	if a == 0 || a > b {
		return b
	}
	return a
}
