package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/liuran001/MusicDesk-Go/server/worker"
)

func TestStreamProxiesBody(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	var gotUA, gotReferer string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte(payload))
	}))
	defer upstream.Close()

	s := NewService(Options{})
	rec := httptest.NewRecorder()
	err := s.Stream(context.Background(), rec, Request{
		URL:      upstream.URL,
		Provider: "gequbao",
		Filename: "晴天 - 周杰伦.mp3",
		Type:     "mp3",
	})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	if rec.Body.String() != payload {
		t.Fatalf("body mismatch: got %d bytes", rec.Body.Len())
	}
	if !strings.Contains(gotUA, "Mozilla/5.0") {
		t.Fatalf("expected browser user agent, got %q", gotUA)
	}
	if gotReferer != "https://www.gequbao.com/" {
		t.Fatalf("expected provider referer, got %q", gotReferer)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "filename*=UTF-8''") {
		t.Fatalf("expected RFC 5987 filename, got %q", cd)
	}
}

func TestStreamUpstreamErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer upstream.Close()

	s := NewService(Options{})
	rec := httptest.NewRecorder()
	err := s.Stream(context.Background(), rec, Request{URL: upstream.URL, Provider: "qqmp3"})
	if err == nil {
		t.Fatal("expected error for upstream 403")
	}
}

func TestStreamRetriesTransientFailure(t *testing.T) {
	var calls int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	s := NewService(Options{Retries: 2})
	rec := httptest.NewRecorder()
	if err := s.Stream(context.Background(), rec, Request{URL: upstream.URL}); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestStreamAbandonedWhilePoolBusy(t *testing.T) {
	pool := worker.New(1)
	defer func() { _ = pool.Shutdown(context.Background()) }()

	block := make(chan struct{})
	defer close(block)
	if err := pool.Submit(func() { <-block }); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	s := NewService(Options{Pool: pool})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	rec := httptest.NewRecorder()
	err := s.Stream(ctx, rec, Request{URL: "http://127.0.0.1:1/never", Provider: "gequbao"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline exceeded, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("abandoned stream must not write to the response, got %d bytes", rec.Body.Len())
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"晴天 - 周杰伦.mp3", "晴天 - 周杰伦.mp3"},
		{`a/b\c:d*e?f"g<h>i|j.mp3`, "a_b_c_d_e_f_g_h_i_j.mp3"},
		{"  trimmed.mp3  ", "trimmed.mp3"},
		{"", "download"},
		{"\x01\x02.mp3", ".mp3"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestSanitizeFilenameBoundsLength(t *testing.T) {
	long := strings.Repeat("很", 200) + ".flac"
	got := SanitizeFilename(long)
	if len(got) > 200 {
		t.Fatalf("expected bounded length, got %d", len(got))
	}
	if !strings.HasSuffix(got, ".flac") {
		t.Fatalf("expected extension preserved, got %q", got)
	}
}

func TestProviderLimiterThrottles(t *testing.T) {
	l := NewProviderLimiter(10, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background(), "src"); err != nil {
			t.Fatalf("wait failed: %v", err)
		}
	}
	// 1 burst token + 2 waits at 10/s needs roughly 200ms.
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("expected throttling, finished in %v", elapsed)
	}
}

func TestProviderLimiterDisabled(t *testing.T) {
	l := NewProviderLimiter(0, 0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background(), "src"); err != nil {
			t.Fatalf("wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("expected no throttling, took %v", elapsed)
	}
}

func TestProviderLimiterIsPerProvider(t *testing.T) {
	l := NewProviderLimiter(1, 1)

	// Each provider has its own burst token, so two different providers
	// both proceed immediately.
	start := time.Now()
	if err := l.Wait(context.Background(), "a"); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if err := l.Wait(context.Background(), "b"); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("expected independent buckets, took %v", elapsed)
	}
}

func TestGuessMediaType(t *testing.T) {
	cases := map[string]string{
		"mp3":  "audio/mpeg",
		"MP3":  "audio/mpeg",
		"flac": "audio/flac",
		"m4a":  "audio/mp4",
		"":     "audio/mpeg",
	}
	for in, want := range cases {
		if got := guessMediaType(in); got != want {
			t.Errorf("guessMediaType(%q): expected %q, got %q", in, want, got)
		}
	}
}
