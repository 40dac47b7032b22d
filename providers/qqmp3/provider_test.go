package qqmp3

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liuran001/MusicDesk-Go/server"
	"github.com/liuran001/MusicDesk-Go/server/music"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)      {}
func (nopLogger) Info(string, ...any)       {}
func (nopLogger) Warn(string, ...any)       {}
func (nopLogger) Error(string, ...any)      {}
func (nopLogger) With(...any) server.Logger { return nopLogger{} }

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client := NewClient(Options{BaseURL: ts.URL, Logger: nopLogger{}})
	return New(client, nopLogger{})
}

func TestSearchMapsItems(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/songs.php" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("type"); got != "search" {
			t.Errorf("expected type=search, got %q", got)
		}
		if got := r.URL.Query().Get("keyword"); got != "周杰伦" {
			t.Errorf("expected keyword passthrough, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
{"rid":"101","name":"晴天","artist":"周杰伦","pic":"https://img/1.jpg","downurl":[]},
{"rid":"102","name":"稻香","artist":"周杰伦","pic":"https://img/2.jpg","downurl":[]}
]}`))
	}))

	items := p.Search(context.Background(), "周杰伦")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "101" || first.Title != "晴天" || first.Artist != "周杰伦" {
		t.Fatalf("unexpected mapping: %+v", first)
	}
	if first.Cover != "https://img/1.jpg" {
		t.Fatalf("unexpected cover: %s", first.Cover)
	}
	if first.Provider != Name {
		t.Fatalf("unexpected provider: %s", first.Provider)
	}
	if _, ok := first.Extra["lrc"]; !ok {
		t.Fatal("expected lrc placeholder in extra")
	}
}

func TestSearchNonArrayDataIsEmpty(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":"no result"}`))
	}))

	if items := p.Search(context.Background(), "nothing"); len(items) != 0 {
		t.Fatalf("expected empty result, got %+v", items)
	}
}

func TestSearchSwallowsServerFailure(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if items := p.Search(context.Background(), "anything"); len(items) != 0 {
		t.Fatalf("expected empty result, got %+v", items)
	}
}

func TestResolveSuccess(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/kw.php" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("rid") != "101" || q.Get("type") != "json" || q.Get("level") != "exhigh" || q.Get("lrc") != "true" {
			t.Errorf("unexpected detail params: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200,"msg":"ok","data":{"lrc":"[00:00]...","url":"https://cdn.example.com/t.mp3","processing_time":"0.2s"}}`))
	}))

	info, err := p.Resolve(context.Background(), "101", map[string]string{"lrc": ""})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if info.URL != "https://cdn.example.com/t.mp3" || info.Type != "mp3" {
		t.Fatalf("unexpected play info: %+v", info)
	}
	if info.Cover != "" {
		t.Fatalf("cover must stay empty at resolve time, got %s", info.Cover)
	}
}

func TestResolveSourceFailure(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":500,"msg":"资源不可用","data":{"lrc":"","url":"","processing_time":""}}`))
	}))

	_, err := p.Resolve(context.Background(), "101", nil)
	if !errors.Is(err, music.ErrResolution) {
		t.Fatalf("expected ErrResolution, got %v", err)
	}
}

func TestResolveEmptyURLIsFailure(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200,"msg":"ok","data":{"lrc":"","url":"","processing_time":""}}`))
	}))

	_, err := p.Resolve(context.Background(), "101", nil)
	if !errors.Is(err, music.ErrResolution) {
		t.Fatalf("expected ErrResolution for missing url, got %v", err)
	}
}
