package music

import (
	"context"
	"errors"
	"testing"

	"github.com/liuran001/MusicDesk-Go/server/music/registry"
)

type stubProvider struct {
	name    string
	items   []MusicItem
	info    *PlayInfo
	err     error
	panics  bool
	queries []string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, query string) []MusicItem {
	s.queries = append(s.queries, query)
	if s.panics {
		panic("broken provider")
	}
	return s.items
}

func (s *stubProvider) Resolve(ctx context.Context, id string, extra map[string]string) (*PlayInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

func newTestManager(t *testing.T, providers ...*stubProvider) *DefaultManager {
	t.Helper()
	m := NewManagerWithRegistry(registry.New(), nil)
	for _, p := range providers {
		if err := m.Register(p); err != nil {
			t.Fatalf("register %s failed: %v", p.name, err)
		}
	}
	return m
}

func item(id, provider string) MusicItem {
	return MusicItem{ID: id, Title: "t" + id, Artist: "a", Provider: provider}
}

func TestSearchSingleProviderSelector(t *testing.T) {
	a := &stubProvider{name: "a", items: []MusicItem{item("1", "a")}}
	b := &stubProvider{name: "b", items: []MusicItem{item("2", "b")}}
	m := newTestManager(t, a, b)

	got := m.Search(context.Background(), "song", "b")
	if len(got) != 1 || got[0].Provider != "b" {
		t.Fatalf("expected only provider b results, got %+v", got)
	}
	if len(a.queries) != 0 {
		t.Fatal("provider a should not have been queried")
	}
}

func TestSearchFanOutMergesInRegistrationOrder(t *testing.T) {
	a := &stubProvider{name: "a", items: []MusicItem{item("1", "a"), item("2", "a")}}
	b := &stubProvider{name: "b", items: []MusicItem{item("3", "b")}}
	m := newTestManager(t, a, b)

	for _, selector := range []string{"", SelectorAll} {
		got := m.Search(context.Background(), "song", selector)
		if len(got) != 3 {
			t.Fatalf("selector %q: expected 3 items, got %d", selector, len(got))
		}
		wantProviders := []string{"a", "a", "b"}
		for i, it := range got {
			if it.Provider != wantProviders[i] {
				t.Fatalf("selector %q position %d: expected provider %s, got %s",
					selector, i, wantProviders[i], it.Provider)
			}
		}
	}
}

func TestSearchFanOutSurvivesPanickingProvider(t *testing.T) {
	bad := &stubProvider{name: "bad", panics: true}
	good := &stubProvider{name: "good", items: []MusicItem{item("1", "good")}}
	m := newTestManager(t, bad, good)

	got := m.Search(context.Background(), "song", "")
	if len(got) != 1 || got[0].Provider != "good" {
		t.Fatalf("expected surviving provider's results, got %+v", got)
	}
}

func TestSearchDuplicatesAcrossProvidersAreKept(t *testing.T) {
	a := &stubProvider{name: "a", items: []MusicItem{{ID: "1", Title: "same", Artist: "x", Provider: "a"}}}
	b := &stubProvider{name: "b", items: []MusicItem{{ID: "1", Title: "same", Artist: "x", Provider: "b"}}}
	m := newTestManager(t, a, b)

	got := m.Search(context.Background(), "same", "")
	if len(got) != 2 {
		t.Fatalf("expected both entries kept, got %d", len(got))
	}
}

func TestGetFallsBackToDefault(t *testing.T) {
	first := &stubProvider{name: "first"}
	second := &stubProvider{name: "second"}
	m := newTestManager(t, first, second)

	if p := m.Get("nonexistent"); p == nil || p.Name() != "first" {
		t.Fatalf("expected fallback to first registered provider, got %v", p)
	}
	if p := m.Get(""); p == nil || p.Name() != "first" {
		t.Fatalf("expected empty name to resolve default, got %v", p)
	}
	if m.Get("nonexistent") != m.Get("") {
		t.Fatal("unknown and empty names must resolve to the same instance")
	}

	m.SetDefault("second")
	if p := m.Get("nonexistent"); p == nil || p.Name() != "second" {
		t.Fatalf("expected configured default, got %v", p)
	}
	if p := m.Get("first"); p == nil || p.Name() != "first" {
		t.Fatal("exact names must still resolve directly")
	}
}

func TestResolveDispatch(t *testing.T) {
	want := &PlayInfo{URL: "https://cdn.example.com/x.mp3", Type: "mp3"}
	a := &stubProvider{name: "a", info: want}
	b := &stubProvider{name: "b", err: NewResolutionError("b", "9", "no url")}
	m := newTestManager(t, a, b)

	got, err := m.Resolve(context.Background(), "a", "1", nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got.URL != want.URL {
		t.Fatalf("expected %s, got %s", want.URL, got.URL)
	}

	_, err = m.Resolve(context.Background(), "b", "9", nil)
	if !errors.Is(err, ErrResolution) {
		t.Fatalf("expected ErrResolution, got %v", err)
	}
}

func TestResolveWithoutProviders(t *testing.T) {
	m := NewManagerWithRegistry(registry.New(), nil)
	if _, err := m.Resolve(context.Background(), "any", "1", nil); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestListMeta(t *testing.T) {
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b"}
	m := newTestManager(t, a, b)

	metas := m.ListMeta()
	if len(metas) != 2 {
		t.Fatalf("expected 2 metas, got %d", len(metas))
	}
	if metas[0].Name != "a" || metas[0].DisplayName != "a" {
		t.Fatalf("unexpected meta: %+v", metas[0])
	}
}
