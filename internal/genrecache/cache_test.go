package genrecache

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"
)

type fakeFetcher struct {
	genres map[string][]string
	err    error
	calls  [][]string
}

func (f *fakeFetcher) FetchArtistGenres(ctx context.Context, ids []string) (map[string][]string, error) {
	f.calls = append(f.calls, append([]string(nil), ids...))
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string][]string)
	for _, id := range ids {
		if g, ok := f.genres[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

type fakeBacking struct {
	stored map[string][]string
	saved  map[string][]string
	maxAge time.Duration
}

func (b *fakeBacking) LoadArtistGenres(ids []string, maxAge time.Duration) (map[string][]string, error) {
	b.maxAge = maxAge
	out := make(map[string][]string)
	for _, id := range ids {
		if g, ok := b.stored[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

func (b *fakeBacking) SaveArtistGenres(id, name string, genres []string) error {
	if b.saved == nil {
		b.saved = make(map[string][]string)
	}
	b.saved[id] = genres
	return nil
}

type fakeFallback map[string][]string

func (f fakeFallback) ArtistGenres(ctx context.Context, name string) ([]string, error) {
	return f[name], nil
}

func TestLookupMemoizes(t *testing.T) {
	fetcher := &fakeFetcher{genres: map[string][]string{
		"a1": {"bollywood", "filmi"},
		"a2": {"pop"},
	}}
	cache := New(fetcher)
	ctx := context.Background()

	got, err := cache.Lookup(ctx, []ArtistRef{{ID: "a1"}, {ID: "a2"}, {ID: "a1"}, {ID: ""}})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	want := map[string][]string{"a1": {"bollywood", "filmi"}, "a2": {"pop"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lookup() = %v, want %v", got, want)
	}

	// Change the upstream answer: cached values must not change.
	fetcher.genres["a1"] = []string{"rock"}
	got, err = cache.Lookup(ctx, []ArtistRef{{ID: "a1"}, {ID: "a3"}})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !reflect.DeepEqual(got["a1"], []string{"bollywood", "filmi"}) {
		t.Errorf("a1 changed to %v", got["a1"])
	}
	if g, ok := got["a3"]; !ok || len(g) != 0 {
		t.Errorf("unknown artist: got %v (present %v), want empty", g, ok)
	}

	if len(fetcher.calls) != 2 {
		t.Fatalf("expected 2 fetches, got %d", len(fetcher.calls))
	}
	if !reflect.DeepEqual(fetcher.calls[1], []string{"a3"}) {
		t.Errorf("second fetch requested %v, want [a3]", fetcher.calls[1])
	}

	// Everything cached, no fetch.
	if _, err := cache.Lookup(ctx, []ArtistRef{{ID: "a3"}, {ID: "a2"}}); err != nil {
		t.Fatal(err)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("expected no further fetch, got %d calls", len(fetcher.calls))
	}
	if cache.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cache.Len())
	}
}

func TestLookupFailureNotCached(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	cache := New(fetcher)

	if _, err := cache.Lookup(context.Background(), []ArtistRef{{ID: "a1"}}); err == nil {
		t.Fatal("expected error")
	}
	if cache.Len() != 0 {
		t.Errorf("failed fetch was cached")
	}

	fetcher.err = nil
	fetcher.genres = map[string][]string{"a1": {"pop"}}
	got, err := cache.Lookup(context.Background(), []ArtistRef{{ID: "a1"}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got["a1"], []string{"pop"}) {
		t.Errorf("got %v after recovery", got["a1"])
	}
}

func TestLookupBackingAndFallback(t *testing.T) {
	fetcher := &fakeFetcher{genres: map[string][]string{"a2": {"j-pop"}}}
	backing := &fakeBacking{stored: map[string][]string{"a1": {"anime"}}}
	fallback := fakeFallback{"Indie Band": {"shoegaze"}}

	cache := New(fetcher, WithBacking(backing, 48*time.Hour), WithFallback(fallback))
	got, err := cache.Lookup(context.Background(), []ArtistRef{
		{ID: "a1", Name: "Stored"},
		{ID: "a2", Name: "Fetched"},
		{ID: "a3", Name: "Indie Band"},
	})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	want := map[string][]string{
		"a1": {"anime"},
		"a2": {"j-pop"},
		"a3": {"shoegaze"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lookup() = %v, want %v", got, want)
	}
	if backing.maxAge != 48*time.Hour {
		t.Errorf("maxAge = %v", backing.maxAge)
	}

	fetched := fetcher.calls[0]
	sort.Strings(fetched)
	if !reflect.DeepEqual(fetched, []string{"a2", "a3"}) {
		t.Errorf("fetched %v, want [a2 a3]", fetched)
	}
	if !reflect.DeepEqual(backing.saved["a3"], []string{"shoegaze"}) {
		t.Errorf("fallback genres not persisted: %v", backing.saved)
	}
	if _, ok := backing.saved["a1"]; ok {
		t.Error("stored entry written back")
	}
}
