package analysis

import (
	"reflect"
	"testing"

	"github.com/ademuri/market-insight-tools/internal/processing"
)

func TestAnalyzeGaps(t *testing.T) {
	records := table(processing.RawTrack{ID: "t1", Popularity: 80, Genres: []string{"bollywood", "pop"}})
	r := AnalyzeGaps(records, india)

	wantOrder := []string{"classical", "electronic", "hip_hop", "rock", "folk", "pop"}
	if len(r.GenreGaps) != len(wantOrder) {
		t.Fatalf("expected %d gaps, got %d", len(wantOrder), len(r.GenreGaps))
	}
	for i, c := range wantOrder {
		if r.GenreGaps[i].Category != c {
			t.Errorf("GenreGaps[%d] = %s, want %s", i, r.GenreGaps[i].Category, c)
		}
	}

	pop := r.GenreGaps[5]
	if pop.GapSize != 0 || pop.Status != StatusPresent {
		t.Errorf("pop gap = %+v", pop)
	}
	if !reflect.DeepEqual(pop.PresentGenres, []string{"pop"}) ||
		!reflect.DeepEqual(pop.MissingGenres, []string{"indie pop", "synth-pop"}) {
		t.Errorf("pop genres = %q / %q", pop.PresentGenres, pop.MissingGenres)
	}

	classical := r.GenreGaps[0]
	if classical.GapSize != 100 || classical.Status != StatusMissing || len(classical.PresentGenres) != 0 {
		t.Errorf("classical gap = %+v", classical)
	}

	var recommended []string
	for _, g := range r.Recommendations {
		recommended = append(recommended, g.Category)
	}
	if want := []string{"classical", "electronic", "hip_hop", "rock", "folk"}; !reflect.DeepEqual(recommended, want) {
		t.Errorf("recommendations = %q, want %q", recommended, want)
	}

	local := r.LocalContent
	if local.Representation != 100 || !reflect.DeepEqual(local.PresentGenres, []string{"bollywood"}) {
		t.Errorf("local content = %+v", local)
	}
	if len(local.MissingGenres) != 4 {
		t.Errorf("local missing = %q", local.MissingGenres)
	}
}

func TestAnalyzeGapsUnderrepresented(t *testing.T) {
	records := table(
		processing.RawTrack{ID: "1", Genres: []string{"rock"}},
		processing.RawTrack{ID: "2", Genres: []string{"pop"}},
		processing.RawTrack{ID: "3", Genres: []string{"pop"}},
		processing.RawTrack{ID: "4", Genres: []string{"synth-pop", "pop"}},
	)
	r := AnalyzeGaps(records, india)

	byCategory := make(map[string]GenreGap)
	for _, g := range r.GenreGaps {
		byCategory[g.Category] = g
	}

	rock := byCategory["rock"]
	if rock.GapSize != 75 || rock.Status != StatusUnderrepresented {
		t.Errorf("rock = %+v, want gap 75 underrepresented", rock)
	}
	// pop 75% + synth-pop 25% leaves no gap.
	pop := byCategory["pop"]
	if pop.GapSize != 0 || pop.Status != StatusPresent {
		t.Errorf("pop = %+v, want gap 0 present", pop)
	}

	for _, g := range r.Recommendations {
		if g.Category == "pop" {
			t.Error("pop should not be recommended")
		}
	}
	found := false
	for _, g := range r.Recommendations {
		if g.Category == "rock" {
			found = true
		}
	}
	if !found {
		t.Error("rock should be recommended")
	}
}

func TestAnalyzeGapsIdempotent(t *testing.T) {
	records := table(
		processing.RawTrack{ID: "1", Genres: []string{"techno", "house"}},
		processing.RawTrack{ID: "2", Genres: []string{"rap"}},
		processing.RawTrack{ID: "3"},
	)
	first := AnalyzeGaps(records, india)
	second := AnalyzeGaps(records, india)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("gap analysis not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestAnalyzeGapsEmpty(t *testing.T) {
	r := AnalyzeGaps(nil, india)
	if !r.IsEmpty() {
		t.Errorf("expected empty report, got %+v", r)
	}
}
