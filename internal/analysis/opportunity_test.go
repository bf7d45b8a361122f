package analysis

import (
	"errors"
	"testing"

	"github.com/ademuri/market-insight-tools/internal/processing"
)

var india = MarketParams{
	Code:             "IN",
	Name:             "India",
	LocalGenres:      []string{"bollywood", "indian", "bhangra", "punjabi", "hindi"},
	MarketSize:       1000000,
	CompetitionLevel: 0.6,
}

func table(tracks ...processing.RawTrack) []processing.FlatTrackRecord {
	return processing.Flatten([]processing.RawPlaylist{{Name: "Test", ID: "p1", Tracks: tracks}}, processing.FlattenOptions{})
}

func TestScoreOpportunitySingleTrack(t *testing.T) {
	records := table(processing.RawTrack{ID: "t1", Name: "Song", Popularity: 80, Genres: []string{"bollywood", "pop"}})

	got, err := ScoreOpportunity(records, india)
	if err != nil {
		t.Fatalf("ScoreOpportunity: %v", err)
	}

	want := OpportunityReport{
		OpportunityScore: 59.33,
		ContributingFactors: ContributingFactors{
			AvgPopularity:      80,
			GenreDiversityPct:  16.67,
			GrowthPotentialPct: 40,
			LocalPercentage:    100,
		},
		MarketMetrics: MarketMetrics{
			TotalTracks:          1,
			UniqueGenres:         2,
			MarketPenetrationPct: 0,
		},
	}
	if got != want {
		t.Errorf("ScoreOpportunity() = %+v, want %+v", got, want)
	}
}

func TestScoreOpportunityEmpty(t *testing.T) {
	got, err := ScoreOpportunity(nil, india)
	if err != nil {
		t.Fatalf("ScoreOpportunity: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("expected empty report, got %+v", got)
	}
}

func TestScoreOpportunityInvalidMarket(t *testing.T) {
	records := table(processing.RawTrack{ID: "t1", Popularity: 50, Genres: []string{"pop"}})
	cases := map[string]MarketParams{
		"zero size":          {Code: "XX", MarketSize: 0, CompetitionLevel: 0.5},
		"negative size":      {Code: "XX", MarketSize: -10, CompetitionLevel: 0.5},
		"competition high":   {Code: "XX", MarketSize: 10, CompetitionLevel: 1.5},
		"competition low":    {Code: "XX", MarketSize: 10, CompetitionLevel: -0.1},
		"empty table, error": {Code: "XX", MarketSize: 0},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			in := records
			if name == "empty table, error" {
				in = nil
			}
			if _, err := ScoreOpportunity(in, params); !errors.Is(err, ErrInvalidMarket) {
				t.Errorf("expected ErrInvalidMarket, got %v", err)
			}
		})
	}
}

func TestScoreOpportunityMonotonic(t *testing.T) {
	score := func(popularity int, genres ...string) float64 {
		t.Helper()
		r, err := ScoreOpportunity(table(
			processing.RawTrack{ID: "a", Popularity: popularity, Genres: genres},
			processing.RawTrack{ID: "b", Popularity: 40, Genres: []string{"rock"}},
		), india)
		if err != nil {
			t.Fatal(err)
		}
		return r.OpportunityScore
	}

	prev := -1.0
	for _, p := range []int{0, 10, 50, 90, 100} {
		s := score(p, "techno")
		if s < prev {
			t.Errorf("score decreased from %v to %v at popularity %d", prev, s, p)
		}
		prev = s
	}

	// Same genre count, one of them local.
	if local, nonLocal := score(50, "punjabi"), score(50, "techno"); local < nonLocal {
		t.Errorf("local content lowered the score: %v < %v", local, nonLocal)
	}
}

func TestScoreOpportunityBounded(t *testing.T) {
	var tracks []processing.RawTrack
	var genres []string
	for i := 0; i < 60; i++ {
		genres = append(genres, "bollywood "+string(rune('a'+i%26))+string(rune('a'+i/26)))
	}
	tracks = append(tracks, processing.RawTrack{ID: "t", Popularity: 100, Genres: genres})

	r, err := ScoreOpportunity(table(tracks...), MarketParams{Code: "IN", MarketSize: 1000, CompetitionLevel: 0})
	if err != nil {
		t.Fatal(err)
	}
	if r.OpportunityScore < 0 || r.OpportunityScore > 100 {
		t.Errorf("score %v out of bounds", r.OpportunityScore)
	}
	if r.ContributingFactors.GenreDiversityPct <= 100 {
		t.Errorf("diversity should be uncapped, got %v", r.ContributingFactors.GenreDiversityPct)
	}
}

func TestScoreOpportunityPenetration(t *testing.T) {
	records := table(
		processing.RawTrack{ID: "1", Popularity: 0},
		processing.RawTrack{ID: "2", Popularity: 0},
	)
	r, err := ScoreOpportunity(records, MarketParams{Code: "XX", MarketSize: 1, CompetitionLevel: 0})
	if err != nil {
		t.Fatal(err)
	}
	if r.MarketMetrics.MarketPenetrationPct != 100 || r.ContributingFactors.GrowthPotentialPct != 0 {
		t.Errorf("unexpected metrics: %+v", r)
	}
}

func TestLocalKeywordsFallBackToRegionalGenres(t *testing.T) {
	records := table(processing.RawTrack{ID: "1", Popularity: 10, Genres: []string{"J-Pop"}})
	r, err := ScoreOpportunity(records, MarketParams{Code: "JP", MarketSize: 800000, CompetitionLevel: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if r.ContributingFactors.LocalPercentage != 100 {
		t.Errorf("LocalPercentage = %v, want 100", r.ContributingFactors.LocalPercentage)
	}

	r, err = ScoreOpportunity(records, MarketParams{Code: "JP", LocalGenres: []string{}, MarketSize: 800000, CompetitionLevel: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if r.ContributingFactors.LocalPercentage != 0 {
		t.Errorf("empty keyword set: LocalPercentage = %v, want 0", r.ContributingFactors.LocalPercentage)
	}
}
