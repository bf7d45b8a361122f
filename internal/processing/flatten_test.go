package processing

import (
	"strings"
	"testing"
)

func samplePlaylists() []RawPlaylist {
	return []RawPlaylist{
		{
			Name: "Top Hits India",
			ID:   "p1",
			Tracks: []RawTrack{
				{
					ID:         "t1",
					Name:       "Kesariya",
					Artists:    []Artist{{ID: "a1", Name: "Arijit Singh"}, {ID: "a2", Name: "Pritam"}},
					Popularity: 80,
					DurationMs: 268000,
					Genres:     []string{"bollywood", "filmi", "modern bollywood"},
				},
				{
					ID:         "t2",
					Name:       "Flowers",
					Artists:    []Artist{{ID: "a3", Name: "Miley Cyrus"}},
					Popularity: 95,
					Explicit:   false,
					Genres:     []string{"pop"},
				},
			},
		},
		{
			Name: "Viral",
			ID:   "p2",
			Tracks: []RawTrack{
				{ID: "t1", Name: "Kesariya", Artists: []Artist{{ID: "a1", Name: "Arijit Singh"}}, Popularity: 80, Genres: []string{"bollywood"}},
				{ID: "t3", Name: "Instrumental", Popularity: 10},
			},
		},
	}
}

func TestFlatten(t *testing.T) {
	records := Flatten(samplePlaylists(), FlattenOptions{})
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	first := records[0]
	if first.PlaylistName != "Top Hits India" || first.TrackName != "Kesariya" {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.Artists != "Arijit Singh, Pritam" {
		t.Errorf("Artists = %q", first.Artists)
	}
	if first.ArtistCount != 2 {
		t.Errorf("ArtistCount = %d, want 2", first.ArtistCount)
	}
	if first.Genres != "bollywood, filmi, modern bollywood" || first.GenreCount != 3 {
		t.Errorf("Genres = %q (%d)", first.Genres, first.GenreCount)
	}

	// The same track in a second playlist yields a second record.
	if records[2].TrackID != "t1" || records[2].PlaylistID != "p2" {
		t.Errorf("expected t1 from p2 at index 2, got %+v", records[2])
	}

	noArtists := records[3]
	if noArtists.ArtistCount != 0 {
		t.Errorf("track without artists: ArtistCount = %d, want 0", noArtists.ArtistCount)
	}
	if noArtists.Genres != "" || noArtists.GenreCount != 1 {
		t.Errorf("track without genres: Genres = %q, GenreCount = %d, want \"\" and 1", noArtists.Genres, noArtists.GenreCount)
	}
	if len(noArtists.GenreList) != 1 || noArtists.GenreList[0] != "" {
		t.Errorf("track without genres: GenreList = %q, want one empty token", noArtists.GenreList)
	}
}

func TestFlattenDropEmptyGenre(t *testing.T) {
	records := Flatten(samplePlaylists(), FlattenOptions{DropEmptyGenre: true})
	last := records[len(records)-1]
	if last.GenreCount != 0 || len(last.GenreList) != 0 {
		t.Errorf("GenreCount = %d, GenreList = %q, want 0 and none", last.GenreCount, last.GenreList)
	}
	if records[0].GenreCount != 3 {
		t.Errorf("non-empty genres changed: %d", records[0].GenreCount)
	}
}

func TestFlattenDefaults(t *testing.T) {
	records := Flatten([]RawPlaylist{{Tracks: []RawTrack{{Artists: []Artist{{}}}}}}, FlattenOptions{})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	for name, got := range map[string]string{
		"PlaylistName": r.PlaylistName,
		"PlaylistID":   r.PlaylistID,
		"TrackName":    r.TrackName,
		"TrackID":      r.TrackID,
		"Artists":      r.Artists,
	} {
		if got != UnknownValue {
			t.Errorf("%s = %q, want %q", name, got, UnknownValue)
		}
	}
	if r.Popularity != 0 || r.Explicit || r.DurationMs != 0 {
		t.Errorf("unexpected numeric defaults: %+v", r)
	}
}

func TestFlattenEmpty(t *testing.T) {
	for name, in := range map[string][]RawPlaylist{
		"nil":              nil,
		"no tracks":        {{Name: "Empty", ID: "p"}},
		"several no track": {{ID: "a"}, {ID: "b"}},
	} {
		t.Run(name, func(t *testing.T) {
			records := Flatten(in, FlattenOptions{})
			if records == nil || len(records) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", records)
			}
		})
	}
}

func TestTokenCountsMatchColumns(t *testing.T) {
	for _, r := range Flatten(samplePlaylists(), FlattenOptions{}) {
		if want := len(strings.Split(r.Genres, ",")); r.GenreCount != want {
			t.Errorf("%s: GenreCount = %d, want %d", r.TrackID, r.GenreCount, want)
		}
		if r.Artists != "" && r.ArtistCount < 1 {
			t.Errorf("%s: ArtistCount = %d with artists %q", r.TrackID, r.ArtistCount, r.Artists)
		}
	}
}
