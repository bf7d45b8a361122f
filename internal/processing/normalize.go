package processing

import (
	"encoding/json"
	"fmt"
	"math"
)

// NormalizeResult holds the well-typed playlists recovered from loosely typed
// input, and how many entries had the wrong shape and were skipped.
type NormalizeResult struct {
	Playlists        []RawPlaylist
	SkippedPlaylists int
	SkippedTracks    int
	SkippedArtists   int
}

// ParsePlaylists decodes a JSON array of playlists and normalises it.
func ParsePlaylists(data []byte) (NormalizeResult, error) {
	var items []interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		return NormalizeResult{}, fmt.Errorf("decoding playlists: %w", err)
	}
	return NormalizePlaylists(items), nil
}

// NormalizePlaylists validates decoded JSON values into RawPlaylists.
// Entries that are not objects are skipped; missing or mistyped fields take
// their defaults.
func NormalizePlaylists(items []interface{}) NormalizeResult {
	res := NormalizeResult{Playlists: make([]RawPlaylist, 0, len(items))}
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			res.SkippedPlaylists++
			continue
		}

		p := RawPlaylist{
			Name:          stringField(obj, "name", UnknownValue),
			ID:            stringField(obj, "id", UnknownValue),
			Description:   stringField(obj, "description", ""),
			FollowerCount: followerCount(obj["followers"]),
		}

		tracks, _ := obj["tracks"].([]interface{})
		for _, rawTrack := range tracks {
			trackObj, ok := rawTrack.(map[string]interface{})
			if !ok {
				res.SkippedTracks++
				continue
			}
			t, skippedArtists := normalizeTrack(trackObj)
			res.SkippedArtists += skippedArtists
			p.Tracks = append(p.Tracks, t)
		}
		res.Playlists = append(res.Playlists, p)
	}
	return res
}

func normalizeTrack(obj map[string]interface{}) (RawTrack, int) {
	t := RawTrack{
		ID:         stringField(obj, "id", UnknownValue),
		Name:       stringField(obj, "name", UnknownValue),
		AlbumName:  albumName(obj["album"]),
		Popularity: intField(obj, "popularity"),
		Explicit:   boolField(obj, "explicit"),
		DurationMs: intField(obj, "duration_ms"),
	}
	if t.DurationMs < 0 {
		t.DurationMs = 0
	}

	skipped := 0
	artists, _ := obj["artists"].([]interface{})
	for _, a := range artists {
		artistObj, ok := a.(map[string]interface{})
		if !ok {
			skipped++
			continue
		}
		t.Artists = append(t.Artists, Artist{
			ID:   stringField(artistObj, "id", ""),
			Name: stringField(artistObj, "name", UnknownValue),
		})
	}

	genres, _ := obj["genres"].([]interface{})
	for _, g := range genres {
		if s, ok := g.(string); ok {
			t.Genres = append(t.Genres, s)
		}
	}
	return t, skipped
}

func stringField(obj map[string]interface{}, key, def string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return def
}

func intField(obj map[string]interface{}, key string) int {
	switch v := obj[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func boolField(obj map[string]interface{}, key string) bool {
	b, _ := obj[key].(bool)
	return b
}

// followerCount accepts either a plain count or the API's {"total": n} object.
func followerCount(v interface{}) int {
	switch f := v.(type) {
	case float64:
		return int(f)
	case int:
		return f
	case map[string]interface{}:
		return intField(f, "total")
	}
	return 0
}

func albumName(v interface{}) string {
	switch a := v.(type) {
	case string:
		return a
	case map[string]interface{}:
		return stringField(a, "name", UnknownValue)
	}
	return UnknownValue
}
