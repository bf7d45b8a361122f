// Package processing turns raw playlist data into the flat analytic table,
// summarises its genre distribution and persists the run artifacts.
package processing

import (
	"strings"

	"github.com/ademuri/market-insight-tools/internal/logger"
)

// Delimiter joins list-valued columns of the flat table.
const Delimiter = ", "

// FlattenOptions controls how the genre column is tokenised.
type FlattenOptions struct {
	// DropEmptyGenre makes a track without genres count zero genres. By
	// default such a track carries a single empty genre token, which is what
	// previously generated reports contain.
	DropEmptyGenre bool
}

// Flatten converts playlists into one record per (playlist, track) pair,
// in playlist order then track order. An empty input yields an empty slice.
func Flatten(playlists []RawPlaylist, opts FlattenOptions) []FlatTrackRecord {
	records := make([]FlatTrackRecord, 0)
	for _, p := range playlists {
		playlistName := orUnknown(p.Name)
		playlistID := orUnknown(p.ID)
		for _, t := range p.Tracks {
			records = append(records, flattenTrack(playlistName, playlistID, t, opts))
		}
	}

	if len(records) == 0 {
		logger.Warn("No data to process")
		return records
	}

	logGenreSummary(records)
	return records
}

func flattenTrack(playlistName, playlistID string, t RawTrack, opts FlattenOptions) FlatTrackRecord {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, orUnknown(a.Name))
	}
	artists := strings.Join(names, Delimiter)
	genres := strings.Join(t.Genres, Delimiter)
	genreList := SplitGenres(genres, opts.DropEmptyGenre)

	return FlatTrackRecord{
		PlaylistName: playlistName,
		PlaylistID:   playlistID,
		TrackName:    orUnknown(t.Name),
		TrackID:      orUnknown(t.ID),
		Artists:      artists,
		Popularity:   t.Popularity,
		Explicit:     t.Explicit,
		DurationMs:   t.DurationMs,
		Genres:       genres,
		ArtistCount:  countTokens(artists, false),
		GenreCount:   countTokens(genres, !opts.DropEmptyGenre),
		GenreList:    genreList,
	}
}

// SplitGenres explodes a genre column value. An empty value yields one empty
// token unless dropEmpty is set.
func SplitGenres(field string, dropEmpty bool) []string {
	if field == "" && dropEmpty {
		return nil
	}
	return strings.Split(field, Delimiter)
}

// countTokens counts comma-separated tokens. An empty field counts as one
// token only when emptyIsToken is set.
func countTokens(field string, emptyIsToken bool) int {
	if field == "" && !emptyIsToken {
		return 0
	}
	return strings.Count(field, ",") + 1
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownValue
	}
	return s
}

func logGenreSummary(records []FlatTrackRecord) {
	counts := countGenres(records)
	logger.Info("Found %d unique genres", len(counts.order))
	top := counts.ranked()
	if len(top) > 5 {
		top = top[:5]
	}
	for _, g := range top {
		logger.Debug("Top genre %q: %d tracks", g, counts.count[g])
	}
}
