package store

import (
	"fmt"
	"strings"
	"time"
)

// Run is one recorded market analysis.
type Run struct {
	ID               string
	Market           string
	Started          time.Time
	OpportunityScore float64
	TotalTracks      int
	UniqueGenres     int
	KeyGaps          []string
	InsightsPath     string
}

const keyGapSeparator = ", "

// SaveArtistGenres replaces the stored genres of an artist and stamps them
// with the current time. An empty genre list is stored as such.
func (s *Store) SaveArtistGenres(id, name string, genres []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO Artist (id, name, genres_last_updated) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, genres_last_updated = excluded.genres_last_updated`,
		id, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upserting artist %q: %w", id, err)
	}

	if _, err := tx.Exec("DELETE FROM ArtistGenre WHERE artist = ?", id); err != nil {
		return fmt.Errorf("clearing genres of artist %q: %w", id, err)
	}
	for i, genre := range genres {
		_, err := tx.Exec("INSERT OR IGNORE INTO ArtistGenre (artist, genre, position) VALUES (?, ?, ?)", id, genre, i)
		if err != nil {
			return fmt.Errorf("linking genre %q to artist %q: %w", genre, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// RecordRun stores the outcome of one market analysis.
func (s *Store) RecordRun(run Run) error {
	_, err := s.db.Exec(`
		INSERT INTO Run (id, market, started, opportunity_score, total_tracks, unique_genres, key_gaps, insights_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Market, run.Started.UTC(), run.OpportunityScore, run.TotalTracks, run.UniqueGenres,
		strings.Join(run.KeyGaps, keyGapSeparator), run.InsightsPath)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}
