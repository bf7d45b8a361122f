package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// maxQueryArgs keeps IN lists below SQLite's bound-variable limit.
const maxQueryArgs = 500

// LoadArtistGenres returns the stored genres of those ids refreshed within
// maxAge. Artists stored with no genres map to an empty slice; unknown or
// stale artists are absent.
func (s *Store) LoadArtistGenres(ids []string, maxAge time.Duration) (map[string][]string, error) {
	threshold := time.Now().UTC().Add(-maxAge)
	genres := make(map[string][]string)

	for start := 0; start < len(ids); start += maxQueryArgs {
		end := start + maxQueryArgs
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		args := make([]interface{}, 0, len(chunk)+1)
		for _, id := range chunk {
			args = append(args, id)
		}
		args = append(args, threshold)

		query := fmt.Sprintf(`
			SELECT a.id, ag.genre
			FROM Artist a
			LEFT JOIN ArtistGenre ag ON ag.artist = a.id
			WHERE a.id IN (%s) AND a.genres_last_updated >= ?
			ORDER BY a.id, ag.position`, placeholders(len(chunk)))

		rows, err := s.db.Query(query, args...)
		if err != nil {
			return nil, fmt.Errorf("querying artist genres: %w", err)
		}
		for rows.Next() {
			var id string
			var genre sql.NullString
			if err := rows.Scan(&id, &genre); err != nil {
				rows.Close()
				return nil, err
			}
			if _, ok := genres[id]; !ok {
				genres[id] = []string{}
			}
			if genre.Valid {
				genres[id] = append(genres[id], genre.String)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return genres, nil
}

// ListRuns returns the most recent runs, newest first. An empty market lists
// every market; limit <= 0 lists everything.
func (s *Store) ListRuns(market string, limit int) ([]Run, error) {
	query := `
		SELECT id, market, started, opportunity_score, total_tracks, unique_genres, key_gaps, insights_path
		FROM Run`
	var args []interface{}
	if market != "" {
		query += " WHERE market = ?"
		args = append(args, market)
	}
	query += " ORDER BY started DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var keyGaps, insightsPath sql.NullString
		if err := rows.Scan(&r.ID, &r.Market, &r.Started, &r.OpportunityScore, &r.TotalTracks,
			&r.UniqueGenres, &keyGaps, &insightsPath); err != nil {
			return nil, err
		}
		if keyGaps.String != "" {
			r.KeyGaps = strings.Split(keyGaps.String, keyGapSeparator)
		}
		r.InsightsPath = insightsPath.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
