package processing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
)

// GenreShare is one genre's share of all tracks, in percent.
type GenreShare struct {
	Genre      string
	Percentage float64
}

// GenreShareList is a ranked list of shares. It encodes as an object from
// genre to percentage that keeps the ranking order.
type GenreShareList []GenreShare

func (l GenreShareList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Genre)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.Percentage)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *GenreShareList) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("genre shares: expected object, got %v", tok)
	}

	shares := GenreShareList{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		genre, ok := tok.(string)
		if !ok {
			return fmt.Errorf("genre shares: expected genre name, got %v", tok)
		}
		var pct float64
		if err := dec.Decode(&pct); err != nil {
			return fmt.Errorf("genre shares: percentage of %q: %w", genre, err)
		}
		shares = append(shares, GenreShare{Genre: genre, Percentage: pct})
	}
	*l = shares
	return nil
}

func (l GenreShareList) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, s := range l {
		var value yaml.Node
		if err := value.Encode(s.Percentage); err != nil {
			return nil, err
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Genre}
		node.Content = append(node.Content, key, &value)
	}
	return node, nil
}

// Distribution summarises genre frequency for one market. The zero value is
// the distribution of an empty table and encodes as {}.
type Distribution struct {
	TopGenres         GenreShareList `json:"top_genres" yaml:"top_genres"`
	UniqueGenres      int            `json:"unique_genres" yaml:"unique_genres"`
	AvgGenresPerTrack float64        `json:"avg_genres_per_track" yaml:"avg_genres_per_track"`
	TotalTracks       int            `json:"total_tracks" yaml:"total_tracks"`
}

// IsEmpty reports whether d came from an empty table.
func (d Distribution) IsEmpty() bool {
	return d.TotalTracks == 0
}

func (d Distribution) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return []byte("{}"), nil
	}
	type plain Distribution
	return json.Marshal(plain(d))
}

func (d Distribution) MarshalYAML() (interface{}, error) {
	if d.IsEmpty() {
		return struct{}{}, nil
	}
	type plain Distribution
	return plain(d), nil
}

// TopGenreLimit is the number of genres kept in Distribution.TopGenres.
const TopGenreLimit = 10

// AnalyzeGenres computes the genre distribution of records. Percentages are
// occurrences over total tracks, so a multi-genre track contributes to every
// one of its genres.
func AnalyzeGenres(records []FlatTrackRecord) Distribution {
	if len(records) == 0 {
		return Distribution{}
	}

	counts := countGenres(records)
	total := float64(len(records))

	ranked := counts.ranked()
	if len(ranked) > TopGenreLimit {
		ranked = ranked[:TopGenreLimit]
	}
	top := make(GenreShareList, 0, len(ranked))
	for _, g := range ranked {
		top = append(top, GenreShare{
			Genre:      g,
			Percentage: Round2(float64(counts.count[g]) / total * 100),
		})
	}

	var genreSum int
	for _, r := range records {
		genreSum += r.GenreCount
	}

	return Distribution{
		TopGenres:         top,
		UniqueGenres:      len(counts.order),
		AvgGenresPerTrack: Round2(float64(genreSum) / total),
		TotalTracks:       len(records),
	}
}

// GenreShares returns every observed genre's share of tracks in percent,
// unrounded.
func GenreShares(records []FlatTrackRecord) map[string]float64 {
	shares := make(map[string]float64)
	if len(records) == 0 {
		return shares
	}
	counts := countGenres(records)
	total := float64(len(records))
	for g, c := range counts.count {
		shares[g] = float64(c) / total * 100
	}
	return shares
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

type genreCounts struct {
	count map[string]int
	order []string
}

func countGenres(records []FlatTrackRecord) genreCounts {
	gc := genreCounts{count: make(map[string]int)}
	for _, r := range records {
		for _, g := range r.GenreList {
			if _, seen := gc.count[g]; !seen {
				gc.order = append(gc.order, g)
			}
			gc.count[g]++
		}
	}
	return gc
}

// ranked orders genres by count descending, ties by first appearance.
func (gc genreCounts) ranked() []string {
	ranked := make([]string, len(gc.order))
	copy(ranked, gc.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return gc.count[ranked[i]] > gc.count[ranked[j]]
	})
	return ranked
}
