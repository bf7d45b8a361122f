// Package lastfmtags turns last.fm artist top tags into genre lists, for
// artists that Spotify reports no genres for.
package lastfmtags

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ademuri/lastfm-go/lastfm"
	"github.com/avast/retry-go"
	"golang.org/x/time/rate"

	"github.com/ademuri/market-insight-tools/internal/logger"
)

const (
	// MaxGenres is the most tags kept per artist.
	MaxGenres = 5
	// minShare drops tags applied less than this fraction as often as the top tag.
	minShare = 0.25
)

// Tag is one last.fm tag and how often it was applied.
type Tag struct {
	Name  string
	Count int
}

// Source fetches artist genres from last.fm, one request per second.
type Source struct {
	topTags  func(artist string) ([]Tag, error)
	limiter  *rate.Limiter
	attempts uint
}

// New creates a Source using the given API credentials.
func New(apiKey, secret string) *Source {
	client := lastfm.New(apiKey, secret)
	return newSource(func(artist string) ([]Tag, error) {
		res, err := client.Artist.GetTopTags(lastfm.P{
			"artist":      artist,
			"autocorrect": 1,
		})
		if err != nil {
			return nil, err
		}
		tags := make([]Tag, 0, len(res.Tags))
		for _, t := range res.Tags {
			c, _ := strconv.Atoi(t.Count)
			tags = append(tags, Tag{Name: t.Name, Count: c})
		}
		return tags, nil
	}, rate.NewLimiter(rate.Every(1*time.Second), 1))
}

func newSource(topTags func(string) ([]Tag, error), limiter *rate.Limiter) *Source {
	return &Source{topTags: topTags, limiter: limiter, attempts: 3}
}

// ArtistGenres returns up to MaxGenres normalised tags for the named artist.
func (s *Source) ArtistGenres(ctx context.Context, name string) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var tags []Tag
	err := retry.Do(
		func() error {
			var err error
			tags, err = s.topTags(name)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if lerr, ok := err.(*lastfm.LastfmError); ok {
				if lerr.Code/100 == 5 {
					logger.Warn("last.fm errored, retrying: %v", lerr)
					return true
				}
			}
			return false
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching last.fm tags for %q: %w", name, err)
	}

	genres := normalizeTags(tags)
	logger.Debug("last.fm genres for %q: %v", name, genres)
	return genres, nil
}

// normalizeTags lower-cases tags, replaces underscores with spaces and drops
// empty, numeric, duplicate and rarely applied tags.
func normalizeTags(tags []Tag) []string {
	top := 0
	for _, t := range tags {
		if t.Count > top {
			top = t.Count
		}
	}

	seen := make(map[string]bool)
	genres := make([]string, 0, MaxGenres)
	for _, t := range tags {
		if len(genres) == MaxGenres {
			break
		}
		name := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(t.Name), "_", " "))
		if name == "" || seen[name] || isNumeric(name) {
			continue
		}
		if top > 0 && float64(t.Count) < minShare*float64(top) {
			continue
		}
		seen[name] = true
		genres = append(genres, name)
	}
	return genres
}

func isNumeric(s string) bool {
	_, err := strconv.Atoi(strings.TrimSuffix(s, "s"))
	return err == nil
}
