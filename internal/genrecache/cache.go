// Package genrecache memoizes artist genre lookups for the lifetime of a
// process. Within one Cache every artist ID resolves to the same genre list.
package genrecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ademuri/market-insight-tools/internal/logger"
)

// ArtistRef identifies an artist to look up. Name is only used by the
// fallback source.
type ArtistRef struct {
	ID   string
	Name string
}

// Fetcher resolves primary genres for a set of artist IDs. IDs missing from
// the result have no genres.
type Fetcher interface {
	FetchArtistGenres(ctx context.Context, ids []string) (map[string][]string, error)
}

// Backing persists genres across processes.
type Backing interface {
	// LoadArtistGenres returns genres stored within maxAge for any of ids.
	LoadArtistGenres(ids []string, maxAge time.Duration) (map[string][]string, error)
	SaveArtistGenres(id, name string, genres []string) error
}

// Fallback supplies genres for artists the Fetcher has none for.
type Fallback interface {
	ArtistGenres(ctx context.Context, name string) ([]string, error)
}

// Cache is a read-through artist genre cache.
type Cache struct {
	fetcher  Fetcher
	backing  Backing
	maxAge   time.Duration
	fallback Fallback

	mu     sync.Mutex
	genres map[string][]string
}

type Option func(*Cache)

// WithBacking consults and fills b, trusting entries younger than maxAge.
func WithBacking(b Backing, maxAge time.Duration) Option {
	return func(c *Cache) {
		c.backing = b
		c.maxAge = maxAge
	}
}

// WithFallback asks f for artists whose fetched genres are empty.
func WithFallback(f Fallback) Option {
	return func(c *Cache) {
		c.fallback = f
	}
}

func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		genres:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the genres of every artist with a non-empty ID, fetching
// those not yet cached. Artists the fetcher does not know are cached with no
// genres. A failed fetch caches nothing and returns the error.
func (c *Cache) Lookup(ctx context.Context, artists []ArtistRef) (map[string][]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make(map[string]string)
	var missing []string
	for _, a := range artists {
		if a.ID == "" {
			continue
		}
		if _, seen := names[a.ID]; seen {
			continue
		}
		names[a.ID] = a.Name
		if _, ok := c.genres[a.ID]; !ok {
			missing = append(missing, a.ID)
		}
	}

	if len(missing) > 0 && c.backing != nil {
		stored, err := c.backing.LoadArtistGenres(missing, c.maxAge)
		if err != nil {
			logger.Warn("Loading stored genres: %v", err)
		} else {
			missing = c.absorb(missing, stored)
		}
	}

	if len(missing) > 0 {
		logger.Debug("Fetching genres for %d artists", len(missing))
		fetched, err := c.fetcher.FetchArtistGenres(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("fetching genres for %d artists: %w", len(missing), err)
		}

		for _, id := range missing {
			genres := fetched[id]
			if len(genres) == 0 {
				genres = c.fallbackGenres(ctx, names[id])
			}
			if genres == nil {
				genres = []string{}
			}
			c.genres[id] = genres

			if c.backing != nil {
				if err := c.backing.SaveArtistGenres(id, names[id], genres); err != nil {
					logger.Warn("Saving genres for artist %s: %v", id, err)
				}
			}
		}
	}

	result := make(map[string][]string, len(names))
	for id := range names {
		result[id] = c.genres[id]
	}
	return result, nil
}

// absorb caches stored entries and returns the IDs still missing.
func (c *Cache) absorb(ids []string, stored map[string][]string) []string {
	var still []string
	for _, id := range ids {
		genres, ok := stored[id]
		if !ok {
			still = append(still, id)
			continue
		}
		if genres == nil {
			genres = []string{}
		}
		c.genres[id] = genres
	}
	return still
}

func (c *Cache) fallbackGenres(ctx context.Context, name string) []string {
	if c.fallback == nil || name == "" {
		return nil
	}
	genres, err := c.fallback.ArtistGenres(ctx, name)
	if err != nil {
		logger.Warn("Fallback genres for %q: %v", name, err)
		return nil
	}
	return genres
}

// Len returns the number of cached artists.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.genres)
}
