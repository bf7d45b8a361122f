package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// FetchArtistGenres returns the genres of the given artists, requested in
// batches. Artists unknown to the API are absent from the result.
func (c *Client) FetchArtistGenres(ctx context.Context, ids []string) (map[string][]string, error) {
	genres := make(map[string][]string, len(ids))
	for start := 0; start < len(ids); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		query := url.Values{}
		query.Set("ids", strings.Join(ids[start:end], ","))

		var body artistsResponse
		if err := c.get(ctx, "/artists", query, &body); err != nil {
			return nil, fmt.Errorf("fetching artists %d-%d: %w", start, end, err)
		}
		for _, a := range body.Artists {
			if a == nil || a.ID == "" {
				continue
			}
			genres[a.ID] = a.Genres
		}
	}
	return genres, nil
}
