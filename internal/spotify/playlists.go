package spotify

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/ademuri/market-insight-tools/internal/genrecache"
	"github.com/ademuri/market-insight-tools/internal/logger"
	"github.com/ademuri/market-insight-tools/internal/processing"
)

const (
	searchPageSize     = 10
	maxArtistsPerTrack = 3
	trackFields        = "items(track(id,name,artists(id,name),album(name),popularity,explicit,duration_ms))"
)

// GenreLookup resolves artist genres, normally a *genrecache.Cache.
type GenreLookup interface {
	Lookup(ctx context.Context, artists []genrecache.ArtistRef) (map[string][]string, error)
}

// SearchPlaylists runs one playlist search in market.
func (c *Client) SearchPlaylists(ctx context.Context, term, market string, limit int) ([]processing.RawPlaylist, error) {
	query := url.Values{}
	query.Set("q", term)
	query.Set("type", "playlist")
	query.Set("market", market)
	query.Set("limit", strconv.Itoa(limit))

	var body searchResponse
	if err := c.get(ctx, "/search", query, &body); err != nil {
		return nil, fmt.Errorf("searching playlists %q: %w", term, err)
	}

	playlists := make([]processing.RawPlaylist, 0, len(body.Playlists.Items))
	for _, p := range body.Playlists.Items {
		if p == nil || p.ID == "" {
			continue
		}
		playlists = append(playlists, mapPlaylist(p))
	}
	return playlists, nil
}

// SearchMarketPlaylists searches every term in market and returns up to limit
// distinct playlists, most followed first. A failing term is skipped.
func (c *Client) SearchMarketPlaylists(ctx context.Context, terms []string, market string, limit int) []processing.RawPlaylist {
	var all []processing.RawPlaylist
	for _, term := range terms {
		found, err := c.SearchPlaylists(ctx, term, market, searchPageSize)
		if err != nil {
			logger.Warn("Skipping search term %q for %s: %v", term, market, err)
			continue
		}
		logger.Debug("Search %q in %s returned %d playlists", term, market, len(found))
		all = append(all, found...)
	}

	unique := dedupePlaylists(all)
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].FollowerCount > unique[j].FollowerCount
	})
	if limit >= 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	logger.Info("Found %d playlists for %s", len(unique), market)
	return unique
}

// dedupePlaylists keeps each ID at its first position with its last-seen data.
func dedupePlaylists(playlists []processing.RawPlaylist) []processing.RawPlaylist {
	index := make(map[string]int)
	var unique []processing.RawPlaylist
	for _, p := range playlists {
		if i, ok := index[p.ID]; ok {
			unique[i] = p
			continue
		}
		index[p.ID] = len(unique)
		unique = append(unique, p)
	}
	return unique
}

// PlaylistTracks fetches up to limit tracks of a playlist with the genres of
// their first three artists attached. If genres cannot be resolved the
// tracks are returned without genres.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string, limit int, genres GenreLookup) ([]processing.RawTrack, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("fields", trackFields)

	var body playlistItemsResponse
	if err := c.get(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", query, &body); err != nil {
		return nil, fmt.Errorf("fetching tracks of playlist %s: %w", playlistID, err)
	}

	items := body.Items
	if len(items) > limit {
		items = items[:limit]
	}

	var tracks []processing.RawTrack
	var refs []genrecache.ArtistRef
	for _, item := range items {
		if item == nil || item.Track == nil {
			continue
		}
		t := mapTrack(item.Track)
		for _, a := range t.Artists {
			refs = append(refs, genrecache.ArtistRef{ID: a.ID, Name: a.Name})
		}
		tracks = append(tracks, t)
	}

	if genres != nil && len(refs) > 0 {
		byArtist, err := genres.Lookup(ctx, refs)
		if err != nil {
			logger.Warn("Genres unavailable for playlist %s: %v", playlistID, err)
		} else {
			for i := range tracks {
				tracks[i].Genres = trackGenres(tracks[i].Artists, byArtist)
			}
		}
	}
	return tracks, nil
}

// trackGenres is the union of the artists' genres in first-seen order.
func trackGenres(artists []processing.Artist, byArtist map[string][]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range artists {
		for _, g := range byArtist[a.ID] {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}

func mapPlaylist(p *wirePlaylist) processing.RawPlaylist {
	out := processing.RawPlaylist{
		ID:          p.ID,
		Name:        orUnknown(p.Name),
		Description: p.Description,
	}
	if p.Followers != nil {
		out.FollowerCount = p.Followers.Total
	}
	return out
}

func mapTrack(t *wireTrack) processing.RawTrack {
	out := processing.RawTrack{
		ID:         orUnknown(t.ID),
		Name:       orUnknown(t.Name),
		AlbumName:  processing.UnknownValue,
		Popularity: t.Popularity,
		Explicit:   t.Explicit,
		DurationMs: t.DurationMs,
	}
	if t.Album != nil {
		out.AlbumName = orUnknown(t.Album.Name)
	}

	artists := t.Artists
	if len(artists) > maxArtistsPerTrack {
		artists = artists[:maxArtistsPerTrack]
	}
	for _, a := range artists {
		if a == nil || a.ID == "" {
			continue
		}
		out.Artists = append(out.Artists, processing.Artist{ID: a.ID, Name: orUnknown(a.Name)})
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return processing.UnknownValue
	}
	return s
}
