package spotify

type wireFollowers struct {
	Total int `json:"total"`
}

type wirePlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Followers   *wireFollowers `json:"followers"`
}

type searchResponse struct {
	Playlists struct {
		Items []*wirePlaylist `json:"items"`
	} `json:"playlists"`
}

type wireArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

type wireAlbum struct {
	Name string `json:"name"`
}

type wireTrack struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Artists    []*wireArtist `json:"artists"`
	Album      *wireAlbum    `json:"album"`
	Popularity int           `json:"popularity"`
	Explicit   bool          `json:"explicit"`
	DurationMs int           `json:"duration_ms"`
}

type playlistItemsResponse struct {
	Items []*struct {
		Track *wireTrack `json:"track"`
	} `json:"items"`
}

type artistsResponse struct {
	Artists []*wireArtist `json:"artists"`
}
