package processing

// UnknownValue replaces names and identifiers missing from upstream records.
const UnknownValue = "Unknown"

// Artist is one credited artist on a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawTrack is a track as delivered by the API client, with the genres of its
// primary artists already attached.
type RawTrack struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	AlbumName  string   `json:"album"`
	Popularity int      `json:"popularity"`
	Explicit   bool     `json:"explicit"`
	DurationMs int      `json:"duration_ms"`
	Genres     []string `json:"genres"`
}

// RawPlaylist is a playlist and its tracks for one market.
type RawPlaylist struct {
	Name          string     `json:"name"`
	ID            string     `json:"id"`
	Description   string     `json:"description"`
	FollowerCount int        `json:"followers"`
	Tracks        []RawTrack `json:"tracks"`
}

// FlatTrackRecord is one (playlist, track) row of the analytic table.
type FlatTrackRecord struct {
	PlaylistName string
	PlaylistID   string
	TrackName    string
	TrackID      string
	// Artists is the ", " joined artist names.
	Artists    string
	Popularity int
	Explicit   bool
	DurationMs int
	// Genres is the ", " joined genre tags.
	Genres      string
	ArtistCount int
	GenreCount  int

	// GenreList is Genres split back into tokens. Every analysis explodes
	// the genre column through this field.
	GenreList []string
}

// TableHeader is the column order of the flat analytic table.
var TableHeader = []string{
	"playlist_name", "playlist_id", "track_name", "track_id",
	"artists", "popularity", "explicit", "duration_ms",
	"genres", "artist_count", "genre_count",
}
