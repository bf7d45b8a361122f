// Package config holds the typed configuration for market collection and
// analysis, loaded through viper from flags, a config file and the environment.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/ademuri/market-insight-tools/internal/logger"
)

// EnvPrefix is prepended to every environment override, e.g.
// MARKET_INSIGHTS_SPOTIFY_CLIENT_ID.
const EnvPrefix = "MARKET_INSIGHTS"

// Sizing assumptions for markets that do not configure their own.
const (
	DefaultMarketSize       = 500000
	DefaultCompetitionLevel = 0.5
	DefaultPlaylistsLimit   = 50
)

// ErrUnknownMarket is returned when a market code has no configuration.
var ErrUnknownMarket = errors.New("unknown market")

// Config represents the complete application configuration
type Config struct {
	Spotify    SpotifyConfig           `mapstructure:"spotify"`
	LastFM     LastFMConfig            `mapstructure:"lastfm"`
	Collection CollectionConfig        `mapstructure:"collection"`
	Analysis   AnalysisConfig          `mapstructure:"analysis"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Email      EmailConfig             `mapstructure:"email"`
	Markets    map[string]MarketConfig `mapstructure:"markets"`
}

// SpotifyConfig holds Spotify Web API access and paging settings.
type SpotifyConfig struct {
	ClientID          string        `mapstructure:"client_id"`
	ClientSecret      string        `mapstructure:"client_secret"`
	APIBaseURL        string        `mapstructure:"api_base_url" validate:"required,url"`
	TokenURL          string        `mapstructure:"token_url" validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=1"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	SearchTerms       []string      `mapstructure:"playlist_search_terms" validate:"min=1"`
	SearchTermsUsed   int           `mapstructure:"search_terms_used" validate:"gte=1"`
	TracksPerPlaylist int           `mapstructure:"tracks_per_playlist" validate:"gte=1,lte=100"`
	ArtistBatchSize   int           `mapstructure:"artist_batch_size" validate:"gte=1,lte=50"`
}

// LastFMConfig enables the last.fm top-tag fallback for artists without genres.
type LastFMConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Secret  string `mapstructure:"secret"`
}

// CollectionConfig holds artifact locations and collection cadence.
type CollectionConfig struct {
	RawDataDir           string        `mapstructure:"raw_data_dir" validate:"required"`
	ProcessedDataDir     string        `mapstructure:"processed_data_dir" validate:"required"`
	AnalyticsDir         string        `mapstructure:"analytics_dir" validate:"required"`
	SaveRawData          bool          `mapstructure:"save_raw_data"`
	Database             string        `mapstructure:"database"`
	GenreRefreshInterval time.Duration `mapstructure:"genre_refresh_interval"`
	Schedule             string        `mapstructure:"schedule" validate:"required"`
}

// AnalysisConfig tunes the insight computations.
type AnalysisConfig struct {
	Clusters int `mapstructure:"clusters" validate:"gte=1"`
	// ClusterSeed pins genre clustering. Zero leaves it nondeterministic.
	ClusterSeed int64 `mapstructure:"cluster_seed"`
	// DropEmptyGenre counts a track with no genres as zero genres instead
	// of one empty genre.
	DropEmptyGenre bool `mapstructure:"drop_empty_genre"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	// Format is "plain" (timestamp and message) or "text", which also adds
	// the source file:line of each entry.
	Format string `mapstructure:"format" validate:"oneof=plain text"`
}

type EmailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	From           string `mapstructure:"from"`
}

// MarketConfig describes one country market and its scoring assumptions.
type MarketConfig struct {
	Name             string   `mapstructure:"name" validate:"required"`
	PlaylistsLimit   int      `mapstructure:"playlists_limit" validate:"gte=1"`
	LocalGenres      []string `mapstructure:"local_genres"`
	MarketSize       int      `mapstructure:"market_size" validate:"gt=0"`
	CompetitionLevel float64  `mapstructure:"competition_level" validate:"gte=0,lte=1"`
}

// Load unmarshals configuration from v after applying defaults and
// environment overrides. Market codes are normalised to upper case.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	markets := make(map[string]MarketConfig, len(cfg.Markets))
	for code, m := range cfg.Markets {
		if m.MarketSize == 0 {
			m.MarketSize = DefaultMarketSize
		}
		if !v.IsSet("markets." + strings.ToLower(code) + ".competition_level") {
			m.CompetitionLevel = DefaultCompetitionLevel
		}
		if m.PlaylistsLimit == 0 {
			m.PlaylistsLimit = DefaultPlaylistsLimit
		}
		markets[strings.ToUpper(code)] = m
	}
	cfg.Markets = markets

	return &cfg, nil
}

// LoadFile reads a config file at path and loads it.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Load(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("spotify.api_base_url", "https://api.spotify.com/v1")
	v.SetDefault("spotify.token_url", "https://accounts.spotify.com/api/token")
	v.SetDefault("spotify.timeout", "30s")
	v.SetDefault("spotify.max_retries", 3)
	v.SetDefault("spotify.requests_per_second", 10.0)
	v.SetDefault("spotify.playlist_search_terms", []string{
		"top hits", "popular", "top {market}", "trending", "viral", "best",
	})
	v.SetDefault("spotify.search_terms_used", 3)
	v.SetDefault("spotify.tracks_per_playlist", 30)
	v.SetDefault("spotify.artist_batch_size", 50)

	v.SetDefault("lastfm.enabled", false)

	v.SetDefault("collection.raw_data_dir", "collected_data/raw_data")
	v.SetDefault("collection.processed_data_dir", "collected_data/processed_data")
	v.SetDefault("collection.analytics_dir", "market_analytics")
	v.SetDefault("collection.save_raw_data", true)
	v.SetDefault("collection.database", "./market-insights.db")
	v.SetDefault("collection.genre_refresh_interval", "720h")
	v.SetDefault("collection.schedule", "@daily")

	v.SetDefault("analysis.clusters", 5)
	v.SetDefault("analysis.cluster_seed", 0)
	v.SetDefault("analysis.drop_empty_genre", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", logger.FormatPlain)

	if !v.IsSet("markets") {
		v.SetDefault("markets.in.name", "India")
		v.SetDefault("markets.in.playlists_limit", 50)
		v.SetDefault("markets.in.local_genres", []string{"bollywood", "indian", "bhangra", "punjabi", "hindi"})
		v.SetDefault("markets.in.market_size", 1000000)
		v.SetDefault("markets.in.competition_level", 0.6)

		v.SetDefault("markets.jp.name", "Japan")
		v.SetDefault("markets.jp.playlists_limit", 50)
		v.SetDefault("markets.jp.local_genres", []string{"j-pop", "j-rock", "anime", "japanese"})
		v.SetDefault("markets.jp.market_size", 800000)
		v.SetDefault("markets.jp.competition_level", 0.8)
	}
}

// Validate checks that all configuration values are valid. Credentials are
// checked separately by the commands that need them.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(c.Spotify); err != nil {
		return fmt.Errorf("spotify: %w", err)
	}
	if c.Spotify.SearchTermsUsed > len(c.Spotify.SearchTerms) {
		return fmt.Errorf("spotify.search_terms_used (%d) exceeds the number of search terms (%d)",
			c.Spotify.SearchTermsUsed, len(c.Spotify.SearchTerms))
	}
	if err := validate.Struct(c.Collection); err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	if err := validate.Struct(c.Analysis); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := validate.Struct(c.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.LastFM.Enabled && (c.LastFM.APIKey == "" || c.LastFM.Secret == "") {
		return fmt.Errorf("lastfm.api_key and lastfm.secret are required when lastfm is enabled")
	}

	if len(c.Markets) == 0 {
		return fmt.Errorf("markets must contain at least one market")
	}
	for _, code := range c.MarketCodes() {
		if err := validate.Struct(c.Markets[code]); err != nil {
			return fmt.Errorf("markets.%s: %w", code, err)
		}
	}

	return nil
}

// Market returns the configuration for code (case-insensitive).
func (c *Config) Market(code string) (MarketConfig, error) {
	m, ok := c.Markets[strings.ToUpper(code)]
	if !ok {
		return MarketConfig{}, fmt.Errorf("%w: %q", ErrUnknownMarket, code)
	}
	return m, nil
}

// MarketCodes returns the configured market codes in sorted order.
func (c *Config) MarketCodes() []string {
	codes := make([]string, 0, len(c.Markets))
	for code := range c.Markets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// SearchTermsFor expands the first SearchTermsUsed search terms for a market.
func (s SpotifyConfig) SearchTermsFor(market string) []string {
	n := s.SearchTermsUsed
	if n > len(s.SearchTerms) {
		n = len(s.SearchTerms)
	}
	terms := make([]string, 0, n)
	for _, term := range s.SearchTerms[:n] {
		terms = append(terms, strings.ReplaceAll(term, "{market}", market))
	}
	return terms
}
