// Package spotify is a minimal Spotify Web API client for collecting market
// playlists, their tracks and the genres of their artists.
package spotify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/ademuri/market-insight-tools/internal/config"
	"github.com/ademuri/market-insight-tools/internal/genrecache"
	"github.com/ademuri/market-insight-tools/internal/logger"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxArtistBatch    = 50
)

// ErrMissingCredentials is returned by New when no client credentials are configured.
var ErrMissingCredentials = errors.New("spotify: client_id and client_secret are required")

// Client is an HTTP client for the Spotify Web API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	limiter     *rate.Limiter
	maxRetries  uint
	baseBackoff time.Duration
	batchSize   int
}

// compile-time interface assertion
var _ genrecache.Fetcher = (*Client)(nil)

type Option func(*Client)

// WithRateLimit paces requests to rps per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetries sets the attempt count and initial backoff for retryable failures.
func WithRetries(attempts uint, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxRetries = attempts
		}
		if backoff > 0 {
			c.baseBackoff = backoff
		}
	}
}

// WithArtistBatchSize sets how many artists are requested per call, at most 50.
func WithArtistBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= maxArtistBatch {
			c.batchSize = n
		}
	}
}

// NewClient constructs a client over an already authorised httpClient.
func NewClient(httpClient *http.Client, baseURL string, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		limiter:     rate.NewLimiter(rate.Inf, 1),
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBackoff,
		batchSize:   maxArtistBatch,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New builds a client authorised with the client-credentials flow.
func New(ctx context.Context, cfg config.SpotifyConfig) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	httpClient := creds.Client(ctx)
	httpClient.Timeout = cfg.Timeout

	var attempts uint
	if cfg.MaxRetries > 0 {
		attempts = uint(cfg.MaxRetries)
	}

	logger.Info("Spotify client initialised for %s", cfg.APIBaseURL)
	return NewClient(httpClient, cfg.APIBaseURL,
		WithRateLimit(cfg.RequestsPerSecond),
		WithRetries(attempts, defaultBackoff),
		WithArtistBatchSize(cfg.ArtistBatchSize),
	), nil
}
