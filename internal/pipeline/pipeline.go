// Package pipeline runs the per-market collection and analysis: fetch
// playlists, persist the raw snapshot, flatten, analyse and persist the
// table and insights.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ademuri/market-insight-tools/internal/analysis"
	"github.com/ademuri/market-insight-tools/internal/config"
	"github.com/ademuri/market-insight-tools/internal/logger"
	"github.com/ademuri/market-insight-tools/internal/processing"
	"github.com/ademuri/market-insight-tools/internal/spotify"
	"github.com/ademuri/market-insight-tools/internal/store"
)

// PlaylistSource supplies market playlists and their tracks.
type PlaylistSource interface {
	SearchMarketPlaylists(ctx context.Context, terms []string, market string, limit int) []processing.RawPlaylist
	PlaylistTracks(ctx context.Context, playlistID string, limit int, genres spotify.GenreLookup) ([]processing.RawTrack, error)
}

// RunRecorder keeps the history of analysed markets.
type RunRecorder interface {
	RecordRun(run store.Run) error
}

// MarketReport is the outcome of analysing one market.
type MarketReport struct {
	RunID          string                   `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	MarketCode     string                   `json:"market_code" yaml:"market_code"`
	Market         string                   `json:"market" yaml:"market"`
	Playlists      int                      `json:"playlists" yaml:"playlists"`
	GenreAnalysis  processing.Distribution  `json:"genre_analysis" yaml:"genre_analysis"`
	MarketInsights *analysis.MarketInsights `json:"market_insights,omitempty" yaml:"market_insights,omitempty"`
	RawPath        string                   `json:"raw_path,omitempty" yaml:"raw_path,omitempty"`
	TablePath      string                   `json:"table_path,omitempty" yaml:"table_path,omitempty"`
	InsightsPath   string                   `json:"insights_path,omitempty" yaml:"insights_path,omitempty"`
}

type Runner struct {
	cfg    *config.Config
	source PlaylistSource
	genres spotify.GenreLookup
	runs   RunRecorder
	writer *processing.Writer
	now    func() time.Time
}

type Option func(*Runner)

// WithRunRecorder records every completed analysis in r.
func WithRunRecorder(r RunRecorder) Option {
	return func(rn *Runner) {
		rn.runs = r
	}
}

// WithClock replaces time.Now for run timestamps and artifact names.
func WithClock(now func() time.Time) Option {
	return func(rn *Runner) {
		rn.now = now
		rn.writer.Now = now
	}
}

// New creates a Runner. source and genres may be nil when only saved raw
// data is analysed.
func New(cfg *config.Config, source PlaylistSource, genres spotify.GenreLookup, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		source: source,
		genres: genres,
		writer: &processing.Writer{
			RawDataDir:       cfg.Collection.RawDataDir,
			ProcessedDataDir: cfg.Collection.ProcessedDataDir,
			AnalyticsDir:     cfg.Collection.AnalyticsDir,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AnalyzeMarket collects and analyses the market with the given code. A
// market without playlists yields a report with no insights and no
// artifacts.
func (r *Runner) AnalyzeMarket(ctx context.Context, code string) (*MarketReport, error) {
	code = strings.ToUpper(code)
	market, err := r.cfg.Market(code)
	if err != nil {
		return nil, err
	}
	if r.source == nil {
		return nil, errors.New("no playlist source configured")
	}

	started := r.now()
	logger.Info("Starting analysis for market: %s", market.Name)

	found := r.source.SearchMarketPlaylists(ctx, r.cfg.Spotify.SearchTermsFor(code), code, market.PlaylistsLimit)
	if len(found) == 0 {
		logger.Warn("No playlists found for market %s", code)
		return &MarketReport{MarketCode: code, Market: market.Name}, nil
	}

	var playlists []processing.RawPlaylist
	for _, p := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tracks, err := r.source.PlaylistTracks(ctx, p.ID, r.cfg.Spotify.TracksPerPlaylist, r.genres)
		if err != nil {
			logger.Error("Error fetching tracks of playlist %s: %v", p.ID, err)
			continue
		}
		if len(tracks) == 0 {
			continue
		}
		p.Tracks = tracks
		playlists = append(playlists, p)
	}

	report := &MarketReport{MarketCode: code, Market: market.Name, Playlists: len(playlists)}
	if r.cfg.Collection.SaveRawData {
		raw := processing.RawData{Market: market.Name, Playlists: playlists, Timestamp: started}
		if report.RawPath, err = r.writer.SaveRawData(code, raw); err != nil {
			return nil, err
		}
	}

	if err := r.analyze(code, market, playlists, started, report); err != nil {
		return nil, err
	}
	return report, nil
}

// AnalyzeRaw re-analyses a raw snapshot saved by an earlier run.
func (r *Runner) AnalyzeRaw(ctx context.Context, code, rawPath string) (*MarketReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code = strings.ToUpper(code)
	market, err := r.cfg.Market(code)
	if err != nil {
		return nil, err
	}

	raw, res, err := processing.LoadRawData(rawPath)
	if err != nil {
		return nil, err
	}
	if skipped := res.SkippedPlaylists + res.SkippedTracks + res.SkippedArtists; skipped > 0 {
		logger.Warn("Skipped %d malformed playlists, %d tracks and %d artists in %s",
			res.SkippedPlaylists, res.SkippedTracks, res.SkippedArtists, rawPath)
	}

	report := &MarketReport{MarketCode: code, Market: market.Name, Playlists: len(raw.Playlists), RawPath: rawPath}
	if err := r.analyze(code, market, raw.Playlists, r.now(), report); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Runner) analyze(code string, market config.MarketConfig, playlists []processing.RawPlaylist, started time.Time, report *MarketReport) error {
	records := processing.Flatten(playlists, processing.FlattenOptions{DropEmptyGenre: r.cfg.Analysis.DropEmptyGenre})

	var err error
	if report.TablePath, err = r.writer.SaveTable(code, records); err != nil {
		return err
	}

	insights, err := analysis.GenerateMarketInsights(records, analysis.MarketParams{
		Code:             code,
		Name:             market.Name,
		LocalGenres:      market.LocalGenres,
		MarketSize:       market.MarketSize,
		CompetitionLevel: market.CompetitionLevel,
	}, analysis.Options{
		Clusters: r.cfg.Analysis.Clusters,
		Seed:     r.cfg.Analysis.ClusterSeed,
	})
	if err != nil {
		return err
	}

	if report.InsightsPath, err = r.writer.SaveInsights(code, insights); err != nil {
		return err
	}

	report.RunID = uuid.NewString()
	report.GenreAnalysis = processing.AnalyzeGenres(records)
	report.MarketInsights = &insights

	if r.runs != nil {
		run := store.Run{
			ID:               report.RunID,
			Market:           code,
			Started:          started,
			OpportunityScore: insights.Summary.OpportunityScore,
			TotalTracks:      insights.Summary.TotalTracks,
			UniqueGenres:     insights.Summary.UniqueGenres,
			KeyGaps:          insights.Summary.KeyGaps,
			InsightsPath:     report.InsightsPath,
		}
		if err := r.runs.RecordRun(run); err != nil {
			logger.Warn("Recording run %s: %v", run.ID, err)
		}
	}

	logSummary(report)
	return nil
}

// AnalyzeMarkets analyses each market in turn. A failing market is logged
// and does not stop the others; all failures are returned joined.
func (r *Runner) AnalyzeMarkets(ctx context.Context, codes []string) ([]*MarketReport, error) {
	var reports []*MarketReport
	var errs []error
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := r.AnalyzeMarket(ctx, code)
		if err != nil {
			logger.Error("Failed to analyze market %s: %v", code, err)
			errs = append(errs, fmt.Errorf("market %s: %w", code, err))
			continue
		}
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}

func logSummary(report *MarketReport) {
	g := report.GenreAnalysis
	logger.Info("Analysis summary for %s: %d tracks, %d unique genres, %.2f genres per track",
		report.MarketCode, g.TotalTracks, g.UniqueGenres, g.AvgGenresPerTrack)
	if report.MarketInsights != nil {
		s := report.MarketInsights.Summary
		logger.Info("Opportunity score for %s: %.2f, content gaps: %s",
			report.MarketCode, s.OpportunityScore, strings.Join(s.KeyGaps, ", "))
	}
}
