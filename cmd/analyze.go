/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/market-insight-tools/internal/config"
	"github.com/ademuri/market-insight-tools/internal/genrecache"
	"github.com/ademuri/market-insight-tools/internal/lastfmtags"
	"github.com/ademuri/market-insight-tools/internal/pipeline"
	"github.com/ademuri/market-insight-tools/internal/spotify"
	"github.com/ademuri/market-insight-tools/internal/store"
)

type AnalyzeConfig struct {
	Markets []string
	RawPath string
}

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [market...]",
	Short: "Collects and analyses markets",
	Long: `Fetches the most followed playlists of each market from Spotify and writes
the raw snapshot, the flattened track table and the market insights.
With no markets, every configured market is analysed.
With --raw, a saved raw snapshot of a single market is re-analysed offline.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		analyzeConfig := AnalyzeConfig{
			Markets: args,
			RawPath: viper.GetString("raw"),
		}
		reports, err := analyze(ctx, cfg, analyzeConfig)
		for _, report := range reports {
			if perr := printMarketReport(os.Stdout, report); perr != nil {
				fmt.Println(perr)
			}
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	var raw string
	analyzeCmd.Flags().StringVar(&raw, "raw", "", "Re-analyse this raw data file instead of fetching from Spotify")
	viper.BindPFlag("raw", analyzeCmd.Flags().Lookup("raw"))
}

// selectMarkets returns the upper-cased requested markets, or every
// configured market when none are requested.
func selectMarkets(cfg *config.Config, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return cfg.MarketCodes(), nil
	}
	codes := make([]string, 0, len(requested))
	for _, code := range requested {
		code = strings.ToUpper(code)
		if _, err := cfg.Market(code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func analyze(ctx context.Context, cfg *config.Config, ac AnalyzeConfig) ([]*pipeline.MarketReport, error) {
	codes, err := selectMarkets(cfg, ac.Markets)
	if err != nil {
		return nil, err
	}

	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		defer db.Close()
	}

	if ac.RawPath != "" {
		if len(codes) != 1 {
			return nil, fmt.Errorf("--raw needs exactly one market, got %d", len(codes))
		}
		runner := pipeline.New(cfg, nil, nil, runnerOptions(db)...)
		report, err := runner.AnalyzeRaw(ctx, codes[0], ac.RawPath)
		if err != nil {
			return nil, err
		}
		return []*pipeline.MarketReport{report}, nil
	}

	runner, err := newRunner(ctx, cfg, db)
	if err != nil {
		return nil, err
	}
	return runner.AnalyzeMarkets(ctx, codes)
}

// openStore opens the configured database. It returns nil when no database
// is configured.
func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.Collection.Database == "" {
		return nil, nil
	}
	db, err := store.New(cfg.Collection.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func runnerOptions(db *store.Store) []pipeline.Option {
	if db == nil {
		return nil
	}
	return []pipeline.Option{pipeline.WithRunRecorder(db)}
}

// newRunner wires the Spotify client, the genre cache and its stores into a
// pipeline runner.
func newRunner(ctx context.Context, cfg *config.Config, db *store.Store) (*pipeline.Runner, error) {
	client, err := spotify.New(ctx, cfg.Spotify)
	if err != nil {
		return nil, fmt.Errorf("creating Spotify client: %w", err)
	}

	var cacheOpts []genrecache.Option
	if db != nil {
		cacheOpts = append(cacheOpts, genrecache.WithBacking(db, cfg.Collection.GenreRefreshInterval))
	}
	if cfg.LastFM.Enabled {
		cacheOpts = append(cacheOpts, genrecache.WithFallback(lastfmtags.New(cfg.LastFM.APIKey, cfg.LastFM.Secret)))
	}
	cache := genrecache.New(client, cacheOpts...)

	return pipeline.New(cfg, client, cache, runnerOptions(db)...), nil
}

// printMarketReport renders the summary of one market as tables.
func printMarketReport(out io.Writer, report *pipeline.MarketReport) error {
	fmt.Fprintf(out, "%s (%s): %d playlists\n", report.Market, report.MarketCode, report.Playlists)
	if report.MarketInsights == nil {
		fmt.Fprintln(out, "No playlists found.")
		return nil
	}

	s := report.MarketInsights.Summary
	summary := tablewriter.NewWriter(out)
	summary.Header([]string{"Metric", "Value"})
	rows := [][]string{
		{"Opportunity score", fmt.Sprintf("%.2f", s.OpportunityScore)},
		{"Total tracks", fmt.Sprint(s.TotalTracks)},
		{"Unique genres", fmt.Sprint(s.UniqueGenres)},
		{"Genres per track", fmt.Sprintf("%.2f", report.GenreAnalysis.AvgGenresPerTrack)},
		{"Key gaps", strings.Join(s.KeyGaps, ", ")},
	}
	for _, row := range rows {
		if err := summary.Append(row); err != nil {
			return fmt.Errorf("rendering summary: %w", err)
		}
	}
	if err := summary.Render(); err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}

	if len(report.GenreAnalysis.TopGenres) > 0 {
		genres := tablewriter.NewWriter(out)
		genres.Header([]string{"Genre", "Share %"})
		for _, g := range report.GenreAnalysis.TopGenres {
			if err := genres.Append([]string{g.Genre, fmt.Sprintf("%.2f", g.Percentage)}); err != nil {
				return fmt.Errorf("rendering genres: %w", err)
			}
		}
		if err := genres.Render(); err != nil {
			return fmt.Errorf("rendering genres: %w", err)
		}
	}

	if report.InsightsPath != "" {
		fmt.Fprintf(out, "Insights written to %s\n", report.InsightsPath)
	}
	return nil
}
