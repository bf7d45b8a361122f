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
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/ademuri/market-insight-tools/internal/config"
	"github.com/ademuri/market-insight-tools/internal/processing"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	v := viper.New()
	v.Set("collection.raw_data_dir", filepath.Join(dir, "raw"))
	v.Set("collection.processed_data_dir", filepath.Join(dir, "processed"))
	v.Set("collection.analytics_dir", filepath.Join(dir, "analytics"))
	v.Set("collection.database", filepath.Join(dir, "test.db"))
	v.Set("analysis.cluster_seed", 7)
	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("config.Load() error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	return cfg
}

func saveTestRawData(t *testing.T) string {
	t.Helper()
	w := &processing.Writer{RawDataDir: t.TempDir()}
	path, err := w.SaveRawData("IN", processing.RawData{
		Market: "India",
		Playlists: []processing.RawPlaylist{{
			ID:   "p1",
			Name: "Top Hits India",
			Tracks: []processing.RawTrack{{
				ID:         "t1",
				Name:       "Kesariya",
				Artists:    []processing.Artist{{ID: "a1", Name: "Arijit Singh"}},
				Popularity: 80,
				Genres:     []string{"bollywood", "pop"},
			}},
		}},
	})
	if err != nil {
		t.Fatalf("SaveRawData() error: %v", err)
	}
	return path
}

func TestSelectMarkets(t *testing.T) {
	cfg := testConfig(t)

	all, err := selectMarkets(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"IN", "JP"}; !reflect.DeepEqual(all, want) {
		t.Errorf("selectMarkets(nil) = %q, want %q", all, want)
	}

	some, err := selectMarkets(cfg, []string{"jp"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"JP"}; !reflect.DeepEqual(some, want) {
		t.Errorf("selectMarkets(jp) = %q, want %q", some, want)
	}

	if _, err := selectMarkets(cfg, []string{"IN", "XX"}); !errors.Is(err, config.ErrUnknownMarket) {
		t.Errorf("expected ErrUnknownMarket, got %v", err)
	}
}

func TestAnalyzeRawAndHistory(t *testing.T) {
	cfg := testConfig(t)
	rawPath := saveTestRawData(t)

	reports, err := analyze(context.Background(), cfg, AnalyzeConfig{Markets: []string{"in"}, RawPath: rawPath})
	if err != nil {
		t.Fatalf("analyze() error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	report := reports[0]
	if report.MarketInsights == nil || report.MarketInsights.Summary.OpportunityScore != 59.33 {
		t.Fatalf("insights = %+v", report.MarketInsights)
	}

	var out bytes.Buffer
	if err := printMarketReport(&out, report); err != nil {
		t.Fatalf("printMarketReport() error: %v", err)
	}
	for _, want := range []string{"India (IN): 1 playlists", "59.33", "bollywood"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := listHistory(&out, cfg.Collection.Database, "IN", 10); err != nil {
		t.Fatalf("listHistory() error: %v", err)
	}
	if !strings.Contains(out.String(), report.RunID) {
		t.Errorf("history missing run %s:\n%s", report.RunID, out.String())
	}

	out.Reset()
	if err := listHistory(&out, cfg.Collection.Database, "JP", 10); err != nil {
		t.Fatalf("listHistory() error: %v", err)
	}
	if !strings.Contains(out.String(), "No runs recorded.") {
		t.Errorf("unexpected history for JP:\n%s", out.String())
	}
}

func TestAnalyzeRawNeedsOneMarket(t *testing.T) {
	cfg := testConfig(t)
	_, err := analyze(context.Background(), cfg, AnalyzeConfig{RawPath: saveTestRawData(t)})
	if err == nil {
		t.Error("expected error when --raw is used with every market")
	}
}

func TestPrintMarketReportWithoutPlaylists(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collection.Database = ""
	rawPath := saveTestRawData(t)
	reports, err := analyze(context.Background(), cfg, AnalyzeConfig{Markets: []string{"IN"}, RawPath: rawPath})
	if err != nil {
		t.Fatalf("analyze() without database error: %v", err)
	}
	reports[0].MarketInsights = nil

	var out bytes.Buffer
	if err := printMarketReport(&out, reports[0]); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No playlists found.") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunReport(t *testing.T) {
	cfg := testConfig(t)
	reports, err := analyze(context.Background(), cfg, AnalyzeConfig{Markets: []string{"IN"}, RawPath: saveTestRawData(t)})
	if err != nil {
		t.Fatal(err)
	}
	path := reports[0].InsightsPath

	var out bytes.Buffer
	if err := runReport(&out, path, "yaml"); err != nil {
		t.Fatalf("runReport(yaml) error: %v", err)
	}
	for _, want := range []string{"market_code: IN", "opportunity_score: 59.33", "genre_clusters:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("yaml missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := runReport(&out, path, "table"); err != nil {
		t.Fatalf("runReport(table) error: %v", err)
	}
	for _, want := range []string{"opportunity score 59.33", "missing", "cluster_0"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("tables missing %q:\n%s", want, out.String())
		}
	}

	if err := runReport(&out, path, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := runReport(&out, filepath.Join(t.TempDir(), "missing.json"), "yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestListMarkets(t *testing.T) {
	var out bytes.Buffer
	if err := listMarkets(&out, testConfig(t)); err != nil {
		t.Fatalf("listMarkets() error: %v", err)
	}
	for _, want := range []string{"India", "Japan", "1000000", "0.80"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("markets missing %q:\n%s", want, out.String())
		}
	}
}

func TestNewScheduler(t *testing.T) {
	if _, err := newScheduler("@daily", func() {}); err != nil {
		t.Errorf("newScheduler(@daily) error: %v", err)
	}
	if _, err := newScheduler("0 6 * * 1", func() {}); err != nil {
		t.Errorf("newScheduler(cron) error: %v", err)
	}
	if _, err := newScheduler("every tuesday", func() {}); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestRunScheduleStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runSchedule(ctx, cfg, false); err != nil {
		t.Errorf("runSchedule() error: %v", err)
	}
}

func TestEmailRequiresFrom(t *testing.T) {
	viper.Reset()

	viper.Set("email.from", "")
	err := emailCmd.PreRunE(emailCmd, []string{"test@example.com"})
	if err == nil {
		t.Error("Expected error when from is missing, got nil")
	} else if err.Error() != "required flag(s) \"from\" not set" {
		t.Errorf("Expected 'required flag(s) \"from\" not set', got %v", err)
	}

	viper.Set("email.from", "me@example.com")
	if err := emailCmd.PreRunE(emailCmd, []string{"test@example.com"}); err != nil {
		t.Errorf("Expected nil when from is set, got %v", err)
	}
}

func TestSendEmailNeedsKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Email.From = "me@example.com"
	err := sendEmail(context.Background(), cfg, SendEmailConfig{To: "you@example.com"})
	if err == nil {
		t.Error("expected error without a SendGrid key")
	}
}
