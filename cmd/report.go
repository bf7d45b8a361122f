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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ademuri/market-insight-tools/internal/analysis"
)

var reportCmd = &cobra.Command{
	Use:   "report <insights.json>",
	Short: "Prints saved market insights",
	Long:  `Prints an insights file written by 'analyze' as YAML, or as tables with --format table.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := runReport(os.Stdout, args[0], viper.GetString("format"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error printing report: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	var format string
	reportCmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or table")
	viper.BindPFlag("format", reportCmd.Flags().Lookup("format"))
}

func runReport(out io.Writer, path string, format string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading insights: %w", err)
	}
	var insights analysis.MarketInsights
	if err := json.Unmarshal(b, &insights); err != nil {
		return fmt.Errorf("decoding insights %s: %w", path, err)
	}

	switch format {
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(insights); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		return encoder.Close()
	case "table":
		return printInsightsTables(out, insights)
	default:
		return fmt.Errorf("unknown format %q, want yaml or table", format)
	}
}

func printInsightsTables(out io.Writer, insights analysis.MarketInsights) error {
	fmt.Fprintf(out, "Market %s: opportunity score %.2f, %d tracks, %d genres\n",
		insights.MarketCode, insights.Summary.OpportunityScore,
		insights.Summary.TotalTracks, insights.Summary.UniqueGenres)

	if gaps := insights.GapAnalysis.GenreGaps; len(gaps) > 0 {
		table := tablewriter.NewWriter(out)
		table.Header([]string{"Category", "Gap", "Status", "Present", "Missing"})
		for _, g := range gaps {
			row := []string{
				g.Category,
				fmt.Sprintf("%.2f", g.GapSize),
				g.Status,
				strings.Join(g.PresentGenres, ", "),
				strings.Join(g.MissingGenres, ", "),
			}
			if err := table.Append(row); err != nil {
				return fmt.Errorf("rendering gaps: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("rendering gaps: %w", err)
		}
	}

	labels := make([]string, 0, len(insights.GenreClusters))
	for label := range insights.GenreClusters {
		labels = append(labels, label)
	}
	if len(labels) == 0 {
		return nil
	}
	// cluster_10 sorts after cluster_9
	sort.Slice(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) < len(labels[j])
		}
		return labels[i] < labels[j]
	})

	table := tablewriter.NewWriter(out)
	table.Header([]string{"Cluster", "Genre", "Tracks", "Avg popularity"})
	for _, label := range labels {
		for _, m := range insights.GenreClusters[label] {
			row := []string{label, m.Genre, fmt.Sprint(m.MemberCount), fmt.Sprintf("%.2f", m.AvgPopularity)}
			if err := table.Append(row); err != nil {
				return fmt.Errorf("rendering clusters: %w", err)
			}
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering clusters: %w", err)
	}
	return nil
}
