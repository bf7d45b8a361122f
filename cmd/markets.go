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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ademuri/market-insight-tools/internal/config"
)

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Lists the configured markets",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err == nil {
			err = listMarkets(os.Stdout, cfg)
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(marketsCmd)
}

func listMarkets(out io.Writer, cfg *config.Config) error {
	table := tablewriter.NewWriter(out)
	table.Header([]string{"Code", "Name", "Playlists", "Market size", "Competition", "Local genres"})
	for _, code := range cfg.MarketCodes() {
		m := cfg.Markets[code]
		row := []string{
			code,
			m.Name,
			fmt.Sprint(m.PlaylistsLimit),
			fmt.Sprint(m.MarketSize),
			fmt.Sprintf("%.2f", m.CompetitionLevel),
			strings.Join(m.LocalGenres, ", "),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("rendering markets: %w", err)
		}
	}
	return table.Render()
}
