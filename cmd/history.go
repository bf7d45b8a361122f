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
	"github.com/spf13/viper"

	"github.com/ademuri/market-insight-tools/internal/store"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [market]",
	Short: "Lists recorded analysis runs",
	Long:  `Lists the most recent runs recorded by 'analyze', newest first.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		market := ""
		if len(args) > 0 {
			market = strings.ToUpper(args[0])
		}
		err := listHistory(os.Stdout, viper.GetString("collection.database"), market, viper.GetInt("limit"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	var limit int
	historyCmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to list")
	viper.BindPFlag("limit", historyCmd.Flags().Lookup("limit"))
}

func listHistory(out io.Writer, dbPath string, market string, limit int) error {
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(market, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header([]string{"Run", "Market", "Started", "Score", "Tracks", "Genres", "Key gaps"})
	for _, run := range runs {
		row := []string{
			run.ID,
			run.Market,
			run.Started.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", run.OpportunityScore),
			fmt.Sprint(run.TotalTracks),
			fmt.Sprint(run.UniqueGenres),
			strings.Join(run.KeyGaps, ", "),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("rendering runs: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering runs: %w", err)
	}
	return nil
}
