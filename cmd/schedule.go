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
	"os"
	"os/signal"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/market-insight-tools/internal/config"
	"github.com/ademuri/market-insight-tools/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Analyses every market on the collection schedule",
	Long: `Runs 'analyze' for all configured markets whenever collection.schedule
fires (standard cron syntax or descriptors such as @daily), until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := runSchedule(ctx, cfg, viper.GetBool("now")); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	var now bool
	scheduleCmd.Flags().BoolVar(&now, "now", false, "Also run once immediately")
	viper.BindPFlag("now", scheduleCmd.Flags().Lookup("now"))
}

// newScheduler returns a stopped scheduler that calls job on schedule. A run
// still in progress when the next one is due causes that one to be skipped.
func newScheduler(schedule string, job func()) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return c, nil
}

func runSchedule(ctx context.Context, cfg *config.Config, runNow bool) error {
	job := func() {
		reports, err := analyze(ctx, cfg, AnalyzeConfig{})
		if err != nil {
			logger.Error("Scheduled analysis: %v", err)
		}
		logger.Info("Scheduled analysis finished for %d markets", len(reports))
	}

	c, err := newScheduler(cfg.Collection.Schedule, job)
	if err != nil {
		return err
	}
	if runNow {
		job()
	}

	c.Start()
	logger.Info("Scheduled analysis of %d markets on %q", len(cfg.Markets), cfg.Collection.Schedule)
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
