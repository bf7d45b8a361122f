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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/market-insight-tools/internal/config"
	"github.com/ademuri/market-insight-tools/internal/notify"
)

type SendEmailConfig struct {
	To      string
	Markets []string
	DryRun  bool
}

var emailCmd = &cobra.Command{
	Use:   "email <address> [market...]",
	Short: "Analyses markets and emails the summary",
	Long: `Runs 'analyze' for the given markets (default: all configured markets)
and emails a summary of each to the address.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("email.from") == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		emailConfig := SendEmailConfig{
			To:      args[0],
			Markets: args[1:],
			DryRun:  viper.GetBool("dry_run"),
		}
		if err := sendEmail(ctx, cfg, emailConfig); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)

	var dryRun bool
	emailCmd.Flags().BoolVarP(&dryRun, "dry_run", "n", false, "When true, just print instead of emailing")
	viper.BindPFlag("dry_run", emailCmd.Flags().Lookup("dry_run"))
}

func sendEmail(ctx context.Context, cfg *config.Config, ec SendEmailConfig) error {
	mailer, err := notify.New(cfg.Email, ec.DryRun)
	if err != nil {
		return err
	}

	reports, analyzeErr := analyze(ctx, cfg, AnalyzeConfig{Markets: ec.Markets})
	if len(reports) == 0 {
		if analyzeErr != nil {
			return analyzeErr
		}
		return fmt.Errorf("no markets analysed")
	}

	if err := mailer.SendReports(ec.To, reports, time.Now()); err != nil {
		return err
	}
	// Failed markets are reported after the others were mailed.
	return analyzeErr
}
