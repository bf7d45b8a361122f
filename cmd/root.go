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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/ademuri/market-insight-tools/internal/config"
	"github.com/ademuri/market-insight-tools/internal/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "market-insights",
	Short: "Analyses music markets from their popular playlists",
	Long: `Collects the most followed playlists of each configured market from
Spotify, flattens them into a track table and derives genre clusters, an
opportunity score and content gaps per market.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.market-insights.yaml)")

	bindPersistentString("client_id", "spotify.client_id", "", "Spotify client ID")
	bindPersistentString("client_secret", "spotify.client_secret", "", "Spotify client secret")
	bindPersistentString("api_key", "lastfm.api_key", "", "last.fm API key, used for artists without Spotify genres")
	bindPersistentString("secret", "lastfm.secret", "", "last.fm secret")
	bindPersistentString("sendgrid_api_key", "email.sendgrid_api_key", "", "SendGrid API key")
	bindPersistentString("from", "email.from", "", "From email address")
	bindPersistentString("log_level", "logging.level", "info", "Log level: debug, info, warn or error")

	rootCmd.PersistentFlags().StringP("database", "d", "./market-insights.db", "Path to the SQLite database")
	viper.BindPFlag("collection.database", rootCmd.PersistentFlags().Lookup("database"))
}

func bindPersistentString(name, key, value, usage string) {
	rootCmd.PersistentFlags().String(name, value, usage)
	viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".market-insights" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".market-insights")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// See https://github.com/spf13/viper/pull/852
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			rootCmd.Flags().Set(f.Name, viper.GetString(f.Name))
		}
	})
}

// loadConfig builds the validated configuration from flags, the config file
// and the environment, and initialises logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
