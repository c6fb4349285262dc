// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the genoscope CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/genoscope/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/, .env, and the
// environment at startup.
var loadedSecrets map[string]string

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// rootCmd is the base command for the genoscope CLI.
var rootCmd = &cobra.Command{
	Use:   "genoscope",
	Short: "Find genomic datasets across NCBI databases from a plain-language question",
	Long: `genoscope turns a research question such as "human breast cancer RNA-seq"
into database-specific queries, runs them concurrently against NCBI Nucleotide,
Protein, GEO DataSets, and SRA, and returns one ranked list of records.

Set an NCBI API key in .secrets/ncbi-api-key, NCBI_API_KEY, or search.api_key
to raise the request rate from 3 to 10 per second.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		s, err := secrets.Resolve(".secrets/", envFile)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./genoscope.yaml or ~/.config/genoscope/genoscope.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with NCBI_API_KEY and NCBI_EMAIL")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("genoscope")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "genoscope"))
		}
	}

	viper.SetEnvPrefix("GENOSCOPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}
