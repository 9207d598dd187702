// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the refcheck CLI.
// Implements: prd001-locator through prd006-server (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/refcheck/internal/secrets"
	"github.com/pdiddy/refcheck/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the refcheck CLI.
var rootCmd = &cobra.Command{
	Use:   "refcheck",
	Short: "Verify the bibliography of a PDF against public indexes",
	Long: `refcheck extracts the reference list from a PDF and verifies each citation
against public scholarly indexes: OpenAlex, the WG21 paper archive, the IETF
datatracker, Crossref, Semantic Scholar, and Open Library.

Use check for a PDF, verify for bare citation strings, and serve to expose
both over HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; absence is the normal case.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./refcheck.yaml or ~/.config/refcheck/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("refcheck")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "refcheck"))
		}
	}

	viper.SetEnvPrefix("REFCHECK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildConfig assembles the pipeline configuration: documented defaults,
// then the config file and REFCHECK_* environment, then the secrets
// directory for credentials not set elsewhere.
func buildConfig() types.PipelineConfig {
	cfg := types.Defaults()

	if v := viper.GetString("extraction.grobid_url"); v != "" {
		cfg.Extraction.GrobidURL = v
	}
	if v := viper.GetDuration("extraction.timeout"); v > 0 {
		cfg.Extraction.Timeout = v
	}
	if v := viper.GetDuration("extraction.retry_delay"); v > 0 {
		cfg.Extraction.RetryDelay = v
	}
	if v := viper.GetString("parser.ollama_host"); v != "" {
		cfg.Parser.OllamaHost = v
	}
	if v := viper.GetString("parser.model"); v != "" {
		cfg.Parser.Model = v
	}
	if v := viper.GetFloat64("match.similarity_cutoff"); v > 0 {
		cfg.Match.SimilarityCutoff = v
	}
	if v := viper.GetFloat64("match.accept_confidence"); v > 0 {
		cfg.Match.AcceptConfidence = v
	}
	if v := viper.GetInt("match.max_candidates"); v > 0 {
		cfg.Match.MaxCandidates = v
	}
	if v := viper.GetInt("match.max_workers"); v > 0 {
		cfg.Match.MaxWorkers = v
	}
	if v := viper.GetDuration("match.timeout"); v > 0 {
		cfg.Match.Timeout = v
	}
	if v := viper.GetString("server.addr"); v != "" {
		cfg.Server.Addr = v
	}
	if v := viper.GetInt64("server.max_upload_bytes"); v > 0 {
		cfg.Server.MaxUploadBytes = v
	}

	cfg.Match.ContactEmail = viper.GetString("match.contact_email")
	if cfg.Match.ContactEmail == "" {
		cfg.Match.ContactEmail = secrets.Resolve(loadedSecrets, "contact-email")
	}
	cfg.Match.SemanticScholarAPIKey = viper.GetString("match.semantic_scholar_api_key")
	if cfg.Match.SemanticScholarAPIKey == "" {
		cfg.Match.SemanticScholarAPIKey = secrets.Resolve(loadedSecrets, "semantic-scholar-api-key")
	}

	if rates := viper.GetStringMap("match.rate_per_second"); len(rates) > 0 {
		cfg.Match.RatePerSecond = make(map[string]float64, len(rates))
		for name := range rates {
			if r := viper.GetFloat64("match.rate_per_second." + name); r > 0 {
				cfg.Match.RatePerSecond[name] = r
			}
		}
	}
	return cfg
}

// buildLogger builds the CLI logger. Verbose switches to the development
// encoder with debug level.
func buildLogger(cmd *cobra.Command) (*zap.SugaredLogger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		logger, err = zcfg.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Sugar(), nil
}

// checkTimeout bounds one whole CLI invocation.
const checkTimeout = 30 * time.Minute

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
