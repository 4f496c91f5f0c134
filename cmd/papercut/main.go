// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the papercut CLI: it annotates
// paper-cut images against the motif catalog, suggests combinations,
// generates themed designs and manages the local knowledge store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/papercut-engine/internal/logging"
	"github.com/pdiddy/papercut-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// logger is configured from --log-level before any subcommand runs.
var logger = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:   "papercut",
	Short: "Annotate Northern Shaanxi paper-cut images against a motif catalog",
	Long: `papercut matches paper-cut images against a curated catalog of traditional
motifs and produces a four-dimensional annotation: content, form, cultural
meaning and context.

Subcommands annotate single images or whole datasets, suggest motif
combinations, generate themed designs, browse the catalog, and manage the
SQLite knowledge store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.Setup(os.Stderr, viper.GetString("log_level"))

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug().Strs("keys", s.Keys()).Msg("loaded secrets")
		}
		if unknown := s.Unknown(); len(unknown) > 0 {
			logger.Warn().Strs("keys", unknown).Msg("ignoring unrecognized secret files")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./papercut.yaml or ~/.config/papercut/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("catalog", "", "knowledge base file (default data/knowledge_base.yaml)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("catalog"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("papercut")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "papercut"))
		}
	}

	viper.SetEnvPrefix("PAPERCUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
