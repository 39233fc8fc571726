package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"notesync/internal/client"
)

var (
	verbose  bool
	baseURL  string
	cacheDir string
)

var rootCmd = &cobra.Command{
	Use:   "notesctl",
	Short: "Command line client for a notesync server",
	Long: `notesctl manages PIN-gated profiles and their colored notes on a notesync
server. Documents are cached locally so reads work from the last known copy.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "Server URL (default $NOTESYNC_URL or "+client.DefaultBaseURL+")")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Local cache directory (default $NOTESYNC_CACHE_DIR)")
}

// clientConfig applies the flags over the environment.
func clientConfig() client.Config {
	cfg := client.LoadConfig()
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	return cfg
}

// newStore builds a client store from the environment and flags.
func newStore() *client.Store {
	cfg := clientConfig()
	slog.Debug("client configured", "url", cfg.BaseURL, "cache_dir", cfg.CacheDir)
	return client.NewStore(client.NewAPI(cfg.BaseURL), client.NewCache(cfg.CacheDir))
}

// requireUnlocked exits unless the profile has an unexpired unlock.
func requireUnlocked(store *client.Store, profile string) {
	if !store.IsUnlocked(profile) {
		fmt.Fprintf(os.Stderr, "Profile %q is locked. Run: notesctl unlock %s\n", profile, profile)
		os.Exit(1)
	}
}
