package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/codehud"
	"github.com/jward/codehud/internal/config"
)

var (
	flagFormat   string
	flagConfig   string
	flagCache    string
	flagQueries  []string
	flagLogLevel string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "codehud",
	Short:         "Tree-sitter analysis and import dependency graphs",
	Long:          "Codehud parses source files with tree-sitter, runs structural queries over them and aggregates imports into a dependency report.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		errorHandled = false
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		_, err := parseLevel(flagLogLevel)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .codehud.toml at the scan root)")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", "", "SQLite analysis cache path")
	rootCmd.PersistentFlags().StringSliceVar(&flagQueries, "queries", nil, "directories searched for .scm overrides")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(languagesCmd)
}

// parseLevel maps --log-level to a slog level.
func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", s)
	}
	return l, nil
}

// newLogger builds the stderr text logger at --log-level.
func newLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(flagLogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// flagConfigOverlay collects persistent flags that override the config file.
func flagConfigOverlay() *config.Config {
	return &config.Config{
		QueryDirs: flagQueries,
		Cache:     flagCache,
	}
}

// loadConfig reads the project config for root and overlays flags.
func loadConfig(root string, overlay *config.Config) (*config.Config, error) {
	cfg, err := config.LoadRoot(root, flagConfig)
	if err != nil {
		return nil, err
	}
	return cfg.Merge(overlay), nil
}

// engineOptions turns a resolved config into Engine options.
func engineOptions(cfg *config.Config, root string, logger *slog.Logger) ([]codehud.Option, error) {
	opts := []codehud.Option{codehud.WithLogger(logger)}
	if len(cfg.QueryDirs) > 0 {
		opts = append(opts, codehud.WithQueryDirs(cfg.QueryDirs...))
	}
	if cfg.MatchLimit > 0 {
		opts = append(opts, codehud.WithMatchLimit(cfg.MatchLimit))
	}
	if p := cfg.CachePath(root); p != "" {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(p), err)
		}
		opts = append(opts, codehud.WithCache(p))
	}
	return opts, nil
}

// resolveTargetDir returns the absolute path of the directory to scan.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}
