package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/codehud"
	"github.com/jward/codehud/internal/config"
	"github.com/jward/codehud/internal/lang"
)

var (
	flagPrefixes    []string
	flagWorkers     int
	flagExclude     []string
	flagLanguages   string
	flagNoGitignore bool
	flagNoScripts   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Build the import dependency report for a directory",
	Long:  "Walks a directory, analyzes the imports of every recognized file and reports cycles, coupling, clusters and influential modules.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&flagPrefixes, "prefix", nil, "internal import prefix (repeatable; default: detected)")
	scanCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel workers (0: config value, else serial)")
	scanCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "extra directory names to skip")
	scanCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. go,python)")
	scanCmd.Flags().BoolVar(&flagNoGitignore, "no-gitignore", false, "do not honor .gitignore")
	scanCmd.Flags().BoolVar(&flagNoScripts, "no-scripts", false, "resolve imports without Risor scripts")
}

func runScan(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError(cmd, "scan", err)
	}
	logger := newLogger(cmd.ErrOrStderr())

	overlay := flagConfigOverlay()
	overlay.Prefixes = flagPrefixes
	overlay.Exclude = flagExclude
	overlay.Workers = flagWorkers
	cfg, err := loadConfig(targetDir, overlay)
	if err != nil {
		return outputError(cmd, "scan", err)
	}
	opts, err := engineOptions(cfg, targetDir, logger)
	if err != nil {
		return outputError(cmd, "scan", err)
	}
	langs, err := parseLanguages(flagLanguages)
	if err != nil {
		return outputError(cmd, "scan", err)
	}

	scan := codehud.ScanOptions{
		Prefixes:        scanPrefixes(cfg, targetDir),
		RelativeMarkers: cfg.RelativeMarkers,
		Exclude:         cfg.Exclude,
		Languages:       langs,
		NoGitignore:     flagNoGitignore,
		NoScripts:       flagNoScripts,
		Logger:          logger,
	}

	ctx := context.Background()
	var rep *codehud.Report
	if cfg.Workers > 1 {
		rep, err = codehud.ScanParallel(ctx, targetDir, cfg.Workers, scan, opts...)
	} else {
		rep, err = scanSerial(ctx, targetDir, scan, opts)
	}
	if err != nil {
		return outputError(cmd, "scan", err)
	}

	if err := outputResult(cmd, CLIResult{Command: "scan", Results: rep}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Scanned %s in %s (%d files, %d edges, %d cycles)\n",
		targetDir,
		time.Since(start).Round(time.Millisecond),
		rep.Summary.FilesAnalyzed,
		rep.Summary.Edges,
		rep.Summary.CircularDependencies,
	)
	if p := cfg.CachePath(targetDir); p != "" {
		st, err := codehud.ReadCacheStats(p)
		if err != nil {
			logger.Warn("reading cache stats", "cache", p, "error", err)
			fmt.Fprintf(cmd.ErrOrStderr(), "Cache: %s\n", p)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Cache: %s (%d files, %d analyses)\n", p, st.Files, st.Analyses)
		}
	}
	return nil
}

func scanSerial(ctx context.Context, root string, scan codehud.ScanOptions, opts []codehud.Option) (*codehud.Report, error) {
	engine, err := codehud.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()
	return engine.Scan(ctx, root, scan)
}

// scanPrefixes appends detected prefixes to configured ones. With nothing
// configured it returns nil so the scan detects them itself.
func scanPrefixes(cfg *config.Config, root string) []string {
	if len(cfg.Prefixes) == 0 {
		return nil
	}
	out := append([]string(nil), cfg.Prefixes...)
	seen := make(map[string]bool, len(out))
	for _, p := range out {
		seen[p] = true
	}
	for _, p := range config.DetectPrefixes(root) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// parseLanguages splits a comma-separated --languages value.
func parseLanguages(s string) ([]lang.ID, error) {
	if s == "" {
		return nil, nil
	}
	var ids []lang.ID
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := lang.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown language %q", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
