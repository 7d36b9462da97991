package codehud

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/jward/codehud/internal/config"
	"github.com/jward/codehud/internal/depgraph"
	"github.com/jward/codehud/internal/lang"
	"github.com/jward/codehud/internal/runtime"
	"github.com/jward/codehud/internal/walk"
	"github.com/jward/codehud/scripts"
)

// ScanOptions controls a dependency scan.
type ScanOptions struct {
	// Prefixes mark imports as internal. When empty they are detected from
	// the root directory name and its manifests.
	Prefixes []string
	// RelativeMarkers override depgraph.DefaultRelativeMarkers.
	RelativeMarkers []string
	// Exclude adds directory names to the walker's exclusion list.
	Exclude     []string
	Languages   []lang.ID
	NoGitignore bool
	// Resolver replaces the script-backed resolver.
	Resolver Resolver
	// NoScripts resolves with the Go default mapping only.
	NoScripts bool
	Logger    *slog.Logger
}

func (o ScanOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scanPlan is what both scan modes share: the file list and classification.
type scanPlan struct {
	root     string
	files    []walk.File
	prefixes []string
	cls      depgraph.Classifier
}

func plan(root string, opts ScanOptions) (*scanPlan, error) {
	files, err := walk.Files(root, walk.Options{
		Extra:       opts.Exclude,
		Languages:   opts.Languages,
		NoGitignore: opts.NoGitignore,
	})
	if err != nil {
		return nil, fmt.Errorf("codehud: scan: %w", err)
	}
	prefixes := opts.Prefixes
	if len(prefixes) == 0 {
		prefixes = config.DetectPrefixes(root)
	}
	cls := depgraph.NewClassifier(prefixes...)
	if len(opts.RelativeMarkers) > 0 {
		cls.RelativeMarkers = opts.RelativeMarkers
	}
	return &scanPlan{root: root, files: files, prefixes: prefixes, cls: cls}, nil
}

// Scan walks root, analyzes the imports of every recognized file and
// returns the dependency report. Per-file failures become report warnings.
func (e *Engine) Scan(ctx context.Context, root string, opts ScanOptions) (*Report, error) {
	p, err := plan(root, opts)
	if err != nil {
		return nil, err
	}
	logger := opts.logger()
	logger.Debug("scan started", "root", root, "files", len(p.files), "prefixes", p.prefixes)

	g, err := depgraph.Build(ctx, root, p.files, e, p.cls, logger)
	if err != nil {
		return nil, fmt.Errorf("codehud: scan: %w", err)
	}
	e.pruneCache(p)
	return p.report(ctx, g, opts, logger)
}

func (p *scanPlan) report(ctx context.Context, g *depgraph.Graph, opts ScanOptions, logger *slog.Logger) (*Report, error) {
	r, err := p.resolver(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	rep := depgraph.Analyze(g, r)
	logger.Debug("scan finished",
		"files", rep.Summary.FilesAnalyzed, "nodes", rep.Summary.FilesWithDeps,
		"edges", rep.Summary.Edges, "cycles", rep.Summary.CircularDependencies)
	return rep, nil
}

func (p *scanPlan) resolver(ctx context.Context, opts ScanOptions, logger *slog.Logger) (Resolver, error) {
	if opts.Resolver != nil {
		return opts.Resolver, nil
	}
	fallback := depgraph.DefaultResolver{Prefixes: p.prefixes}
	if opts.NoScripts {
		return fallback, nil
	}
	rt := runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.FS), runtime.WithRuntimeLogger(logger))
	r, err := runtime.NewResolver(ctx, rt, fallback, p.prefixes)
	if err != nil {
		return nil, fmt.Errorf("codehud: load resolvers: %w", err)
	}
	return r, nil
}

// pruneCache drops cached entries for files under the scan root that no
// longer exist.
func (e *Engine) pruneCache(p *scanPlan) {
	root := filepath.Clean(p.root)
	if e.store == nil || root == "." {
		return
	}
	present := make([]string, len(p.files))
	for i, f := range p.files {
		present[i] = filepath.Join(p.root, filepath.FromSlash(f.Path))
	}
	prefix := root + string(filepath.Separator)
	n, err := e.store.Prune(prefix, present)
	if err != nil {
		e.logger.Warn("cache prune failed", "root", p.root, "error", err)
		return
	}
	if n > 0 {
		e.logger.Debug("pruned cache entries", "root", p.root, "removed", n)
	}
}
