package codehud

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jward/codehud/internal/depgraph"
	"github.com/jward/codehud/internal/store"
	"github.com/jward/codehud/internal/walk"
)

// ScanParallel is Scan with one Engine per worker. Each worker owns its
// grammars and compiled queries; results are merged into one graph. When
// opts configure a cache, workers share a single database behind a
// BatchedStore that is flushed once the walk completes.
//
// A non-positive workers value means runtime.NumCPU().
func ScanParallel(ctx context.Context, root string, workers int, scan ScanOptions, opts ...Option) (*Report, error) {
	p, err := plan(root, scan)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, len(p.files)))
	logger := scan.logger()

	// Resolve the cache path from opts without building grammars.
	settings := &Engine{}
	for _, opt := range opts {
		opt(settings)
	}

	var (
		shared *store.Store
		batch  *store.BatchedStore
	)
	if settings.cachePath != "" {
		shared, err = store.NewStore(settings.cachePath)
		if err != nil {
			return nil, fmt.Errorf("codehud: open cache: %w", err)
		}
		defer shared.Close()
		if err := shared.Migrate(); err != nil {
			return nil, fmt.Errorf("codehud: migrate cache: %w", err)
		}
		batch = store.NewBatchedStore(shared)
	}

	engines := make([]*Engine, 0, workers)
	defer func() {
		for _, e := range engines {
			e.Close()
		}
	}()
	for range workers {
		wopts := opts
		if batch != nil {
			wopts = append(append([]Option(nil), opts...), withDataStore(batch))
		}
		e, err := New(wopts...)
		if err != nil {
			return nil, err
		}
		engines = append(engines, e)
	}

	if shared != nil {
		reset, err := shared.EnsureQueriesHash(engines[0].cacheFingerprint())
		if err != nil {
			return nil, fmt.Errorf("codehud: validate cache: %w", err)
		}
		if reset {
			logger.Info("query definitions or match limit changed, cache cleared", "cache", settings.cachePath)
		}
	}

	b := depgraph.NewBuilder(root, p.cls, logger)
	work := make(chan walk.File)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(work)
		for _, f := range p.files {
			select {
			case work <- f:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for _, e := range engines {
		g.Go(func() error {
			for f := range work {
				res, err := e.AnalyzeImports(gctx, filepath.Join(root, filepath.FromSlash(f.Path)))
				if err != nil && gctx.Err() != nil {
					return gctx.Err()
				}
				b.Record(f, res, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("codehud: scan: %w", err)
	}

	if batch != nil {
		logger.Debug("flushing cache", "entries", batch.Pending())
		if err := batch.Flush(); err != nil {
			logger.Warn("cache flush failed", "error", err)
		}
	}
	return p.report(ctx, b.Graph(), scan, logger)
}
