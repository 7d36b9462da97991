package codehud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/jward/codehud/internal/grammar"
	"github.com/jward/codehud/internal/lang"
	"github.com/jward/codehud/internal/match"
	"github.com/jward/codehud/internal/query"
	"github.com/jward/codehud/internal/store"
	"github.com/jward/codehud/internal/telemetry"
	"github.com/jward/codehud/queries"
)

var (
	// ErrUnsupportedFile means the path's language is not recognized.
	ErrUnsupportedFile = errors.New("unsupported file")
	// ErrCapabilityUnavailable means the language is recognized but has no
	// bound grammar.
	ErrCapabilityUnavailable = grammar.ErrUnavailable
	// ErrParseFailure means the parser rejected the input.
	ErrParseFailure = grammar.ErrParse
)

// Engine parses files and runs the query catalog over them. Analysis calls
// are serialized; use one Engine per goroutine for parallel work.
type Engine struct {
	mu       sync.Mutex
	grammars *grammar.Pool
	catalog  *query.Catalog
	logger   *slog.Logger

	languages      []lang.ID
	queryDirs      []string
	queryFS        fs.FS
	noDefaultPaths bool
	matchLimit     int

	cachePath string
	store     *store.Store // owned; nil when the cache is shared or off
	cache     store.DataStore

	// missing records (language, kind) pairs already logged as absent.
	missing sync.Map
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithQueryDirs adds directories searched for query definitions before the
// built-in locations.
func WithQueryDirs(dirs ...string) Option {
	return func(e *Engine) {
		e.queryDirs = append(e.queryDirs, dirs...)
	}
}

// WithQueryFS adds a filesystem of definitions laid out as
// <language>/<kind>.scm, searched after the query dirs.
func WithQueryFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.queryFS = fsys
	}
}

// WithoutDefaultQueryPaths drops the well-known relative directories and
// the embedded definitions, leaving only WithQueryDirs and WithQueryFS.
func WithoutDefaultQueryPaths() Option {
	return func(e *Engine) {
		e.noDefaultPaths = true
	}
}

// WithMatchLimit caps the matches consumed per query run. Non-positive
// values mean match.DefaultMatchLimit.
func WithMatchLimit(n int) Option {
	return func(e *Engine) {
		e.matchLimit = n
	}
}

// WithCache stores analysis results in a SQLite database at path.
func WithCache(path string) Option {
	return func(e *Engine) {
		e.cachePath = path
	}
}

// WithLanguages restricts the grammars the Engine binds.
func WithLanguages(ids ...lang.ID) Option {
	return func(e *Engine) {
		e.languages = append(e.languages, ids...)
	}
}

// withDataStore shares an existing cache instead of opening one.
func withDataStore(ds store.DataStore) Option {
	return func(e *Engine) {
		e.cachePath = ""
		e.cache = ds
	}
}

// New binds grammars, compiles the query catalog and opens the cache. It
// fails only when no grammar can be bound or the cache cannot be opened.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	g, err := grammar.New(e.languages...)
	if err != nil {
		return nil, fmt.Errorf("codehud: %w", err)
	}
	e.grammars = g
	e.catalog = query.Load(g, query.NewLocator(e.sources()...), e.logger)

	if e.cachePath != "" {
		if err := e.openCache(); err != nil {
			e.catalog.Close()
			e.grammars.Close()
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) sources() []query.Source {
	var out []query.Source
	for _, d := range e.queryDirs {
		out = append(out, query.DirSource(d, query.LayoutQueries))
	}
	if e.queryFS != nil {
		out = append(out, query.Source{Name: "custom", FS: e.queryFS, Layout: query.LayoutQueries})
	}
	if e.noDefaultPaths {
		return out
	}
	return append(out, query.DefaultSources(nil, queries.FS)...)
}

func (e *Engine) openCache() error {
	s, err := store.NewStore(e.cachePath)
	if err != nil {
		return fmt.Errorf("codehud: open cache: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return fmt.Errorf("codehud: migrate cache: %w", err)
	}
	reset, err := s.EnsureQueriesHash(e.cacheFingerprint())
	if err != nil {
		s.Close()
		return fmt.Errorf("codehud: validate cache: %w", err)
	}
	if reset {
		e.logger.Info("query definitions or match limit changed, cache cleared", "cache", e.cachePath)
	}
	e.store = s
	e.cache = s
	return nil
}

// cacheFingerprint identifies everything besides file content that shapes a
// cached result: the compiled definitions and the effective match cap.
func (e *Engine) cacheFingerprint() string {
	limit := e.matchLimit
	if limit <= 0 {
		limit = match.DefaultMatchLimit
	}
	return store.SetHash(e.catalog.Hash(), "match_limit="+strconv.Itoa(limit))
}

// CacheStats counts the files and analyses held by a cache database.
type CacheStats = store.Stats

// ReadCacheStats counts the rows of the cache database at path.
func ReadCacheStats(path string) (CacheStats, error) {
	s, err := store.NewStore(path)
	if err != nil {
		return CacheStats{}, fmt.Errorf("codehud: open cache: %w", err)
	}
	defer s.Close()
	st, err := s.Stats()
	if err != nil {
		return CacheStats{}, fmt.Errorf("codehud: cache stats: %w", err)
	}
	return st, nil
}

// Close releases the grammars, queries and cache.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catalog.Close()
	e.grammars.Close()
	if e.store != nil {
		err := e.store.Close()
		e.store = nil
		return err
	}
	return nil
}

// QueriesHash fingerprints the loaded query definitions.
func (e *Engine) QueriesHash() string {
	return e.catalog.Hash()
}

// Analyze reads path and runs every consumed query kind over it.
func (e *Engine) Analyze(ctx context.Context, path string) (*FileAnalysis, error) {
	id, err := e.identify(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codehud: read %s: %w", path, err)
	}
	return e.analyze(ctx, path, id, src, query.Consumed, store.KindFull)
}

// AnalyzeSource analyzes src as if it were the content of path. The path
// selects the language and keys the cache.
func (e *Engine) AnalyzeSource(ctx context.Context, path string, src []byte) (*FileAnalysis, error) {
	id, err := e.identify(path)
	if err != nil {
		return nil, err
	}
	return e.analyze(ctx, path, id, src, query.Consumed, store.KindFull)
}

// AnalyzeImports runs only the imports query. It satisfies
// depgraph.ImportSource.
func (e *Engine) AnalyzeImports(ctx context.Context, path string) (*ImportResult, error) {
	id, err := e.identify(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codehud: read %s: %w", path, err)
	}
	a, err := e.analyze(ctx, path, id, src, []query.Kind{query.Imports}, store.KindImports)
	if err != nil {
		return nil, err
	}
	return a.Imports, nil
}

func (e *Engine) identify(path string) (lang.ID, error) {
	id, ok := lang.Identify(path)
	if !ok {
		return 0, fmt.Errorf("codehud: %s: %w", path, ErrUnsupportedFile)
	}
	if !e.grammars.Has(id) {
		return 0, fmt.Errorf("codehud: %s: %s: %w", path, id, ErrCapabilityUnavailable)
	}
	return id, nil
}

func (e *Engine) analyze(ctx context.Context, path string, id lang.ID, src []byte, kinds []query.Kind, kind string) (*FileAnalysis, error) {
	start := time.Now()
	hash := store.ContentHash(src)
	if a := e.cached(path, hash, kind); a != nil {
		telemetry.FilesAnalyzed.WithLabelValues(id.Name(), telemetry.ResultCached).Inc()
		return a, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tree, err := e.grammars.Parse(ctx, id, src)
	if err != nil {
		if errors.Is(err, ErrParseFailure) {
			telemetry.FilesAnalyzed.WithLabelValues(id.Name(), telemetry.ResultParseFailed).Inc()
		}
		return nil, fmt.Errorf("codehud: %s: %w", path, err)
	}
	defer tree.Close()

	a := &FileAnalysis{Path: path, Language: id, Lines: lineCount(src)}
	root := tree.RootNode()
	for _, k := range kinds {
		q, ok := e.catalog.Get(id, k)
		if !ok {
			e.logMissing(id, k)
			continue
		}
		ts := match.NewTreeSource(q, root, src)
		limited := match.Limit(ts, match.LimitFor(k, a.Lines, e.matchLimit))
		matches, err := match.Collect(ctx, limited)
		ts.Close()
		if err != nil {
			return nil, err
		}
		if limited.Truncated() {
			e.logger.Debug("match stream truncated", "path", path, "kind", k.String(), "limit", limited.Count())
			telemetry.MatchTruncations.WithLabelValues(k.String()).Inc()
		}
		a.Apply(k, matches)
	}

	e.save(a, hash, kind)
	telemetry.FilesAnalyzed.WithLabelValues(id.Name(), telemetry.ResultOK).Inc()
	telemetry.AnalyzeDuration.WithLabelValues(id.Name()).Observe(time.Since(start).Seconds())
	return a, nil
}

// cached returns a stored result, falling back from an imports-only lookup
// to a full analysis of the same content. Cache errors count as misses.
func (e *Engine) cached(path, hash, kind string) *FileAnalysis {
	if e.cache == nil {
		return nil
	}
	kinds := []string{kind}
	if kind == store.KindImports {
		kinds = append(kinds, store.KindFull)
	}
	for _, k := range kinds {
		data, err := e.cache.Lookup(path, hash, k)
		if err != nil {
			e.logger.Warn("cache lookup failed", "path", path, "error", err)
			break
		}
		if data == nil {
			continue
		}
		var a FileAnalysis
		if err := json.Unmarshal(data, &a); err != nil {
			e.logger.Warn("cache entry unreadable", "path", path, "error", err)
			break
		}
		telemetry.CacheLookups.WithLabelValues("hit").Inc()
		return &a
	}
	telemetry.CacheLookups.WithLabelValues("miss").Inc()
	return nil
}

func (e *Engine) save(a *FileAnalysis, hash, kind string) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		e.logger.Warn("cache encode failed", "path", a.Path, "error", err)
		return
	}
	err = e.cache.Save(store.Entry{
		File: store.File{Path: a.Path, Language: a.Language.Name(), Hash: hash, LineCount: a.Lines},
		Kind: kind,
		Data: data,
	})
	if err != nil {
		e.logger.Warn("cache write failed", "path", a.Path, "error", err)
	}
}

type missingKey struct {
	lang lang.ID
	kind query.Kind
}

func (e *Engine) logMissing(id lang.ID, k query.Kind) {
	if _, seen := e.missing.LoadOrStore(missingKey{id, k}, true); seen {
		return
	}
	e.logger.Debug("query unavailable", "language", id.Name(), "kind", k.String())
}

// LanguageInfo describes one registry entry as seen by this Engine.
type LanguageInfo struct {
	Language   Language     `json:"language"`
	Extensions []string     `json:"extensions"`
	Bound      bool         `json:"bound"`
	Kinds      []query.Kind `json:"-"`
	KindNames  []string     `json:"queries"`
}

// Languages lists every registered language in ID order.
func (e *Engine) Languages() []LanguageInfo {
	ids := lang.All()
	out := make([]LanguageInfo, 0, len(ids))
	for _, id := range ids {
		info := LanguageInfo{
			Language:   id,
			Extensions: id.Extensions(),
			Bound:      e.grammars.Has(id),
			Kinds:      e.catalog.Available(id),
			KindNames:  []string{},
		}
		for _, k := range info.Kinds {
			info.KindNames = append(info.KindNames, k.String())
		}
		out = append(out, info)
	}
	return out
}

func lineCount(src []byte) int {
	n := bytes.Count(src, []byte{'\n'})
	if len(src) > 0 && src[len(src)-1] != '\n' {
		n++
	}
	return n
}
