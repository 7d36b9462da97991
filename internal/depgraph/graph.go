package depgraph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jward/codehud/internal/grammar"
	"github.com/jward/codehud/internal/lang"
	"github.com/jward/codehud/internal/match"
	"github.com/jward/codehud/internal/walk"
)

// FileNode is the import profile of one file.
type FileNode struct {
	Path        string         `json:"path"`
	Language    lang.ID        `json:"language"`
	Records     []ImportRecord `json:"records"`
	Imports     []string       `json:"imports"`
	Internal    []string       `json:"internal"`
	External    []string       `json:"external"`
	FromImports []string       `json:"from_imports"`

	CouplingScore    float64 `json:"coupling_score"`
	ImportComplexity float64 `json:"import_complexity"`
}

// NewNode classifies records into a FileNode. Internal and External keep
// the record order and together cover Imports exactly.
func NewNode(path string, id lang.ID, records []ImportRecord, cls Classifier) *FileNode {
	n := &FileNode{
		Path:        path,
		Language:    id,
		Records:     records,
		Imports:     make([]string, 0, len(records)),
		Internal:    []string{},
		External:    []string{},
		FromImports: []string{},
	}
	for _, r := range records {
		n.Imports = append(n.Imports, r.Raw)
		if cls.Internal(r.Raw) {
			n.Internal = append(n.Internal, r.Raw)
		} else {
			n.External = append(n.External, r.Raw)
		}
		if r.FromStyle {
			n.FromImports = append(n.FromImports, r.Raw)
		}
	}
	n.CouplingScore = float64(len(n.Imports)) + 0.5*float64(len(n.Internal))
	n.ImportComplexity = importComplexity(records)
	return n
}

// importComplexity weighs star imports, aliases and module depth.
func importComplexity(records []ImportRecord) float64 {
	var c float64
	for _, r := range records {
		if r.Wildcard {
			c += 5
		}
		if r.Alias != "" {
			c += 0.5
		}
		c += 0.2 * float64(dots(r.Raw))
	}
	return c
}

// Warning records a file that could not be analyzed.
type Warning struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Graph maps each file with at least one import to its node.
type Graph struct {
	Root       string
	Classifier Classifier
	Nodes      map[string]*FileNode

	Analyzed int       // files offered to the builder
	Skipped  int       // files with no bound grammar
	Failed   int       // files that produced a warning
	Warnings []Warning // sorted by path
}

// NewGraph returns an empty graph.
func NewGraph(root string, cls Classifier) *Graph {
	return &Graph{Root: root, Classifier: cls, Nodes: map[string]*FileNode{}}
}

// Add inserts n. Nodes without imports are not kept.
func (g *Graph) Add(n *FileNode) {
	if n == nil || len(n.Imports) == 0 {
		return
	}
	g.Nodes[n.Path] = n
}

// Node returns the node for path, or nil.
func (g *Graph) Node(path string) *FileNode { return g.Nodes[path] }

// Imports returns the raw imports of path.
func (g *Graph) Imports(path string) []string {
	if n := g.Nodes[path]; n != nil {
		return n.Imports
	}
	return nil
}

// Paths returns node paths in lexical order.
func (g *Graph) Paths() []string {
	out := make([]string, 0, len(g.Nodes))
	for p := range g.Nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len reports the node count.
func (g *Graph) Len() int { return len(g.Nodes) }

// ImportSource yields the import facts of one file.
type ImportSource interface {
	AnalyzeImports(ctx context.Context, path string) (*match.ImportResult, error)
}

// Builder accumulates analysis outcomes into a Graph. Record is safe for
// concurrent use.
type Builder struct {
	mu     sync.Mutex
	g      *Graph
	logger *slog.Logger
}

// NewBuilder starts a graph rooted at root.
func NewBuilder(root string, cls Classifier, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{g: NewGraph(root, cls), logger: logger}
}

// Record adds the outcome of analyzing f. A file whose language has no
// bound grammar is counted as skipped; any other error becomes a warning.
func (b *Builder) Record(f walk.File, res *match.ImportResult, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.g.Analyzed++
	if err != nil {
		if errors.Is(err, grammar.ErrUnavailable) {
			b.g.Skipped++
			b.logger.Debug("skipping file", "path", f.Path, "language", f.Language, "reason", err)
			return
		}
		b.g.Failed++
		b.g.Warnings = append(b.g.Warnings, Warning{Path: f.Path, Error: err.Error()})
		b.logger.Warn("file analysis failed", "path", f.Path, "error", err)
		return
	}
	b.g.Add(NewNode(f.Path, f.Language, Normalize(f.Language, res), b.g.Classifier))
}

// Graph returns the accumulated graph.
func (b *Builder) Graph() *Graph {
	b.mu.Lock()
	defer b.mu.Unlock()
	sort.Slice(b.g.Warnings, func(i, j int) bool { return b.g.Warnings[i].Path < b.g.Warnings[j].Path })
	return b.g
}

// Build analyzes files one at a time and returns their graph. Per-file
// failures are recorded as warnings; only cancellation aborts the build.
func Build(ctx context.Context, root string, files []walk.File, src ImportSource, cls Classifier, logger *slog.Logger) (*Graph, error) {
	b := NewBuilder(root, cls, logger)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := src.AnalyzeImports(ctx, filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.Record(f, res, err)
	}
	return b.Graph(), nil
}
