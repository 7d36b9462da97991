// Package query loads and compiles the per-language, per-purpose tree-sitter
// query definitions.
package query

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/codehud/internal/lang"
	"github.com/jward/codehud/internal/telemetry"
)

// Grammars is the subset of the grammar pool the catalog compiles against.
type Grammars interface {
	Bound() []lang.ID
	Get(id lang.ID) (*sitter.Language, error)
}

type key struct {
	lang lang.ID
	kind Kind
}

// Catalog holds compiled queries keyed by (language, kind). It is built once
// and read-only afterwards. A missing entry means the purpose is unavailable
// for that language.
type Catalog struct {
	queries map[key]*sitter.Query
	origin  map[key]string
	hash    string
}

// Load compiles every (language, kind) pair the grammars support. Missing
// definitions and compile failures are logged and skipped; Load never fails.
func Load(g Grammars, loc *Locator, logger *slog.Logger, kinds ...Kind) *Catalog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(kinds) == 0 {
		kinds = Consumed
	}

	c := &Catalog{
		queries: make(map[key]*sitter.Query),
		origin:  make(map[key]string),
	}
	h := xxhash.New()

	for _, id := range g.Bound() {
		grammar, err := g.Get(id)
		if err != nil {
			continue
		}
		for _, k := range kinds {
			text, from, ok := loc.Find(id, k)
			if !ok {
				logger.Debug("query definition not found", "language", id.Name(), "kind", k.String())
				continue
			}
			q, err := sitter.NewQuery(text, grammar)
			if err != nil {
				logger.Warn("query compile failed",
					"language", id.Name(), "kind", k.String(), "source", from, "error", err)
				telemetry.QueryCompileFailures.WithLabelValues(id.Name(), k.String()).Inc()
				continue
			}
			kk := key{lang: id, kind: k}
			c.queries[kk] = q
			c.origin[kk] = from

			fmt.Fprintf(h, "%s/%s\x00", id.Name(), k.String())
			_, _ = h.Write(text)
			_, _ = h.Write([]byte{0})
		}
	}
	c.hash = fmt.Sprintf("%016x", h.Sum64())
	return c
}

// Get returns the compiled query for (id, k).
func (c *Catalog) Get(id lang.ID, k Kind) (*sitter.Query, bool) {
	q, ok := c.queries[key{lang: id, kind: k}]
	return q, ok
}

// Origin names the source a compiled query was loaded from.
func (c *Catalog) Origin(id lang.ID, k Kind) string {
	return c.origin[key{lang: id, kind: k}]
}

// Available lists the kinds compiled for id, in Kind order.
func (c *Catalog) Available(id lang.ID) []Kind {
	var out []Kind
	for kk := range c.queries {
		if kk.lang == id {
			out = append(out, kk.kind)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len is the number of compiled queries.
func (c *Catalog) Len() int { return len(c.queries) }

// Hash digests every loaded definition. It changes whenever any definition
// text changes, appears or disappears.
func (c *Catalog) Hash() string { return c.hash }

// Close releases the compiled queries.
func (c *Catalog) Close() {
	for kk, q := range c.queries {
		q.Close()
		delete(c.queries, kk)
	}
}
