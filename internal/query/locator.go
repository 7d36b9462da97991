package query

import (
	"io/fs"
	"os"
	"path"

	"github.com/jward/codehud/internal/lang"
)

// Layout describes how definitions are arranged inside a Source.
type Layout int

const (
	// LayoutQueries is "<langdir>/<kind>.scm".
	LayoutQueries Layout = iota
	// LayoutGrammar is "<langdir>/queries/<kind>.scm", the layout of a
	// checked-out grammar repository.
	LayoutGrammar
)

// Source is one candidate location for query definitions.
type Source struct {
	Name   string
	FS     fs.FS
	Layout Layout
}

func (s Source) path(id lang.ID, k Kind) string {
	if s.Layout == LayoutGrammar {
		return path.Join(id.QueryDir(), "queries", k.Filename())
	}
	return path.Join(id.QueryDir(), k.Filename())
}

// Locator finds definition text by trying its sources in order.
type Locator struct {
	sources []Source
}

// NewLocator returns a Locator over sources, tried in the order given.
func NewLocator(sources ...Source) *Locator {
	return &Locator{sources: sources}
}

// DirSource is a Source reading from a directory on disk.
func DirSource(dir string, layout Layout) Source {
	return Source{Name: dir, FS: os.DirFS(dir), Layout: layout}
}

// DefaultSources returns the standard candidate order: extra directories
// first, then the well-known relative locations, then the embedded
// definitions (when non-nil).
func DefaultSources(extraDirs []string, embedded fs.FS) []Source {
	var out []Source
	for _, d := range extraDirs {
		out = append(out, DirSource(d, LayoutQueries))
	}
	out = append(out,
		DirSource("queries", LayoutQueries),
		DirSource(path.Join("..", "queries"), LayoutQueries),
		DirSource(path.Join("codehud-core", "queries"), LayoutQueries),
		DirSource("tree-sitter-grammars", LayoutGrammar),
	)
	if embedded != nil {
		out = append(out, Source{Name: "embedded", FS: embedded, Layout: LayoutQueries})
	}
	return out
}

// Find returns the definition text for (id, k) from the first source that
// has it, along with that source's name.
func (l *Locator) Find(id lang.ID, k Kind) ([]byte, string, bool) {
	if id.QueryDir() == "" {
		return nil, "", false
	}
	for _, s := range l.sources {
		if s.FS == nil {
			continue
		}
		data, err := fs.ReadFile(s.FS, s.path(id, k))
		if err != nil {
			continue
		}
		return data, s.Name, true
	}
	return nil, "", false
}

// Sources returns the configured sources in lookup order.
func (l *Locator) Sources() []Source {
	return append([]Source(nil), l.sources...)
}
