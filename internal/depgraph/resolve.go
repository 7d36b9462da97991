package depgraph

import (
	"path"
	"sort"
	"strings"

	"github.com/jward/codehud/internal/lang"
)

// Resolver proposes project-relative file paths an import may refer to, in
// preference order. A candidate ending in "/" names a directory and matches
// the first graph file directly inside it.
type Resolver interface {
	Candidates(importer string, id lang.ID, raw string) []string
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(importer string, id lang.ID, raw string) []string

// Candidates calls f.
func (f ResolverFunc) Candidates(importer string, id lang.ID, raw string) []string {
	return f(importer, id, raw)
}

// DefaultResolver maps import text onto conventional file layouts. It is a
// heuristic and performs no semantic module resolution.
type DefaultResolver struct {
	// Prefixes are stripped from path-style imports (Go module paths).
	Prefixes []string
}

var sourceExts = map[lang.ID][]string{
	lang.Python:     {".py"},
	lang.JavaScript: {".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"},
	lang.TypeScript: {".ts", ".tsx", ".d.ts", ".js", ".jsx"},
	lang.Rust:       {".rs"},
	lang.Java:       {".java"},
	lang.Kotlin:     {".kt"},
	lang.Go:         {".go"},
	lang.C:          {".h", ".c"},
	lang.Cpp:        {".h", ".hpp", ".cpp", ".cc"},
	lang.Ruby:       {".rb"},
	lang.PHP:        {".php"},
	lang.CSharp:     {".cs"},
}

// Candidates implements Resolver.
func (r DefaultResolver) Candidates(importer string, id lang.ID, raw string) []string {
	dir := path.Dir(importer)
	switch id {
	case lang.Python:
		return pythonCandidates(dir, raw)
	case lang.JavaScript, lang.TypeScript:
		return scriptCandidates(dir, id, raw)
	case lang.Rust:
		return rustCandidates(importer, raw)
	case lang.Go:
		return r.goCandidates(raw)
	default:
		return genericCandidates(dir, id, raw)
	}
}

func pythonCandidates(dir, raw string) []string {
	if strings.HasPrefix(raw, ".") {
		rest := strings.TrimLeft(raw, ".")
		base := dir
		for i := 1; i < len(raw)-len(rest); i++ {
			base = path.Dir(base)
		}
		if rest == "" {
			return []string{path.Join(base, "__init__.py")}
		}
		p := path.Join(base, strings.ReplaceAll(rest, ".", "/"))
		out := []string{p + ".py", p + "/__init__.py"}
		if !strings.Contains(rest, ".") {
			// from . import name, where name is defined by the package.
			out = append(out, path.Join(base, "__init__.py"))
		}
		return out
	}
	p := strings.ReplaceAll(raw, ".", "/")
	return []string{
		p + ".py",
		p + "/__init__.py",
		"src/" + p + ".py",
		"src/" + p + "/__init__.py",
	}
}

func scriptCandidates(dir string, id lang.ID, raw string) []string {
	var base string
	if strings.HasPrefix(raw, ".") {
		base = path.Join(dir, raw)
	} else {
		base = path.Clean(raw)
	}
	exts := sourceExts[id]
	out := []string{base}
	for _, ext := range exts {
		out = append(out, base+ext)
	}
	for _, ext := range exts {
		out = append(out, base+"/index"+ext)
	}
	return out
}

// rustCandidates walks a use path from its longest prefix down, since the
// tail may name an item rather than a module.
func rustCandidates(importer, raw string) []string {
	segs := strings.Split(raw, "::")
	var root string
	switch segs[0] {
	case "crate":
		root, segs = "src", segs[1:]
	case "self":
		if len(segs) == 1 {
			return nil
		}
		root, segs = rustModuleDir(importer), segs[1:]
	case "super":
		root = rustModuleDir(importer)
		for len(segs) > 0 && segs[0] == "super" {
			root, segs = path.Dir(root), segs[1:]
		}
	default:
		return nil
	}

	if len(segs) == 0 {
		return rustModuleFiles(root)
	}
	var out []string
	for n := len(segs); n > 0; n-- {
		p := path.Join(root, path.Join(segs[:n]...))
		out = append(out, p+".rs", p+"/mod.rs")
	}
	return out
}

// rustModuleFiles lists the files that can define the module whose children
// live in dir.
func rustModuleFiles(dir string) []string {
	if dir == "src" {
		return []string{"src/lib.rs", "src/main.rs"}
	}
	return []string{dir + ".rs", dir + "/mod.rs"}
}

// rustModuleDir is the directory holding the children of the module that
// importer defines.
func rustModuleDir(importer string) string {
	dir := path.Dir(importer)
	switch path.Base(importer) {
	case "mod.rs", "lib.rs", "main.rs":
		return dir
	}
	return path.Join(dir, strings.TrimSuffix(path.Base(importer), ".rs"))
}

func (r DefaultResolver) goCandidates(raw string) []string {
	for _, p := range r.Prefixes {
		if p == "" {
			continue
		}
		if raw == p {
			return []string{"./"}
		}
		if rest, ok := strings.CutPrefix(raw, p+"/"); ok {
			return []string{rest + "/"}
		}
	}
	return []string{raw + "/"}
}

func genericCandidates(dir string, id lang.ID, raw string) []string {
	if strings.HasPrefix(raw, ".") && strings.Contains(raw, "/") {
		return []string{path.Join(dir, raw)}
	}
	p := raw
	if !strings.Contains(p, "/") {
		p = strings.ReplaceAll(p, ".", "/")
	}
	out := []string{raw, path.Join(dir, raw)}
	for _, ext := range sourceExts[id] {
		out = append(out, p+ext, "src/"+p+ext)
		if id == lang.Java || id == lang.Kotlin {
			out = append(out, "src/main/java/"+p+ext)
		}
	}
	if id == lang.Java || id == lang.Kotlin {
		out = append(out, p+"/", "src/main/java/"+p+"/")
	}
	return out
}

// Adjacency maps each node to the sorted nodes its internal imports
// resolve to. Self-edges are kept.
type Adjacency map[string][]string

// Link resolves every internal import of g through r. An import that
// resolves to no graph node contributes no edge.
func Link(g *Graph, r Resolver) Adjacency {
	l := linker{g: g, r: r, dirs: map[string][]string{}}
	for _, p := range g.Paths() {
		d := path.Dir(p)
		l.dirs[d] = append(l.dirs[d], p)
	}

	adj := Adjacency{}
	for _, p := range g.Paths() {
		n := g.Nodes[p]
		seen := map[string]struct{}{}
		targets := []string{}
		for _, raw := range n.Internal {
			t, ok := l.resolve(n, raw)
			if !ok {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			targets = append(targets, t)
		}
		sort.Strings(targets)
		adj[p] = targets
	}
	return adj
}

// Edges counts the edges of a.
func (a Adjacency) Edges() int {
	n := 0
	for _, ts := range a {
		n += len(ts)
	}
	return n
}

type linker struct {
	g    *Graph
	r    Resolver
	dirs map[string][]string // directory -> sorted member paths
}

func (l *linker) resolve(n *FileNode, raw string) (string, bool) {
	for _, c := range l.r.Candidates(n.Path, n.Language, raw) {
		if dir, isDir := strings.CutSuffix(c, "/"); isDir {
			members := l.dirs[path.Clean(dir)]
			for _, m := range members {
				if m != n.Path {
					return m, true
				}
			}
			continue
		}
		c = path.Clean(c)
		if _, ok := l.g.Nodes[c]; ok {
			return c, true
		}
	}
	return "", false
}
