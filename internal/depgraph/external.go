package depgraph

import (
	"sort"
	"strings"

	"github.com/jward/codehud/internal/lang"
)

// DepCount is an external import and the number of files using it.
type DepCount struct {
	Module string `json:"module"`
	Count  int    `json:"count"`
}

// ExternalDeps summarizes imports from outside the project.
type ExternalDeps struct {
	Total             int        `json:"total_external_dependencies"`
	MostUsed          []DepCount `json:"most_used_external"`
	Stdlib            []DepCount `json:"stdlib_dependencies"`
	ThirdParty        []DepCount `json:"third_party_dependencies"`
	FilesWithExternal int        `json:"files_with_external_deps"`
}

const mostUsedLimit = 15

var pythonStdlib = toSet([]string{
	"os", "sys", "json", "re", "datetime", "pathlib", "typing", "collections",
	"subprocess", "logging", "contextlib", "dataclasses", "functools", "itertools",
	"ast", "inspect", "importlib", "hashlib", "uuid", "time", "threading",
	"multiprocessing", "concurrent", "asyncio", "io", "tempfile", "shutil",
	"abc", "argparse", "base64", "copy", "csv", "enum", "glob", "math", "random",
	"socket", "string", "struct", "textwrap", "traceback", "unittest", "urllib",
	"warnings", "weakref",
})

var nodeBuiltins = toSet([]string{
	"assert", "buffer", "child_process", "cluster", "crypto", "dgram", "dns",
	"events", "fs", "http", "http2", "https", "net", "os", "path", "process",
	"querystring", "readline", "stream", "string_decoder", "timers", "tls",
	"tty", "url", "util", "v8", "vm", "worker_threads", "zlib",
})

var rustStdlib = toSet([]string{"std", "core", "alloc", "proc_macro", "test"})

// Stdlib reports whether an external import belongs to the standard
// library of id.
func Stdlib(id lang.ID, raw string) bool {
	switch id {
	case lang.Python:
		_, ok := pythonStdlib[strings.SplitN(raw, ".", 2)[0]]
		return ok
	case lang.Go:
		first := strings.SplitN(raw, "/", 2)[0]
		return !strings.Contains(first, ".")
	case lang.JavaScript, lang.TypeScript:
		if strings.HasPrefix(raw, "node:") {
			return true
		}
		_, ok := nodeBuiltins[strings.SplitN(raw, "/", 2)[0]]
		return ok
	case lang.Rust:
		_, ok := rustStdlib[strings.SplitN(raw, "::", 2)[0]]
		return ok
	case lang.Java, lang.Kotlin:
		return strings.HasPrefix(raw, "java.") || strings.HasPrefix(raw, "javax.") || strings.HasPrefix(raw, "kotlin.")
	default:
		return false
	}
}

// External counts each external import across files and splits the
// standard library from third-party code. Both splits are ordered by count.
func External(g *Graph) ExternalDeps {
	counts := map[string]int{}
	langOf := map[string]lang.ID{}
	files := 0
	for _, p := range g.Paths() {
		n := g.Nodes[p]
		if len(n.External) > 0 {
			files++
		}
		for _, raw := range n.External {
			counts[raw]++
			if _, ok := langOf[raw]; !ok {
				langOf[raw] = n.Language
			}
		}
	}

	ranked := make([]DepCount, 0, len(counts))
	for m, c := range counts {
		ranked = append(ranked, DepCount{Module: m, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Module < ranked[j].Module
	})

	out := ExternalDeps{
		Total:             len(counts),
		Stdlib:            []DepCount{},
		ThirdParty:        []DepCount{},
		FilesWithExternal: files,
	}
	for _, d := range ranked {
		if Stdlib(langOf[d.Module], d.Module) {
			out.Stdlib = append(out.Stdlib, d)
		} else {
			out.ThirdParty = append(out.ThirdParty, d)
		}
	}
	out.MostUsed = ranked[:min(len(ranked), mostUsedLimit)]
	return out
}
