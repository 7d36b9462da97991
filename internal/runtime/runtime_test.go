package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/codehud/internal/depgraph"
	"github.com/jward/codehud/internal/lang"
	"github.com/jward/codehud/scripts"
)

// --- Host function tests (via RunSource) ---

func TestRunSource_StringHelpers(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	script := `
parts := split("a.b.c", ".")
assert(len(parts) == 3, 'expected 3 parts, got {len(parts)}')
assert(join(parts, "/") == "a/b/c", "join")
assert(has_prefix("crate::x", "crate::"), "has_prefix")
assert(!has_prefix("x", "crate::"), "has_prefix negative")
assert(has_suffix("util.js", ".js"), "has_suffix")
assert(contains("pkg.core", "."), "contains")
assert(trim_prefix("pkg.core", "pkg.") == "core", "trim_prefix")
assert(trim_suffix("util.js", ".js") == "util", "trim_suffix")
assert(trim_left("..mod", ".") == "mod", "trim_left")
assert(replace("a.b.c", ".", "/") == "a/b/c", "replace")
assert(count("a.b.c", ".") == 2, "count")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_PathHelpers(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	script := `
assert(path_dir("pkg/sub/a.py") == "pkg/sub", "path_dir")
assert(path_dir("a.py") == ".", "path_dir root")
assert(path_base("pkg/sub/a.py") == "a.py", "path_base")
assert(path_join("pkg", "sub", "../b.py") == "pkg/b.py", "path_join")
assert(path_join(".", "x") == "x", "path_join dot")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_HostFuncArgErrors(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	for _, script := range []string{
		`split("a")`,
		`has_prefix("a", 1)`,
		`join("notalist", "/")`,
		`join([1, 2], "/")`,
		`path_join("a", 2)`,
	} {
		err := rt.RunSource(context.Background(), script, nil)
		assert.Error(t, err, script)
	}
}

func TestRunSource_LogForwardsToSlog(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt := NewRuntime("", WithRuntimeLogger(logger))

	require.NoError(t, rt.RunSource(context.Background(), `log.Warn("careful")`, nil))
	assert.Contains(t, buf.String(), "careful")
	assert.Contains(t, buf.String(), "source=script")
}

func TestRunSource_ExtraGlobals(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	script := `
assert(import_text == "pkg.core", 'got {import_text}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, map[string]any{"import_text": "pkg.core"}))
}

func TestRunSource_NoImport_NoRegression(t *testing.T) {
	rt := NewRuntime("")

	script := `
x := 1 + 2
assert(x == 3, 'expected 3')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

// --- Script loading tests ---

func TestRunScript_LoadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(`result := 1 + 1`), 0644))

	rt := NewRuntime(dir)
	require.NoError(t, rt.RunScript(context.Background(), "test.risor", nil))
}

func TestRunScript_MissingFile(t *testing.T) {
	rt := NewRuntime(t.TempDir())
	err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.risor")
	content := `x := 42`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rt := NewRuntime(dir)
	got, err := rt.LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestResolutionScriptPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("resolve", "go.risor"), ResolutionScriptPath("go"))
}

func TestLoadScript_FromFSFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"resolve/go.risor": &fstest.MapFile{Data: []byte(content)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("resolve/go.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Absolute-style path should be resolved within the FS.
	got, err = rt.LoadScript("/resolve/go.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFSFS_NotFound(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("", WithRuntimeFS(fstest.MapFS{}))
	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestRunScript_FromFSFS(t *testing.T) {
	mapFS := fstest.MapFS{
		"test.risor": &fstest.MapFile{Data: []byte(`result := 1 + 1`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))
	require.NoError(t, rt.RunScript(context.Background(), "test.risor", nil))
}

// --- Importer wiring tests ---

func TestImport_FSImporter(t *testing.T) {
	// Risor's FSImporter resolves "lib_helpers" by trying name + ".risor".
	mapFS := fstest.MapFS{
		"lib_helpers.risor": &fstest.MapFile{Data: []byte(`
func dotted_to_path(s) {
	return join(split(s, "."), "/")
}
`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	script := `
import lib_helpers

p := lib_helpers.dotted_to_path("pkg.core")
assert(p == "pkg/core", 'expected pkg/core, got ' + p)
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0644))

	rt := NewRuntime(dir)

	script := `
import math_utils

result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_GlobalsAvailableInImportedModules(t *testing.T) {
	mapFS := fstest.MapFS{
		"helper.risor": &fstest.MapFile{Data: []byte(`
func do_log(msg) {
	log.Info(msg)
}
`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	script := `
import helper
helper.do_log("test message")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

// --- Resolver tests ---

func newScriptResolver(t *testing.T, prefixes ...string) *Resolver {
	t.Helper()
	rt := NewRuntime("", WithRuntimeFS(scripts.FS))
	r, err := NewResolver(context.Background(), rt, depgraph.DefaultResolver{Prefixes: prefixes}, prefixes)
	require.NoError(t, err)
	return r
}

func TestResolver_EmbeddedScripts(t *testing.T) {
	t.Parallel()
	r := newScriptResolver(t)
	assert.Equal(t, []lang.ID{lang.Python, lang.JavaScript, lang.TypeScript, lang.Go}, r.Scripted())
}

func TestResolver_PythonScript(t *testing.T) {
	t.Parallel()
	r := newScriptResolver(t)

	assert.Equal(t,
		[]string{"pkg/core.py", "pkg/core/__init__.py", "src/pkg/core.py", "src/pkg/core/__init__.py"},
		r.Candidates("main.py", lang.Python, "pkg.core"))
	assert.Equal(t,
		[]string{"pkg/util.py", "pkg/util/__init__.py", "pkg/__init__.py"},
		r.Candidates("pkg/sub/a.py", lang.Python, "..util"))
	assert.Equal(t,
		[]string{"pkg/sub/b.py", "pkg/sub/b/__init__.py"},
		r.Candidates("pkg/a.py", lang.Python, ".sub.b"))
	assert.Equal(t,
		[]string{"pkg/__init__.py"},
		r.Candidates("pkg/a.py", lang.Python, "."))
}

func TestResolver_ScriptsAgreeWithDefault(t *testing.T) {
	t.Parallel()
	mod := "github.com/acme/app"
	r := newScriptResolver(t, mod)
	def := depgraph.DefaultResolver{Prefixes: []string{mod}}

	cases := []struct {
		importer string
		id       lang.ID
		raw      string
	}{
		{"main.py", lang.Python, "pkg.core"},
		{"pkg/sub/a.py", lang.Python, ".b"},
		{"pkg/sub/a.py", lang.Python, "..b.c"},
		{"cmd/main.go", lang.Go, mod + "/internal/store"},
		{"cmd/main.go", lang.Go, mod},
		{"src/app/main.js", lang.JavaScript, "../lib/util"},
	}
	for _, c := range cases {
		assert.Equal(t, def.Candidates(c.importer, c.id, c.raw), r.Candidates(c.importer, c.id, c.raw), c.raw)
	}
}

func TestResolver_TypeScriptJSExtension(t *testing.T) {
	t.Parallel()
	r := newScriptResolver(t)

	got := r.Candidates("src/index.ts", lang.TypeScript, "./util.js")
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, "src/util.js", got[0])
	assert.Equal(t, "src/util.ts", got[1])

	assert.Empty(t, r.Candidates("src/index.ts", lang.TypeScript, "react"))
}

func TestResolver_FallbackForUnscripted(t *testing.T) {
	t.Parallel()
	r := newScriptResolver(t)
	assert.Equal(t,
		[]string{"src/net.rs", "src/net/mod.rs"},
		r.Candidates("src/main.rs", lang.Rust, "crate::net"))
}

func TestResolver_BrokenScriptFallsBack(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	mapFS := fstest.MapFS{
		"resolve/python.risor": &fstest.MapFile{Data: []byte(`emit(undefined_name)`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS), WithRuntimeLogger(logger))
	fallback := depgraph.ResolverFunc(func(string, lang.ID, string) []string { return []string{"fallback.py"} })

	r, err := NewResolver(context.Background(), rt, fallback, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"fallback.py"}, r.Candidates("a.py", lang.Python, "x"))
	assert.Equal(t, []string{"fallback.py"}, r.Candidates("a.py", lang.Python, "y"))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("resolution script failed")))
}

func TestResolver_NoScriptSource(t *testing.T) {
	t.Parallel()
	r, err := NewResolver(context.Background(), NewRuntime(""), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, r.Scripted())
	assert.Nil(t, r.Candidates("a.py", lang.Python, "x"))
}

func TestResolver_DrivesCycleDetection(t *testing.T) {
	t.Parallel()
	cls := depgraph.NewClassifier("pkg")
	g := depgraph.NewGraph("/repo", cls)
	for path, raw := range map[string]string{
		"pkg/x.py": "pkg.y",
		"pkg/y.py": "pkg.x",
	} {
		g.Add(depgraph.NewNode(path, lang.Python, []depgraph.ImportRecord{{Raw: raw}}, cls))
	}

	cycles := depgraph.DetectCycles(g, newScriptResolver(t))
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"pkg/x.py", "pkg/y.py", "pkg/x.py"}, cycles[0].Path)
}
