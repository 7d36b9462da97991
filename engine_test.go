package codehud

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/codehud/internal/depgraph"
	"github.com/jward/codehud/internal/lang"
	"github.com/jward/codehud/internal/query"
	"github.com/jward/codehud/internal/store"
	"github.com/jward/codehud/internal/telemetry"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func assertSameJSON(t *testing.T, want, got any) {
	t.Helper()
	w, err := json.Marshal(want)
	require.NoError(t, err)
	g, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(w), string(g))
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const goSource = `package main

import (
	"fmt"
	str "strings"
)

// Greet says hello.
func Greet(name string) string {
	if name == "" {
		return "hello"
	}
	return str.ToUpper(name)
}

func main() {
	fmt.Println(Greet("x"))
}
`

const pySource = `import os
from pkg.util import helper as h

# entry point
def run(path):
    for p in os.listdir(path):
        if p:
            h(p)
`

func TestNew_BindsGrammarsAndQueries(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	var goInfo *LanguageInfo
	var jsonInfo *LanguageInfo
	infos := e.Languages()
	for i := range infos {
		switch infos[i].Language {
		case lang.Go:
			goInfo = &infos[i]
		case lang.JSON:
			jsonInfo = &infos[i]
		}
	}
	require.NotNil(t, goInfo)
	assert.True(t, goInfo.Bound)
	assert.Contains(t, goInfo.Kinds, query.Imports)
	assert.Contains(t, goInfo.KindNames, "functions")

	require.NotNil(t, jsonInfo)
	assert.False(t, jsonInfo.Bound)
	assert.Empty(t, jsonInfo.Kinds)
	assert.NotEmpty(t, e.QueriesHash())
}

func TestWithLanguages_RestrictsGrammars(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithLanguages(lang.Python))

	_, err := e.AnalyzeSource(context.Background(), "main.go", []byte(goSource))
	require.ErrorIs(t, err, ErrCapabilityUnavailable)

	a, err := e.AnalyzeSource(context.Background(), "run.py", []byte(pySource))
	require.NoError(t, err)
	assert.Equal(t, lang.Python, a.Language)
}

func TestAnalyzeSource_Go(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	a, err := e.AnalyzeSource(context.Background(), "main.go", []byte(goSource))
	require.NoError(t, err)
	assert.Equal(t, "main.go", a.Path)
	assert.Equal(t, lang.Go, a.Language)
	assert.Equal(t, 18, a.Lines)

	require.NotNil(t, a.Imports)
	var modules []string
	for _, en := range a.Imports.Entries {
		if en.Module != "" {
			modules = append(modules, en.Module)
		} else if en.Text != "" {
			modules = append(modules, en.Text)
		}
	}
	assert.Contains(t, modules, `"fmt"`)
	assert.Contains(t, modules, `"strings"`)

	require.NotNil(t, a.Functions)
	names := []string{}
	for _, f := range a.Functions.Functions {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"Greet", "main"}, names)

	require.NotNil(t, a.Calls)
	assert.Positive(t, a.Calls.Total)
	require.NotNil(t, a.Complexity)
	assert.Greater(t, a.Complexity.Total, 1)
	assert.NotNil(t, a.Comments)
}

func TestAnalyzeSource_Python(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	a, err := e.AnalyzeSource(context.Background(), "run.py", []byte(pySource))
	require.NoError(t, err)
	require.NotNil(t, a.Imports)

	var sawAlias bool
	for _, en := range a.Imports.Entries {
		if en.Module == "pkg.util" {
			assert.Equal(t, "helper", en.Item)
			assert.Equal(t, "h", en.Alias)
			sawAlias = true
		}
	}
	assert.True(t, sawAlias)

	require.NotNil(t, a.Functions)
	require.Len(t, a.Functions.Functions, 1)
	assert.Equal(t, "run", a.Functions.Functions[0].Name)
}

func TestAnalyze_Errors(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Analyze(ctx, "notes.txt")
	require.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = e.Analyze(ctx, "settings.json")
	require.ErrorIs(t, err, ErrCapabilityUnavailable)

	_, err = e.AnalyzeSource(ctx, "bad.go", []byte{0xff, 0xfe, 'x'})
	require.ErrorIs(t, err, ErrParseFailure)
	assert.Contains(t, err.Error(), "bad.go")

	_, err = e.Analyze(ctx, filepath.Join(t.TempDir(), "missing.go"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyze_Cancelled(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.AnalyzeSource(ctx, "main.go", []byte(goSource))
	require.Error(t, err)
}

func TestAnalyzeImports_OnlyImports(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	p := writeSource(t, t.TempDir(), "run.py", pySource)

	res, err := e.AnalyzeImports(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Entries)
}

func TestWithQueryFS_MissingKindsStayNil(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"go/imports.scm":    {Data: []byte(`(import_spec path: (interpreted_string_literal) @module_name)`)},
		"go/functions.scm":  {Data: []byte(`(function_declaration name: (identifier) @name) @function`)},
		"go/complexity.scm": {Data: []byte(`(not_a_real_node) @complexity`)},
	}
	e := newTestEngine(t, WithQueryFS(fsys), WithoutDefaultQueryPaths())

	a, err := e.AnalyzeSource(context.Background(), "main.go", []byte(goSource))
	require.NoError(t, err)
	assert.NotNil(t, a.Imports)
	assert.NotNil(t, a.Functions)
	assert.Nil(t, a.Complexity, "broken definition leaves the kind unavailable")
	assert.Nil(t, a.Calls)
	assert.Nil(t, a.Comments)
}

func TestWithQueryDirs_OverridesEmbedded(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeSource(t, dir, "go/functions.scm", `(method_declaration name: (field_identifier) @name) @method`)
	e := newTestEngine(t, WithQueryDirs(dir))

	a, err := e.AnalyzeSource(context.Background(), "main.go", []byte(goSource))
	require.NoError(t, err)
	require.NotNil(t, a.Functions)
	assert.Zero(t, a.Functions.Total, "override only matches methods")
	assert.NotNil(t, a.Calls, "other kinds still come from the embedded set")
}

func TestWithMatchLimit_Truncates(t *testing.T) {
	e := newTestEngine(t, WithMatchLimit(1))
	before := testutil.ToFloat64(telemetry.MatchTruncations.WithLabelValues("functions"))

	a, err := e.AnalyzeSource(context.Background(), "main.go", []byte(goSource))
	require.NoError(t, err)
	require.NotNil(t, a.Functions)
	assert.Equal(t, 1, a.Functions.Total)
	assert.Equal(t, before+1, testutil.ToFloat64(telemetry.MatchTruncations.WithLabelValues("functions")))
}

func TestWithCache_HitSkipsParse(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.db")
	src := writeSource(t, dir, "main.go", goSource)
	e := newTestEngine(t, WithCache(dbPath))
	ctx := context.Background()

	hits := testutil.ToFloat64(telemetry.CacheLookups.WithLabelValues("hit"))
	first, err := e.Analyze(ctx, src)
	require.NoError(t, err)
	second, err := e.Analyze(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, hits+1, testutil.ToFloat64(telemetry.CacheLookups.WithLabelValues("hit")))
	assertSameJSON(t, first, second)

	// An imports lookup is served from the full analysis.
	res, err := e.AnalyzeImports(ctx, src)
	require.NoError(t, err)
	assertSameJSON(t, first.Imports, res)
	assert.Equal(t, hits+2, testutil.ToFloat64(telemetry.CacheLookups.WithLabelValues("hit")))

	// Changing content misses.
	require.NoError(t, os.WriteFile(src, []byte(goSource+"\nfunc extra() {}\n"), 0o644))
	third, err := e.Analyze(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, first.Functions.Total+1, third.Functions.Total)
}

func TestWithCache_QueryChangeInvalidates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.db")
	src := writeSource(t, dir, "main.go", goSource)

	e1, err := New(WithCache(dbPath))
	require.NoError(t, err)
	_, err = e1.Analyze(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, e1.Close())

	s, err := store.NewStore(dbPath)
	require.NoError(t, err)
	defer s.Close()
	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Files)

	fsys := fstest.MapFS{
		"go/imports.scm": {Data: []byte(`(import_spec path: (interpreted_string_literal) @module_name)`)},
	}
	e2 := newTestEngine(t, WithCache(dbPath), WithQueryFS(fsys), WithoutDefaultQueryPaths())
	assert.NotEqual(t, e1.QueriesHash(), e2.QueriesHash())

	st, err = s.Stats()
	require.NoError(t, err)
	assert.Zero(t, st.Files)
}

func TestWithCache_MatchLimitChangeInvalidates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.db")
	src := writeSource(t, dir, "main.go", goSource)

	e1, err := New(WithCache(dbPath), WithMatchLimit(1))
	require.NoError(t, err)
	a, err := e1.Analyze(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, e1.Close())
	require.NotNil(t, a.Functions)
	assert.Equal(t, 1, a.Functions.Total)

	e2 := newTestEngine(t, WithCache(dbPath))
	a, err = e2.Analyze(context.Background(), src)
	require.NoError(t, err)
	require.NotNil(t, a.Functions)
	assert.Equal(t, 2, a.Functions.Total)
}

func TestAnalyzeSource_RustPathRoots(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	a, err := e.AnalyzeSource(context.Background(), "src/lib.rs",
		[]byte("use crate::models;\nuse super::util;\nuse crate::a::b;\nuse std::io;\n"))
	require.NoError(t, err)
	require.NotNil(t, a.Imports)

	n := depgraph.NewNode("src/lib.rs", lang.Rust, depgraph.Normalize(lang.Rust, a.Imports), depgraph.NewClassifier())
	assert.ElementsMatch(t, []string{"crate::models", "super::util", "crate::a::b"}, n.Internal)
	assert.ElementsMatch(t, []string{"std"}, n.External)
}

func TestAnalyzeSource_TypeScriptNamedImport(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	a, err := e.AnalyzeSource(context.Background(), "src/a.ts", []byte("import { x } from './b';\n"))
	require.NoError(t, err)
	require.NotNil(t, a.Imports)

	recs := depgraph.Normalize(lang.TypeScript, a.Imports)
	require.Len(t, recs, 1)
	assert.Equal(t, "./b", recs[0].Raw)
	assert.Equal(t, "x", recs[0].Item)
	assert.True(t, recs[0].FromStyle)

	n := depgraph.NewNode("src/a.ts", lang.TypeScript, recs, depgraph.NewClassifier())
	assert.Equal(t, []string{"./b"}, n.FromImports)
}

func TestNew_BadCachePath(t *testing.T) {
	t.Parallel()
	_, err := New(WithCache(filepath.Join(t.TempDir(), "no", "such", "dir", "c.db")))
	require.Error(t, err)
}

func TestLineCount(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, lineCount(nil))
	assert.Equal(t, 1, lineCount([]byte("x")))
	assert.Equal(t, 1, lineCount([]byte("x\n")))
	assert.Equal(t, 2, lineCount([]byte("x\ny")))
}
