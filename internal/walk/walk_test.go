package walk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/codehud/internal/lang"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestFiles_SkipsExcludedDirs(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"main.go":                    "package main",
		"pkg/util.py":                "x = 1",
		"Makefile":                   "all:",
		"notes.txt":                  "hello",
		".git/config.py":             "",
		"node_modules/lib/index.js":  "",
		"vendor/x/y.go":              "",
		"venv/lib/site.py":           "",
		"__pycache__/mod.py":         "",
		"build/out.js":               "",
		"target/debug/main.rs":       "",
		"deep/.pytest_cache/t.py":    "",
		"src/components/button.tsx": "",
	})

	files, err := Files(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Makefile", "main.go", "pkg/util.py", "src/components/button.tsx"}, paths(files))
	assert.Equal(t, lang.Make, files[0].Language)
}

func TestFiles_ExtraExclusionsAndLanguages(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"a.go":           "",
		"b.py":           "",
		"fixtures/c.go":  "",
		"generated/d.go": "",
	})

	files, err := Files(root, Options{Extra: []string{"fixtures", "generated"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.py"}, paths(files))

	files, err = Files(root, Options{Languages: []lang.ID{lang.Python}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.py"}, paths(files))
}

func TestFiles_Gitignore(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		".gitignore":   "gen/\n*_pb.py\n",
		"keep.py":      "",
		"thing_pb.py":  "",
		"gen/stub.py":  "",
		"lib/other.py": "",
	})

	files, err := Files(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.py", "lib/other.py"}, paths(files))

	files, err = Files(root, Options{NoGitignore: true})
	require.NoError(t, err)
	assert.Len(t, files, 4)
}

func TestFiles_MissingRoot(t *testing.T) {
	t.Parallel()
	_, err := Files(filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
}

func TestExcluded(t *testing.T) {
	t.Parallel()
	assert.True(t, Excluded("node_modules"))
	assert.True(t, Excluded(".venv"))
	assert.False(t, Excluded("src"))
}
