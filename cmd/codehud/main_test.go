package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/codehud/internal/config"
	"github.com/jward/codehud/internal/lang"
)

const fixtureDir = "../../testdata/project"

// execute runs the root command with args and restores every flag to its
// default afterwards. Commands share package state, so callers must not
// run in parallel.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Cleanup(resetFlags)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags() {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range []*cobra.Command{analyzeCmd, scanCmd, languagesCmd} {
		c.Flags().VisitAll(reset)
	}
	errorHandled = false
}

type scanEnvelope struct {
	Command string `json:"command"`
	Error   string `json:"error"`
	Results struct {
		Summary struct {
			FilesAnalyzed int `json:"total_files_analyzed"`
			Edges         int `json:"resolved_edges"`
			Cycles        int `json:"circular_dependencies_found"`
		} `json:"summary"`
		Cycles []struct {
			Path     []string `json:"path"`
			Severity string   `json:"severity"`
		} `json:"circular_dependencies"`
	} `json:"results"`
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.ErrorContains(t, validateFormat("yaml"), `invalid format "yaml"`)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	l, err := parseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", l.String())
	_, err = parseLevel("loud")
	assert.Error(t, err)
}

func TestParseLanguages(t *testing.T) {
	t.Parallel()
	ids, err := parseLanguages("go, Python,")
	require.NoError(t, err)
	assert.Equal(t, []lang.ID{lang.Go, lang.Python}, ids)

	ids, err = parseLanguages("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseLanguages("cobol")
	assert.ErrorContains(t, err, "cobol")
}

func TestScanPrefixes_AppendsDetected(t *testing.T) {
	t.Parallel()
	root := filepath.Join(t.TempDir(), "svc")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/svc\n"), 0o644))

	got := scanPrefixes(&config.Config{Prefixes: []string{"svc", "extra"}}, root)
	assert.Equal(t, []string{"svc", "extra", "example.com/svc"}, got)
	assert.Nil(t, scanPrefixes(&config.Config{}, root))
}

func TestResolveTargetDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	got, err := resolveTargetDir([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	file := filepath.Join(dir, "f.go")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = resolveTargetDir([]string{file})
	assert.ErrorContains(t, err, "not a directory")

	_, err = resolveTargetDir([]string{filepath.Join(dir, "nope")})
	assert.ErrorContains(t, err, "directory not found")
}

func TestScanCommand_JSON(t *testing.T) {
	stdout, stderr, err := execute(t, "scan", fixtureDir, "--prefix", "app", "--prefix", "example.com/proj")
	require.NoError(t, err)

	var env scanEnvelope
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	assert.Equal(t, "scan", env.Command)
	assert.Equal(t, 7, env.Results.Summary.FilesAnalyzed)
	assert.Equal(t, 5, env.Results.Summary.Edges)
	require.Len(t, env.Results.Cycles, 1)
	assert.Equal(t, "high", env.Results.Cycles[0].Severity)
	assert.Contains(t, stderr, "Scanned ")
}

func TestScanCommand_TextWithConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "codehud.toml")
	cache := filepath.Join(dir, "cache", "c.db")
	cfg := "prefixes = [\"app\", \"example.com/proj\"]\nworkers = 2\ncache = \"" + filepath.ToSlash(cache) + "\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	stdout, stderr, err := execute(t, "scan", fixtureDir, "--config", cfgPath, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Files analyzed: 7")
	assert.Contains(t, stdout, "Circular Dependencies (1):")
	assert.Contains(t, stdout, "[high] app/main.py -> app/models.py -> app/services.py -> app/main.py")
	assert.Contains(t, stdout, "Recommendations:")
	assert.Contains(t, stderr, "Cache: "+cache+" (6 files, 6 analyses)")
	assert.FileExists(t, cache)
}

func TestScanCommand_UnknownConfigKey(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("colour = \"blue\"\n"), 0o644))

	stdout, _, err := execute(t, "scan", fixtureDir, "--config", cfgPath)
	require.Error(t, err)
	assert.True(t, errorHandled)
	var env scanEnvelope
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	assert.Contains(t, env.Error, "bad.toml")
}

func TestAnalyzeCommand_Text(t *testing.T) {
	src := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(src, []byte("package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(1)\n}\n"), 0o644))

	stdout, _, err := execute(t, "analyze", src, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Language: go")
	assert.Contains(t, stdout, "Lines: 7")
	assert.Contains(t, stdout, "FUNCTION")
	assert.Contains(t, stdout, "main")
}

func TestAnalyzeCommand_ImportsJSON(t *testing.T) {
	src := filepath.Join(t.TempDir(), "run.py")
	require.NoError(t, os.WriteFile(src, []byte("import os\nfrom pkg import util\n"), 0o644))

	stdout, _, err := execute(t, "analyze", src, "--imports")
	require.NoError(t, err)
	var env struct {
		Results struct {
			Entries []map[string]any `json:"entries"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	assert.NotEmpty(t, env.Results.Entries)
}

func TestAnalyzeCommand_Unsupported(t *testing.T) {
	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("hi"), 0o644))

	_, stderr, err := execute(t, "analyze", src, "--format", "text")
	require.Error(t, err)
	assert.Contains(t, stderr, "unsupported file")
}

func TestLanguagesCommand_Text(t *testing.T) {
	stdout, _, err := execute(t, "languages", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "LANGUAGE")
	assert.Regexp(t, `(?m)^go\s+\.go\s+yes\s+\S*imports`, stdout)
	assert.Regexp(t, `(?m)^json\s.*\sno\s+-$`, stdout)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, "languages", "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}
