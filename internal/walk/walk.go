// Package walk enumerates analyzable files under a project root.
package walk

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/codehud/internal/lang"
)

// File is a recognized source file.
type File struct {
	Path     string  // slash-separated, relative to the root
	Language lang.ID
}

// skipDirs are never descended into.
var skipDirs = map[string]struct{}{
	".git":          {},
	".hg":           {},
	".svn":          {},
	"node_modules":  {},
	"vendor":        {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	"__pycache__":   {},
	".pytest_cache": {},
	".mypy_cache":   {},
	".tox":          {},
	".cache":        {},
	"build":         {},
	"dist":          {},
	"target":        {},
}

// Excluded reports whether a directory name is in the fixed exclusion set.
func Excluded(name string) bool {
	_, ok := skipDirs[name]
	return ok
}

// Options tunes a walk.
type Options struct {
	// Extra directory names to skip in addition to the fixed set.
	Extra []string
	// Languages restricts results when non-empty.
	Languages []lang.ID
	// NoGitignore disables the root .gitignore.
	NoGitignore bool
}

// Files walks root and returns every file the language registry recognizes,
// sorted by path. Unreadable entries are skipped. Symlinked directories are
// not followed.
func Files(root string, opts Options) ([]File, error) {
	extra := make(map[string]struct{}, len(opts.Extra))
	for _, d := range opts.Extra {
		extra[d] = struct{}{}
	}
	want := make(map[lang.ID]struct{}, len(opts.Languages))
	for _, id := range opts.Languages {
		want[id] = struct{}{}
	}
	var gi *ignore.GitIgnore
	if !opts.NoGitignore {
		gi = loadGitignore(root)
	}

	var out []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if Excluded(name) {
				return filepath.SkipDir
			}
			if _, skip := extra[name]; skip {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		id, ok := lang.Identify(rel)
		if !ok {
			return nil
		}
		if len(want) > 0 {
			if _, keep := want[id]; !keep {
				return nil
			}
		}
		out = append(out, File{Path: rel, Language: id})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
