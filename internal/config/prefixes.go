package config

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DetectPrefixes derives internal-import prefixes from the root directory
// name and any go.mod, Cargo.toml or pyproject.toml at root. The result is
// deduplicated in discovery order.
func DetectPrefixes(root string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if p == "" || p == "." || p == string(filepath.Separator) || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	if abs, err := filepath.Abs(root); err == nil {
		add(filepath.Base(abs))
	}
	add(goModulePath(root))
	for _, name := range cargoCrateNames(root) {
		add(name)
	}
	add(pyprojectName(root))
	return out
}

// goModulePath returns the module directive of root/go.mod.
func goModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, "module"); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
			return strings.Trim(strings.TrimSpace(rest), `"`)
		}
	}
	return ""
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Lib struct {
		Name string `toml:"name"`
	} `toml:"lib"`
}

// cargoCrateNames returns the crate names Rust code uses in paths. Cargo
// maps dashes to underscores.
func cargoCrateNames(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil
	}
	var m cargoManifest
	if toml.Unmarshal(data, &m) != nil {
		return nil
	}
	var out []string
	for _, n := range []string{m.Lib.Name, m.Package.Name} {
		if n != "" {
			out = append(out, strings.ReplaceAll(n, "-", "_"))
		}
	}
	return out
}

type pyproject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// pyprojectName returns the importable package name from pyproject.toml.
func pyprojectName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return ""
	}
	var p pyproject
	if toml.Unmarshal(data, &p) != nil {
		return ""
	}
	name := p.Project.Name
	if name == "" {
		name = p.Tool.Poetry.Name
	}
	return strings.ReplaceAll(name, "-", "_")
}
