// Package lang maps file names to language identifiers. Identification looks
// only at the path string, never at file content.
package lang

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ID identifies a language recognized by the registry.
type ID int

const (
	Unknown ID = iota
	Rust
	Python
	JavaScript
	TypeScript
	Java
	Go
	C
	Cpp
	CSharp
	PHP
	Ruby
	Swift
	Kotlin
	Bash
	PowerShell
	Lua
	Zig
	Haskell
	OCaml
	ObjC
	HTML
	CSS
	SCSS
	JSON
	YAML
	TOML
	XML
	Markdown
	GraphQL
	SQL
	Proto
	Dockerfile
	Make
	CMake
	Nix
	HCL
	INI
)

type info struct {
	name     string
	queryDir string // defaults to name
	exts     []string
	files    []string // special filenames, lowercase
}

var table = map[ID]info{
	Rust:       {name: "rust", exts: []string{".rs"}},
	Python:     {name: "python", exts: []string{".py", ".pyw", ".pyi"}},
	JavaScript: {name: "javascript", exts: []string{".js", ".mjs", ".cjs", ".jsx"}},
	TypeScript: {name: "typescript", exts: []string{".ts", ".tsx", ".mts", ".cts"}},
	Java:       {name: "java", exts: []string{".java"}},
	Go:         {name: "go", exts: []string{".go"}},
	C:          {name: "c", exts: []string{".c", ".h"}},
	Cpp:        {name: "cpp", exts: []string{".cpp", ".cxx", ".cc", ".c++", ".hpp", ".hxx", ".hh"}},
	CSharp:     {name: "csharp", queryDir: "c-sharp", exts: []string{".cs"}},
	PHP:        {name: "php", exts: []string{".php", ".phtml", ".php3", ".php4", ".php5"}},
	Ruby:       {name: "ruby", exts: []string{".rb", ".rbw", ".rake", ".gemspec"}},
	Swift:      {name: "swift", exts: []string{".swift"}},
	Kotlin:     {name: "kotlin", exts: []string{".kt", ".kts"}},
	Bash:       {name: "bash", exts: []string{".sh", ".bash", ".zsh", ".fish"}},
	PowerShell: {name: "powershell", exts: []string{".ps1", ".psd1", ".psm1"}},
	Lua:        {name: "lua", exts: []string{".lua"}},
	Zig:        {name: "zig", exts: []string{".zig"}},
	Haskell:    {name: "haskell", exts: []string{".hs", ".lhs"}},
	OCaml:      {name: "ocaml", exts: []string{".ml", ".mli"}},
	ObjC:       {name: "objectivec", queryDir: "objc", exts: []string{".m", ".mm"}},
	HTML:       {name: "html", exts: []string{".html", ".htm", ".xhtml"}},
	CSS:        {name: "css", exts: []string{".css"}},
	SCSS:       {name: "scss", exts: []string{".scss", ".sass"}},
	JSON:       {name: "json", exts: []string{".json", ".jsonc"}},
	YAML:       {name: "yaml", exts: []string{".yaml", ".yml"}},
	TOML:       {name: "toml", exts: []string{".toml"}},
	XML:        {name: "xml", exts: []string{".xml", ".xsd", ".xsl", ".xslt"}},
	Markdown:   {name: "markdown", exts: []string{".md", ".markdown", ".mdown", ".mkd"}},
	GraphQL:    {name: "graphql", exts: []string{".graphql", ".gql"}},
	SQL:        {name: "sql", exts: []string{".sql"}},
	Proto:      {name: "protobuf", queryDir: "proto", exts: []string{".proto"}},
	Dockerfile: {name: "dockerfile", exts: []string{".dockerfile"}, files: []string{"dockerfile", "containerfile"}},
	Make:       {name: "makefile", queryDir: "make", exts: []string{".mk", ".make"}, files: []string{"makefile", "gnumakefile"}},
	CMake:      {name: "cmake", exts: []string{".cmake"}, files: []string{"cmakelists.txt"}},
	Nix:        {name: "nix", exts: []string{".nix"}},
	HCL:        {name: "hcl", exts: []string{".hcl", ".tf", ".tfvars"}},
	INI:        {name: "ini", exts: []string{".ini", ".cfg", ".conf"}},
}

var (
	extToLanguage  map[string]ID
	fileToLanguage map[string]ID
	nameToLanguage map[string]ID
	indexOnce      sync.Once
)

func buildIndex() {
	indexOnce.Do(func() {
		extToLanguage = make(map[string]ID)
		fileToLanguage = make(map[string]ID)
		nameToLanguage = make(map[string]ID, len(table))
		for id, l := range table {
			nameToLanguage[l.name] = id
			for _, ext := range l.exts {
				extToLanguage[ext] = id
			}
			for _, f := range l.files {
				fileToLanguage[f] = id
			}
		}
	})
}

// Identify returns the language for path. Special filenames such as
// Dockerfile or Makefile are matched before extensions; both checks are
// case-insensitive. The boolean is false for unsupported files.
func Identify(path string) (ID, bool) {
	buildIndex()
	base := strings.ToLower(filepath.Base(path))
	if id, ok := fileToLanguage[base]; ok {
		return id, true
	}
	ext := filepath.Ext(base)
	if ext == "" {
		return Unknown, false
	}
	id, ok := extToLanguage[ext]
	return id, ok
}

// ByName looks up a language by its canonical name.
func ByName(name string) (ID, bool) {
	buildIndex()
	id, ok := nameToLanguage[strings.ToLower(name)]
	return id, ok
}

// All returns every registered language, ordered by ID.
func All() []ID {
	ids := make([]ID, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Name returns the canonical lowercase name, or "unknown".
func (id ID) Name() string {
	if l, ok := table[id]; ok {
		return l.name
	}
	return "unknown"
}

func (id ID) String() string { return id.Name() }

// QueryDir is the directory name holding this language's query definitions.
func (id ID) QueryDir() string {
	l, ok := table[id]
	if !ok {
		return ""
	}
	if l.queryDir != "" {
		return l.queryDir
	}
	return l.name
}

// Extensions returns the recognized extensions, each with a leading dot.
func (id ID) Extensions() []string {
	l := table[id]
	return append([]string(nil), l.exts...)
}

// MarshalText encodes the canonical name so IDs read well in JSON output.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.Name()), nil
}

// UnmarshalText decodes a canonical name; unknown names decode to Unknown.
func (id *ID) UnmarshalText(b []byte) error {
	if v, ok := ByName(string(b)); ok {
		*id = v
		return nil
	}
	*id = Unknown
	return nil
}
