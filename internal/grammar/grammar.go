// Package grammar binds tree-sitter grammars to registry languages and turns
// source bytes into syntax trees.
package grammar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/dockerfile"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/hcl"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/lua"
	markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/protobuf"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/swift"
	"github.com/smacker/go-tree-sitter/toml"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"

	"github.com/jward/codehud/internal/lang"
)

var (
	// ErrUnavailable means the language is recognized but has no grammar
	// bound in this build.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrParse means the parser rejected the input.
	ErrParse = errors.New("parse failure")

	// ErrNoGrammars is returned by New when nothing could be bound.
	ErrNoGrammars = errors.New("grammar: no grammars bound")
)

// bindings lists every grammar compiled into this build.
var bindings = map[lang.ID]func() *sitter.Language{
	lang.Rust:       rust.GetLanguage,
	lang.Python:     python.GetLanguage,
	lang.JavaScript: javascript.GetLanguage,
	lang.TypeScript: ts.GetLanguage,
	lang.Java:       java.GetLanguage,
	lang.Go:         golang.GetLanguage,
	lang.C:          c.GetLanguage,
	lang.Cpp:        cpp.GetLanguage,
	lang.CSharp:     csharp.GetLanguage,
	lang.PHP:        php.GetLanguage,
	lang.Ruby:       ruby.GetLanguage,
	lang.Swift:      swift.GetLanguage,
	lang.Kotlin:     kotlin.GetLanguage,
	lang.Bash:       bash.GetLanguage,
	lang.Lua:        lua.GetLanguage,
	lang.HTML:       html.GetLanguage,
	lang.CSS:        css.GetLanguage,
	lang.YAML:       yaml.GetLanguage,
	lang.TOML:       toml.GetLanguage,
	lang.Markdown:   markdown.GetLanguage,
	lang.SQL:        sql.GetLanguage,
	lang.Proto:      protobuf.GetLanguage,
	lang.Dockerfile: dockerfile.GetLanguage,
	lang.HCL:        hcl.GetLanguage,
}

// Pool owns one grammar and one parser per bound language. Parsers are not
// safe for concurrent use; callers serialize access to a Pool.
type Pool struct {
	grammars map[lang.ID]*sitter.Language
	parsers  map[lang.ID]*sitter.Parser
}

// New binds grammars for the given languages, or for every language with a
// binding when none are given. Languages without a binding are ignored here
// and reported as unavailable by Get.
func New(only ...lang.ID) (*Pool, error) {
	want := only
	if len(want) == 0 {
		want = lang.All()
	}

	p := &Pool{
		grammars: make(map[lang.ID]*sitter.Language),
		parsers:  make(map[lang.ID]*sitter.Parser),
	}
	for _, id := range want {
		bind, ok := bindings[id]
		if !ok {
			continue
		}
		g := bind()
		if g == nil {
			continue
		}
		parser := sitter.NewParser()
		parser.SetLanguage(g)
		p.grammars[id] = g
		p.parsers[id] = parser
	}
	if len(p.grammars) == 0 {
		return nil, ErrNoGrammars
	}
	return p, nil
}

// Get returns the grammar for id. Recognized languages without a bound
// grammar yield ErrUnavailable.
func (p *Pool) Get(id lang.ID) (*sitter.Language, error) {
	g, ok := p.grammars[id]
	if !ok {
		return nil, fmt.Errorf("grammar %s: %w", id, ErrUnavailable)
	}
	return g, nil
}

// Has reports whether a grammar is bound for id.
func (p *Pool) Has(id lang.ID) bool {
	_, ok := p.grammars[id]
	return ok
}

// Bound returns the languages with a grammar, ordered by ID.
func (p *Pool) Bound() []lang.ID {
	ids := make([]lang.ID, 0, len(p.grammars))
	for id := range p.grammars {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Parse turns src into a syntax tree. Input that is not valid UTF-8, or that
// the parser rejects, yields an error wrapping ErrParse. The caller owns the
// returned tree and must Close it.
func (p *Pool) Parse(ctx context.Context, id lang.ID, src []byte) (*sitter.Tree, error) {
	parser, ok := p.parsers[id]
	if !ok {
		return nil, fmt.Errorf("grammar %s: %w", id, ErrUnavailable)
	}
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("grammar %s: invalid utf-8: %w", id, ErrParse)
	}
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("grammar %s: %v: %w", id, err, ErrParse)
	}
	if tree == nil {
		return nil, fmt.Errorf("grammar %s: no tree: %w", id, ErrParse)
	}
	return tree, nil
}

// Close releases every parser.
func (p *Pool) Close() {
	for id, parser := range p.parsers {
		parser.Close()
		delete(p.parsers, id)
	}
}
