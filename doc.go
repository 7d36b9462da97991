// Package codehud provides language-agnostic static analysis built on
// tree-sitter. It detects a file's language, parses it, runs a catalog of
// structural queries and normalizes the matches into per-file facts:
// imports, functions, calls, complexity, symbol tags, highlights and
// comments. Across a source tree it aggregates imports into a dependency
// graph with cycle detection, coupling scores, clustering and influence
// ranking.
//
// # Pipeline
//
//  1. Identify: [lang.Identify] maps a path to a language by special file
//     name or extension.
//  2. Parse: the grammar pool owns one parser per bound language.
//  3. Query: compiled queries run over the tree; every stream is capped.
//  4. Normalize: matches become a [FileAnalysis] with stable JSON fields.
//
// # Usage
//
//	e, err := codehud.New(codehud.WithCache(".codehud/cache.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	a, err := e.Analyze(ctx, "main.go")
//	rep, err := e.Scan(ctx, ".", codehud.ScanOptions{})
//
// [ScanParallel] runs the same scan with one Engine per worker.
//
// # Query definitions
//
// Definitions are looked up per language and kind, first hit wins:
// directories given with [WithQueryDirs], a filesystem from [WithQueryFS],
// queries/ and ../queries/ relative to the working directory,
// codehud-core/queries/, tree-sitter-grammars/<lang>/queries/, then the
// embedded set. A missing or broken definition leaves that kind nil.
//
// # Import resolution
//
// Linking an import to a file goes through Risor scripts under
// scripts/resolve/<language>.risor when one exists, and a Go mapping
// otherwise. See the internal/runtime package for the globals scripts see.
package codehud
