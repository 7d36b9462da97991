// Package queries embeds the default tree-sitter query definitions, laid out
// as <language>/<kind>.scm.
package queries

import "embed"

//go:embed */*.scm
var FS embed.FS
