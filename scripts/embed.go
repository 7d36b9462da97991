// Package scripts holds the built-in Risor resolution scripts.
package scripts

import "embed"

// FS contains resolve/<language>.risor for each scripted language.
//
//go:embed resolve/*.risor
var FS embed.FS
