// Package depgraph aggregates per-file import facts into a project
// dependency graph and derives cycle, coupling, cluster and influence
// metrics from it.
package depgraph

import (
	"strings"

	"github.com/jward/codehud/internal/lang"
	"github.com/jward/codehud/internal/match"
)

// Shape identifies which part of an import result produced a record.
type Shape int

const (
	// ShapeModuleField is an entry carrying an explicit Module.
	ShapeModuleField Shape = iota + 1
	// ShapeCaptureText is an entry whose capture text names the module.
	ShapeCaptureText
	// ShapeSummary is a bare module listed in the result summary.
	ShapeSummary
)

func (s Shape) String() string {
	switch s {
	case ShapeModuleField:
		return "module_field"
	case ShapeCaptureText:
		return "capture_text"
	case ShapeSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// ImportRecord is one normalized import of a file.
type ImportRecord struct {
	Raw       string `json:"raw"`
	Item      string `json:"item,omitempty"`
	Alias     string `json:"alias,omitempty"`
	Line      int    `json:"line"`
	Wildcard  bool   `json:"wildcard,omitempty"`
	FromStyle bool   `json:"from_style,omitempty"`
	Shape     Shape  `json:"-"`
}

// Normalize turns an import result into records, one per distinct raw
// module text. Module-field entries are tried before capture-text entries;
// the summary module list is consulted only when neither produced anything.
// id selects how a module and its item combine into one import path.
func Normalize(id lang.ID, res *match.ImportResult) []ImportRecord {
	if res == nil {
		return nil
	}
	n := normalizer{seen: map[string]int{}}
	for _, e := range res.Entries {
		if rec, ok := fromModuleField(id, e); ok {
			n.add(rec)
			continue
		}
		if rec, ok := fromCaptureText(e); ok {
			n.add(rec)
		}
	}
	if len(n.records) == 0 {
		for _, m := range res.Summary.Modules {
			if rec, ok := fromSummary(m); ok {
				n.add(rec)
			}
		}
	}
	return n.records
}

type normalizer struct {
	records []ImportRecord
	seen    map[string]int
}

// add appends rec unless its raw text was already recorded, in which case
// missing detail is merged into the earlier record.
func (n *normalizer) add(rec ImportRecord) {
	if i, dup := n.seen[rec.Raw]; dup {
		prev := &n.records[i]
		if prev.Item == "" {
			prev.Item = rec.Item
		}
		if prev.Alias == "" {
			prev.Alias = rec.Alias
		}
		prev.Wildcard = prev.Wildcard || rec.Wildcard
		prev.FromStyle = prev.FromStyle || rec.FromStyle || prev.Item != ""
		return
	}
	n.seen[rec.Raw] = len(n.records)
	n.records = append(n.records, rec)
}

func fromModuleField(id lang.ID, e match.ImportEntry) (ImportRecord, bool) {
	raw := cleanRaw(e.Module)
	if raw == "" {
		return ImportRecord{}, false
	}
	return ImportRecord{
		Raw:       qualify(id, raw, e.Item),
		Item:      e.Item,
		Alias:     e.Alias,
		Line:      e.Line,
		Wildcard:  e.Wildcard,
		FromStyle: e.Item != "",
		Shape:     ShapeModuleField,
	}, true
}

// qualify joins item onto a module that cannot name a file by itself: Rust
// paths rooted at crate, self or super, where the item is usually the
// module, and Python relative imports made only of dots.
func qualify(id lang.ID, raw, item string) string {
	if item == "" {
		return raw
	}
	switch id {
	case lang.Rust:
		root, _, _ := strings.Cut(raw, "::")
		switch root {
		case "crate", "self", "super":
			return raw + "::" + item
		}
	case lang.Python:
		if strings.Trim(raw, ".") == "" {
			return raw + item
		}
	}
	return raw
}

func fromCaptureText(e match.ImportEntry) (ImportRecord, bool) {
	ct := e.CaptureType
	if ct != "module_name" && !strings.Contains(ct, "import") {
		return ImportRecord{}, false
	}
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return ImportRecord{}, false
	}

	rec := ImportRecord{
		Line:      e.Line,
		Shape:     ShapeCaptureText,
		Wildcard:  strings.Contains(text, "import *"),
		FromStyle: strings.Contains(ct, "from") || strings.HasPrefix(text, "from "),
	}
	module := text
	if strings.Contains(text, "import ") {
		fields := strings.Fields(text)
		if len(fields) > 1 {
			module = fields[1]
		}
		// from <module> import <item>
		if len(fields) > 3 && fields[0] == "from" && fields[2] == "import" && fields[3] != "*" {
			rec.Item = strings.TrimSuffix(fields[3], ",")
		}
	}
	rec.Raw = cleanRaw(module)
	if rec.Raw == "" {
		return ImportRecord{}, false
	}
	return rec, true
}

func fromSummary(module string) (ImportRecord, bool) {
	raw := cleanRaw(module)
	if raw == "" {
		return ImportRecord{}, false
	}
	return ImportRecord{Raw: raw, Shape: ShapeSummary}, true
}

// cleanRaw strips whitespace, string quotes and a trailing statement
// terminator from captured module text.
func cleanRaw(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.Trim(s, "\"'`")
}
