package match

// EntryType classifies an import entry.
type EntryType string

const (
	EntryDeclaration EntryType = "declaration"
	EntryItem        EntryType = "item"
	EntryAlias       EntryType = "alias"
	EntryWildcard    EntryType = "wildcard"
	EntryExternal    EntryType = "external"
	EntryReexport    EntryType = "reexport"
	EntryAbsolute    EntryType = "absolute"
	EntryOther       EntryType = "other"
)

// ImportEntry is one normalized import fact. Module is set when the match
// carried a module/path capture alongside an item, alias or wildcard.
// CaptureType and Text are set for whole-statement and unrecognized captures.
type ImportEntry struct {
	Type        EntryType `json:"type"`
	Module      string    `json:"module,omitempty"`
	Item        string    `json:"item,omitempty"`
	Alias       string    `json:"alias,omitempty"`
	Wildcard    bool      `json:"wildcard,omitempty"`
	CaptureType string    `json:"capture_type,omitempty"`
	Text        string    `json:"text,omitempty"`
	Line        int       `json:"line"`
}

// ImportSummary aggregates import captures across the whole file.
type ImportSummary struct {
	Modules   []string `json:"modules"`
	Items     []string `json:"items"`
	Aliases   []string `json:"aliases"`
	Crates    []string `json:"crates"`
	Wildcards []string `json:"wildcards"`
	Total     int      `json:"total"`
}

// ImportResult is the imports purpose output.
type ImportResult struct {
	Entries []ImportEntry `json:"entries"`
	Summary ImportSummary `json:"summary"`
}

type importRole int

const (
	importStatement importRole = iota + 1
	importItem
	importModule
	importAlias
	importWildcard
	importCrate
	importReexport
	importAbsolute
)

// importRoles maps capture names to import roles. Names not listed become
// "other" entries carrying their capture name.
var importRoles = map[string]importRole{
	"import":             importStatement,
	"import_statement":   importStatement,
	"import_declaration": importStatement,
	"item":               importItem,
	"imported_item":      importItem,
	"module":             importModule,
	"path":               importModule,
	"source":             importModule,
	"alias":              importAlias,
	"wildcard":           importWildcard,
	"star":               importWildcard,
	"crate":              importCrate,
	"extern_crate":       importCrate,
	"visibility":         importReexport,
	"reexport":           importReexport,
	"absolute":           importAbsolute,
}

// ProcessImports normalizes import matches.
func ProcessImports(matches []Match) *ImportResult {
	res := &ImportResult{
		Entries: []ImportEntry{},
		Summary: ImportSummary{
			Modules:   []string{},
			Items:     []string{},
			Aliases:   []string{},
			Crates:    []string{},
			Wildcards: []string{},
		},
	}

	for _, m := range matches {
		var (
			module, item, alias string
			wildcard            bool
			line                int
			rest                []ImportEntry
		)
		for _, c := range m.Captures {
			if ignored(c.Role) {
				continue
			}
			if line == 0 {
				line = c.Start.Line
			}
			switch importRoles[c.Role] {
			case importModule:
				if module == "" {
					module = c.Text
				}
			case importItem:
				if item == "" {
					item = c.Text
				}
				res.Summary.Items = append(res.Summary.Items, c.Text)
			case importAlias:
				if alias == "" {
					alias = c.Text
				}
				res.Summary.Aliases = append(res.Summary.Aliases, c.Text)
			case importWildcard:
				wildcard = true
				res.Summary.Wildcards = append(res.Summary.Wildcards, c.Text)
			case importStatement:
				rest = append(rest, ImportEntry{Type: EntryDeclaration, CaptureType: c.Role, Text: c.Text, Line: c.Start.Line})
			case importCrate:
				res.Summary.Crates = append(res.Summary.Crates, c.Text)
				rest = append(rest, ImportEntry{Type: EntryExternal, Text: c.Text, Line: c.Start.Line})
			case importReexport:
				rest = append(rest, ImportEntry{Type: EntryReexport, Text: c.Text, Line: c.Start.Line})
			case importAbsolute:
				rest = append(rest, ImportEntry{Type: EntryAbsolute, Text: c.Text, Line: c.Start.Line})
			default:
				rest = append(rest, ImportEntry{Type: EntryOther, CaptureType: c.Role, Text: c.Text, Line: c.Start.Line})
			}
		}

		if module != "" {
			res.Summary.Modules = append(res.Summary.Modules, module)
		}
		switch {
		case module != "" && (item != "" || alias != "" || wildcard):
			res.Entries = append(res.Entries, ImportEntry{
				Type:     combinedType(item, wildcard),
				Module:   module,
				Item:     item,
				Alias:    alias,
				Wildcard: wildcard,
				Line:     line,
			})
		case item != "":
			res.Entries = append(res.Entries, ImportEntry{Type: EntryItem, Item: item, Alias: alias, Line: line})
		case alias != "":
			res.Entries = append(res.Entries, ImportEntry{Type: EntryAlias, Alias: alias, Line: line})
		case wildcard:
			res.Entries = append(res.Entries, ImportEntry{Type: EntryWildcard, Wildcard: true, Line: line})
		}
		res.Entries = append(res.Entries, rest...)
	}

	res.Summary.Total = len(res.Entries)
	return res
}

func combinedType(item string, wildcard bool) EntryType {
	switch {
	case wildcard:
		return EntryWildcard
	case item != "":
		return EntryItem
	default:
		return EntryAlias
	}
}
