package query

// Kind is the purpose of a query definition. Each kind maps to a fixed
// definition filename.
type Kind int

const (
	Imports Kind = iota
	Functions
	Calls
	Complexity
	Security
	Performance
	Highlights
	Tags
	References
	Classes
	Variables
	Comments
)

var kindNames = [...]string{
	Imports:     "imports",
	Functions:   "functions",
	Calls:       "calls",
	Complexity:  "complexity",
	Security:    "security",
	Performance: "performance",
	Highlights:  "highlights",
	Tags:        "tags",
	References:  "references",
	Classes:     "classes",
	Variables:   "variables",
	Comments:    "comments",
}

// Consumed lists the kinds the analyzer runs. The others are reserved for
// downstream tools that load their own definitions.
var Consumed = []Kind{Imports, Functions, Calls, Complexity, Highlights, Tags, Comments}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Filename is the definition file name for this kind, e.g. "imports.scm".
func (k Kind) Filename() string {
	return k.String() + ".scm"
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}
