package match

import (
	"github.com/jward/codehud/internal/lang"
	"github.com/jward/codehud/internal/query"
)

// FileAnalysis bundles every per-purpose result for one file. A nil field
// means that purpose is unavailable for the file's language.
type FileAnalysis struct {
	Path       string            `json:"path"`
	Language   lang.ID           `json:"language"`
	Lines      int               `json:"lines"`
	Imports    *ImportResult     `json:"imports"`
	Functions  *FunctionResult   `json:"functions"`
	Calls      *CallResult       `json:"calls"`
	Complexity *ComplexityResult `json:"complexity"`
	Tags       *TagResult        `json:"tags"`
	Highlights *HighlightResult  `json:"highlights"`
	Comments   *CommentResult    `json:"comments"`
}

// Apply normalizes matches for kind k into the matching field. Kinds the
// analyzer does not consume are ignored.
func (a *FileAnalysis) Apply(k query.Kind, matches []Match) {
	switch k {
	case query.Imports:
		a.Imports = ProcessImports(matches)
	case query.Functions:
		a.Functions = ProcessFunctions(matches)
	case query.Calls:
		a.Calls = ProcessCalls(matches)
	case query.Complexity:
		a.Complexity = ProcessComplexity(matches)
	case query.Tags:
		a.Tags = ProcessTags(matches)
	case query.Highlights:
		a.Highlights = ProcessHighlights(matches)
	case query.Comments:
		a.Comments = ProcessComments(matches, CommentLimit(a.Lines))
	}
}

// LimitFor returns the match cap used for kind k on a file with the given
// line count. Comments get their own, larger cap.
func LimitFor(k query.Kind, lines, matchLimit int) int {
	if k == query.Comments {
		return CommentLimit(lines)
	}
	if matchLimit <= 0 {
		return DefaultMatchLimit
	}
	return matchLimit
}
