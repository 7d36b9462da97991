package match

import "strings"

// Tag is one symbol capture, kept verbatim.
type Tag struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Line int    `json:"line"`
}

// TagResult is the tags purpose output.
type TagResult struct {
	Tags   []Tag            `json:"tags"`
	ByRole map[string][]Tag `json:"by_role"`
}

// ProcessTags keeps every capture.
func ProcessTags(matches []Match) *TagResult {
	res := &TagResult{Tags: []Tag{}, ByRole: map[string][]Tag{}}
	for _, m := range matches {
		for _, c := range m.Captures {
			if ignored(c.Role) {
				continue
			}
			t := Tag{Name: c.Text, Role: c.Role, Line: c.Start.Line}
			res.Tags = append(res.Tags, t)
			res.ByRole[c.Role] = append(res.ByRole[c.Role], t)
		}
	}
	return res
}

// Roles lists the tag roles present, sorted.
func (r *TagResult) Roles() []string { return sortedKeys(r.ByRole) }

// Highlight is one semantic highlight span.
type Highlight struct {
	Text  string   `json:"text"`
	Role  string   `json:"role"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// HighlightResult is the highlights purpose output.
type HighlightResult struct {
	Highlights []Highlight    `json:"highlights"`
	Counts     map[string]int `json:"counts"`
}

// ProcessHighlights keeps every capture with its span.
func ProcessHighlights(matches []Match) *HighlightResult {
	res := &HighlightResult{Highlights: []Highlight{}, Counts: map[string]int{}}
	for _, m := range matches {
		for _, c := range m.Captures {
			if ignored(c.Role) {
				continue
			}
			res.Highlights = append(res.Highlights, Highlight{Text: c.Text, Role: c.Role, Start: c.Start, End: c.End})
			res.Counts[c.Role]++
		}
	}
	return res
}

// Roles lists the highlight roles present, sorted.
func (r *HighlightResult) Roles() []string { return sortedKeys(r.Counts) }

// Comment classifications.
const (
	CommentDoc     = "doc"
	CommentLine    = "line"
	CommentBlock   = "block"
	CommentUnknown = "unknown"
)

// Comment is one comment span.
type Comment struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	Line      int    `json:"line"`
	EndLine   int    `json:"end_line"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
}

// CommentResult is the comments purpose output.
type CommentResult struct {
	Comments []Comment      `json:"comments"`
	Total    int            `json:"total"`
	ByType   map[string]int `json:"by_type"`
}

// commentPrefixes is checked in order; longer tokens come before their
// prefixes.
var commentPrefixes = []struct {
	token string
	typ   string
}{
	{"///", CommentDoc},
	{"//!", CommentDoc},
	{"/**", CommentDoc},
	{"//", CommentLine},
	{"/*", CommentBlock},
	{"#", CommentLine},
	{"--", CommentLine},
}

// ClassifyComment inspects the leading token of a comment.
func ClassifyComment(text string) string {
	t := strings.TrimSpace(text)
	for _, p := range commentPrefixes {
		if strings.HasPrefix(t, p.token) {
			return p.typ
		}
	}
	return CommentUnknown
}

// ProcessComments records up to limit comments. Captures whose text is not
// valid UTF-8 are skipped.
func ProcessComments(matches []Match, limit int) *CommentResult {
	res := &CommentResult{Comments: []Comment{}, ByType: map[string]int{}}
	for _, m := range matches {
		for _, c := range m.Captures {
			if len(res.Comments) >= limit {
				res.Total = len(res.Comments)
				return res
			}
			if ignored(c.Role) || !c.Valid {
				continue
			}
			typ := ClassifyComment(c.Text)
			res.Comments = append(res.Comments, Comment{
				Text:      c.Text,
				Type:      typ,
				Line:      c.Start.Line,
				EndLine:   c.End.Line,
				StartByte: c.StartByte,
				EndByte:   c.EndByte,
			})
			res.ByType[typ]++
		}
	}
	res.Total = len(res.Comments)
	return res
}
