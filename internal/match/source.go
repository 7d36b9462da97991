// Package match runs compiled queries over syntax trees and normalizes the
// raw captures into per-purpose fact records.
package match

import (
	"context"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// DefaultMatchLimit bounds the matches consumed from a single query run.
const DefaultMatchLimit = 5000

// MinCommentLimit is the floor of the comment-specific cap.
const MinCommentLimit = 50000

// checkEvery is how many matches Collect drains between context checks.
const checkEvery = 256

// Position is a 1-based line and 0-based column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Capture is one component of a match: a role name, the text it covers, and
// where it sits in the file.
type Capture struct {
	Role      string   `json:"role"`
	Text      string   `json:"text"`
	NodeKind  string   `json:"node_kind"`
	Start     Position `json:"start"`
	End       Position `json:"end"`
	StartByte uint32   `json:"start_byte"`
	EndByte   uint32   `json:"end_byte"`
	Valid     bool     `json:"-"` // text is valid UTF-8
}

// Match is a single query match.
type Match struct {
	Captures []Capture
}

// Source yields matches one at a time.
type Source interface {
	Next() (Match, bool)
}

// TreeSource adapts a tree-sitter query cursor to Source. Matches whose
// predicates fail are skipped.
type TreeSource struct {
	q      *sitter.Query
	cursor *sitter.QueryCursor
	src    []byte
}

// NewTreeSource executes q against root. The caller must Close the source.
func NewTreeSource(q *sitter.Query, root *sitter.Node, src []byte) *TreeSource {
	cursor := sitter.NewQueryCursor()
	cursor.Exec(q, root)
	return &TreeSource{q: q, cursor: cursor, src: src}
}

func (s *TreeSource) Next() (Match, bool) {
	for {
		m, ok := s.cursor.NextMatch()
		if !ok {
			return Match{}, false
		}
		m = s.cursor.FilterPredicates(m, s.src)
		if len(m.Captures) == 0 {
			continue
		}
		out := Match{Captures: make([]Capture, 0, len(m.Captures))}
		for _, c := range m.Captures {
			out.Captures = append(out.Captures, newCapture(s.q.CaptureNameForId(c.Index), c.Node, s.src))
		}
		return out, true
	}
}

// Close releases the cursor.
func (s *TreeSource) Close() {
	s.cursor.Close()
}

func newCapture(role string, n *sitter.Node, src []byte) Capture {
	text := n.Content(src)
	sp, ep := n.StartPoint(), n.EndPoint()
	return Capture{
		Role:      role,
		Text:      text,
		NodeKind:  n.Type(),
		Start:     Position{Line: int(sp.Row) + 1, Column: int(sp.Column)},
		End:       Position{Line: int(ep.Row) + 1, Column: int(ep.Column)},
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		Valid:     utf8.ValidString(text),
	}
}

// SliceSource replays a fixed list of matches.
type SliceSource struct {
	matches []Match
	pos     int
}

// NewSliceSource returns a Source over matches.
func NewSliceSource(matches []Match) *SliceSource {
	return &SliceSource{matches: matches}
}

func (s *SliceSource) Next() (Match, bool) {
	if s.pos >= len(s.matches) {
		return Match{}, false
	}
	m := s.matches[s.pos]
	s.pos++
	return m, true
}

// Limited caps the number of matches drawn from an underlying Source.
type Limited struct {
	src       Source
	max       int
	n         int
	done      bool
	truncated bool
}

// Limit wraps src so that at most max matches are yielded. A non-positive
// max means DefaultMatchLimit.
func Limit(src Source, max int) *Limited {
	if max <= 0 {
		max = DefaultMatchLimit
	}
	return &Limited{src: src, max: max}
}

func (l *Limited) Next() (Match, bool) {
	if l.done {
		return Match{}, false
	}
	if l.n >= l.max {
		l.done = true
		if _, more := l.src.Next(); more {
			l.truncated = true
		}
		return Match{}, false
	}
	m, ok := l.src.Next()
	if !ok {
		l.done = true
		return Match{}, false
	}
	l.n++
	return m, true
}

// Count is the number of matches yielded so far.
func (l *Limited) Count() int { return l.n }

// Truncated reports whether the cap cut the stream short. The result records
// carry no such marker; this is for logs and metrics only.
func (l *Limited) Truncated() bool { return l.truncated }

// CommentLimit is the comment cap for a file with the given line count.
func CommentLimit(lines int) int {
	return max(MinCommentLimit, 2*lines)
}

// Collect drains src, checking ctx periodically.
func Collect(ctx context.Context, src Source) ([]Match, error) {
	var out []Match
	for {
		if len(out)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return out, err
			}
		}
		m, ok := src.Next()
		if !ok {
			return out, nil
		}
		out = append(out, m)
	}
}

// ignored reports whether a role is a helper capture (leading underscore)
// that only exists to drive a predicate.
func ignored(role string) bool {
	return strings.HasPrefix(role, "_")
}
