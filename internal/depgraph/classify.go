package depgraph

import "strings"

// DefaultRelativeMarkers are the leading tokens of a relative import.
var DefaultRelativeMarkers = []string{".", "crate::", "super::", "self::"}

// Classifier decides whether an import refers to project code.
type Classifier struct {
	// Prefixes are the project's own namespaces, e.g. a top-level package
	// or a module path.
	Prefixes []string
	// RelativeMarkers defaults to DefaultRelativeMarkers when nil.
	RelativeMarkers []string
}

// NewClassifier returns a Classifier with the default relative markers.
func NewClassifier(prefixes ...string) Classifier {
	return Classifier{Prefixes: prefixes, RelativeMarkers: DefaultRelativeMarkers}
}

// Internal reports whether raw starts with a project prefix or a relative
// marker. Empty prefixes never match.
func (c Classifier) Internal(raw string) bool {
	for _, p := range c.Prefixes {
		if p != "" && strings.HasPrefix(raw, p) {
			return true
		}
	}
	return c.Relative(raw)
}

// Relative reports whether raw starts with a relative marker or is exactly
// a "::" marker without its separator.
func (c Classifier) Relative(raw string) bool {
	markers := c.RelativeMarkers
	if markers == nil {
		markers = DefaultRelativeMarkers
	}
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.HasPrefix(raw, m) {
			return true
		}
		// A bare path root such as "super" from `use super::*`.
		if root, ok := strings.CutSuffix(m, "::"); ok && raw == root {
			return true
		}
	}
	return false
}
