package match

import "sort"

// FunctionInfo is one function or method declaration.
type FunctionInfo struct {
	Name       string `json:"name"`
	Kind       string `json:"kind,omitempty"` // function or method
	Line       int    `json:"line"`
	EndLine    int    `json:"end_line"`
	Length     int    `json:"length"`
	Visibility string `json:"visibility,omitempty"`
}

// FunctionResult is the functions purpose output.
type FunctionResult struct {
	Functions []FunctionInfo `json:"functions"`
	Total     int            `json:"total"`
}

type functionRole int

const (
	fnName functionRole = iota + 1
	fnSpan
	fnVisibility
)

var functionRoles = map[string]functionRole{
	"name":          fnName,
	"function_name": fnName,
	"function":      fnSpan,
	"method":        fnSpan,
	"visibility":    fnVisibility,
}

// ProcessFunctions builds one FunctionInfo per match. Matches with no
// recognized role are dropped.
func ProcessFunctions(matches []Match) *FunctionResult {
	res := &FunctionResult{Functions: []FunctionInfo{}}
	for _, m := range matches {
		var (
			fn   FunctionInfo
			seen bool
		)
		for _, c := range m.Captures {
			switch functionRoles[c.Role] {
			case fnName:
				fn.Name = c.Text
				seen = true
			case fnSpan:
				fn.Kind = c.Role
				fn.Line = c.Start.Line
				fn.EndLine = c.End.Line
				fn.Length = c.End.Line - c.Start.Line + 1
				seen = true
			case fnVisibility:
				fn.Visibility = c.Text
				seen = true
			}
		}
		if seen {
			res.Functions = append(res.Functions, fn)
		}
	}
	res.Total = len(res.Functions)
	return res
}

// Call is one call site.
type Call struct {
	Callee string `json:"callee"`
	Shape  string `json:"shape"`
	Line   int    `json:"line"`
}

// CallResult is the calls purpose output.
type CallResult struct {
	Calls    []Call         `json:"calls"`
	Total    int            `json:"total"`
	Unique   int            `json:"unique"`
	ByCallee map[string]int `json:"by_callee"`
}

// callRoles maps call-shape capture names to a short shape label. Call
// syntax differs across languages; each shape is accepted as the callee.
var callRoles = map[string]string{
	"call_name":         "call",
	"method_call_name":  "method",
	"scoped_call_name":  "scoped",
	"generic_call_name": "generic",
	"qualified_call":    "qualified",
}

// ProcessCalls records every call-shape capture.
func ProcessCalls(matches []Match) *CallResult {
	res := &CallResult{Calls: []Call{}, ByCallee: map[string]int{}}
	for _, m := range matches {
		for _, c := range m.Captures {
			shape, ok := callRoles[c.Role]
			if !ok {
				continue
			}
			res.Calls = append(res.Calls, Call{Callee: c.Text, Shape: shape, Line: c.Start.Line})
			res.ByCallee[c.Text]++
		}
	}
	res.Total = len(res.Calls)
	res.Unique = len(res.ByCallee)
	return res
}

// ComplexityPoint is one branch point.
type ComplexityPoint struct {
	Kind string `json:"kind"`
	Line int    `json:"line"`
}

// ComplexityResult is the complexity purpose output.
type ComplexityResult struct {
	Total     int               `json:"total"`
	Points    []ComplexityPoint `json:"points"`
	MatchArms int               `json:"match_arms"`
	Grade     string            `json:"grade"`
}

type complexityRole int

const (
	cxPoint complexityRole = iota + 1
	cxArm
)

var complexityRoles = map[string]complexityRole{
	"complexity_point": cxPoint,
	"complexity":       cxPoint,
	"match_arm":        cxArm,
}

// ProcessComplexity sums branch points on top of a baseline of 1.
func ProcessComplexity(matches []Match) *ComplexityResult {
	res := &ComplexityResult{Total: 1, Points: []ComplexityPoint{}}
	for _, m := range matches {
		for _, c := range m.Captures {
			switch complexityRoles[c.Role] {
			case cxPoint:
				res.Total++
				res.Points = append(res.Points, ComplexityPoint{Kind: c.NodeKind, Line: c.Start.Line})
			case cxArm:
				res.Total++
				res.MatchArms++
			}
		}
	}
	res.Grade = Grade(res.Total)
	return res
}

// Grade maps a complexity total to a letter: A 1-5, B 6-10, C 11-20,
// D 21-30, F above.
func Grade(total int) string {
	switch {
	case total <= 5:
		return "A"
	case total <= 10:
		return "B"
	case total <= 20:
		return "C"
	case total <= 30:
		return "D"
	default:
		return "F"
	}
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
