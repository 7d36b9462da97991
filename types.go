package codehud

import (
	"github.com/jward/codehud/internal/depgraph"
	"github.com/jward/codehud/internal/lang"
	"github.com/jward/codehud/internal/match"
)

// Public aliases for internal types used in the Engine API. External
// consumers use these names; no conversion is needed.

type Language = lang.ID
type FileAnalysis = match.FileAnalysis
type ImportResult = match.ImportResult
type Report = depgraph.Report
type Resolver = depgraph.Resolver
