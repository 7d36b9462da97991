package depgraph

import "fmt"

// PatternHit is one import exhibiting a pattern.
type PatternHit struct {
	File   string `json:"file"`
	Module string `json:"module"`
	Depth  int    `json:"depth,omitempty"`
	Alias  string `json:"alias,omitempty"`
}

// ImportPatterns lists notable import styles.
type ImportPatterns struct {
	StarImports      []PatternHit `json:"star_imports"`
	LongImportChains []PatternHit `json:"long_import_chains"`
	RelativeImports  []PatternHit `json:"relative_imports"`
	AliasedImports   []PatternHit `json:"aliased_imports"`
}

const longChainDots = 4

// Patterns scans every record for star imports, dotted paths of four or
// more separators, relative imports and aliases.
func Patterns(g *Graph) ImportPatterns {
	p := ImportPatterns{
		StarImports:      []PatternHit{},
		LongImportChains: []PatternHit{},
		RelativeImports:  []PatternHit{},
		AliasedImports:   []PatternHit{},
	}
	for _, path := range g.Paths() {
		for _, r := range g.Nodes[path].Records {
			if r.Wildcard {
				p.StarImports = append(p.StarImports, PatternHit{File: path, Module: r.Raw})
			}
			if d := dots(r.Raw); d >= longChainDots {
				p.LongImportChains = append(p.LongImportChains, PatternHit{File: path, Module: r.Raw, Depth: d})
			}
			if g.Classifier.Relative(r.Raw) {
				p.RelativeImports = append(p.RelativeImports, PatternHit{File: path, Module: r.Raw})
			}
			if r.Alias != "" {
				p.AliasedImports = append(p.AliasedImports, PatternHit{File: path, Module: r.Raw, Alias: r.Alias})
			}
		}
	}
	return p
}

// Summary holds scan totals.
type Summary struct {
	FilesAnalyzed        int     `json:"total_files_analyzed"`
	FilesWithDeps        int     `json:"files_with_dependencies"`
	FilesSkipped         int     `json:"files_skipped"`
	FilesFailed          int     `json:"files_failed"`
	TotalImports         int     `json:"total_import_statements"`
	AverageImports       float64 `json:"average_imports_per_file"`
	CircularDependencies int     `json:"circular_dependencies_found"`
	ExternalDependencies int     `json:"external_dependencies"`
	Coverage             float64 `json:"dependency_coverage"`
	Clusters             int     `json:"clusters"`
	Edges                int     `json:"resolved_edges"`
}

// Report is the full dependency analysis of one scan.
type Report struct {
	Root            string               `json:"root"`
	Summary         Summary              `json:"summary"`
	Files           map[string]*FileNode `json:"file_dependencies"`
	Metrics         Metrics              `json:"dependency_metrics"`
	Coupling        CouplingReport       `json:"coupling_analysis"`
	Cycles          []Cycle              `json:"circular_dependencies"`
	Components      []Component          `json:"strongly_connected"`
	PageRank        []Rank               `json:"pagerank"`
	External        ExternalDeps         `json:"external_dependencies"`
	Clusters        []Cluster            `json:"dependency_clusters"`
	Influence       []Influence          `json:"influential_imports"`
	Patterns        ImportPatterns       `json:"import_patterns"`
	Recommendations []string             `json:"recommendations"`
	Warnings        []Warning            `json:"warnings"`
}

const pageRankLimit = 20

// Analyze derives every metric of g. Imports are linked to files through r
// once and the adjacency is shared by the graph algorithms.
func Analyze(g *Graph, r Resolver) *Report {
	adj := Link(g, r)
	rep := &Report{
		Root:       g.Root,
		Files:      g.Nodes,
		Metrics:    ComputeMetrics(g),
		Coupling:   Coupling(g),
		Cycles:     adj.Cycles(),
		Components: adj.Components(),
		PageRank:   adj.PageRank(pageRankLimit),
		External:   External(g),
		Clusters:   Clusters(g),
		Influence:  Influences(g),
		Patterns:   Patterns(g),
		Warnings:   g.Warnings,
	}
	if rep.Warnings == nil {
		rep.Warnings = []Warning{}
	}
	rep.Summary = Summarize(g, rep)
	rep.Summary.Edges = adj.Edges()
	rep.Recommendations = Recommend(rep)
	return rep
}

// Summarize computes totals. Coverage is the share of analyzed files that
// have at least one import.
func Summarize(g *Graph, rep *Report) Summary {
	s := Summary{
		FilesAnalyzed:        g.Analyzed,
		FilesWithDeps:        g.Len(),
		FilesSkipped:         g.Skipped,
		FilesFailed:          g.Failed,
		CircularDependencies: len(rep.Cycles),
		ExternalDependencies: rep.External.Total,
		Clusters:             len(rep.Clusters),
	}
	for _, n := range g.Nodes {
		s.TotalImports += len(n.Imports)
	}
	if g.Len() > 0 {
		s.AverageImports = float64(s.TotalImports) / float64(g.Len())
	}
	if g.Analyzed > 0 {
		s.Coverage = float64(g.Len()) / float64(g.Analyzed) * 100
	}
	return s
}

const thirdPartyConsolidation = 20

var generalAdvice = []string{
	"Use dependency injection to reduce tight coupling",
	"Group related functionality into cohesive modules",
	"Regularly audit and remove unused imports",
	"Follow the dependency inversion principle",
	"Aim for low coupling and high cohesion",
}

// Recommend lists findings-specific advice followed by general advice.
func Recommend(rep *Report) []string {
	var out []string
	if n := len(rep.Cycles); n > 0 {
		out = append(out, fmt.Sprintf("Resolve %d circular dependencies to improve maintainability", n))
	}
	if n := len(rep.Coupling.StrongCouplings); n > 0 {
		out = append(out, fmt.Sprintf("Reduce coupling in %d highly-coupled files", n))
	}
	if len(rep.External.ThirdParty) > thirdPartyConsolidation {
		out = append(out, "Consider consolidating external dependencies to reduce complexity")
	}
	return append(out, generalAdvice...)
}
