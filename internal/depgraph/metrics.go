package depgraph

import (
	"math"
	"sort"
	"strings"
)

// Band is a coupling classification.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// StrongCouplingThreshold is the internal import count at which a file is
// reported as strongly coupled.
const StrongCouplingThreshold = 8

// BandFor classifies an internal import count: low below 3, medium 3 to 7,
// high from 8.
func BandFor(strength int) Band {
	switch {
	case strength >= StrongCouplingThreshold:
		return BandHigh
	case strength >= 3:
		return BandMedium
	default:
		return BandLow
	}
}

// CouplingRecord is the coupling of one file.
type CouplingRecord struct {
	Path             string   `json:"path"`
	Strength         int      `json:"strength"`
	Band             Band     `json:"band"`
	Dependencies     []string `json:"dependencies,omitempty"`
	Score            float64  `json:"score"`
	ImportComplexity float64  `json:"import_complexity"`
}

// Distribution counts files per coupling band.
type Distribution struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// CouplingReport covers every graph node.
type CouplingReport struct {
	Records         []CouplingRecord `json:"records"`
	StrongCouplings []CouplingRecord `json:"strong_couplings"`
	Distribution    Distribution     `json:"distribution"`
	AverageStrength float64          `json:"average_strength"`
}

// Coupling scores each node by its internal import count.
func Coupling(g *Graph) CouplingReport {
	rep := CouplingReport{Records: []CouplingRecord{}, StrongCouplings: []CouplingRecord{}}
	total := 0
	for _, p := range g.Paths() {
		n := g.Nodes[p]
		rec := CouplingRecord{
			Path:             p,
			Strength:         len(n.Internal),
			Band:             BandFor(len(n.Internal)),
			Score:            n.CouplingScore,
			ImportComplexity: n.ImportComplexity,
		}
		total += rec.Strength
		switch rec.Band {
		case BandHigh:
			rep.Distribution.High++
			rec.Dependencies = n.Internal
			rep.StrongCouplings = append(rep.StrongCouplings, rec)
		case BandMedium:
			rep.Distribution.Medium++
		default:
			rep.Distribution.Low++
		}
		rep.Records = append(rep.Records, rec)
	}
	sort.SliceStable(rep.StrongCouplings, func(i, j int) bool {
		return rep.StrongCouplings[i].Strength > rep.StrongCouplings[j].Strength
	})
	if len(rep.Records) > 0 {
		rep.AverageStrength = float64(total) / float64(len(rep.Records))
	}
	return rep
}

// Cluster is a group of files with overlapping imports.
type Cluster struct {
	Files         []string `json:"files"`
	SharedImports []string `json:"shared_imports"`
	CommonImports int      `json:"common_imports"`
	Size          int      `json:"size"`
	Cohesion      float64  `json:"cohesion"`
}

const (
	clusterSimilarity = 0.4
	clusterMinSize    = 3
	clusterLimit      = 10
)

// Clusters groups files greedily. Each unprocessed file seeds a cluster and
// absorbs every other unprocessed file whose imports overlap the cluster's
// accumulated imports by at least 40% of the larger set. Clusters with
// fewer than three files are discarded and their files stay available.
func Clusters(g *Graph) []Cluster {
	paths := g.Paths()
	sets := make(map[string]map[string]struct{}, len(paths))
	for _, p := range paths {
		sets[p] = toSet(g.Nodes[p].Imports)
	}

	processed := map[string]bool{}
	out := []Cluster{}
	for _, seed := range paths {
		if processed[seed] {
			continue
		}
		files := []string{seed}
		acc := copySet(sets[seed])
		for _, other := range paths {
			if other == seed || processed[other] {
				continue
			}
			if similarity(acc, sets[other]) >= clusterSimilarity {
				files = append(files, other)
				for imp := range sets[other] {
					acc[imp] = struct{}{}
				}
			}
		}
		if len(files) < clusterMinSize {
			continue
		}
		for _, f := range files {
			processed[f] = true
		}
		shared := setKeys(acc)
		out = append(out, Cluster{
			Files:         files,
			SharedImports: shared,
			CommonImports: len(shared),
			Size:          len(files),
			Cohesion:      float64(len(shared)) / float64(len(files)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	if len(out) > clusterLimit {
		out = out[:clusterLimit]
	}
	return out
}

func similarity(a, b map[string]struct{}) float64 {
	denom := max(len(a), len(b))
	if denom == 0 {
		return 0
	}
	common := 0
	for k := range b {
		if _, ok := a[k]; ok {
			common++
		}
	}
	return float64(common) / float64(denom)
}

// Influence is how widely an internal import is referenced.
type Influence struct {
	Import     string  `json:"import"`
	ImportedBy int     `json:"imported_by"`
	Score      float64 `json:"score"`
}

const influenceLimit = 20

// Influences counts the files referencing each internal import. Score is
// the count over the number of graph nodes.
func Influences(g *Graph) []Influence {
	counts := map[string]int{}
	for _, n := range g.Nodes {
		for _, imp := range n.Internal {
			counts[imp]++
		}
	}
	out := make([]Influence, 0, len(counts))
	for imp, c := range counts {
		out = append(out, Influence{Import: imp, ImportedBy: c, Score: float64(c) / float64(g.Len())})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ImportedBy != out[j].ImportedBy {
			return out[i].ImportedBy > out[j].ImportedBy
		}
		return out[i].Import < out[j].Import
	})
	if len(out) > influenceLimit {
		out = out[:influenceLimit]
	}
	return out
}

// Metrics are whole-graph import statistics.
type Metrics struct {
	TotalImports    int     `json:"total_imports"`
	UniqueImports   int     `json:"unique_imports"`
	AveragePerFile  float64 `json:"average_imports_per_file"`
	AverageCoupling float64 `json:"average_coupling_score"`
	ReuseFactor     float64 `json:"import_reuse_factor"`
	MaxCoupling     float64 `json:"max_coupling"`
	MinCoupling     float64 `json:"min_coupling"`
}

// ComputeMetrics summarizes import volume and coupling scores.
func ComputeMetrics(g *Graph) Metrics {
	var m Metrics
	if g.Len() == 0 {
		return m
	}
	unique := map[string]struct{}{}
	sum := 0.0
	m.MinCoupling = math.Inf(1)
	for _, n := range g.Nodes {
		m.TotalImports += len(n.Imports)
		for _, imp := range n.Imports {
			unique[imp] = struct{}{}
		}
		sum += n.CouplingScore
		m.MaxCoupling = math.Max(m.MaxCoupling, n.CouplingScore)
		m.MinCoupling = math.Min(m.MinCoupling, n.CouplingScore)
	}
	m.UniqueImports = len(unique)
	m.AveragePerFile = float64(m.TotalImports) / float64(g.Len())
	m.AverageCoupling = sum / float64(g.Len())
	if m.TotalImports > 0 {
		m.ReuseFactor = float64(m.TotalImports-m.UniqueImports) / float64(m.TotalImports)
	}
	return m
}

func toSet(xs []string) map[string]struct{} {
	s := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		s[x] = struct{}{}
	}
	return s
}

func copySet(s map[string]struct{}) map[string]struct{} {
	c := make(map[string]struct{}, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

func setKeys(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// dots counts the separators in a dotted module path.
func dots(raw string) int { return strings.Count(raw, ".") }
