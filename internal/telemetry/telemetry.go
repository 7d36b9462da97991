// Package telemetry holds the Prometheus collectors shared by the analysis
// pipeline.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FilesAnalyzed counts per-file analyses by language and outcome.
	FilesAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codehud_files_analyzed_total",
		Help: "Files analyzed by language and result",
	}, []string{"language", "result"})

	// QueryCompileFailures counts definitions that were found but failed to compile.
	QueryCompileFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codehud_query_compile_failures_total",
		Help: "Query definitions that failed to compile, by language and kind",
	}, []string{"language", "kind"})

	// MatchTruncations counts match streams cut off by a cap.
	MatchTruncations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codehud_match_truncations_total",
		Help: "Match streams truncated by the match or comment cap, by kind",
	}, []string{"kind"})

	// CacheLookups counts analysis cache lookups by result (hit or miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codehud_cache_lookups_total",
		Help: "Analysis cache lookups by result",
	}, []string{"result"})

	// AnalyzeDuration tracks end-to-end per-file analysis time.
	AnalyzeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codehud_analyze_duration_seconds",
		Help:    "Per-file analysis duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"language"})
)

// Outcome labels for FilesAnalyzed.
const (
	ResultOK          = "ok"
	ResultParseFailed = "parse_failed"
	ResultCached      = "cached"
)
