// Package metrics exposes Prometheus instrumentation for the import flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ImportMetrics counts the import pipeline's work.
type ImportMetrics struct {
	AnalyzesTotal   prometheus.Counter
	AnalyzeFailures prometheus.Counter
	AnalyzeSeconds  prometheus.Histogram

	ImportsTotal   prometheus.Counter
	ImportFailures prometheus.Counter
	RowsImported   prometheus.Counter
	RowsSkipped    prometheus.Counter

	MappingAutoMatches *prometheus.CounterVec
}

// NewImportMetrics registers and returns the import metric set.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	factory := promauto.With(reg)

	return &ImportMetrics{
		AnalyzesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pocketledger_import_analyzes_total",
			Help: "Uploaded files analyzed.",
		}),
		AnalyzeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pocketledger_import_analyze_failures_total",
			Help: "File analyses that failed before producing a matrix.",
		}),
		AnalyzeSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pocketledger_import_analyze_seconds",
			Help:    "Time spent parsing and matching an uploaded file.",
			Buckets: prometheus.DefBuckets,
		}),
		ImportsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pocketledger_imports_total",
			Help: "Commit operations attempted.",
		}),
		ImportFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pocketledger_import_failures_total",
			Help: "Commit operations that failed to persist.",
		}),
		RowsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "pocketledger_import_rows_imported_total",
			Help: "Transaction rows persisted by commits.",
		}),
		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "pocketledger_import_rows_skipped_total",
			Help: "Rows dropped for unparseable dates or deselected months.",
		}),
		MappingAutoMatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pocketledger_import_mapping_matches_total",
			Help: "Saved-mapping match outcomes during analysis.",
		}, []string{"outcome"}), // exact, scored, suggested, none
	}
}
