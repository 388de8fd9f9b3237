package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered on the default registry through promauto.

const (
	OutcomeOK              = "ok"
	OutcomeNotFound        = "not_found"
	OutcomeInvalidArgument = "invalid_argument"
	OutcomeUnavailable     = "storage_unavailable"
	OutcomeLimitExceeded   = "limit_exceeded"
	OutcomeCanceled        = "canceled"
	OutcomeError           = "error"
)

var (
	// ExtractionsTotal counts local read graph queries by outcome.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readgraph_extractions_total",
			Help: "Total number of local read graph extractions",
		},
		[]string{"outcome"},
	)

	// ExtractionDuration covers extraction plus export.
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "readgraph_extraction_duration_seconds",
			Help: "Duration of local read graph queries in seconds",
			// From a handful of reads up to radius-10 neighborhoods in large assemblies.
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	// ExtractionVertices is the size of each successful local graph.
	ExtractionVertices = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "readgraph_extraction_vertices",
			Help:    "Number of oriented reads in each extracted local read graph",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	// StoreOpenDuration is labeled by store: reads or alignments.
	StoreOpenDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "readgraph_store_open_duration_seconds",
			Help:    "Time to map a store, including any in-memory table rebuild",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store"},
	)

	// StoreReads tracks the number of reads in the open stores.
	StoreReads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "readgraph_store_reads",
			Help: "Number of reads in the open sequence store",
		},
	)
)

// WriteTextfile dumps the default registry in the text exposition format,
// for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
