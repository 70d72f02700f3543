package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the API's prometheus instruments
type Metrics struct {
	registry *prometheus.Registry

	searchesTotal  prometheus.Counter
	searchDuration prometheus.Histogram
	ingestsTotal   *prometheus.CounterVec
	syncRunsTotal  prometheus.Counter
	syncedFiles    prometheus.Counter
}

// Ingest outcome label values
const (
	ingestOutcomeSaved     = "saved"
	ingestOutcomeDuplicate = "duplicate"
	ingestOutcomeError     = "error"
)

// NewMetrics registers the API metrics on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		searchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dejoiner_searches_total",
			Help: "Quick searches served.",
		}),
		searchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dejoiner_search_duration_seconds",
			Help:    "Quick search latency.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		ingestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dejoiner_ingests_total",
			Help: "Manual resource saves by outcome.",
		}, []string{"outcome"}),
		syncRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dejoiner_team_sync_runs_total",
			Help: "Team sync runs started.",
		}),
		syncedFiles: factory.NewCounter(prometheus.CounterOpts{
			Name: "dejoiner_team_sync_files_indexed_total",
			Help: "Files indexed by team sync.",
		}),
	}
}
