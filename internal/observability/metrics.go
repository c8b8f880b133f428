// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	SimulationRunsTotal *prometheus.CounterVec
	SimulationDuration  *prometheus.HistogramVec
	SamplesDrawn        prometheus.Counter
	CacheLookups        *prometheus.CounterVec

	// Sweep metrics
	SweepPointsTotal *prometheus.CounterVec
	SweepDuration    *prometheus.HistogramVec

	// Analysis metrics
	AnalysisRunsTotal *prometheus.CounterVec
	AnalysisDuration  prometheus.Histogram
	ReportsGenerated  *prometheus.CounterVec

	// Export metrics
	ExportRowsWritten *prometheus.CounterVec
	DBQueryDuration   *prometheus.HistogramVec
	DBQueryErrors     *prometheus.CounterVec

	// API metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	ExploreSessionsOpen  prometheus.Gauge
	ExploreMessagesTotal *prometheus.CounterVec

	// Health metrics
	LastSuccessfulAnalysis prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "capex_lab"
	}

	return &Metrics{
		// Engine metrics
		SimulationRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Total number of engine runs by status",
		}, []string{"status"}),
		SimulationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "duration_seconds",
			Help:      "Engine run duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"sampling"}),
		SamplesDrawn: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "replicates_total",
			Help:      "Total number of replicates simulated",
		}),
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome",
		}, []string{"result"}),

		// Sweep metrics
		SweepPointsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "points_total",
			Help:      "Total number of sweep axis points evaluated",
		}, []string{"axis"}),
		SweepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Full sweep duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"axis"}),

		// Analysis metrics
		AnalysisRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by status",
		}, []string{"status"}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		ReportsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "reports_generated_total",
			Help:      "Total number of reports rendered by format",
		}, []string{"format"}),

		// Export metrics
		ExportRowsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "rows_written_total",
			Help:      "Rows written to export stores by sink and table",
		}, []string{"sink", "table"}),
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// API metrics
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		ExploreSessionsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "explore_sessions_open",
			Help:      "Number of open explore websocket sessions",
		}),
		ExploreMessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "explore_messages_total",
			Help:      "Explore websocket messages by direction",
		}, []string{"direction"}),

		// Health metrics
		LastSuccessfulAnalysis: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_analysis_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSimulationRun records one engine run.
func RecordSimulationRun(sampling string, replicates int, seconds float64, err error) {
	DefaultMetrics.SimulationRunsTotal.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	DefaultMetrics.SimulationDuration.WithLabelValues(sampling).Observe(seconds)
	DefaultMetrics.SamplesDrawn.Add(float64(replicates))
}

// RecordCacheLookup records a result cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		DefaultMetrics.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	DefaultMetrics.CacheLookups.WithLabelValues("miss").Inc()
}

// RecordSweepPoint increments the sweep point counter.
func RecordSweepPoint(axis string) {
	DefaultMetrics.SweepPointsTotal.WithLabelValues(axis).Inc()
}

// RecordSweep records a completed sweep.
func RecordSweep(axis string, seconds float64) {
	DefaultMetrics.SweepDuration.WithLabelValues(axis).Observe(seconds)
}

// RecordAnalysisRun records an analysis run.
func RecordAnalysisRun(seconds float64, err error) {
	DefaultMetrics.AnalysisRunsTotal.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	DefaultMetrics.AnalysisDuration.Observe(seconds)
	DefaultMetrics.LastSuccessfulAnalysis.Set(float64(time.Now().Unix()))
}

// RecordReport increments the reports counter for format.
func RecordReport(format string) {
	DefaultMetrics.ReportsGenerated.WithLabelValues(format).Inc()
}

// RecordExportRows records rows written to an export sink.
func RecordExportRows(sink, table string, rows int) {
	DefaultMetrics.ExportRowsWritten.WithLabelValues(sink, table).Add(float64(rows))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest increments the request counter.
func RecordHTTPRequest(route, code string) {
	DefaultMetrics.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
}

// ExploreSessionOpened tracks a new explore session.
func ExploreSessionOpened() {
	DefaultMetrics.ExploreSessionsOpen.Inc()
}

// ExploreSessionClosed tracks a closed explore session.
func ExploreSessionClosed() {
	DefaultMetrics.ExploreSessionsOpen.Dec()
}

// RecordExploreMessage counts an inbound or outbound explore message.
func RecordExploreMessage(direction string) {
	DefaultMetrics.ExploreMessagesTotal.WithLabelValues(direction).Inc()
}
