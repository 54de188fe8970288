package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global metrics instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Editing metrics
	CommandsExecuted *prometheus.CounterVec
	UndoOperations   *prometheus.CounterVec
	RedoOperations   *prometheus.CounterVec
	HistoryDepth     prometheus.Histogram

	// Repository metrics
	DBOperations *prometheus.CounterVec
	DBDuration   *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	commandsExecuted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_executed_total",
			Help:      "Total number of edit commands executed",
		},
		[]string{"type", "status"},
	)

	undoOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undo_operations_total",
			Help:      "Total number of undo steps",
		},
		[]string{"status"},
	)

	redoOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redo_operations_total",
			Help:      "Total number of redo steps",
		},
		[]string{"status"},
	)

	historyDepth := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "history_depth",
			Help:      "Command history size observed after each execution",
			Buckets:   []float64{1, 2, 5, 10, 20, 35, 50},
		},
	)

	dbOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_operations_total",
			Help:      "Total number of repository operations",
		},
		[]string{"operation", "status"},
	)

	dbDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_operation_duration_seconds",
			Help:      "Repository operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		commandsExecuted,
		undoOperations,
		redoOperations,
		historyDepth,
		dbOperations,
		dbDuration,
	)

	globalCollector = &Collector{
		registry:         registry,
		HTTPRequests:     httpRequests,
		HTTPDuration:     httpDuration,
		CommandsExecuted: commandsExecuted,
		UndoOperations:   undoOperations,
		RedoOperations:   redoOperations,
		HistoryDepth:     historyDepth,
		DBOperations:     dbOperations,
		DBDuration:       dbDuration,
	}
	return globalCollector
}

// Handler returns an http.Handler exposing the collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveCommand records a command execution outcome
func (c *Collector) ObserveCommand(commandType string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.CommandsExecuted.WithLabelValues(commandType, status).Inc()
}

// ObserveDB records a repository operation outcome with its duration
func (c *Collector) ObserveDB(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.DBOperations.WithLabelValues(operation, status).Inc()
	c.DBDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
