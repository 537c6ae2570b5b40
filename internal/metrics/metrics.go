// Package metrics exposes partition counters for Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lotismart_runs_total",
		Help: "Total number of partition runs",
	})
	LotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lotismart_lots_total",
		Help: "Total number of lots produced",
	})
	EmptyRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lotismart_empty_runs_total",
		Help: "Partition runs that produced no lot",
	})
	RunErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lotismart_run_errors_total",
		Help: "Failed partition runs by error kind",
	}, []string{"kind"})
	PartitionDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lotismart_partition_duration_ms",
		Help:    "Partition duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
)

func init() {
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(LotsTotal)
	prometheus.MustRegister(EmptyRunsTotal)
	prometheus.MustRegister(RunErrorsTotal)
	prometheus.MustRegister(PartitionDurationMs)
}

// ObserveRun records a successful run.
func ObserveRun(lots int, elapsed time.Duration) {
	RunsTotal.Inc()
	LotsTotal.Add(float64(lots))
	if lots == 0 {
		EmptyRunsTotal.Inc()
	}
	PartitionDurationMs.Observe(float64(elapsed.Microseconds()) / 1000)
}

// ObserveError records a failed run under its error kind.
func ObserveError(err error) {
	RunErrorsTotal.WithLabelValues(ErrorKind(err)).Inc()
}

// ErrorKind maps an error to a low-cardinality label value.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, model.ErrInvalidGeometry):
		return "invalid_geometry"
	case errors.Is(err, model.ErrCRSMismatch):
		return "crs_mismatch"
	}
	return "other"
}

// Handler serves the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
