package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "invest",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invest",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	earningsRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "earnings",
			Name:      "runs_total",
			Help:      "Total number of daily earnings batches.",
		},
		[]string{"success"},
	)

	earningsDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "invest",
			Subsystem: "earnings",
			Name:      "run_duration_seconds",
			Help:      "Duration of daily earnings batches.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	earningsInvestments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "earnings",
			Name:      "investments_total",
			Help:      "Investments handled by the earnings batch, by outcome.",
		},
		[]string{"outcome"},
	)

	earningsCredited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "earnings",
			Name:      "credited_total",
			Help:      "Sum of daily earnings credited to investments.",
		},
	)

	earningsLastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "invest",
			Subsystem: "earnings",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last earnings batch finished.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		earningsRuns,
		earningsDuration,
		earningsInvestments,
		earningsCredited,
		earningsLastRun,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := routePath(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordEarningsRun exports the summary of a finished earnings batch.
func RecordEarningsRun(run *models.EarningsRun, duration time.Duration, success bool) {
	result := "false"
	if success {
		result = "true"
	}
	earningsRuns.WithLabelValues(result).Inc()
	earningsDuration.Observe(duration.Seconds())
	earningsLastRun.SetToCurrentTime()
	if run == nil {
		return
	}
	earningsInvestments.WithLabelValues("accrued").Add(float64(run.InvestmentsAccrued))
	earningsInvestments.WithLabelValues("matured").Add(float64(run.InvestmentsMatured))
	earningsInvestments.WithLabelValues("skipped").Add(float64(run.InvestmentsSkipped))
	earningsInvestments.WithLabelValues("failed").Add(float64(run.Failures))
	if total := run.TotalEarnings.InexactFloat64(); total > 0 {
		earningsCredited.Add(total)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// routePath prefers the matched mux template so ids do not explode label
// cardinality.
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	trimmed := strings.Trim(r.URL.Path, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + strings.SplitN(trimmed, "/", 2)[0]
}
