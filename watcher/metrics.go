package watcher

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jongio/autoattach/attach"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

// metricsEnabled controls whether Prometheus metrics are recorded.
var metricsEnabled atomic.Bool

var (
	passDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoattach_pass_duration_seconds",
			Help:    "Duration of discovery passes in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"result"},
	)

	passTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoattach_pass_total",
			Help: "Total number of discovery passes by result",
		},
		[]string{"result"},
	)

	trackedProcesses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autoattach_tracked_processes",
			Help: "Number of pids in the watched process tree",
		},
	)

	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoattach_dispatch_total",
			Help: "Candidate dispatch results",
		},
		[]string{"outcome"},
	)

	sessionRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autoattach_session_running",
			Help: "1 while a watch session is active",
		},
	)

	breakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autoattach_enumeration_breaker_state",
			Help: "Enumeration circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// Pass results used as metric labels.
const (
	resultOK       = "ok"
	resultFailed   = "failed"
	resultSkipped  = "skipped"
	resultCanceled = "canceled"
)

func recordPass(result string, elapsed time.Duration, tracked int) {
	if !metricsEnabled.Load() {
		return
	}
	passDuration.WithLabelValues(result).Observe(elapsed.Seconds())
	passTotal.WithLabelValues(result).Inc()
	if result == resultOK {
		trackedProcesses.Set(float64(tracked))
	}
}

func recordDispatch(outcome attach.Outcome) {
	if metricsEnabled.Load() {
		dispatchTotal.WithLabelValues(string(outcome)).Inc()
	}
}

func recordSession(running bool) {
	if !metricsEnabled.Load() {
		return
	}
	if running {
		sessionRunning.Set(1)
	} else {
		sessionRunning.Set(0)
		trackedProcesses.Set(0)
	}
}

func recordBreakerState(state gobreaker.State) {
	if !metricsEnabled.Load() {
		return
	}
	var v float64
	switch state {
	case gobreaker.StateClosed:
		v = 0
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	breakerState.Set(v)
}

// CreateMetricsServer creates a configured HTTP server for Prometheus metrics.
func CreateMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
