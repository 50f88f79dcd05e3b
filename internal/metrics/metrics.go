// Package metrics instruments scheduling runs, not HTTP routes: outcome
// counters and a duration histogram the surrounding system's dashboards
// can scrape.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/campusforge/timetable-engine/pkg/errors"
)

// Outcome is the terminal state of one Engine.Generate call.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeUnplaceable   Outcome = "unplaceable"
	OutcomeHoursExceeded Outcome = "hours_exceeded"
	OutcomeMissingRoom   Outcome = "missing_room_type"
	OutcomeInvalidInput  Outcome = "invalid_input"
	OutcomeNotFound      Outcome = "not_found"
	OutcomeInternal      Outcome = "internal"
)

// Scheduler collects Prometheus metrics for scheduling-run outcomes and
// latency. A nil *Scheduler is safe to call methods on: every method is a
// no-op.
type Scheduler struct {
	registry     *prometheus.Registry
	handler      http.Handler
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	warningTotal *prometheus.CounterVec
}

// NewScheduler registers the scheduling-run collectors on a fresh registry.
func NewScheduler() *Scheduler {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_runs_total",
		Help: "Total number of scheduling runs, labeled by outcome",
	}, []string{"outcome"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduler_run_duration_seconds",
		Help:    "Duration of a single batch's scheduling run",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	warningTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_warnings_total",
		Help: "Total number of soft warnings emitted by successful runs, labeled by kind",
	}, []string{"kind"})

	registry.MustRegister(runsTotal, runDuration, warningTotal)

	return &Scheduler{
		registry:     registry,
		handler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		runsTotal:    runsTotal,
		runDuration:  runDuration,
		warningTotal: warningTotal,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *Scheduler) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveRun records one completed run's outcome, duration, and any
// warnings it carried.
func (m *Scheduler) ObserveRun(outcome Outcome, duration time.Duration, warnings []string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(string(outcome)).Inc()
	m.runDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
	for _, w := range warnings {
		m.warningTotal.WithLabelValues(w).Inc()
	}
}

// OutcomeFor classifies an Engine.Generate error (or nil, for success) into
// the outcome label used by ObserveRun.
func OutcomeFor(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	appErr := apperrors.FromError(err)
	switch appErr.Code {
	case apperrors.ErrNotFound.Code:
		return OutcomeNotFound
	case apperrors.ErrInvalidInput.Code:
		return OutcomeInvalidInput
	case apperrors.ErrHoursExceedCapacity.Code:
		return OutcomeHoursExceeded
	case apperrors.ErrMissingRoomType.Code:
		return OutcomeMissingRoom
	case apperrors.ErrUnplaceable.Code:
		return OutcomeUnplaceable
	default:
		return OutcomeInternal
	}
}
