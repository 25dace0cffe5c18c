package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gregLibert/jdl-reader/pkg/jdl"
)

// Metrics holds the Prometheus metrics of the reader service.
// It implements jdl.Observer.
type Metrics struct {
	Sessions        *prometheus.CounterVec
	SessionDuration prometheus.Histogram
	StepDuration    *prometheus.HistogramVec
	StepFailures    *prometheus.CounterVec
	BusyRejections  prometheus.Counter
	InFlight        prometheus.Gauge
}

var _ jdl.Observer = (*Metrics)(nil)

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jdl_sessions_total",
			Help: "Total number of card reading sessions, labeled by outcome",
		}, []string{"outcome"}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "jdl_session_duration_seconds",
			Help:    "Duration of card reading sessions in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5},
		}),
		StepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jdl_step_duration_seconds",
			Help:    "Duration of a single command exchange in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5},
		}, []string{"step"}),
		StepFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jdl_step_failures_total",
			Help: "Total number of failed session steps, labeled by step",
		}, []string{"step"}),
		BusyRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "jdl_busy_rejections_total",
			Help: "Total number of read requests rejected while a session was running",
		}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "jdl_sessions_in_flight",
			Help: "Current number of running sessions",
		}),
	}
}

// ObserveStep records one command exchange.
func (m *Metrics) ObserveStep(step jdl.Step, d time.Duration, err error) {
	m.StepDuration.WithLabelValues(string(step)).Observe(d.Seconds())
	if err != nil {
		m.StepFailures.WithLabelValues(string(step)).Inc()
	}
}

// ObserveSession records a finished session.
func (m *Metrics) ObserveSession(d time.Duration, err error) {
	m.SessionDuration.Observe(d.Seconds())
	m.Sessions.WithLabelValues(Outcome(err)).Inc()
}

// Outcome maps a session error to a low-cardinality label.
func Outcome(err error) string {
	var stepErr *jdl.StepError
	var tErr *jdl.TransportError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, jdl.ErrVerificationFailed):
		return "verification_failed"
	case errors.As(err, &stepErr):
		return "card_error"
	case errors.As(err, &tErr):
		return "transport_error"
	default:
		return "decode_error"
	}
}
