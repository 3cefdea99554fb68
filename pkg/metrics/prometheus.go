package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	simulations *prometheus.CounterVec
	validations *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		simulations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callaudit_simulations_total",
				Help: "Total number of simulated positions by exit reason",
			},
			[]string{"ticker", "exit_reason"},
		),
		validations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callaudit_validations_total",
				Help: "Total number of scored sentiment horizons",
			},
			[]string{"ticker", "horizon", "correct"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callaudit_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "callaudit_last_price",
				Help: "Last observed price for a ticker",
			},
			[]string{"ticker"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "callaudit_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSimulation records a resolved position.
func (r *Recorder) RecordSimulation(ticker, exitReason string) {
	r.simulations.WithLabelValues(ticker, exitReason).Inc()
}

// RecordValidation records one scored horizon.
func (r *Recorder) RecordValidation(ticker, horizon string, correct bool) {
	r.validations.WithLabelValues(ticker, horizon, strconv.FormatBool(correct)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a ticker.
func (r *Recorder) RecordLastPrice(ticker string, price float64) {
	r.lastPrice.WithLabelValues(ticker).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
