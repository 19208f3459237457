package api

import (
	"net/http"
	"time"

	"github.com/miwtoo/credit-card-extraction/extractor/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

type metrics struct {
	registry     *prometheus.Registry
	parses       *prometheus.CounterVec
	duration     prometheus.Histogram
	transactions prometheus.Counter
	warnings     prometheus.Counter
	rateLimited  prometheus.Counter
	panics       prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ccx_parse_requests_total",
			Help: "Parse requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ccx_parse_duration_seconds",
			Help:    "Time spent handling parse requests.",
			Buckets: prometheus.DefBuckets,
		}),
		transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccx_transactions_extracted_total",
			Help: "Transactions extracted from parsed statements.",
		}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccx_validation_warnings_total",
			Help: "Validation warnings reported by parsed statements.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccx_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccx_recovered_panics_total",
			Help: "Panics recovered while handling requests.",
		}),
	}
	m.registry.MustRegister(m.parses, m.duration, m.transactions, m.warnings, m.rateLimited, m.panics)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) observeParse(outcome string, start time.Time, result *common.ExtractionResult) {
	m.parses.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(start).Seconds())
	if result != nil {
		m.transactions.Add(float64(len(result.Transactions)))
		m.warnings.Add(float64(len(result.Validation.Warnings)))
	}
}
