// Package metrics exposes prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry     *prometheus.Registry
	authCodes    *prometheus.CounterVec
	mails        *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers the API collectors plus the go/process collectors on a
// dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		authCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topick",
			Name:      "auth_codes_total",
			Help:      "Auth code workflow outcomes.",
		}, []string{"outcome", "reason"}),
		mails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topick",
			Name:      "notification_mails_total",
			Help:      "Operator notification mails by kind and result.",
		}, []string{"kind", "result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "topick",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.authCodes,
		m.mails,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CodeIssued() {
	m.authCodes.WithLabelValues("issued", "").Inc()
}

func (m *Metrics) CodeRedeemed() {
	m.authCodes.WithLabelValues("redeemed", "").Inc()
}

func (m *Metrics) CodeRejected(reason string) {
	m.authCodes.WithLabelValues("rejected", reason).Inc()
}

func (m *Metrics) MailSent(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mails.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
