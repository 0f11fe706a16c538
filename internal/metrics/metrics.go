// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/hooks"
)

const namespace = "cargoquote"

// Metrics owns a private registry; nothing is registered globally.
type Metrics struct {
	reg *prometheus.Registry

	events        *prometheus.CounterVec
	quotes        *prometheus.CounterVec
	amount        prometheus.Histogram
	notifications *prometheus.CounterVec
	messages      *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Dialogue events handled, by state before the event and outcome.",
		}, []string{"state", "outcome"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quotes computed, by service type.",
		}, []string{"service"}),
		amount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_amount",
			Help:      "Quoted totals in currency units.",
			Buckets:   []float64{50, 100, 150, 200, 300, 500, 750, 1000, 2000, 5000},
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Quotes handed to staff, by result.",
		}, []string{"result"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound chat messages, by channel.",
		}, []string{"channel"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.reg.MustRegister(
		m.events, m.quotes, m.amount, m.notifications, m.messages,
		m.httpRequests, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveEvent counts one dialogue event.
func (m *Metrics) ObserveEvent(state, outcome string) {
	m.events.WithLabelValues(state, outcome).Inc()
}

// ObserveQuote records a computed quote.
func (m *Metrics) ObserveQuote(service string, total int64) {
	m.quotes.WithLabelValues(service).Inc()
	m.amount.Observe(float64(total))
}

// ObserveNotification counts a delivery attempt.
func (m *Metrics) ObserveNotification(ok bool) {
	result := "failed"
	if ok {
		result = "sent"
	}
	m.notifications.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// TrackSessions exposes the live session count reported by count.
func (m *Metrics) TrackSessions(count func() float64) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Conversations currently in progress.",
	}, count))
}

// Subscribe feeds the collectors from lifecycle hooks.
func (m *Metrics) Subscribe(h *hooks.Manager) {
	h.On(hooks.EventMessageReceived, "metrics", func(_ context.Context, p hooks.Payload) error {
		m.messages.WithLabelValues(p.String(hooks.KeyChannel)).Inc()
		return nil
	})
	h.On(hooks.EventQuoteCompleted, "metrics", func(_ context.Context, p hooks.Payload) error {
		if q, ok := p.Data[hooks.KeyQuote].(domain.Quote); ok {
			m.ObserveQuote(string(q.Result.Request.Service), q.Result.Total)
		}
		return nil
	})
	h.On(hooks.EventQuoteSent, "metrics", func(context.Context, hooks.Payload) error {
		m.ObserveNotification(true)
		return nil
	})
	h.On(hooks.EventQuoteSendFailed, "metrics", func(context.Context, hooks.Payload) error {
		m.ObserveNotification(false)
		return nil
	})
}
