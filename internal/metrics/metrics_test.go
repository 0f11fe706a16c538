package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/cargoquote/internal/domain"
	"github.com/soyeahso/cargoquote/internal/hooks"
	"github.com/soyeahso/cargoquote/internal/logging"
	"github.com/soyeahso/cargoquote/internal/pricing"
	"github.com/soyeahso/cargoquote/internal/tariff"
)

func TestObserveEvent(t *testing.T) {
	m := New()
	m.ObserveEvent("workers", "rejected")
	m.ObserveEvent("workers", "rejected")
	m.ObserveEvent("hours", "accepted")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("workers", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("hours", "accepted")))
}

func TestSubscribe(t *testing.T) {
	m := New()
	h := hooks.NewManager(logging.New(nil, "silent"))
	m.Subscribe(h)

	ctx := context.Background()
	q := domain.Quote{Result: pricing.CostBreakdown{
		Request: pricing.Request{Service: tariff.ServiceMoving},
		Total:   195,
	}}
	h.Emit(ctx, hooks.EventMessageReceived, map[string]any{hooks.KeyChannel: "irc"})
	h.Emit(ctx, hooks.EventQuoteCompleted, map[string]any{hooks.KeyQuote: q})
	h.Emit(ctx, hooks.EventQuoteSent, nil)
	h.Emit(ctx, hooks.EventQuoteSendFailed, nil)
	h.Emit(ctx, hooks.EventQuoteSendFailed, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("irc")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotes.WithLabelValues("moving")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("sent")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.amount))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.TrackSessions(func() float64 { return 3 })
	m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)
	m.ObserveEvent("service_type", "started")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "cargoquote_active_sessions 3")
	assert.Contains(t, body, `cargoquote_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, body, `cargoquote_events_total{outcome="started",state="service_type"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveEvent("volume", "accepted")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.events.WithLabelValues("volume", "accepted")))
}
