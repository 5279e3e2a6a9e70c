package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	ProviderRequestsTotal.WithLabelValues("openai", "test", "ok").Inc()
	ProviderLatency.WithLabelValues("openai", "test").Observe(0.1)
	ProviderTokensTotal.WithLabelValues("openai", "test", "input").Add(10)
	RequestsTotal.WithLabelValues("/test", "GET", "2xx").Inc()
	RequestDuration.WithLabelValues("/test", "GET").Observe(0.1)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, name := range []string{
		"jobtracker_ai_requests_total",
		"jobtracker_ai_request_duration_seconds",
		"jobtracker_ai_streaming_connections_active",
		"jobtracker_ai_stream_fragments_total",
		"jobtracker_ai_provider_requests_total",
		"jobtracker_ai_provider_latency_seconds",
		"jobtracker_ai_provider_tokens_total",
	} {
		assert.True(t, found[name], "metric %s not registered", name)
	}
}

func TestMiddlewareRecordsStatusClass(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/bad", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "nope") })

	okBefore := testutil.ToFloat64(RequestsTotal.WithLabelValues("/ok", http.MethodGet, "2xx"))
	badBefore := testutil.ToFloat64(RequestsTotal.WithLabelValues("/bad", http.MethodGet, "4xx"))

	for _, path := range []string{"/ok", "/bad"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, okBefore+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("/ok", http.MethodGet, "2xx")))
	assert.Equal(t, badBefore+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("/bad", http.MethodGet, "4xx")))
}

func TestHandlerServesExposition(t *testing.T) {
	e := echo.New()
	e.GET("/metrics", Handler())
	StreamFragmentsTotal.Add(0)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "jobtracker_ai_stream_fragments_total"))
}
