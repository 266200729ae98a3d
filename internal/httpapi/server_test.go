package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicosss/earlybird/internal/leagues"
	"github.com/cicosss/earlybird/internal/metrics"
	"github.com/cicosss/earlybird/internal/providerfed/budget"
	"github.com/cicosss/earlybird/internal/providerfed/circuit"
	"github.com/cicosss/earlybird/internal/providerfed/keyrotator"
)

func testServer() *Server {
	budgets := budget.NewManager()
	budgets.AddProvider(budget.Config{Provider: "brave", MonthlyLimit: 2000, DegradedThreshold: 0.75, DisabledThreshold: 0.95})

	inspector := ProviderInspector{
		Budgets:  budgets,
		Circuits: map[string]*circuit.Breaker{"brave": circuit.New(circuit.Config{})},
		Rotators: map[string]*keyrotator.Rotator{"brave": keyrotator.New([]string{"k1", "k2"})},
	}
	brain := leagues.NewBrain(leagues.Config{Tier1: []string{"serie_a"}}, zerolog.Nop())
	return NewServer("127.0.0.1:0", inspector, brain, nil, metrics.New(), zerolog.Nop())
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestProviderStatusEndpoint(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/providers/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]providerStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	brave, ok := body["brave"]
	require.True(t, ok)
	require.NotNil(t, brave.Budget)
	assert.Equal(t, int64(2000), brave.Budget.MonthlyLimit)
	assert.Equal(t, "CLOSED", brave.Circuit)
	require.NotNil(t, brave.KeyPool)
	assert.Equal(t, 2, brave.KeyPool.PoolSize)
	assert.True(t, brave.KeyPool.AnyAvailable)
}

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSchedulerStatusEndpoint(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scheduler/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "dry_cycles")
}

func TestUnknownRouteIs404(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
