// Package httpapi is the read-only operational HTTP surface: liveness,
// provider federation status, Prometheus metrics, and the websocket
// alert tail. Bound to localhost by default; nothing here mutates
// pipeline state.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cicosss/earlybird/internal/alert"
	"github.com/cicosss/earlybird/internal/leagues"
	"github.com/cicosss/earlybird/internal/metrics"
	"github.com/cicosss/earlybird/internal/providerfed/budget"
	"github.com/cicosss/earlybird/internal/providerfed/circuit"
	"github.com/cicosss/earlybird/internal/providerfed/keyrotator"
)

// ProviderInspector exposes the federation state the status endpoint
// renders.
type ProviderInspector struct {
	Budgets  *budget.Manager
	Circuits map[string]*circuit.Breaker
	Rotators map[string]*keyrotator.Rotator
}

// Server is the ops HTTP server.
type Server struct {
	router *mux.Router
	server *http.Server
	log    zerolog.Logger

	startedAt time.Time
	inspector ProviderInspector
	brain     *leagues.Brain
	hub       *alert.Hub
}

func NewServer(addr string, inspector ProviderInspector, brain *leagues.Brain, hub *alert.Hub, m *metrics.Metrics, log zerolog.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		log:       log,
		startedAt: time.Now().UTC(),
		inspector: inspector,
		brain:     brain,
		hub:       hub,
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/providers/status", s.handleProviderStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/scheduler/status", s.handleSchedulerStatus).Methods(http.MethodGet)
	if m != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	if hub != nil {
		s.router.HandleFunc("/ws/alerts", hub.ServeWS)
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("ops http server listening")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

type healthResponse struct {
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Subscribers   int       `json:"alert_subscribers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		StartedAt:     s.startedAt,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if s.hub != nil {
		resp.Subscribers = s.hub.SubscriberCount()
	}
	writeJSON(w, resp)
}

type providerStatus struct {
	Budget  *budget.Status `json:"budget,omitempty"`
	Circuit string         `json:"circuit,omitempty"`
	KeyPool *keyPoolStatus `json:"key_pool,omitempty"`
}

type keyPoolStatus struct {
	PoolSize     int  `json:"pool_size"`
	ActiveIndex  int  `json:"active_index"`
	AnyAvailable bool `json:"any_available"`
}

func (s *Server) handleProviderStatus(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]providerStatus)

	if s.inspector.Budgets != nil {
		for name, st := range s.inspector.Budgets.AllStatus() {
			st := st
			ps := out[name]
			ps.Budget = &st
			out[name] = ps
		}
	}
	for name, br := range s.inspector.Circuits {
		ps := out[name]
		ps.Circuit = br.State().String()
		out[name] = ps
	}
	for name, rot := range s.inspector.Rotators {
		st := rot.Status()
		ps := out[name]
		ps.KeyPool = &keyPoolStatus{
			PoolSize:     st.PoolSize,
			ActiveIndex:  st.ActiveIndex,
			AnyAvailable: st.AnyAvailable,
		}
		out[name] = ps
	}

	writeJSON(w, out)
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	if s.brain == nil {
		writeJSON(w, map[string]string{"status": "no scheduler"})
		return
	}
	snap := s.brain.Snapshot()
	writeJSON(w, map[string]any{
		"tier2_cursor":     snap.Cursor,
		"dry_cycles":       snap.DryCycles,
		"daily_fallbacks":  snap.DailyFallbacks,
		"last_fallback_at": snap.LastFallbackAt,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode failure", http.StatusInternalServerError)
	}
}
