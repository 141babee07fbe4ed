package peers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fieldgate/fieldgate/pkg/engine"
	"github.com/fieldgate/fieldgate/pkg/gate"
	"github.com/fieldgate/fieldgate/pkg/telemetry"
)

// Server is the peer-facing HTTP surface of a node. It serves the
// stability query and the one-shot exchange endpoint for a single
// entity, plus the metrics endpoint.
type Server struct {
	entity  *engine.Entity
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	server  *http.Server
}

// NewServer creates the peer-facing server for an entity.
func NewServer(addr string, entity *engine.Entity, logger *telemetry.Logger, metrics *telemetry.Metrics) *Server {
	s := &Server{
		entity:  entity,
		logger:  logger.NewComponentLogger("peer-server"),
		metrics: metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/stability", s.handleStability)
	mux.HandleFunc("POST /v1/exchange", s.handleExchange)
	mux.HandleFunc("GET /v1/healthz", s.handleHealth)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Zerolog().Error().Err(err).Msg("Peer server failed")
		}
	}()
	s.logger.Infof("Peer server listening on %s", s.server.Addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleStability serves the peer stability query. Reads are served in
// every lifecycle state, sealed included.
func (s *Server) handleStability(w http.ResponseWriter, r *http.Request) {
	stability, err := s.entity.GetStability(r.Context())
	if err != nil {
		http.Error(w, "entity unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, StabilityResponse{
		EntityID:  s.entity.ID(),
		Stability: stability,
	})
}

// handleExchange accepts a one-shot information exchange from a peer.
// An emergency-sealed entity has external coupling disabled and
// refuses the exchange.
func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	snap, err := s.entity.GetSnapshot(r.Context())
	if err != nil {
		http.Error(w, "entity unavailable", http.StatusServiceUnavailable)
		return
	}
	if snap.State == string(gate.StateSealedEmergency) {
		http.Error(w, "coupling disabled", http.StatusServiceUnavailable)
		return
	}

	var payload ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	s.logger.Zerolog().Debug().
		Str("peer_id", payload.EntityID).
		Float64("peer_stability", payload.Stability).
		Int("peer_audit_size", payload.AuditSize).
		Msg("Exchange accepted")

	writeJSON(w, ExchangeResponse{Accepted: true})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.entity.GetStability(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
