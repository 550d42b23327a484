package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/climate-alert-service/internal/alert"
	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AlertGetter loads one alert by ID.
type AlertGetter interface {
	GetAlert(ctx context.Context, id string) (domain.EmergencyAlert, error)
}

// ProofVerifier checks an anchored reference against the ledger.
type ProofVerifier interface {
	Verify(ctx context.Context, reference string) (domain.Proof, error)
}

// Server exposes health, readiness, metrics, and proof verification.
type Server struct {
	httpServer *http.Server
	alerts     AlertGetter
	verifier   ProofVerifier // nil when anchoring is disabled
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /api/v1/alerts/{id}/proof routes.
func NewServer(addr string, ready ReadinessChecker, alerts AlertGetter, verifier ProofVerifier, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		alerts:   alerts,
		verifier: verifier,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/alerts/{id}/proof", s.handleProof)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// proofResponse is the verification view of one alert's anchoring state.
type proofResponse struct {
	AlertID   string `json:"alert_id"`
	Status    string `json:"status"`
	Hash      string `json:"hash,omitempty"`
	Reference string `json:"reference,omitempty"`
	Verified  *bool  `json:"verified,omitempty"`
}

func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	a, err := s.alerts.GetAlert(r.Context(), id)
	if errors.Is(err, alert.ErrAlertNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "alert not found"})
		return
	}
	if err != nil {
		s.logger.Error("load alert for proof failed", "alert_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if a.Proof == nil {
		writeJSON(w, http.StatusOK, proofResponse{AlertID: a.ID, Status: string(domain.ProofPending)})
		return
	}

	resp := proofResponse{
		AlertID:   a.ID,
		Status:    string(a.Proof.Status),
		Hash:      a.Proof.Hash,
		Reference: a.Proof.Reference,
	}

	if s.verifier != nil && a.Proof.Reference != "" {
		ledger, err := s.verifier.Verify(r.Context(), a.Proof.Reference)
		if err != nil {
			s.logger.Error("ledger verification failed", "alert_id", id, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ledger unavailable"})
			return
		}
		verified := ledger.Status == domain.ProofAnchored && ledger.Hash == a.Proof.Hash
		resp.Verified = &verified
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
