package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status             string    `json:"status"`
	BuildID            string    `json:"build_id,omitempty"`
	LastBuild          time.Time `json:"last_build"`
	OperationalRecords int       `json:"operational_records"`
	ClientRecords      int       `json:"client_records"`
	SkippedRecords     int       `json:"skipped_records"`
	HeapAllocMB        uint64    `json:"heap_alloc_mb"`
}

// HealthChecker reports the builder's current condition.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// ObservabilityServer exposes Prometheus metrics and a health probe for
// long-running watch and UI sessions. It serves the builder process
// itself; the dashboard artifact stays fully static.
type ObservabilityServer struct {
	addr   string
	health HealthChecker
	server *http.Server
}

func NewObservabilityServer(addr string, health HealthChecker) *ObservabilityServer {
	return &ObservabilityServer{
		addr:   addr,
		health: health,
	}
}

func (s *ObservabilityServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.health.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
