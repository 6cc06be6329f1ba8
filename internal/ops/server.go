// Package ops — служебный HTTP: health и метрики. Данных клиентского состояния здесь нет.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Probe — проверка зависимости для /ready (Redis Ping, Postgres Ping).
type Probe func(ctx context.Context) error

type Server struct {
	router *chi.Mux
	logger *zap.Logger
	gather prometheus.Gatherer
	probes map[string]Probe
}

func NewServer(logger *zap.Logger, gather prometheus.Gatherer, probes map[string]Probe) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router: chi.NewRouter(),
		logger: logger.Named("ops-api"),
		gather: gather,
		probes: probes,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(s.probes))
	for name, probe := range s.probes {
		if err := probe(ctx); err != nil {
			s.logger.Warn("readiness probe failed", zap.String("probe", name), zap.Error(err))
			report[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
