package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xela07ax/securestate/internal/metrics"
)

func TestServer_Health(t *testing.T) {
	s := NewServer(nil, prometheus.NewRegistry(), nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.StoreResets.WithLabelValues("saved-customers").Inc()

	s := NewServer(nil, reg, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `securestate_store_resets_total{key="saved-customers"} 1`) {
		t.Errorf("metrics body missing store reset counter:\n%s", rec.Body.String())
	}
}

func TestServer_Ready(t *testing.T) {
	probes := map[string]Probe{
		"redis":    func(context.Context) error { return nil },
		"postgres": func(context.Context) error { return errors.New("dial tcp: refused") },
	}
	s := NewServer(nil, prometheus.NewRegistry(), probes)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"postgres":"down"`) || !strings.Contains(body, `"redis":"ok"`) {
		t.Errorf("body = %s", body)
	}
}
