package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_NilRegistry_UsesDetachedRegistry(t *testing.T) {
	m := New(nil)
	m.StoreResets.WithLabelValues("k").Inc()
	if got := testutil.ToFloat64(m.StoreResets.WithLabelValues("k")); got != 1 {
		t.Fatalf("StoreResets = %v, want 1", got)
	}
}

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SecurityEvents.WithLabelValues("data_access").Inc()
	m.AuditDropped.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"securestate_security_events_total", "securestate_audit_dropped_total"} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestNew_SecondRegistrationOnSameRegistry_Panics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = New(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	_ = New(reg)
}
