package security

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xela07ax/securestate/internal/audit"
	"github.com/xela07ax/securestate/internal/domain"
	"github.com/xela07ax/securestate/internal/kv"
	"github.com/xela07ax/securestate/internal/notify"
	"github.com/xela07ax/securestate/internal/validation"
)

type captured struct {
	mu            sync.Mutex
	records       []audit.Record
	notifications []domain.Notification
}

func (c *captured) Log(r audit.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

func (c *captured) notifier() notify.Notifier {
	return notify.NotifierFunc(func(n domain.Notification) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.notifications = append(c.notifications, n)
	})
}

func newTestContext(t *testing.T, cfg Config) (*Context, *captured) {
	t.Helper()
	c := &captured{}
	cfg.Notifier = c.notifier()
	sc, err := NewContext(cfg, nil, nil, c)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return sc, c
}

func TestNewContext_Defaults(t *testing.T) {
	sc, _ := newTestContext(t, Config{})

	if sc.Audit == nil || sc.Codec == nil || sc.Registry == nil || sc.Metrics == nil || sc.Validator() == nil {
		t.Fatal("context components must be initialised")
	}
	if !sc.SecurityModeEnabled() {
		t.Error("security mode must be on by default")
	}
}

func TestNewContext_BadCustomRule(t *testing.T) {
	_, err := NewContext(Config{CustomRules: map[string]validation.CustomRule{
		"discount": {Expr: "value +"},
	}}, nil, nil)
	if err == nil {
		t.Fatal("broken CEL expression must fail context construction")
	}
}

func TestContext_CustomRule_ThroughValidator(t *testing.T) {
	sc, c := newTestContext(t, Config{CustomRules: map[string]validation.CustomRule{
		"discount": {Expr: "value >= 0.0 && value <= 100.0", Sanitizer: "number", Message: "Discount must be between 0 and 100"},
	}})

	out, err := sc.Validator().Field("discount", "150")
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	if out.Valid {
		t.Fatal("150 must be rejected")
	}
	if len(c.notifications) != 1 || c.notifications[0].Description != "Discount must be between 0 and 100" {
		t.Errorf("notifications = %+v", c.notifications)
	}
}

func TestContext_SubmissionGate_DefaultPolicy(t *testing.T) {
	sc, c := newTestContext(t, Config{})

	for i := 0; i < 5; i++ {
		if !sc.SubmissionGate("/products") {
			t.Fatalf("submission %d rejected", i+1)
		}
	}
	if sc.SubmissionGate("/products") {
		t.Fatal("6th submission within a minute must be rejected")
	}
	if !sc.SubmissionGate("/customers") {
		t.Error("other form paths have their own window")
	}

	last := c.records[len(c.records)-1]
	if last.Kind != audit.KindSuspiciousInput || last.Field != "rate_limit" {
		t.Errorf("last record = %+v, want rate_limit suspicious input", last)
	}
}

func TestContext_Submit(t *testing.T) {
	sc, c := newTestContext(t, Config{FormMaxAttempts: 1, FormWindow: time.Minute})

	var got map[string]string
	err := sc.Submit("/customers", map[string]string{"name": "  Ravi  ", "notes": strings.Repeat("x", 1500)},
		func(data map[string]string) error {
			got = data
			return nil
		})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got["name"] != "Ravi" || len(got["notes"]) != validation.MaxSubmissionFieldLength {
		t.Errorf("submitted data not sanitised: name=%q notes=%d", got["name"], len(got["notes"]))
	}

	called := false
	err = sc.Submit("/customers", nil, func(map[string]string) error { called = true; return nil })
	if !errors.Is(err, ErrRateLimited) || called {
		t.Fatalf("err = %v called = %v, want ErrRateLimited without calling onSubmit", err, called)
	}
	if n := c.notifications[len(c.notifications)-1]; n.Description != RateLimitMessage {
		t.Errorf("notification = %+v", n)
	}
}

func TestContext_NewLimiter_IsIndependent(t *testing.T) {
	sc, _ := newTestContext(t, Config{})
	a := sc.NewLimiter("login", 1, time.Minute)
	b := sc.NewLimiter("login", 1, time.Minute)

	if !a.Allow("u") || a.Allow("u") || !b.Allow("u") {
		t.Fatal("limiters from one context must not share state")
	}
}

func TestOpenStore_UsesContextCodec(t *testing.T) {
	ctx := context.Background()
	sc, _ := newTestContext(t, Config{CodecKey: []byte("deployment-key")})
	backend := kv.NewMemory()

	s := OpenStore(ctx, sc, backend, "saved-customers", []domain.Customer{}, true)
	s.Set(ctx, []domain.Customer{{ID: "1", Name: "Asha"}})

	raw, _, _ := backend.Read(ctx, "saved-customers")
	var out []domain.Customer
	if !sc.Codec.DecodeInto(raw, &out) || len(out) != 1 || out[0].Name != "Asha" {
		t.Fatalf("stored value not decodable with context codec: %q", raw)
	}
}

func TestContext_SecurityModeToggle(t *testing.T) {
	sc, c := newTestContext(t, Config{Development: true})

	sc.DisableSecurityMode()
	if sc.SecurityModeEnabled() {
		t.Fatal("mode must be disabled")
	}
	sc.EnableSecurityMode()
	if !sc.SecurityModeEnabled() {
		t.Fatal("mode must be enabled")
	}

	ops := []string{}
	for _, r := range c.records {
		if r.Kind == audit.KindDataAccess {
			ops = append(ops, r.Operation+"/"+r.SubjectType)
		}
	}
	want := []string{"security_mode_disabled/unknown", "security_mode_enabled/unknown"}
	if strings.Join(ops, ",") != strings.Join(want, ",") {
		t.Errorf("access records = %v, want %v", ops, want)
	}
	if len(c.notifications) != 1 || c.notifications[0].Title != "Security Event" {
		t.Errorf("disable in development must notify once, got %+v", c.notifications)
	}
}
