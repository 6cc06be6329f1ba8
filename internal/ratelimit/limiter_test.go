package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/xela07ax/securestate/internal/audit"
	"github.com/xela07ax/securestate/internal/metrics"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiter_FivePerMinute(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	l := New(5, 60*time.Second, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		if !l.Allow("form_/products") {
			t.Fatalf("call %d rejected, want accepted", i+1)
		}
		clock.Advance(time.Second)
	}
	if l.Allow("form_/products") {
		t.Fatal("6th call accepted, want rejected")
	}

	// Первая попытка была 5 секунд назад: сдвигаемся за окно от нее
	clock.Advance(55 * time.Second)
	if !l.Allow("form_/products") {
		t.Fatal("call after the window rejected, want accepted")
	}
}

func TestLimiter_OnePerSecond_ImmediateSuccession(t *testing.T) {
	l := New(1, time.Second)
	got := []bool{l.Allow("x"), l.Allow("x")}
	if !got[0] || got[1] {
		t.Fatalf("got %v, want [true false]", got)
	}
}

func TestLimiter_RejectedAttemptIsNotRecorded(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	l := New(1, 10*time.Second, WithClock(clock.Now))

	l.Allow("id") // t=0 принят
	clock.Advance(9 * time.Second)
	l.Allow("id") // t=9 отклонен, не записан
	clock.Advance(time.Second)

	// Окно от t=0 истекло ровно сейчас (now - t >= window)
	if !l.Allow("id") {
		t.Fatal("rejected attempt must not extend the window")
	}
}

func TestLimiter_InstancesAreIndependent(t *testing.T) {
	a := New(1, time.Minute)
	b := New(1, time.Minute)

	if !a.Allow("same") || a.Allow("same") {
		t.Fatal("limiter a: want [true false]")
	}
	if !b.Allow("same") {
		t.Fatal("limiter b must not see limiter a's attempts")
	}
}

func TestLimiter_IdentifiersAreIndependent(t *testing.T) {
	l := New(1, time.Minute)
	if !l.Allow("form_a") || !l.Allow("form_b") {
		t.Fatal("different identifiers must have separate windows")
	}
}

func TestLimiter_Rejection_LogsAndCounts(t *testing.T) {
	var records []audit.Record
	m := metrics.New(nil)
	a := audit.NewLogger(nil, nil, audit.SinkFunc(func(r audit.Record) { records = append(records, r) }))
	l := New(1, time.Minute, WithName("submit"), WithAudit(a), WithMetrics(m))

	l.Allow("x")
	l.Allow("x")

	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Kind != audit.KindSuspiciousInput || records[0].Field != "rate_limit" {
		t.Errorf("record = %+v", records[0])
	}
	if got := testutil.ToFloat64(m.RateLimitRejections.WithLabelValues("submit")); got != 1 {
		t.Errorf("rejections = %v, want 1", got)
	}
}

func TestLimiter_ConcurrentCallers(t *testing.T) {
	l := New(50, time.Minute)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 50 {
		t.Fatalf("accepted = %d, want 50", accepted)
	}
}
