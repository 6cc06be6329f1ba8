package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/securestate/internal/metrics"
	"go.uber.org/zap"
)

// ResilientConfig — настройки предохранителя и повторов вокруг хранилища.
type ResilientConfig struct {
	Name             string
	MaxRequests      uint32        // Пробные запросы в half-open
	Interval         time.Duration // Период сброса счетчиков в closed
	Timeout          time.Duration // Через сколько CB попробует "закрыться"
	FailureThreshold uint32        // Подряд идущих ошибок до размыкания
	Attempts         uint
	RetryDelay       time.Duration
}

func (c ResilientConfig) withDefaults() ResilientConfig {
	if c.Name == "" {
		c.Name = "kv"
	}
	if c.MaxRequests == 0 {
		c.MaxRequests = 3
	}
	if c.Interval == 0 {
		c.Interval = 5 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.Attempts == 0 {
		c.Attempts = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 50 * time.Millisecond
	}
	return c
}

// Resilient оборачивает Backend: Circuit Breaker снаружи, повторы с бэкоффом внутри.
// Когда CB разомкнут, вызовы сразу возвращают ErrUnavailable и не нагружают лежащее хранилище.
type Resilient struct {
	next    Backend
	cb      *gobreaker.CircuitBreaker
	cfg     ResilientConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewResilient(next Backend, cfg ResilientConfig, logger *zap.Logger, m *metrics.Metrics) *Resilient {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resilient{
		next:    next,
		cfg:     cfg,
		logger:  logger.Named("kv-resilient"),
		metrics: m,
	}
	if m != nil {
		m.BackendBreakerState.WithLabelValues(cfg.Name).Set(0)
	}

	r.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("backend breaker state changed",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if r.metrics != nil {
				r.metrics.BackendBreakerState.WithLabelValues(name).Set(breakerGauge(to))
			}
		},
	})
	return r
}

type readResult struct {
	value string
	found bool
}

func (r *Resilient) Read(ctx context.Context, key string) (string, bool, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		var out readResult
		err := r.withRetry(ctx, func() error {
			v, found, err := r.next.Read(ctx, key)
			if err != nil {
				return err
			}
			out = readResult{value: v, found: found}
			return nil
		})
		return out, err
	})
	if err != nil {
		return "", false, r.wrap("read", key, err)
	}
	out := res.(readResult)
	return out.value, out.found, nil
}

func (r *Resilient) Write(ctx context.Context, key, value string) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.withRetry(ctx, func() error {
			return r.next.Write(ctx, key, value)
		})
	})
	if err != nil {
		return r.wrap("write", key, err)
	}
	return nil
}

// Remove пробрасывает удаление, если нижнее хранилище его поддерживает.
func (r *Resilient) Remove(ctx context.Context, key string) error {
	rm, ok := r.next.(Remover)
	if !ok {
		return fmt.Errorf("kv: %s backend does not support remove", r.cfg.Name)
	}
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, rm.Remove(ctx, key)
	})
	if err != nil {
		return r.wrap("remove", key, err)
	}
	return nil
}

func (r *Resilient) withRetry(ctx context.Context, fn func() error) error {
	rt := retry.New(
		retry.Context(ctx),
		retry.Attempts(r.cfg.Attempts),
		retry.Delay(r.cfg.RetryDelay),
		// Стандартный экспоненциальный бэкофф: сетевой лаг, рестарт Redis
		retry.DelayType(retry.BackOffDelay),
	)
	return rt.Do(fn)
}

func (r *Resilient) wrap(op, key string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, op, key, err)
	}
	return fmt.Errorf("kv: %s %s: %w", op, key, err)
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
