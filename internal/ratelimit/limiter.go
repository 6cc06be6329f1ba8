// Package ratelimit — ограничитель попыток со скользящим окном.
//
// Это не token bucket: между проверками ничего не "доливается", из окна лишь
// вычищаются попытки старше window. Состояние принадлежит одному экземпляру:
// два лимитера никогда не делят идентификаторы, даже с одинаковыми строками.
package ratelimit

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/xela07ax/securestate/internal/audit"
	"github.com/xela07ax/securestate/internal/metrics"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 60 * time.Second
)

type Limiter struct {
	maxAttempts int
	window      time.Duration
	name        string
	now         func() time.Time
	audit       *audit.Logger
	metrics     *metrics.Metrics

	mu       sync.Mutex
	attempts map[string][]time.Time
}

type Option func(*Limiter)

// WithClock подменяет часы (для тестов).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithName задает метку лимитера в метриках.
func WithName(name string) Option {
	return func(l *Limiter) { l.name = name }
}

func WithAudit(a *audit.Logger) Option {
	return func(l *Limiter) { l.audit = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

// New создает лимитер: не более maxAttempts принятых попыток за window на идентификатор.
func New(maxAttempts int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		maxAttempts: maxAttempts,
		window:      window,
		name:        "default",
		now:         time.Now,
		attempts:    make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow сообщает, можно ли принять попытку. Отклоненная попытка не учитывается в окне.
func (l *Limiter) Allow(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// 1. Вычищаем попытки, вышедшие за окно
	recent := l.attempts[identifier][:0]
	for _, t := range l.attempts[identifier] {
		if now.Sub(t) < l.window {
			recent = append(recent, t)
		}
	}

	// 2. Лимит достигнут: фиксируем и отказываем
	if len(recent) >= l.maxAttempts {
		l.attempts[identifier] = recent
		l.audit.SuspiciousInput("rate_limit", utf8.RuneCountInString(identifier), "Rate limit exceeded")
		if l.metrics != nil {
			l.metrics.RateLimitRejections.WithLabelValues(l.name).Inc()
		}
		return false
	}

	// 3. Записываем попытку
	l.attempts[identifier] = append(recent, now)
	return true
}
