// Package security собирает общие для процесса компоненты защиты в один контекст:
// журнал безопасности, кодек, уведомления, метрики и реестр правил.
// Контекст создается один раз при старте и передается потребителям явно.
package security

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/xela07ax/securestate/internal/audit"
	"github.com/xela07ax/securestate/internal/codec"
	"github.com/xela07ax/securestate/internal/domain"
	"github.com/xela07ax/securestate/internal/kv"
	"github.com/xela07ax/securestate/internal/metrics"
	"github.com/xela07ax/securestate/internal/notify"
	"github.com/xela07ax/securestate/internal/ratelimit"
	"github.com/xela07ax/securestate/internal/store"
	"github.com/xela07ax/securestate/internal/validation"
	"go.uber.org/zap"
)

// ErrRateLimited — отправка формы отклонена лимитером. Это решение политики, а не сбой.
var ErrRateLimited = errors.New("security: too many submission attempts")

const RateLimitMessage = "Too many submission attempts. Please wait a moment before trying again."

type Config struct {
	CodecKey []byte // пусто -> codec.DefaultKey

	FormMaxAttempts int
	FormWindow      time.Duration

	CustomRules map[string]validation.CustomRule

	Notifier    notify.Notifier // nil -> LogNotifier
	Development bool            // критичные события дублируются уведомлением
}

type Context struct {
	Audit    *audit.Logger
	Codec    *codec.Codec
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Registry *validation.Registry

	logger      *zap.Logger
	validator   *validation.Orchestrator
	formLimiter *ratelimit.Limiter
	development bool

	securityMode atomic.Bool
}

func NewContext(cfg Config, logger *zap.Logger, m *metrics.Metrics, sinks ...audit.Sink) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}

	a := audit.NewLogger(logger, m, sinks...)

	key := cfg.CodecKey
	if len(key) == 0 {
		key = []byte(codec.DefaultKey)
	}
	c, err := codec.New(key, a)
	if err != nil {
		return nil, fmt.Errorf("security: codec: %w", err)
	}

	reg := validation.DefaultRegistry()
	if len(cfg.CustomRules) > 0 {
		if err := reg.RegisterCustom(cfg.CustomRules); err != nil {
			return nil, fmt.Errorf("security: custom rules: %w", err)
		}
	}

	n := cfg.Notifier
	if n == nil {
		n = notify.NewLogNotifier(logger)
	}

	if cfg.FormMaxAttempts <= 0 {
		cfg.FormMaxAttempts = ratelimit.DefaultMaxAttempts
	}
	if cfg.FormWindow <= 0 {
		cfg.FormWindow = ratelimit.DefaultWindow
	}

	sc := &Context{
		Audit:       a,
		Codec:       c,
		Notifier:    n,
		Metrics:     m,
		Registry:    reg,
		logger:      logger.Named("security-context"),
		development: cfg.Development,
	}
	sc.validator = validation.NewOrchestrator(a, n, reg, m)
	sc.formLimiter = sc.NewLimiter("form_submission", cfg.FormMaxAttempts, cfg.FormWindow)
	sc.securityMode.Store(true)

	return sc, nil
}

// NewLimiter — отдельный лимитер со своим состоянием, подключенный к журналу и метрикам.
func (c *Context) NewLimiter(name string, maxAttempts int, window time.Duration, opts ...ratelimit.Option) *ratelimit.Limiter {
	base := []ratelimit.Option{
		ratelimit.WithName(name),
		ratelimit.WithAudit(c.Audit),
		ratelimit.WithMetrics(c.Metrics),
	}
	return ratelimit.New(maxAttempts, window, append(base, opts...)...)
}

func (c *Context) Validator() *validation.Orchestrator {
	return c.validator
}

// SubmissionGate проверяет лимит отправок формы по пути.
func (c *Context) SubmissionGate(path string) bool {
	return c.formLimiter.Allow("form_" + path)
}

// Submit — защищенная отправка формы: лимит, затем обрезка полей, затем onSubmit.
// При отказе лимитера пользователь получает предупреждение, onSubmit не вызывается.
func (c *Context) Submit(path string, data map[string]string, onSubmit func(map[string]string) error) error {
	if !c.SubmissionGate(path) {
		c.Notifier.Notify(domain.Notification{
			Title:       "Rate limit",
			Description: RateLimitMessage,
			Severity:    domain.SeverityDestructive,
		})
		return ErrRateLimited
	}

	if err := onSubmit(validation.SanitizeSubmission(data)); err != nil {
		c.logger.Error("Secure form submission error", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

// OpenStore открывает хранилище значения, использующее журнал, кодек и метрики контекста.
func OpenStore[T any](ctx context.Context, sc *Context, backend kv.Backend, key string, fallback T, obfuscate bool) *store.Store[T] {
	return store.New(ctx, backend, key, fallback, store.Options{
		Obfuscate: obfuscate,
		Codec:     sc.Codec,
		Audit:     sc.Audit,
		Metrics:   sc.Metrics,
		Logger:    sc.logger,
	})
}

// LogSecurityEvent пишет событие как обращение к данным. Пустой subjectType -> "unknown".
func (c *Context) LogSecurityEvent(event, subjectType string) {
	if subjectType == "" {
		subjectType = "unknown"
	}
	c.Audit.DataAccess(event, subjectType)
}

func (c *Context) SecurityModeEnabled() bool {
	return c.securityMode.Load()
}

func (c *Context) EnableSecurityMode() {
	c.securityMode.Store(true)
	c.LogSecurityEvent("security_mode_enabled", "")
}

// DisableSecurityMode — критичное событие: в development дублируется уведомлением.
func (c *Context) DisableSecurityMode() {
	c.securityMode.Store(false)
	c.LogSecurityEvent("security_mode_disabled", "")
	if c.development {
		c.Notifier.Notify(domain.Notification{
			Title:       "Security Event",
			Description: "security_mode_disabled: Check console for details",
			Severity:    domain.SeverityDestructive,
		})
	}
}
