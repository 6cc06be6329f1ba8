package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/xela07ax/securestate/internal/audit"
	"github.com/xela07ax/securestate/internal/domain"
	"github.com/xela07ax/securestate/internal/metrics"
	"github.com/xela07ax/securestate/internal/notify"
)

const (
	validationErrorTitle = "Validation Error"
	securityErrorTitle   = "Security Error"
	securityErrorText    = "Invalid input detected. Please try again."
	validationFailReason = "Validation failed"
)

// Outcome — результат проверки поля. Value содержит очищенное значение даже при отказе,
// чтобы UI мог показать, что именно будет сохранено.
type Outcome[T any] struct {
	Valid bool
	Value T
}

// Orchestrator склеивает правило, санитайзер, журнал аудита и уведомление пользователю в один вызов.
// Общего состояния, кроме журнала и метрик, не меняет.
type Orchestrator struct {
	audit    *audit.Logger
	notifier notify.Notifier
	registry *Registry
	metrics  *metrics.Metrics
}

func NewOrchestrator(a *audit.Logger, n notify.Notifier, reg *Registry, m *metrics.Metrics) *Orchestrator {
	if n == nil {
		n = notify.Discard
	}
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Orchestrator{audit: a, notifier: n, registry: reg, metrics: m}
}

// Registry возвращает реестр правил оркестратора.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// ValidateAndSanitize сначала очищает raw (если sanitize задан), затем проверяет результат.
// Без санитайзера raw должен уже иметь тип Out. Паника внутри правила не выходит наружу:
// она журналируется как подозрительный ввод, и возвращается {false, zero}.
func ValidateAndSanitize[In, Out any](
	o *Orchestrator,
	field string,
	raw In,
	validate func(Out) bool,
	sanitize func(In) Out,
	customMessage string,
) (result Outcome[Out]) {
	defer func() {
		if r := recover(); r != nil {
			o.suspicious(field, raw, r)
			result = Outcome[Out]{}
		}
	}()

	var value Out
	if sanitize != nil {
		value = sanitize(raw)
	} else {
		value = any(raw).(Out)
	}

	if !validate(value) {
		o.reject(field, raw, customMessage)
		return Outcome[Out]{Valid: false, Value: value}
	}
	return Outcome[Out]{Valid: true, Value: value}
}

// Validate — форма без санитайзера.
func Validate[T any](o *Orchestrator, field string, raw T, validate func(T) bool, customMessage string) Outcome[T] {
	return ValidateAndSanitize[T, T](o, field, raw, validate, nil, customMessage)
}

// Field проверяет значение по правилу из реестра.
func (o *Orchestrator) Field(kind domain.FieldKind, raw any) (Outcome[any], error) {
	rule, err := o.registry.Lookup(kind)
	if err != nil {
		return Outcome[any]{}, err
	}
	return ValidateAndSanitize[any, any](o, string(kind), raw, rule.Validate, rule.Sanitize, rule.Message), nil
}

func (o *Orchestrator) reject(field string, raw any, customMessage string) {
	o.audit.ValidationFailure(field, valueLength(raw), validationFailReason)
	if o.metrics != nil {
		o.metrics.ValidationFailures.WithLabelValues(field).Inc()
	}

	message := customMessage
	if message == "" {
		message = "Please enter a valid " + field
	}
	o.notifier.Notify(domain.Notification{
		Title:       validationErrorTitle,
		Description: message,
		Severity:    domain.SeverityDestructive,
	})
}

func (o *Orchestrator) suspicious(field string, raw any, cause any) {
	// Детали паники уходят только в причину записи, пользователю — общий текст
	o.audit.SuspiciousInput(field, valueLength(raw), fmt.Sprintf("rule failure: %T", cause))
	o.notifier.Notify(domain.Notification{
		Title:       securityErrorTitle,
		Description: securityErrorText,
		Severity:    domain.SeverityDestructive,
	})
}

// valueLength — длина текстового представления в символах. Само значение в журнал не пишется.
func valueLength(raw any) int {
	switch v := raw.(type) {
	case nil:
		return 0
	case string:
		return utf8.RuneCountInString(v)
	default:
		return utf8.RuneCountInString(fmt.Sprint(v))
	}
}
