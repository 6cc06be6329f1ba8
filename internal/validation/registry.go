package validation

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/xela07ax/securestate/internal/domain"
)

var (
	ErrUnknownField = errors.New("validation: unknown field kind")
	ErrRuleExists   = errors.New("validation: rule already registered")
	ErrInvalidRule  = errors.New("validation: rule requires kind and validator")
)

// FieldRule — правило для семантического типа поля. Без состояния, неизменяемо после регистрации.
type FieldRule struct {
	Kind     domain.FieldKind
	Validate func(value any) bool
	Sanitize func(value any) any // nil: значение проверяется как есть
	Message  string              // Пусто: сообщение генерируется из имени поля
}

// Registry хранит правила по типу поля. Регистрируются один раз на время жизни процесса.
type Registry struct {
	mu    sync.RWMutex
	rules map[domain.FieldKind]FieldRule
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[domain.FieldKind]FieldRule)}
}

// DefaultRegistry возвращает реестр со встроенными правилами биллинга.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, rule := range builtinRules() {
		if err := r.Register(rule); err != nil {
			panic(err) // встроенные правила уникальны
		}
	}
	return r
}

func (r *Registry) Register(rule FieldRule) error {
	if rule.Kind == "" || rule.Validate == nil {
		return ErrInvalidRule
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.Kind]; ok {
		return fmt.Errorf("%w: %s", ErrRuleExists, rule.Kind)
	}
	r.rules[rule.Kind] = rule
	return nil
}

func (r *Registry) Lookup(kind domain.FieldKind) (FieldRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[kind]
	if !ok {
		return FieldRule{}, fmt.Errorf("%w: %s", ErrUnknownField, kind)
	}
	return rule, nil
}

// Kinds возвращает зарегистрированные типы в стабильном порядке.
func (r *Registry) Kinds() []domain.FieldKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.FieldKind, 0, len(r.rules))
	for k := range r.rules {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func builtinRules() []FieldRule {
	return []FieldRule{
		{
			Kind:     domain.FieldEmail,
			Validate: stringValidator(Email),
			Sanitize: stringSanitizer(SanitizeText),
			Message:  "Please enter a valid email address",
		},
		{
			Kind:     domain.FieldPhone,
			Validate: stringValidator(IndianPhone),
			Sanitize: stringSanitizer(SanitizePhone),
			Message:  "Please enter a valid Indian phone number (+91XXXXXXXXXX or 10 digits)",
		},
		{
			Kind:     domain.FieldTaxID,
			Validate: stringValidator(GSTNumber),
			Sanitize: stringSanitizer(SanitizeGST),
			Message:  "Please enter a valid 15-character GST number",
		},
		{
			Kind:     domain.FieldPrice,
			Validate: numberValidator(Price),
			Sanitize: numberSanitizer,
			Message:  "Price must be between 0 and 999,999.99",
		},
		{
			Kind:     domain.FieldQuantity,
			Validate: numberValidator(Quantity),
			Sanitize: numberSanitizer,
			Message:  "Quantity must be a whole number between 0 and 99,999",
		},
		{
			Kind:     domain.FieldSKU,
			Validate: stringValidator(SKU),
			Sanitize: stringSanitizer(SanitizeText),
			Message:  "SKU must be 3-50 alphanumeric characters",
		},
		{
			Kind:     domain.FieldName,
			Validate: stringValidator(Name),
			Sanitize: stringSanitizer(SanitizeText),
		},
	}
}

// Адаптеры типизированных правил к any. Значение чужого типа вызывает панику,
// которую оркестратор классифицирует как подозрительный ввод.

func stringValidator(fn func(string) bool) func(any) bool {
	return func(v any) bool { return fn(v.(string)) }
}

func stringSanitizer(fn func(string) string) func(any) any {
	return func(v any) any { return fn(v.(string)) }
}

func numberValidator(fn func(float64) bool) func(any) bool {
	return func(v any) bool { return fn(v.(float64)) }
}

func numberSanitizer(v any) any {
	return SanitizeNumber(v)
}
