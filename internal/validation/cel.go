package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/xela07ax/securestate/internal/domain"
)

// CustomRule описывает правило, заданное в конфиге выражением CEL над переменной value.
// Пример: "value >= 0.0 && value <= 100.0".
type CustomRule struct {
	Expr      string
	Sanitizer string // "text", "number", "phone", "gst" или пусто
	Message   string
}

var newCELEnv = func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("value", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
}

// CompileRule компилирует выражение один раз; дальше правило чистое и без состояния.
func CompileRule(kind domain.FieldKind, def CustomRule) (FieldRule, error) {
	expr := strings.TrimSpace(def.Expr)
	if kind == "" || expr == "" {
		return FieldRule{}, ErrInvalidRule
	}

	sanitize, err := namedSanitizer(def.Sanitizer)
	if err != nil {
		return FieldRule{}, err
	}

	env, err := newCELEnv()
	if err != nil {
		return FieldRule{}, fmt.Errorf("validation: cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return FieldRule{}, fmt.Errorf("validation: compile %s: %w", kind, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return FieldRule{}, fmt.Errorf("validation: rule %s must evaluate to bool", kind)
	}
	program, err := env.Program(ast)
	if err != nil {
		return FieldRule{}, fmt.Errorf("validation: program %s: %w", kind, err)
	}

	validate := func(v any) bool {
		out, _, err := program.Eval(map[string]any{"value": v})
		if err != nil {
			// Ошибка вычисления — внутренний сбой правила, оркестратор перехватит
			panic(fmt.Errorf("validation: eval %s: %w", kind, err))
		}
		b, ok := out.Value().(bool)
		return ok && b
	}

	return FieldRule{
		Kind:     kind,
		Validate: validate,
		Sanitize: sanitize,
		Message:  def.Message,
	}, nil
}

// RegisterCustom компилирует и регистрирует набор правил из конфигурации.
func (r *Registry) RegisterCustom(rules map[string]CustomRule) error {
	var errs []error
	for name, def := range rules {
		rule, err := CompileRule(domain.FieldKind(name), def)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := r.Register(rule); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func namedSanitizer(name string) (func(any) any, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return nil, nil
	case "text":
		return stringSanitizer(SanitizeText), nil
	case "number":
		return numberSanitizer, nil
	case "phone":
		return stringSanitizer(SanitizePhone), nil
	case "gst", "tax-id":
		return stringSanitizer(SanitizeGST), nil
	default:
		return nil, fmt.Errorf("validation: unknown sanitizer %q", name)
	}
}
