package validation

import (
	"errors"
	"testing"

	"github.com/xela07ax/securestate/internal/audit"
	"github.com/xela07ax/securestate/internal/domain"
)

func TestDefaultRegistry_HasBuiltinKinds(t *testing.T) {
	r := DefaultRegistry()
	want := []domain.FieldKind{
		domain.FieldEmail, domain.FieldName, domain.FieldPhone, domain.FieldPrice,
		domain.FieldQuantity, domain.FieldSKU, domain.FieldTaxID,
	}
	got := r.Kinds()
	if len(got) != len(want) {
		t.Fatalf("Kinds() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Kinds()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := DefaultRegistry()
	err := r.Register(FieldRule{Kind: domain.FieldEmail, Validate: func(any) bool { return true }})
	if !errors.Is(err, ErrRuleExists) {
		t.Errorf("err = %v, want ErrRuleExists", err)
	}
}

func TestRegistry_Register_Invalid(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(FieldRule{Kind: "x"}); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("missing validator: err = %v", err)
	}
	if err := r.Register(FieldRule{Validate: func(any) bool { return true }}); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("missing kind: err = %v", err)
	}
}

func TestCompileRule_Discount(t *testing.T) {
	rule, err := CompileRule("discount", CustomRule{
		Expr:      "value >= 0.0 && value <= 100.0",
		Sanitizer: "number",
		Message:   "Discount must be between 0 and 100",
	})
	if err != nil {
		t.Fatalf("CompileRule: %v", err)
	}

	cases := []struct {
		in   any
		want bool
	}{
		{"15", true},
		{"100", true},
		{"150", false},
		{-1.0, false},
	}
	for _, c := range cases {
		if got := rule.Validate(rule.Sanitize(c.in)); got != c.want {
			t.Errorf("discount(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCompileRule_Errors(t *testing.T) {
	if _, err := CompileRule("x", CustomRule{Expr: "value +"}); err == nil {
		t.Error("syntax error must fail compilation")
	}
	if _, err := CompileRule("x", CustomRule{Expr: "value + 1"}); err == nil {
		t.Error("non-bool expression must be rejected")
	}
	if _, err := CompileRule("x", CustomRule{Expr: "true", Sanitizer: "rot13"}); err == nil {
		t.Error("unknown sanitizer must be rejected")
	}
	if _, err := CompileRule("x", CustomRule{}); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("empty expression: err = %v", err)
	}
}

func TestRegisterCustom_EvalErrorIsSuspicious(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterCustom(map[string]CustomRule{
		"code": {Expr: `value.startsWith("INV-")`},
	})
	if err != nil {
		t.Fatalf("RegisterCustom: %v", err)
	}

	var records []audit.Record
	a := audit.NewLogger(nil, nil, audit.SinkFunc(func(rec audit.Record) { records = append(records, rec) }))
	o := NewOrchestrator(a, nil, r, nil)

	out, err := o.Field("code", "INV-0042")
	if err != nil || !out.Valid {
		t.Fatalf("valid code: outcome = %+v, err = %v", out, err)
	}

	// У числа нет startsWith: ошибка вычисления CEL
	out, _ = o.Field("code", 42.0)
	if out.Valid {
		t.Fatal("eval error must not pass")
	}
	if len(records) != 1 || records[0].Kind != audit.KindSuspiciousInput {
		t.Errorf("records = %+v, want one suspicious_input", records)
	}
}

func TestRegisterCustom_CollectsErrors(t *testing.T) {
	r := DefaultRegistry()
	err := r.RegisterCustom(map[string]CustomRule{
		"email": {Expr: "true"},   // уже есть
		"bad":   {Expr: "value +"}, // не компилируется
	})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if !errors.Is(err, ErrRuleExists) {
		t.Errorf("joined error must include ErrRuleExists: %v", err)
	}
}
