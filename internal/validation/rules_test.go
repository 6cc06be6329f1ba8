package validation

import (
	"math"
	"strings"
	"testing"
)

func TestEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"user@example.com", true},
		{"a.b@c.co.in", true},
		{"user@example", false},
		{"user @example.com", false},
		{"@example.com", false},
		{"user@@example.com", false},
		{"", false},
		{"a\vb@c.d", false},
		{"a\u00a0b@c.d", false},
		{"a@c.d\u2003x", false},
		{"a@c\ufeff.d", false},
		{"a@c.d\u2028", false},
	}
	for _, c := range cases {
		if got := Email(c.in); got != c.want {
			t.Errorf("Email(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIndianPhone(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"9876543210", true},
		{"+91 98765 43210", true},
		{"+91-98765-43210", true},
		{"+919876543210", true},
		{"98765\u00a043210", true},
		{"+91\u2009 98765\u202f43210", true},
		{"09876543210", true},
		{"919876543210", true},
		{"6876543210", false}, // первая цифра вне {7,8,9}
		{"987654321", false},
		{"98765432101", false},
		{"+44 7911 123456", false},
	}
	for _, c := range cases {
		if got := IndianPhone(c.in); got != c.want {
			t.Errorf("IndianPhone(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestGSTNumber(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"27AAPFU0939F1ZV", true},
		{"27aapfu0939f1zv", true}, // регистр не важен
		{"29ABCDE1234F1Z5", true},
		{"47AAPFU0939F1ZV", false}, // код штата > 3x
		{"27AAPFU0939F0ZV", false}, // entity не может быть 0
		{"27AAPFU0939F1YV", false}, // 14-й символ только Z
		{"27AAPFU0939F1Z", false},
	}
	for _, c := range cases {
		if got := GSTNumber(c.in); got != c.want {
			t.Errorf("GSTNumber(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestPrice(t *testing.T) {
	cases := []struct {
		in   float64
		want bool
	}{
		{0, true},
		{499.5, true},
		{999999.99, true},
		{1000000, false},
		{-5, false},
		{math.Inf(1), false},
		{math.NaN(), false},
	}
	for _, c := range cases {
		if got := Price(c.in); got != c.want {
			t.Errorf("Price(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestQuantity(t *testing.T) {
	cases := []struct {
		in   float64
		want bool
	}{
		{0, true},
		{10, true},
		{99999, true},
		{100000, false},
		{1.5, false},
		{-1, false},
		{math.NaN(), false},
	}
	for _, c := range cases {
		if got := Quantity(c.in); got != c.want {
			t.Errorf("Quantity(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSKU(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"AB1", true},
		{"SKU-001_x", true},
		{"AB", false},
		{strings.Repeat("a", 50), true},
		{strings.Repeat("a", 51), false},
		{"SKU 001", false},
	}
	for _, c := range cases {
		if got := SKU(c.in); got != c.want {
			t.Errorf("SKU(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestName(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Ravi Kumar", true},
		{"  O'Neil-Smith Jr.  ", true},
		{"", false},
		{"   ", false},
		{"R2D2", false},
		{"Anne\u00a0Marie", true},
		{"\ufeffAnne Marie\u3000", true},
		{"Anne\vMarie", true},
		{strings.Repeat("a", 100), true},
		{strings.Repeat("a", 101), false},
	}
	for _, c := range cases {
		if got := Name(c.in); got != c.want {
			t.Errorf("Name(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	cases := map[string]string{
		"  <b>Tea</b>  ":                   "bTea/b",
		"JavaScript:alert(1)":              "alert(1)",
		`x onclick=steal() y`:              "x steal() y",
		`<img src=a ONERROR=run()>`:        "img src=a run()",
		"plain text":                       "plain text",
		"\ufeff Tea\u00a0\u3000":            "Tea",
		"javascript:javascript:void(0)":    "void(0)",
	}
	for in, want := range cases {
		if got := SanitizeText(in); got != want {
			t.Errorf("SanitizeText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeNumber(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{-5.0, -5},
		{42, 42},
		{"12.5", 12.5},
		{"  7kg", 7},
		{".5", 0.5},
		{"1e3", 1000},
		{"abc", 0},
		{"", 0},
		{math.Inf(1), 0},
		{math.NaN(), 0},
		{"1e400", 0},
		{nil, 0},
		{true, 0},
	}
	for _, c := range cases {
		if got := SanitizeNumber(c.in); got != c.want {
			t.Errorf("SanitizeNumber(%#v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSanitizePhone(t *testing.T) {
	cases := map[string]string{
		"+91 98765 43210":  "+919876543210",
		"098765-43210":     "09876543210",
		"(987) 654+3210":   "9876543210",
		" +1 (555) 010":    "+1555010",
		"++91":             "+91",
	}
	for in, want := range cases {
		if got := SanitizePhone(in); got != want {
			t.Errorf("SanitizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeGST(t *testing.T) {
	if got := SanitizeGST(" 27aapfu-0939 f1zv "); got != "27AAPFU0939F1ZV" {
		t.Errorf("SanitizeGST = %q", got)
	}
}

// Для всех значений, которые принимает правило, очистка не ломает их форму.
func TestSanitizeThenValidate_Composes(t *testing.T) {
	names := []string{"Ravi Kumar", " Anita  ", "O'Neil-Smith Jr."}
	for _, n := range names {
		if Name(n) && !Name(SanitizeText(n)) {
			t.Errorf("Name/SanitizeText broke %q", n)
		}
	}
	skus := []string{"SKU-001", "ab_c", "X12"}
	for _, s := range skus {
		if SKU(s) && !SKU(SanitizeText(s)) {
			t.Errorf("SKU/SanitizeText broke %q", s)
		}
	}
	phones := []string{"9876543210", "+91 98765 43210", "+91-98765-43210", "09876543210", "919876543210"}
	for _, p := range phones {
		if IndianPhone(p) && !IndianPhone(SanitizePhone(p)) {
			t.Errorf("IndianPhone/SanitizePhone broke %q", p)
		}
	}
	gsts := []string{"27AAPFU0939F1ZV", "27aapfu0939f1zv"}
	for _, g := range gsts {
		if GSTNumber(g) && !GSTNumber(SanitizeGST(g)) {
			t.Errorf("GSTNumber/SanitizeGST broke %q", g)
		}
	}
	emails := []string{"user@example.com", " user@example.com "}
	for _, e := range emails {
		if Email(e) && !Email(SanitizeText(e)) {
			t.Errorf("Email/SanitizeText broke %q", e)
		}
	}
	for _, p := range []float64{0, 10.5, 999999.99} {
		if Price(p) && !Price(SanitizeNumber(p)) {
			t.Errorf("Price/SanitizeNumber broke %v", p)
		}
	}
	for _, q := range []float64{0, 7, 99999} {
		if Quantity(q) && !Quantity(SanitizeNumber(q)) {
			t.Errorf("Quantity/SanitizeNumber broke %v", q)
		}
	}
}
