package validation

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	angleBracketsRe = regexp.MustCompile(`[<>]`)
	jsSchemeRe      = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRe  = regexp.MustCompile(`(?i)on\w+=`)
	nonGSTCharRe    = regexp.MustCompile(`[^A-Z0-9]`)

	// Числовой префикс строки, как его понимает parseFloat
	floatPrefixRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
)

// SanitizeText убирает угловые скобки, схемы javascript: и атрибуты вида onclick=, затем обрезает пробелы.
func SanitizeText(input string) string {
	s := angleBracketsRe.ReplaceAllString(input, "")
	s = jsSchemeRe.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	return trimJSSpace(s)
}

// SanitizeNumber приводит значение к конечному float64, иначе 0.
// Строки разбираются по числовому префиксу: "12.5kg" -> 12.5.
func SanitizeNumber(input any) float64 {
	var n float64
	switch v := input.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case json.Number:
		n = parseFloatPrefix(string(v))
	case string:
		n = parseFloatPrefix(v)
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

func parseFloatPrefix(s string) float64 {
	m := floatPrefixRe.FindString(trimJSSpace(s))
	if m == "" {
		return math.NaN()
	}
	// При переполнении ParseFloat возвращает ±Inf вместе с ошибкой, SanitizeNumber превратит это в 0
	n, _ := strconv.ParseFloat(m, 64)
	return n
}

// SanitizePhone оставляет только цифры и ведущий '+'.
func SanitizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeGST переводит в верхний регистр и удаляет всё, кроме A-Z и 0-9.
func SanitizeGST(gst string) string {
	return nonGSTCharRe.ReplaceAllString(strings.ToUpper(gst), "")
}
