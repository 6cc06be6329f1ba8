package validation

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Лимиты числовых полей
const (
	MaxPrice    = 999999.99
	MaxQuantity = 99999
)

// jsSpace — содержимое класса пробельных символов ECMAScript (\s): ASCII-пробелы, \v,
// все Zs, разделители строк/абзацев и BOM. В RE2 \s уже: только [\t\n\f\r ].
const jsSpace = `\t\n\x0B\f\r\p{Zs}\x{2028}\x{2029}\x{FEFF}`

var (
	emailRe = regexp.MustCompile(`^[^` + jsSpace + `@]+@[^` + jsSpace + `@]+\.[^` + jsSpace + `@]+$`)

	// +91 (с необязательным разделителем), необязательный 0, необязательные 91, затем 10 цифр с первой 7/8/9
	indianPhoneRe = regexp.MustCompile(`^(\+91[\-` + jsSpace + `]?)?[0]?(91)?[789]\d{9}$`)

	// GSTIN: 2 цифры кода штата + 10 символов PAN + 1 entity + 'Z' + контрольный символ
	gstRe = regexp.MustCompile(`^[0-3][0-9][A-Z]{5}[0-9]{4}[A-Z][1-9A-Z][Z][0-9A-Z]$`)

	skuRe  = regexp.MustCompile(`^[A-Za-z0-9\-_]{3,50}$`)
	nameRe = regexp.MustCompile(`^[A-Za-z` + jsSpace + `\.\-']{1,100}$`)

	phoneSeparatorRe = regexp.MustCompile(`[` + jsSpace + `\-]`)
)

// Email проверяет форму local@domain.tld без пробелов.
func Email(email string) bool {
	return emailRe.MatchString(email)
}

// IndianPhone проверяет 10-значный мобильный номер с необязательным префиксом страны.
// Пробелы и дефисы перед проверкой удаляются.
func IndianPhone(phone string) bool {
	return indianPhoneRe.MatchString(phoneSeparatorRe.ReplaceAllString(phone, ""))
}

// GSTNumber проверяет 15-символьный GSTIN без учета регистра.
func GSTNumber(gst string) bool {
	return gstRe.MatchString(strings.ToUpper(gst))
}

func Price(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0) && price >= 0 && price <= MaxPrice
}

// Quantity принимает только целые значения в диапазоне склада.
func Quantity(quantity float64) bool {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity != math.Trunc(quantity) {
		return false
	}
	return quantity >= 0 && quantity <= MaxQuantity
}

func SKU(sku string) bool {
	return skuRe.MatchString(sku)
}

// Name проверяет обрезанное значение: буквы, пробелы и . - ' длиной 1–100.
func Name(name string) bool {
	return nameRe.MatchString(trimJSSpace(name))
}

func isJSSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// trimJSSpace обрезает края по тому же набору пробелов, что и String.prototype.trim.
func trimJSSpace(s string) string {
	return strings.TrimFunc(s, isJSSpace)
}
