package validation

// MaxSubmissionFieldLength — предел длины любого текстового поля формы в символах.
const MaxSubmissionFieldLength = 1000

// SanitizeSubmission обрезает пробелы и длину каждого поля отправленной формы.
// Исходная карта не меняется.
func SanitizeSubmission(data map[string]string) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		v = trimJSSpace(v)
		if r := []rune(v); len(r) > MaxSubmissionFieldLength {
			v = string(r[:MaxSubmissionFieldLength])
		}
		out[k] = v
	}
	return out
}
