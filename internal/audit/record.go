package audit

import "time"

// Kind классифицирует запись аудита безопасности.
type Kind string

const (
	KindValidationFailure Kind = "validation_failure" // Значение не прошло правило
	KindSuspiciousInput   Kind = "suspicious_input"   // Битые данные, сбой декодера, паника правила, rate limit
	KindDataAccess        Kind = "data_access"        // Чтение/запись в хранилище
)

// timestampLayout — ISO-8601 с миллисекундами, как Date.toISOString().
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Record — запись аудита. Сырые значения полей сюда никогда не попадают, только длина.
type Record struct {
	ID   string `json:"id"` // UUID записи
	Kind Kind   `json:"kind"`

	// Для validation_failure / suspicious_input
	Field       string `json:"field,omitempty"`
	ValueLength int    `json:"value_length"`
	Reason      string `json:"reason,omitempty"`

	// Для data_access
	Operation   string `json:"operation,omitempty"`    // "read", "write", "security_mode_enabled" ...
	SubjectType string `json:"subject_type,omitempty"` // Ключ хранилища или тип данных

	Timestamp time.Time `json:"timestamp"`
}

// TimestampISO возвращает время записи в UTC в формате ISO-8601.
func (r Record) TimestampISO() string {
	return r.Timestamp.UTC().Format(timestampLayout)
}
