package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/securestate/internal/metrics"
	"go.uber.org/zap"
)

// Sink — внешний приемник записей (консоль, телеметрия, Postgres через Trail).
type Sink interface {
	Log(rec Record)
}

// SinkFunc позволяет использовать функцию как Sink.
type SinkFunc func(rec Record)

func (f SinkFunc) Log(rec Record) { f(rec) }

// Logger — журнал событий безопасности уровня процесса.
// Только запись: ядро никогда не читает журнал обратно. Вызывающий код не блокируется
// и не получает ошибок: сбои приемников проглатываются.
// Методы безопасны для nil-получателя, чтобы компоненты работали без аудита.
type Logger struct {
	zl      *zap.Logger
	sinks   []Sink
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLogger(zl *zap.Logger, m *metrics.Metrics, sinks ...Sink) *Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &Logger{
		zl:      zl.Named("security"),
		sinks:   sinks,
		metrics: m,
		now:     time.Now,
	}
}

// ValidationFailure фиксирует отказ валидации. В запись уходит только длина значения.
func (l *Logger) ValidationFailure(field string, valueLength int, reason string) {
	if l == nil {
		return
	}
	rec := l.newRecord(KindValidationFailure)
	rec.Field = field
	rec.ValueLength = valueLength
	rec.Reason = reason

	l.zl.Warn("Security: Validation failed for "+field,
		zap.String("field", field),
		zap.Int("valueLength", valueLength),
		zap.String("reason", reason),
		zap.String("timestamp", rec.TimestampISO()),
	)
	l.emit(rec)
}

// SuspiciousInput фиксирует подозрительный ввод: битые данные, сбой декодера, превышение лимита.
func (l *Logger) SuspiciousInput(field string, valueLength int, reason string) {
	if l == nil {
		return
	}
	rec := l.newRecord(KindSuspiciousInput)
	rec.Field = field
	rec.ValueLength = valueLength
	rec.Reason = reason

	l.zl.Warn("Security: Suspicious input detected in "+field,
		zap.String("field", field),
		zap.Int("valueLength", valueLength),
		zap.String("reason", reason),
		zap.String("timestamp", rec.TimestampISO()),
	)
	l.emit(rec)
}

// DataAccess фиксирует обращение к хранилищу.
func (l *Logger) DataAccess(operation, subjectType string) {
	if l == nil {
		return
	}
	rec := l.newRecord(KindDataAccess)
	rec.Operation = operation
	rec.SubjectType = subjectType

	l.zl.Info("Security: Data access - "+operation,
		zap.String("operation", operation),
		zap.String("dataType", subjectType),
		zap.String("timestamp", rec.TimestampISO()),
	)
	l.emit(rec)
}

func (l *Logger) newRecord(kind Kind) Record {
	return Record{
		ID:        uuid.New().String(),
		Kind:      kind,
		Timestamp: l.now(),
	}
}

func (l *Logger) emit(rec Record) {
	if l.metrics != nil {
		l.metrics.SecurityEvents.WithLabelValues(string(rec.Kind)).Inc()
	}
	for _, s := range l.sinks {
		l.deliver(s, rec)
	}
}

// deliver изолирует приемник: его паника не должна дойти до вызывающего кода.
func (l *Logger) deliver(s Sink, rec Record) {
	defer func() {
		if r := recover(); r != nil {
			l.zl.Error("audit sink panicked", zap.Any("panic", r), zap.String("record_id", rec.ID))
		}
	}()
	s.Log(rec)
}
