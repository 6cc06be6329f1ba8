package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Audit: события безопасности по типам (validation_failure, suspicious_input, data_access)
	SecurityEvents *prometheus.CounterVec

	// Validation: отказы валидации по полям
	ValidationFailures *prometheus.CounterVec

	// RateLimit: отклоненные попытки по лимитерам
	RateLimitRejections *prometheus.CounterVec

	// Store: самовосстановление значения после дрейфа типа
	StoreResets *prometheus.CounterVec

	// Store: ошибки записи/чтения во внешнее хранилище
	PersistenceErrors *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker хранилища (0 - ок, 1 - выбило)
	BackendBreakerState *prometheus.GaugeVec

	// Audit: заполненность буфера (backpressure)
	AuditBufferFill prometheus.Gauge

	// Audit: события, сброшенные при переполнении
	AuditDropped prometheus.Counter

	// Notify: уведомления, отброшенные троттлингом
	NotificationsDropped prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		SecurityEvents: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "securestate_security_events_total",
			Help: "Total number of security audit records by kind.",
		}, []string{"kind"}),

		ValidationFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "securestate_validation_failures_total",
			Help: "Total number of rejected field values.",
		}, []string{"field"}),

		RateLimitRejections: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "securestate_rate_limit_rejections_total",
			Help: "Total number of attempts rejected by sliding-window limiters.",
		}, []string{"limiter"}),

		StoreResets: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "securestate_store_resets_total",
			Help: "Total number of stored values reset to fallback after type drift.",
		}, []string{"key"}),

		PersistenceErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "securestate_persistence_errors_total",
			Help: "Total number of failed backend reads and writes.",
		}, []string{"op"}),

		BackendBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "securestate_backend_breaker_state",
			Help: "Current state of the persistence circuit breaker (0=closed, 1=open, 2=half-open).",
		}, []string{"backend"}),

		AuditBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "securestate_audit_buffer_utilization",
			Help: "Current number of records in the audit buffer.",
		}),

		AuditDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "securestate_audit_dropped_total",
			Help: "Total number of audit records dropped on buffer overflow.",
		}),

		NotificationsDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "securestate_notifications_dropped_total",
			Help: "Total number of user notifications suppressed by throttling.",
		}),
	}
}
