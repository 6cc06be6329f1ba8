package notify

import (
	"github.com/xela07ax/securestate/internal/domain"
	"github.com/xela07ax/securestate/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Notifier — граница с UI: показать пользователю неблокирующее сообщение.
type Notifier interface {
	Notify(n domain.Notification)
}

// NotifierFunc позволяет использовать функцию как Notifier.
type NotifierFunc func(n domain.Notification)

func (f NotifierFunc) Notify(n domain.Notification) { f(n) }

// Discard молча игнорирует уведомления.
var Discard Notifier = NotifierFunc(func(domain.Notification) {})

// LogNotifier выводит уведомления в zap (для CLI и серверных сценариев без UI).
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Notify(msg domain.Notification) {
	fields := []zap.Field{
		zap.String("title", msg.Title),
		zap.String("description", msg.Description),
	}
	if msg.Severity == domain.SeverityDestructive {
		n.logger.Warn("user notification", fields...)
		return
	}
	n.logger.Info("user notification", fields...)
}

// Throttled ограничивает поток уведомлений: при шторме отказов пользователь не тонет в тостах.
// Лишние сообщения отбрасываются без ожидания.
type Throttled struct {
	next    Notifier
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// NewThrottled пропускает в среднем perSecond уведомлений с всплеском до burst.
func NewThrottled(next Notifier, perSecond float64, burst int, m *metrics.Metrics) *Throttled {
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		metrics: m,
	}
}

func (t *Throttled) Notify(n domain.Notification) {
	if !t.limiter.Allow() {
		if t.metrics != nil {
			t.metrics.NotificationsDropped.Inc()
		}
		return
	}
	t.next.Notify(n)
}
