package audit

/*
Файл trail.go реализует Trail — асинхронный приемник журнала безопасности,
который складывает записи в долговременное хранилище (Postgres) пачками.

Ключевые особенности:
- Non-blocking Logging: Log никогда не ждет БД. Если буфер заполнен, запись
  сбрасывается (Load Shedding) и учитывается в метрике, вызывающий код не страдает.
- Batching: накопление записей и пакетная запись по таймеру или по размеру пачки.
- Drain Pattern: Stop закрывает вход, воркер вычитывает остаток и делает финальный flush.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/xela07ax/securestate/internal/metrics"
	"go.uber.org/zap"
)

// BatchWriter определяет, куда физически сохраняются записи
type BatchWriter interface {
	// WriteBatch сохраняет пачку записей за один раз
	WriteBatch(ctx context.Context, records []Record) error
}

// TrailConfig — параметры буферизации.
type TrailConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

func (c TrailConfig) withDefaults() TrailConfig {
	if c.BufferSize <= 0 {
		c.BufferSize = 10000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 500 * time.Millisecond
	}
	return c
}

type Trail struct {
	ch      chan Record // Буфер для асинхронности
	repo    BatchWriter
	cfg     TrailConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup

	// mu защищает закрытие канала от гонки с Log
	mu     sync.RWMutex
	closed bool
}

func NewTrail(repo BatchWriter, cfg TrailConfig, logger *zap.Logger, m *metrics.Metrics) *Trail {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trail{
		ch:      make(chan Record, cfg.BufferSize),
		repo:    repo,
		cfg:     cfg,
		logger:  logger.With(zap.String("mod", "audit-trail")),
		metrics: m,
	}
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (t *Trail) Stop() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.logger.Info("stopping audit trail: closing channel and flushing buffer...")
	close(t.ch) // Новые записи больше не принимаются
	t.mu.Unlock()

	t.wg.Wait() // Ждем, пока воркер вычитает остатки из канала и вызовет flush()
	t.logger.Info("audit trail stopped gracefully")
}

// Log реализует Sink.
func (t *Trail) Log(rec Record) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		t.logger.Warn("audit record dropped: trail is stopping", zap.String("id", rec.ID))
		return
	}

	// Load Shedding: при переполнении не блокируемся
	select {
	case t.ch <- rec:
	default:
		if t.metrics != nil {
			t.metrics.AuditDropped.Inc()
		}
		t.logger.Error("audit_buffer_overflow",
			zap.String("id", rec.ID),
			zap.String("kind", string(rec.Kind)),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]Record, 0, t.cfg.BatchSize)
	ticker := time.NewTicker(t.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if t.metrics != nil {
			t.metrics.AuditBufferFill.Set(float64(len(t.ch)))
		}
		if len(batch) == 0 {
			return
		}
		// Background: к моменту финального flush основной контекст может быть уже закрыт
		if err := t.repo.WriteBatch(context.Background(), batch); err != nil {
			t.logger.Error("audit flush failed", zap.Error(err), zap.Int("count", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-t.ch:
			if !ok {
				// Канал закрыт в Stop(): всё, что было в очереди, уже вычитано
				flush()
				t.logger.Info("audit worker finished")
				return
			}
			batch = append(batch, rec)
			if len(batch) >= t.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
