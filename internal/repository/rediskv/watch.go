package rediskv

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Watcher — "живучая" подписка на канал изменений ключей.
// Сообщение в канале — логический ключ; подписчики этого ключа вызываются синхронно.
// После каждого (пере)подключения вызываются все подписчики: сигналы, пропущенные
// во время разрыва, не теряются.
type Watcher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger

	subscribeBackoff time.Duration
	reconnectBackoff time.Duration

	mu       sync.RWMutex
	handlers map[string][]func(ctx context.Context)
}

func NewWatcher(rdb *redis.Client, channel string, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		rdb:              rdb,
		channel:          channel,
		logger:           logger.With(zap.String("mod", "state-watcher")),
		subscribeBackoff: 5 * time.Second,
		reconnectBackoff: 1 * time.Second,
		handlers:         make(map[string][]func(ctx context.Context)),
	}
}

// Watch регистрирует обработчик изменений ключа (обычно Store.Refresh).
func (w *Watcher) Watch(key string, fn func(ctx context.Context)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[key] = append(w.handlers[key], fn)
}

// Run блокируется до отмены ctx.
func (w *Watcher) Run(ctx context.Context) {
	for {
		pubsub := w.rdb.Subscribe(ctx, w.channel)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to subscribe", zap.String("chan", w.channel), zap.Error(err))
			if !sleepCtx(ctx, w.subscribeBackoff) {
				return
			}
			continue
		}

		// Синхронизация при каждом успешном коннекте
		w.resyncAll(ctx)

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}
				if msg.Payload == "" {
					w.logger.Error("invalid signal format", zap.String("payload", msg.Payload))
					continue
				}
				w.dispatch(ctx, msg.Payload)
			}
		}

		pubsub.Close()
		if !sleepCtx(ctx, w.reconnectBackoff) {
			return
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, key string) {
	w.mu.RLock()
	fns := w.handlers[key]
	w.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx)
	}
}

func (w *Watcher) resyncAll(ctx context.Context) {
	w.mu.RLock()
	var fns []func(ctx context.Context)
	for _, list := range w.handlers {
		fns = append(fns, list...)
	}
	w.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
