// Package store — типизированное значение под ключом внешнего хранилища.
//
// Store[T] держит копию значения в памяти и синхронно пишет каждое изменение в kv.Backend,
// по желанию через обфускацию codec. Память обновляется до записи, поэтому Set всегда
// виден следующему Get на том же экземпляре, даже если хранилище недоступно.
// Сбои хранилища не пробрасываются: они журналируются, а значение в памяти считается
// авторитетным до следующей успешной записи.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/xela07ax/securestate/internal/audit"
	"github.com/xela07ax/securestate/internal/codec"
	"github.com/xela07ax/securestate/internal/kv"
	"github.com/xela07ax/securestate/internal/metrics"
	"go.uber.org/zap"
)

type Options struct {
	Obfuscate bool
	Codec     *codec.Codec // nil при Obfuscate -> кодек с ключом по умолчанию
	Audit     *audit.Logger
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

type Store[T any] struct {
	backend  kv.Backend
	key      string
	fallback T
	shape    shape
	codec    *codec.Codec
	opts     Options
	logger   *zap.Logger

	mu      sync.RWMutex
	value   T
	lastErr error

	// writeMu упорядочивает запись и проверку: порядок в хранилище совпадает с порядком в памяти
	writeMu sync.Mutex

	// checking — защита от повторного входа в проверку (в т.ч. из сигнала о собственном сбросе)
	checking atomic.Bool
}

// New загружает значение по key (или fallback) и сразу проверяет его на дрейф типа.
func New[T any](ctx context.Context, backend kv.Backend, key string, fallback T, opts Options) *Store[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store[T]{
		backend:  backend,
		key:      key,
		fallback: fallback,
		shape:    shapeOf(reflect.TypeOf((*T)(nil)).Elem()),
		opts:     opts,
		logger:   logger.With(zap.String("mod", "store"), zap.String("key", key)),
	}
	if opts.Obfuscate {
		s.codec = opts.Codec
		if s.codec == nil {
			// Непустой ключ: ошибки быть не может
			s.codec, _ = codec.New([]byte(codec.DefaultKey), opts.Audit)
		}
	}

	s.value = s.load(ctx)
	s.Recheck(ctx)
	return s
}

func (s *Store[T]) Key() string { return s.key }

func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set заменяет значение. Ошибка записи не возвращается, см. LastError.
func (s *Store[T]) Set(ctx context.Context, v T) {
	s.Update(ctx, func(T) T { return v })
}

// Update применяет чистую функцию к текущему значению в памяти и сохраняет результат.
// fn выполняется без блокировки значения: внутри можно вызывать Get.
func (s *Store[T]) Update(ctx context.Context, fn func(prev T) T) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.apply(ctx, fn)
}

// apply вызывается под writeMu.
func (s *Store[T]) apply(ctx context.Context, fn func(prev T) T) {
	next := fn(s.Get())

	s.mu.Lock()
	s.value = next
	s.mu.Unlock()

	s.persist(ctx, next)
}

// LastError — ошибка последней записи или чтения (nil после успешной записи).
func (s *Store[T]) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Recheck перечитывает ключ и, если сохраненное значение больше не подходит под T,
// сбрасывает его к fallback и перезаписывает. Возвращает true, если был сброс.
func (s *Store[T]) Recheck(ctx context.Context) bool {
	return s.check(ctx, false)
}

// Refresh — Recheck, который еще и принимает в память корректное значение,
// записанное другим экземпляром (сигнал из rediskv.Watcher).
func (s *Store[T]) Refresh(ctx context.Context) {
	s.check(ctx, true)
}

// check выполняется под writeMu: запись, начатая раньше, успевает дойти до хранилища,
// и более старое значение не перекроет память.
func (s *Store[T]) check(ctx context.Context, adopt bool) (reset bool) {
	if !s.checking.CompareAndSwap(false, true) {
		return false
	}
	defer s.checking.Store(false)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	text, found, err := s.backend.Read(ctx, s.key)
	if err != nil {
		s.readFailed(err)
		s.reset(ctx, "read failed during validation")
		return true
	}
	if !found || text == "" {
		return false
	}

	raw, decoded := s.decode(text)
	if !decoded {
		s.reset(ctx, "stored value is unreadable")
		return true
	}
	v, usable := s.parse(raw)
	if !usable {
		s.reset(ctx, "type mismatch")
		return true
	}

	if adopt {
		s.opts.Audit.DataAccess("read", s.key)
		s.mu.Lock()
		s.value = v
		s.mu.Unlock()
	}
	return false
}

func (s *Store[T]) load(ctx context.Context) T {
	text, found, err := s.backend.Read(ctx, s.key)
	if err != nil {
		s.readFailed(err)
		return s.fallback
	}
	if !found || text == "" {
		return s.fallback
	}

	s.opts.Audit.DataAccess("read", s.key)

	raw, ok := s.decode(text)
	if !ok {
		return s.fallback
	}
	v, ok := s.parse(raw)
	if !ok {
		return s.fallback
	}
	return v
}

// decode снимает обфускацию или проверяет, что text — JSON.
func (s *Store[T]) decode(text string) (json.RawMessage, bool) {
	if s.codec != nil {
		return s.codec.Decode(text)
	}
	if !json.Valid([]byte(text)) {
		s.opts.Audit.SuspiciousInput("localStorage_read", utf8.RuneCountInString(text), "Failed to read "+s.key)
		return nil, false
	}
	return json.RawMessage(text), true
}

// parse — контракт дрейфа: тег JSON совпадает с T и значение разбирается в T.
func (s *Store[T]) parse(raw json.RawMessage) (T, bool) {
	var v T
	if !s.shape.accepts(raw) {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

// reset вызывается под writeMu.
func (s *Store[T]) reset(ctx context.Context, reason string) {
	s.logger.Warn("Type mismatch for stored key. Resetting to initial value.", zap.String("reason", reason))
	if s.opts.Metrics != nil {
		s.opts.Metrics.StoreResets.WithLabelValues(s.key).Inc()
	}
	s.apply(ctx, func(T) T { return s.fallback })
}

func (s *Store[T]) persist(ctx context.Context, v T) {
	s.opts.Audit.DataAccess("write", s.key)

	text, err := s.encode(v)
	if err == nil {
		err = s.backend.Write(ctx, s.key, text)
	}
	if err != nil {
		s.writeFailed(err)
		return
	}

	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Store[T]) encode(v T) (string, error) {
	if s.codec != nil {
		return s.codec.Encode(v), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Join(errors.New("store: value is not serializable"), err)
	}
	return string(data), nil
}

func (s *Store[T]) readFailed(err error) {
	s.logger.Error("Error reading stored key", zap.Error(err))
	s.opts.Audit.SuspiciousInput("localStorage_read", utf8.RuneCountInString(s.key), "Failed to read "+s.key)
	s.recordErr("read", err)
}

func (s *Store[T]) writeFailed(err error) {
	s.logger.Error("Error setting stored key", zap.Error(err))
	s.opts.Audit.SuspiciousInput("localStorage_write", utf8.RuneCountInString(s.key), "Failed to write "+s.key)
	s.recordErr("write", err)
}

func (s *Store[T]) recordErr(op string, err error) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.PersistenceErrors.WithLabelValues(op).Inc()
	}
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
