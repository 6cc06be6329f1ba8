// Package kv описывает границу с внешним плоским хранилищем «ключ -> строка».
//
// Хранилище не дает транзакций и TTL: одна строка на ключ, запись целиком перезаписывает значение.
// Любая реализация (память, Redis, Postgres) должна быть безопасна для конкурентного использования.
package kv

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable — хранилище временно не отвечает (например, открыт circuit breaker).
var ErrUnavailable = errors.New("kv: backend unavailable")

type Backend interface {
	// Read возвращает значение по ключу. found == false, если ключа нет; err — только сбой инфраструктуры.
	Read(ctx context.Context, key string) (value string, found bool, err error)

	// Write сохраняет или перезаписывает значение.
	Write(ctx context.Context, key, value string) error
}

// Remover — необязательная возможность удаления ключа (ядро ее не использует).
type Remover interface {
	Remove(ctx context.Context, key string) error
}

// Memory — потокобезопасное хранилище в памяти для тестов и локального режима.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Write(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
