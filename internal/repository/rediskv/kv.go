// Package rediskv — хранилище клиентского состояния поверх Redis.
package rediskv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend хранит значения под ключами с префиксом неймспейса и после каждой записи
// публикует логический ключ в канал изменений, чтобы другие инстансы перепроверили свои копии.
type Backend struct {
	rdb     *redis.Client
	prefix  string
	channel string
}

// New создает бэкенд. Пустой channel отключает публикацию сигналов.
func New(rdb *redis.Client, prefix, channel string) *Backend {
	return &Backend{rdb: rdb, prefix: prefix, channel: channel}
}

func (b *Backend) storageKey(key string) string {
	return b.prefix + key
}

func (b *Backend) Read(ctx context.Context, key string) (string, bool, error) {
	val, err := b.rdb.Get(ctx, b.storageKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Write перезаписывает значение целиком, без TTL.
func (b *Backend) Write(ctx context.Context, key, value string) error {
	_, err := b.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, b.storageKey(key), value, 0)
		if b.channel != "" {
			pipe.Publish(ctx, b.channel, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Remove(ctx context.Context, key string) error {
	_, err := b.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, b.storageKey(key))
		if b.channel != "" {
			pipe.Publish(ctx, b.channel, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
