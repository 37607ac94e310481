// Package cache кэширует ответы на чтение. Ключи объединяются в группы,
// чтобы запись могла сбросить все страницы списка разом.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hr-data-api/internal/metrics"
)

// Cache - хранилище значений в JSON с TTL
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Track запоминает ключ в группе
	Track(ctx context.Context, group, key string, ttl time.Duration) error
	// Flush удаляет все ключи группы и саму группу
	Flush(ctx context.Context, group string) error
}

// Remember возвращает значение из кэша или вычисляет и сохраняет его.
// Недоступный кэш не ломает чтение: ошибка логируется и значение берётся из fn.
func Remember[T any](ctx context.Context, c Cache, logger *slog.Logger, name, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("cache get failed", slog.String("key", key), slog.Any("error", err))
	}
	metrics.RecordCacheRequest(name, hit)
	if hit {
		return cached, nil
	}

	value, err := fn()
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("cache set failed", slog.String("key", key), slog.Any("error", err))
	}
	return value, nil
}
