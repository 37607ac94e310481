package events

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Handler обрабатывает событие; ошибка логируется шиной и дальше не передаётся
type Handler func(ctx context.Context, e Event) error

// Publisher публикует события
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type subscription struct {
	name   string
	handle Handler
	async  bool
}

// SubscribeOption настраивает подписку
type SubscribeOption func(*subscription)

// Async запускает обработчик в отдельной горутине с контекстом без отмены
func Async() SubscribeOption {
	return func(s *subscription) { s.async = true }
}

// Bus - реестр подписчиков по типу события
type Bus struct {
	mu     sync.RWMutex
	subs   map[Kind][]subscription
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewBus создаёт пустую шину
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[Kind][]subscription),
		logger: logger,
	}
}

// Subscribe регистрирует обработчик для типа события
func (b *Bus) Subscribe(kind Kind, name string, h Handler, opts ...SubscribeOption) {
	s := subscription{name: name, handle: h}
	for _, opt := range opts {
		opt(&s)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[kind] = append(b.subs[kind], s)
}

// Subscribe регистрирует типизированный обработчик
func Subscribe[T Event](b *Bus, name string, fn func(ctx context.Context, e T) error, opts ...SubscribeOption) {
	var zero T
	kind := zero.Kind()
	b.Subscribe(kind, name, func(ctx context.Context, e Event) error {
		typed, ok := e.(T)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", e, kind)
		}
		return fn(ctx, typed)
	}, opts...)
}

// Publish доставляет событие: синхронные подписчики выполняются по порядку
// регистрации в горутине вызывающего, асинхронные - в своих горутинах.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	subs := slices.Clone(b.subs[e.Kind()])
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.logger.Warn("no subscribers for event", slog.String("event", e.Kind().String()))
		return
	}

	for _, s := range subs {
		if s.async {
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.deliver(context.WithoutCancel(ctx), s, e)
			}()
			continue
		}
		b.deliver(ctx, s, e)
	}
}

func (b *Bus) deliver(ctx context.Context, s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked",
				slog.String("event", e.Kind().String()),
				slog.String("listener", s.name),
				slog.Any("panic", r),
			)
		}
	}()

	if err := s.handle(ctx, e); err != nil {
		b.logger.Error("event listener failed",
			slog.String("event", e.Kind().String()),
			slog.String("listener", s.name),
			slog.Any("error", err),
		)
	}
}

// Wait дожидается завершения асинхронных доставок
func (b *Bus) Wait() {
	b.wg.Wait()
}

// SubscribersCount возвращает число подписчиков на тип события
func (b *Bus) SubscribersCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
