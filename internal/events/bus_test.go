package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/hr-data-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus() *Bus {
	return NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBus_SyncListenersRunInOrder(t *testing.T) {
	bus := newTestBus()
	var order []string

	Subscribe(bus, "first", func(ctx context.Context, e ImportCompleted) error {
		order = append(order, "first")
		return nil
	})
	Subscribe(bus, "second", func(ctx context.Context, e ImportCompleted) error {
		order = append(order, "second")
		return nil
	})

	bus.Publish(context.Background(), ImportCompleted{Job: domain.ImportJob{ID: 1}})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestBus_ErrorsAndPanicsDoNotStopOtherListeners(t *testing.T) {
	bus := newTestBus()
	called := 0

	Subscribe(bus, "fails", func(ctx context.Context, e SalaryUpdated) error {
		return errors.New("boom")
	})
	Subscribe(bus, "panics", func(ctx context.Context, e SalaryUpdated) error {
		panic("listener exploded")
	})
	Subscribe(bus, "counts", func(ctx context.Context, e SalaryUpdated) error {
		called++
		return nil
	})

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), SalaryUpdated{})
	})
	assert.Equal(t, 1, called)
}

func TestBus_RoutesByKind(t *testing.T) {
	bus := newTestBus()
	var completed, failed int

	Subscribe(bus, "completed", func(ctx context.Context, e ImportCompleted) error {
		completed++
		return nil
	})
	Subscribe(bus, "failed", func(ctx context.Context, e ImportFailed) error {
		failed++
		return nil
	})

	bus.Publish(context.Background(), ImportFailed{})
	bus.Publish(context.Background(), ImportRequested{})

	assert.Equal(t, 0, completed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, bus.SubscribersCount(KindImportCompleted))
	assert.Equal(t, 0, bus.SubscribersCount(KindImportRequested))
}

func TestBus_AsyncListenerOutlivesCancelledContext(t *testing.T) {
	bus := newTestBus()
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []error

	Subscribe(bus, "async", func(ctx context.Context, e ImportCompleted) error {
		<-release
		mu.Lock()
		seen = append(seen, ctx.Err())
		mu.Unlock()
		return nil
	}, Async())

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, ImportCompleted{})
	cancel()
	close(release)
	bus.Wait()

	require.Len(t, seen, 1)
	assert.NoError(t, seen[0])
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "import_requested", KindImportRequested.String())
	assert.Equal(t, "salary_updated", SalaryUpdated{}.Kind().String())
	assert.Equal(t, "unknown", Kind(99).String())
}
