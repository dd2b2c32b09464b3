//nolint:testpackage // tests require access to unexported hooks
package stress

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTicker struct {
	ch      chan time.Time
	stopped bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() { m.stopped = true }

func TestNewPoolRejectsNonPositiveWorkerCount(t *testing.T) {
	t.Parallel()

	_, err := NewPool(0)
	require.ErrorIs(t, err, ErrInvalidWorkerCount)

	_, err = NewPool(-3)
	require.ErrorIs(t, err, ErrInvalidWorkerCount)
}

func TestPoolStartRunShutdown(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{1, 3, 8} {
		for _, seconds := range []int{0, 2} {
			t.Run(fmt.Sprintf("workers=%d/seconds=%d", workers, seconds), func(t *testing.T) {
				t.Parallel()

				sink := &recordingSink{}

				pool, err := NewPool(
					workers,
					WithSink(sink),
					WithTick(time.Millisecond),
					withLoadFunc(noopLoad),
				)
				require.NoError(t, err)
				require.Equal(t, workers, pool.Workers())

				require.NoError(t, pool.Start())

				for _, status := range pool.States() {
					assert.Equal(t, StateRunning, status.State)
				}

				require.NoError(t, pool.RunFor(context.Background(), seconds))
				require.NoError(t, pool.Shutdown())

				assert.Equal(t, workers, sink.count("spawned"))
				assert.Equal(t, workers, sink.count("shutdown"))
				assert.Equal(t, seconds, sink.count("tick"))
				assert.Equal(t, 1, sink.count("finished true"))

				for _, status := range pool.States() {
					assert.Equal(t, StateTerminated, status.State)
				}
			})
		}
	}
}

func TestPoolSequentialShutdownFollowsCreationOrder(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}

	pool, err := NewPool(4, WithSink(sink), withLoadFunc(noopLoad))
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	require.NoError(t, pool.RunFor(context.Background(), 0))
	require.NoError(t, pool.Shutdown())

	assert.Equal(t, []string{
		"init 4",
		"spawned 0",
		"spawned 1",
		"spawned 2",
		"spawned 3",
		"loading 0",
		"finished true",
		"shutdown 0",
		"shutdown 1",
		"shutdown 2",
		"shutdown 3",
	}, sink.snapshot())
}

func TestPoolParallelShutdownJoinsEveryWorker(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}

	pool, err := NewPool(6, WithSink(sink), WithParallelShutdown(true), withLoadFunc(noopLoad))
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	require.NoError(t, pool.Shutdown())

	assert.Equal(t, 6, sink.count("shutdown"))

	for _, status := range pool.States() {
		assert.Equal(t, StateTerminated, status.State)
	}
}

func TestPoolRunForStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	manual := newManualTicker()

	pool, err := NewPool(1, WithSink(sink), withLoadFunc(noopLoad))
	require.NoError(t, err)

	pool.tickerFactory = func(time.Duration) ticker { return manual }

	require.NoError(t, pool.Start())

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)

	go func() {
		result <- pool.RunFor(ctx, 60)
	}()

	manual.ch <- time.Now()

	cancel()

	select {
	case err := <-result:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("RunFor ignored cancellation")
	}

	require.NoError(t, pool.Shutdown())

	assert.True(t, manual.stopped)
	assert.Equal(t, 1, sink.count("tick"))
	assert.Equal(t, 1, sink.count("finished false"))
}

func TestPoolOnWakeTicksWakeWorkers(t *testing.T) {
	t.Parallel()

	manual := newManualTicker()

	pool, err := NewPool(2, WithLoadMode(LoadOnWake), withLoadFunc(noopLoad))
	require.NoError(t, err)

	pool.tickerFactory = func(time.Duration) ticker { return manual }

	require.NoError(t, pool.Start())

	require.Eventually(t, func() bool {
		return pool.Iterations() == 2
	}, time.Second, time.Millisecond)

	// Let both workers park on their condition variables.
	time.Sleep(10 * time.Millisecond)

	result := make(chan error, 1)

	go func() {
		result <- pool.RunFor(context.Background(), 1)
	}()

	manual.ch <- time.Now()

	require.NoError(t, <-result)

	require.Eventually(t, func() bool {
		return pool.Iterations() == 4
	}, time.Second, time.Millisecond)

	require.NoError(t, pool.Shutdown())
}

func TestPoolLifecycleMisuse(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(1, withLoadFunc(noopLoad))
	require.NoError(t, err)

	require.ErrorIs(t, pool.Shutdown(), ErrPoolNotStarted)
	require.NoError(t, pool.Start())
	require.ErrorIs(t, pool.Start(), ErrPoolAlreadyStarted)
	require.NoError(t, pool.Shutdown())
	require.NoError(t, pool.Shutdown())
}

func TestPoolWithRealBenchmark(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("runs the tarai benchmark")
	}

	pool, err := NewPool(2, WithTick(time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	require.NoError(t, pool.RunFor(context.Background(), 1))
	require.NoError(t, pool.Shutdown())

	for _, status := range pool.States() {
		assert.Equal(t, StateTerminated, status.State)
		assert.NotZero(t, status.ThreadID)
	}
}
