package stress

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTick is the interval between progress ticks while a pool runs.
const DefaultTick = time.Second

var (
	// ErrInvalidWorkerCount is returned by NewPool for a non-positive worker count.
	ErrInvalidWorkerCount = errors.New("stress: worker count must be positive")
	// ErrPoolAlreadyStarted is returned by a second call to Pool.Start.
	ErrPoolAlreadyStarted = errors.New("stress: pool already started")
	// ErrPoolNotStarted is returned when shutting down a pool that never started.
	ErrPoolNotStarted = errors.New("stress: pool not started")
)

// Pool owns a fixed set of workers for a single run.
type Pool struct {
	workers []*Worker

	sink             Sink
	mode             LoadMode
	tick             time.Duration
	parallelShutdown bool
	loadFunc         func()

	tickerFactory func(time.Duration) ticker

	started atomic.Bool
}

// Option customises a Pool.
type Option func(*Pool)

// WithSink routes pool and worker events to sink.
func WithSink(sink Sink) Option {
	return func(p *Pool) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithLoadMode selects the load mode used by every worker.
func WithLoadMode(mode LoadMode) Option {
	return func(p *Pool) {
		p.mode = mode
	}
}

// WithParallelShutdown signals all workers concurrently during Shutdown
// instead of one after another.
func WithParallelShutdown(enabled bool) Option {
	return func(p *Pool) {
		p.parallelShutdown = enabled
	}
}

// WithTick overrides the progress tick interval. Non-positive values keep DefaultTick.
func WithTick(tick time.Duration) Option {
	return func(p *Pool) {
		if tick > 0 {
			p.tick = tick
		}
	}
}

func withLoadFunc(fn func()) Option {
	return func(p *Pool) {
		p.loadFunc = fn
	}
}

// NewPool constructs a pool of workers workers. Workers are created
// immediately but not started.
func NewPool(workers int, opts ...Option) (*Pool, error) {
	if workers <= 0 {
		return nil, ErrInvalidWorkerCount
	}

	poolInstance := new(Pool)
	poolInstance.sink = NopSink{}
	poolInstance.mode = LoadContinuous
	poolInstance.tick = DefaultTick
	poolInstance.tickerFactory = func(duration time.Duration) ticker {
		return &runtimeTicker{ticker: time.NewTicker(duration)}
	}

	for _, opt := range opts {
		opt(poolInstance)
	}

	poolInstance.workers = make([]*Worker, 0, workers)
	for index := range workers {
		poolInstance.workers = append(poolInstance.workers, NewWorker(
			index,
			WithWorkerSink(poolInstance.sink),
			WithWorkerLoadMode(poolInstance.mode),
			withWorkerLoadFunc(poolInstance.loadFunc),
		))
	}

	return poolInstance, nil
}

// Start launches every worker in index order. Each worker has spawned its
// thread by the time Start returns.
func (p *Pool) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrPoolAlreadyStarted
	}

	p.sink.Initializing(len(p.workers))

	for _, worker := range p.workers {
		err := worker.Start()
		if err != nil {
			return fmt.Errorf("start worker %d: %w", worker.Index(), err)
		}
	}

	return nil
}

// RunFor blocks for seconds ticks while the workers run, reporting one
// progress tick per interval. It returns early with the context error when ctx
// is cancelled.
func (p *Pool) RunFor(ctx context.Context, seconds int) error {
	if seconds < 0 {
		seconds = 0
	}

	p.sink.LoadStarted(seconds)

	if seconds == 0 {
		p.sink.LoadFinished(true)

		return nil
	}

	ticker := p.tickerFactory(p.tick)
	defer ticker.Stop()

	for elapsed := 1; elapsed <= seconds; elapsed++ {
		select {
		case <-ctx.Done():
			p.sink.LoadFinished(false)

			return fmt.Errorf("run interrupted after %d ticks: %w", elapsed-1, ctx.Err())
		case <-ticker.C():
			p.sink.LoadTick(elapsed)

			if p.mode == LoadOnWake {
				p.wakeAll()
			}
		}
	}

	p.sink.LoadFinished(true)

	return nil
}

// Shutdown stops every worker and returns once all worker threads have exited.
func (p *Pool) Shutdown() error {
	if !p.started.Load() {
		return ErrPoolNotStarted
	}

	if p.parallelShutdown {
		var group errgroup.Group

		for _, worker := range p.workers {
			group.Go(worker.Shutdown)
		}

		err := group.Wait()
		if err != nil {
			return fmt.Errorf("shutdown workers: %w", err)
		}

		return nil
	}

	for _, worker := range p.workers {
		err := worker.Shutdown()
		if err != nil {
			return fmt.Errorf("shutdown worker %d: %w", worker.Index(), err)
		}
	}

	return nil
}

// Workers returns the number of workers owned by the pool.
func (p *Pool) Workers() int {
	return len(p.workers)
}

// WorkerStatus is a point-in-time view of one worker.
type WorkerStatus struct {
	Index      int
	ThreadID   int
	State      State
	Iterations uint64
}

// States reports the status of every worker in index order.
func (p *Pool) States() []WorkerStatus {
	statuses := make([]WorkerStatus, 0, len(p.workers))

	for _, worker := range p.workers {
		statuses = append(statuses, WorkerStatus{
			Index:      worker.Index(),
			ThreadID:   worker.ThreadID(),
			State:      worker.State(),
			Iterations: worker.Iterations(),
		})
	}

	return statuses
}

// Iterations sums completed benchmark evaluations across all workers.
func (p *Pool) Iterations() uint64 {
	var total uint64

	for _, worker := range p.workers {
		total += worker.Iterations()
	}

	return total
}

func (p *Pool) wakeAll() {
	for _, worker := range p.workers {
		worker.Wake()
	}
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type runtimeTicker struct {
	ticker *time.Ticker
}

func (t *runtimeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t *runtimeTicker) Stop() {
	t.ticker.Stop()
}
