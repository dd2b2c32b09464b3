package stress

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"thread-stress/pkg/tarai"
)

var (
	// ErrWorkerAlreadyStarted is returned by a second call to Worker.Start.
	ErrWorkerAlreadyStarted = errors.New("stress: worker already started")
	// ErrWorkerNotStarted is returned when shutting down a worker that never started.
	ErrWorkerNotStarted = errors.New("stress: worker not started")
)

// Worker owns one OS thread that evaluates the tarai benchmark until asked to stop.
//
// The shutdown flag is guarded by mu and observed through cond, forming a
// monitor private to the worker.
type Worker struct {
	index    int
	mode     LoadMode
	sink     Sink
	loadFunc func()

	mu       sync.Mutex
	cond     *sync.Cond
	shutdown bool

	started    atomic.Bool
	spawned    chan struct{}
	done       chan struct{}
	state      atomic.Int32
	threadID   atomic.Int64
	iterations atomic.Uint64
}

// WorkerOption customises a Worker at construction time.
type WorkerOption func(*Worker)

// WithWorkerSink routes the worker's lifecycle events to sink.
func WithWorkerSink(sink Sink) WorkerOption {
	return func(w *Worker) {
		if sink != nil {
			w.sink = sink
		}
	}
}

// WithWorkerLoadMode selects how benchmark evaluations are scheduled.
func WithWorkerLoadMode(mode LoadMode) WorkerOption {
	return func(w *Worker) {
		w.mode = mode
	}
}

func withWorkerLoadFunc(fn func()) WorkerOption {
	return func(w *Worker) {
		if fn != nil {
			w.loadFunc = fn
		}
	}
}

// NewWorker constructs a worker in StateCreated. index identifies the worker
// in lifecycle events.
func NewWorker(index int, opts ...WorkerOption) *Worker {
	worker := &Worker{
		index:    index,
		mode:     LoadContinuous,
		sink:     NopSink{},
		loadFunc: func() { tarai.Run() },
		spawned:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	worker.cond = sync.NewCond(&worker.mu)

	for _, opt := range opts {
		opt(worker)
	}

	return worker
}

// Start launches the worker thread and returns once it has announced itself.
func (w *Worker) Start() error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrWorkerAlreadyStarted
	}

	w.state.Store(int32(StateRunning))

	go w.run()

	<-w.spawned

	return nil
}

// Wake signals the worker's condition variable. In LoadOnWake mode this
// triggers one more benchmark evaluation; a wake that arrives while the worker
// is computing is dropped.
func (w *Worker) Wake() {
	w.cond.Signal()
}

// Shutdown requests termination and blocks until the worker thread has exited.
// Calling it again after completion returns nil without blocking.
func (w *Worker) Shutdown() error {
	if !w.started.Load() {
		return ErrWorkerNotStarted
	}

	w.mu.Lock()
	w.shutdown = true
	w.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown))
	w.mu.Unlock()

	w.cond.Signal()

	<-w.done

	return nil
}

// Index returns the worker's position within its pool.
func (w *Worker) Index() int {
	return w.index
}

// State reports the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// ThreadID returns the id of the worker's OS thread, or 0 before it spawned.
func (w *Worker) ThreadID() int {
	return int(w.threadID.Load())
}

// Iterations returns the number of completed benchmark evaluations.
func (w *Worker) Iterations() uint64 {
	return w.iterations.Load()
}

func (w *Worker) run() {
	// The thread is never unlocked, so the runtime retires it together with
	// this goroutine.
	runtime.LockOSThread()

	defer func() {
		w.state.Store(int32(StateTerminated))
		close(w.done)
	}()

	threadID := currentThreadID()
	w.threadID.Store(int64(threadID))
	w.sink.WorkerSpawned(w.index, threadID)
	close(w.spawned)

	w.mu.Lock()
	for !w.evaluate() {
		w.park()
	}

	w.sink.WorkerShutdown(w.index, threadID)
	w.mu.Unlock()
}

// evaluate runs one benchmark call unless shutdown was already requested and
// reports whether the worker should stop. Called with mu held.
func (w *Worker) evaluate() bool {
	if w.shutdown {
		return true
	}

	w.loadFunc()
	w.iterations.Add(1)

	return w.shutdown
}

// park gives Shutdown a chance to acquire mu between evaluations. Called with
// mu held; returns with mu held.
func (w *Worker) park() {
	if w.mode == LoadOnWake {
		w.cond.Wait()

		return
	}

	w.mu.Unlock()
	runtime.Gosched()
	w.mu.Lock()
}
