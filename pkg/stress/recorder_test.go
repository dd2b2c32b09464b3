//nolint:testpackage // tests require access to unexported hooks
package stress

import (
	"fmt"
	"sync"
)

// recordingSink captures events as short strings in arrival order.
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recordingSink) Initializing(workers int) { r.add("init %d", workers) }

func (r *recordingSink) WorkerSpawned(index, _ int) { r.add("spawned %d", index) }

func (r *recordingSink) WorkerShutdown(index, _ int) { r.add("shutdown %d", index) }

func (r *recordingSink) LoadStarted(seconds int) { r.add("loading %d", seconds) }

func (r *recordingSink) LoadTick(elapsed int) { r.add("tick %d", elapsed) }

func (r *recordingSink) LoadFinished(completed bool) { r.add("finished %t", completed) }

func (r *recordingSink) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.events...)
}

func (r *recordingSink) count(prefix string) int {
	total := 0

	for _, event := range r.snapshot() {
		if len(event) >= len(prefix) && event[:len(prefix)] == prefix {
			total++
		}
	}

	return total
}

func noopLoad() {}
