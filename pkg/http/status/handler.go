package status

import (
	"encoding/json"
	"net/http"

	"thread-stress/pkg/stress"
)

// Pool exposes the status surface required by the health handler.
type Pool interface {
	Workers() int
	States() []stress.WorkerStatus
}

// WorkerSnapshot is the JSON view of one worker.
type WorkerSnapshot struct {
	Index      int    `json:"index"`
	ThreadID   int    `json:"threadId"`
	State      string `json:"state"`
	Iterations uint64 `json:"iterations"`
}

// Snapshot captures the pool status returned by the handler.
type Snapshot struct {
	Workers int              `json:"workers"`
	Live    int              `json:"live"`
	Items   []WorkerSnapshot `json:"items"`
}

// Handler renders pool status as JSON.
type Handler struct {
	pool Pool
}

// NewHandler constructs a Handler that reports on pool.
func NewHandler(pool Pool) *Handler {
	return &Handler{pool: pool}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(writer http.ResponseWriter, _ *http.Request) {
	if h == nil || h.pool == nil {
		http.Error(writer, "pool unavailable", http.StatusServiceUnavailable)

		return
	}

	states := h.pool.States()
	snapshot := Snapshot{
		Workers: h.pool.Workers(),
		Live:    0,
		Items:   make([]WorkerSnapshot, 0, len(states)),
	}

	for _, state := range states {
		if state.State == stress.StateRunning || state.State == stress.StateShuttingDown {
			snapshot.Live++
		}

		snapshot.Items = append(snapshot.Items, WorkerSnapshot{
			Index:      state.Index,
			ThreadID:   state.ThreadID,
			State:      state.State.String(),
			Iterations: state.Iterations,
		})
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		http.Error(writer, "marshal status", http.StatusInternalServerError)

		return
	}

	writer.Header().Set("Content-Type", "application/json")
	_, _ = writer.Write(payload)
}
