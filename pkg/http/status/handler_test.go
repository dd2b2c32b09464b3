package status_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	status "thread-stress/pkg/http/status"
	"thread-stress/pkg/stress"
)

type stubPool struct {
	states []stress.WorkerStatus
}

func (s *stubPool) Workers() int { return len(s.states) }

func (s *stubPool) States() []stress.WorkerStatus { return s.states }

func TestHandlerReturnsSnapshot(t *testing.T) {
	t.Parallel()

	pool := &stubPool{states: []stress.WorkerStatus{
		{Index: 0, ThreadID: 101, State: stress.StateRunning, Iterations: 12},
		{Index: 1, ThreadID: 102, State: stress.StateShuttingDown, Iterations: 9},
		{Index: 2, ThreadID: 103, State: stress.StateTerminated, Iterations: 4},
	}}

	recorder := httptest.NewRecorder()
	status.NewHandler(pool).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var snapshot status.Snapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &snapshot))

	assert.Equal(t, 3, snapshot.Workers)
	assert.Equal(t, 2, snapshot.Live)
	require.Len(t, snapshot.Items, 3)
	assert.Equal(t, status.WorkerSnapshot{
		Index:      1,
		ThreadID:   102,
		State:      "shutting-down",
		Iterations: 9,
	}, snapshot.Items[1])
}

func TestHandlerWithoutPool(t *testing.T) {
	t.Parallel()

	recorder := httptest.NewRecorder()
	status.NewHandler(nil).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestHandlerReportsLivePool(t *testing.T) {
	t.Parallel()

	pool, err := stress.NewPool(2)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	status.NewHandler(pool).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var snapshot status.Snapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &snapshot))

	assert.Equal(t, 2, snapshot.Workers)
	assert.Zero(t, snapshot.Live)
	assert.Equal(t, "created", snapshot.Items[0].State)
}
