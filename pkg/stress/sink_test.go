package stress_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"thread-stress/pkg/stress"
)

func TestConsoleSinkRendersProgress(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer

	sink := stress.NewConsoleSink(&buffer)
	sink.Initializing(2)
	sink.WorkerSpawned(0, 101)
	sink.WorkerSpawned(1, 102)
	sink.LoadStarted(2)
	sink.LoadTick(1)
	sink.LoadTick(2)
	sink.LoadFinished(true)
	sink.WorkerShutdown(0, 101)
	sink.WorkerShutdown(1, 102)

	assert.Equal(t,
		"Initializing 2 workers\n"+
			"[Thread 101] spawned\n"+
			"[Thread 102] spawned\n"+
			"Loading 2 seconds..Done\n"+
			"[Thread 101] shutdown\n"+
			"[Thread 102] shutdown\n",
		buffer.String(),
	)
}

func TestConsoleSinkReportsInterruption(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer

	sink := stress.NewConsoleSink(&buffer)
	sink.LoadStarted(5)
	sink.LoadTick(1)
	sink.LoadFinished(false)

	assert.Equal(t, "Loading 5 seconds.Interrupted\n", buffer.String())
}

func TestLogSinkLevels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	sink := stress.NewLogSink(zap.New(core))

	sink.Initializing(3)
	sink.WorkerSpawned(1, 55)
	sink.LoadTick(1)
	sink.LoadFinished(true)

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 4) {
		assert.Equal(t, "initializing workers", entries[0].Message)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, int64(3), entries[0].ContextMap()["workers"])

		assert.Equal(t, "worker spawned", entries[1].Message)
		assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
		assert.Equal(t, int64(55), entries[1].ContextMap()["threadID"])

		assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
		assert.Equal(t, true, entries[3].ContextMap()["completed"])
	}
}

func TestTeeFansOutAndSkipsNil(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer

	sink := stress.Tee(stress.NewConsoleSink(&first), nil, stress.NewConsoleSink(&second), stress.NopSink{})
	sink.Initializing(1)

	assert.Equal(t, "Initializing 1 workers\n", first.String())
	assert.Equal(t, first.String(), second.String())
}

func TestNewLogSinkNilLogger(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		stress.NewLogSink(nil).Initializing(1)
	})
}
