package stress

import (
	"errors"
	"fmt"
	"strings"
)

// State captures where a worker is in its lifecycle.
type State int32

const (
	// StateCreated is the initial state before Start.
	StateCreated State = iota
	// StateRunning covers the wait/compute cycle.
	StateRunning
	// StateShuttingDown is entered once shutdown has been requested.
	StateShuttingDown
	// StateTerminated is reported after the worker's thread has exited.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// LoadMode selects how a worker schedules benchmark evaluations.
type LoadMode int

const (
	// LoadContinuous re-evaluates the benchmark back-to-back until shutdown.
	LoadContinuous LoadMode = iota
	// LoadOnWake parks on the condition variable and evaluates the benchmark
	// once per wake-up.
	LoadOnWake
)

const (
	loadModeContinuous = "continuous"
	loadModeOnWake     = "on-wake"
)

var errUnknownLoadMode = errors.New("stress: unknown load mode")

func (m LoadMode) String() string {
	switch m {
	case LoadContinuous:
		return loadModeContinuous
	case LoadOnWake:
		return loadModeOnWake
	default:
		return "unknown"
	}
}

// ParseLoadMode converts a configuration value into a LoadMode. An empty
// value selects LoadContinuous.
func ParseLoadMode(value string) (LoadMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", loadModeContinuous:
		return LoadContinuous, nil
	case loadModeOnWake:
		return LoadOnWake, nil
	default:
		return LoadContinuous, fmt.Errorf(
			"%w: %q (supported: %s, %s)",
			errUnknownLoadMode,
			value,
			loadModeContinuous,
			loadModeOnWake,
		)
	}
}
