// Package cpustat samples host CPU utilisation while a stress run is active.
package cpustat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultInterval is used when a zero or negative interval is supplied.
const DefaultInterval = time.Second

// DefaultPath is the kernel file read by FileSource.
const DefaultPath = "/proc/stat"

const (
	minimumCPUFields = 5
	idleFieldIndex   = 3
	ioWaitFieldIndex = 4
)

var (
	ErrSamplerAlreadyStarted = errors.New("cpustat: sampler already started")
	ErrUnexpectedFormat      = errors.New("cpustat: unexpected stat format")
	ErrCPULineTooShort       = errors.New("cpustat: cpu line too short")
)

// Counters holds cumulative idle and total jiffies.
type Counters struct {
	Idle  uint64
	Total uint64
}

// Source returns cumulative CPU counters.
type Source interface {
	Counters(ctx context.Context) (Counters, error)
}

// FileSource reads the aggregate "cpu" line of a /proc/stat style file.
type FileSource struct {
	Path string
}

// Counters implements Source.
func (f FileSource) Counters(ctx context.Context) (Counters, error) {
	err := ctx.Err()
	if err != nil {
		return Counters{}, fmt.Errorf("file source context: %w", err)
	}

	path := f.Path
	if path == "" {
		path = DefaultPath
	}

	file, err := os.Open(path)
	if err != nil {
		return Counters{}, fmt.Errorf("open %s: %w", path, err)
	}

	counters, parseErr := parseCPULine(file)
	closeErr := file.Close()

	if parseErr != nil {
		return Counters{}, fmt.Errorf("parse %s: %w", path, parseErr)
	}

	if closeErr != nil {
		return Counters{}, fmt.Errorf("close %s: %w", path, closeErr)
	}

	return counters, nil
}

// Observation is the utilisation measured over one sampling interval.
// Ratio lies in [0,1]. Err is set instead when sampling failed.
type Observation struct {
	At    time.Time
	Ratio float64
	Busy  uint64
	Total uint64
	Err   error
}

// Sampler periodically converts counter deltas into observations.
type Sampler struct {
	source   Source
	interval time.Duration
	now      func() time.Time
	started  atomic.Bool
}

// NewSampler constructs a Sampler. A nil source reads DefaultPath.
func NewSampler(src Source, interval time.Duration) *Sampler {
	if src == nil {
		src = FileSource{Path: DefaultPath}
	}

	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Sampler{source: src, interval: interval, now: time.Now}
}

// Interval reports the sampling interval.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Run samples until ctx is cancelled. The returned channel is closed when
// sampling stops, including after a failed initial read.
func (s *Sampler) Run(ctx context.Context) <-chan Observation {
	observations := make(chan Observation, 1)

	if !s.started.CompareAndSwap(false, true) {
		s.publish(ctx, observations, s.failure(ErrSamplerAlreadyStarted))
		close(observations)

		return observations
	}

	go s.loop(ctx, observations)

	return observations
}

func (s *Sampler) loop(ctx context.Context, observations chan<- Observation) {
	defer close(observations)

	last, err := s.source.Counters(ctx)
	if err != nil {
		s.publish(ctx, observations, s.failure(fmt.Errorf("initial sample: %w", err)))

		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := s.source.Counters(ctx)
			if err != nil {
				if !s.publish(ctx, observations, s.failure(fmt.Errorf("sample: %w", err))) {
					return
				}

				continue
			}

			obs := delta(s.now(), last, current)
			last = current

			if !s.publish(ctx, observations, obs) {
				return
			}
		}
	}
}

func (s *Sampler) failure(err error) Observation {
	return Observation{At: s.now(), Err: err}
}

func (s *Sampler) publish(ctx context.Context, observations chan<- Observation, obs Observation) bool {
	select {
	case observations <- obs:
		return true
	case <-ctx.Done():
		return false
	}
}

func delta(at time.Time, previous, current Counters) Observation {
	obs := Observation{At: at}

	// Wrapped counters yield a zero observation.
	if current.Total < previous.Total || current.Idle < previous.Idle {
		return obs
	}

	total := current.Total - previous.Total
	idle := current.Idle - previous.Idle

	if total == 0 || idle > total {
		return obs
	}

	obs.Total = total
	obs.Busy = total - idle
	obs.Ratio = float64(obs.Busy) / float64(total)

	return obs
}

func parseCPULine(r io.Reader) (Counters, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		err := scanner.Err()
		if err != nil {
			return Counters{}, fmt.Errorf("scan cpu line: %w", err)
		}

		return Counters{}, io.EOF
	}

	line := scanner.Text()
	if !strings.HasPrefix(line, "cpu ") {
		return Counters{}, fmt.Errorf("%w: %q", ErrUnexpectedFormat, line)
	}

	fields := strings.Fields(line)
	if len(fields) < minimumCPUFields {
		return Counters{}, fmt.Errorf("%w: %q", ErrCPULineTooShort, line)
	}

	var counters Counters

	for index, field := range fields[1:] {
		value, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return Counters{}, fmt.Errorf("parse field %d: %w", index+1, err)
		}

		counters.Total += value
		if index == idleFieldIndex || index == ioWaitFieldIndex {
			counters.Idle += value
		}
	}

	return counters, nil
}
