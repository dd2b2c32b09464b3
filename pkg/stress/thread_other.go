//go:build !linux

package stress

import "sync/atomic"

var threadSequence atomic.Int64 //nolint:gochecknoglobals // process-wide id source

// currentThreadID hands out a process-unique identifier where no portable
// kernel thread id is available.
func currentThreadID() int {
	return int(threadSequence.Add(1))
}
