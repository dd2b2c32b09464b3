//go:build linux

package stress

import "golang.org/x/sys/unix"

// currentThreadID reports the kernel thread id of the calling goroutine's thread.
// Callers must hold runtime.LockOSThread for the value to stay meaningful.
func currentThreadID() int {
	return unix.Gettid()
}
