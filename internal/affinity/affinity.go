// Package affinity pins Compute Executor worker goroutines to specific
// CPUs when the platform and configuration support it. A pinning failure
// is never fatal: the worker simply runs unpinned.
package affinity

// Pin locks the calling goroutine to its OS thread and attempts to
// restrict that thread to cpuID. err is non-nil only to log; callers must
// not treat it as fatal.
func Pin(cpuID int) error {
	return pin(cpuID)
}
