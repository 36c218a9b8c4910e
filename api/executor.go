// Package api defines the small, implementation-independent contracts
// shared across the dispatch core: the Executor interface satisfied by
// both the per-connection Connection Executor and the shared Compute
// Executor, and the sentinel errors in errors.go.

package api

// Executor is a FIFO task queue drained by one or more worker goroutines.
// The Connection Executor (one single-worker Executor per connection,
// serializing that connection's frame writes) and the Compute Executor
// (one shared, multi-worker Executor running recognizer decode steps)
// are both built on this contract.
type Executor interface {
	// Submit schedules task for execution on a worker goroutine. It never
	// runs task on the calling goroutine.
	Submit(task func()) error

	// NumWorkers returns current number of active worker routines.
	NumWorkers() int

	// Resize adjusts the worker pool toward newCount; whether shrinking is
	// supported is implementation-defined.
	Resize(newCount int)
}
