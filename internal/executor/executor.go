// Package executor implements the generic task-queue primitive that both the
// Connection Executor and the Compute Executor are built from: a mutex-guarded
// FIFO of closures drained by a fixed pool of worker goroutines.
//
// "Post a task to executor E" always means Submit — scheduling happens,
// execution never runs inline on the caller's goroutine.
package executor

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/misaka00251/sherpa/api"
)

// Task is a unit of work submitted to an Executor. It is an alias, not a
// defined type: Go requires a method's parameter type to be identical (not
// merely assignable) to satisfy an interface, and a defined type is never
// identical to the unnamed type it is built from. Aliasing Task to func()
// keeps Submit's signature literally identical to api.Executor's.
type Task = func()

var _ api.Executor = (*Executor)(nil)

// Executor is a FIFO task queue drained by a fixed worker pool.
type Executor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   *queue.Queue
	closed  bool
	stop    chan struct{}
	wg      sync.WaitGroup
	workers int
}

// New starts an Executor with numWorkers goroutines draining a shared FIFO.
// numWorkers must be >= 1.
func New(numWorkers int) *Executor {
	if numWorkers < 1 {
		numWorkers = 1
	}
	e := &Executor{
		queue: queue.New(),
		stop:  make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	e.spawn(numWorkers)
	return e
}

// NewPinned is New plus a best-effort CPU affinity assignment: worker i is
// pinned to cpus[i] via pin. All numWorkers workers are started whatever
// len(cpus) is; workers beyond len(cpus) run unpinned. A
// pinning failure is logged by the caller through onPinError and never
// prevents the worker from running.
func NewPinned(numWorkers int, cpus []int, pin func(cpuID int) error, onPinError func(cpuID int, err error)) *Executor {
	if numWorkers < 1 {
		numWorkers = 1
	}
	e := &Executor{
		queue: queue.New(),
		stop:  make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)

	for i := 0; i < numWorkers; i++ {
		cpuID := -1
		if i < len(cpus) {
			cpuID = cpus[i]
		}
		e.wg.Add(1)
		e.workers++
		go func(cpuID int) {
			if cpuID >= 0 && pin != nil {
				if err := pin(cpuID); err != nil && onPinError != nil {
					onPinError(cpuID, err)
				}
			}
			e.run()
		}(cpuID)
	}
	return e
}

func (e *Executor) spawn(n int) {
	for i := 0; i < n; i++ {
		e.wg.Add(1)
		e.workers++
		go e.run()
	}
}

// Submit enqueues task for execution by one of the worker goroutines.
// It never runs task on the calling goroutine.
func (e *Executor) Submit(task Task) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return api.ErrExecutorClosed
	}
	e.queue.Add(task)
	e.mu.Unlock()
	e.cond.Signal()
	return nil
}

// NumWorkers reports the current worker count.
func (e *Executor) NumWorkers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workers
}

// Resize grows the worker pool to newCount. Shrinking is not supported —
// idle workers exit only on Close, matching the executor's fire-and-forget
// task model.
func (e *Executor) Resize(newCount int) {
	e.mu.Lock()
	delta := newCount - e.workers
	e.mu.Unlock()
	if delta > 0 {
		e.spawn(delta)
	}
}

// Close stops accepting new tasks and waits for in-flight tasks to finish
// draining the queue before returning.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()
	close(e.stop)
	e.cond.Broadcast()
	e.wg.Wait()
}

func (e *Executor) run() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for e.queue.Length() == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.queue.Length() == 0 && e.closed {
			e.mu.Unlock()
			return
		}
		item := e.queue.Remove()
		e.mu.Unlock()

		if task, ok := item.(Task); ok {
			task()
		}
	}
}
