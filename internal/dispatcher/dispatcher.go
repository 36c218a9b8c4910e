// Package dispatcher implements the Decoder Dispatcher: the ready-queue of
// (handle, stream) pairs and the active-set that prevents a stream from
// ever being decoded twice at once. It is the component that turns "many
// connections, one recognizer" into fair, at-most-one-in-flight-per-stream
// forward progress.
package dispatcher

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/misaka00251/sherpa/api"
	"github.com/misaka00251/sherpa/internal/metrics"
	"github.com/misaka00251/sherpa/internal/recognizer"
	"github.com/misaka00251/sherpa/internal/registry"
)

// item is one (handle, stream) pair awaiting a decode step.
type item struct {
	handle registry.Handle
	stream recognizer.Stream
}

// Dispatcher owns the ready queue and active set described in §4.2 of the
// specification. Registry and dispatcher locks are never held at once.
//
// Sends are posted by calling Registry.Send directly from the Compute
// Executor goroutine running Decode: Registry.Send hands the actual write
// to the target connection's own single-worker send loop (its Connection
// Executor) and returns immediately, so the decode goroutine never blocks
// on I/O and per-handle ordering is preserved without a second shared
// executor in between.
type Dispatcher struct {
	mu       sync.Mutex
	queue    *queue.Queue
	active   map[recognizer.Stream]struct{}
	maxQueue int // 0 = unbounded
	rec      recognizer.Recognizer
	reg      *registry.Registry
	compute  api.Executor
	log      *zap.Logger
}

// Config controls the dispatcher's backpressure policy.
type Config struct {
	MaxQueueDepth int // high-water mark; 0 disables the limit
}

// New builds a Dispatcher bound to a recognizer, registry, and the shared
// Compute Executor that Decode steps run on.
func New(rec recognizer.Recognizer, reg *registry.Registry, compute api.Executor, cfg Config, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		queue:    queue.New(),
		active:   make(map[recognizer.Stream]struct{}),
		maxQueue: cfg.MaxQueueDepth,
		rec:      rec,
		reg:      reg,
		compute:  compute,
		log:      log,
	}
}

// Push is an idempotent enqueue: if stream is already in the active set this
// is a no-op, otherwise it is appended to the tail of the ready queue and
// marked active. Exceeding the configured high-water mark drops the push
// (logged) instead of growing the queue further.
func (d *Dispatcher) Push(h registry.Handle, s recognizer.Stream) {
	d.mu.Lock()
	if _, ok := d.active[s]; ok {
		d.mu.Unlock()
		return
	}
	if d.maxQueue > 0 && d.queue.Length() >= d.maxQueue {
		d.mu.Unlock()
		d.log.Warn("ready queue at high-water mark, dropping push", zap.String("handle", h.String()), zap.Int("depth", d.maxQueue))
		return
	}
	d.queue.Add(item{handle: h, stream: s})
	d.active[s] = struct{}{}
	depth := d.queue.Length()
	d.mu.Unlock()

	metrics.ReadyQueueDepth.Set(float64(depth))
	metrics.ActiveSetSize.Set(float64(d.activeLen()))
}

func (d *Dispatcher) activeLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.active)
}

// PostDecode submits one Decode task to the Compute Executor. It never runs
// Decode inline.
func (d *Dispatcher) PostDecode() {
	_ = d.compute.Submit(d.Decode)
}

// Decode is one work unit: pop the head of the ready queue, run a blocking
// decode step, post the resulting hypothesis, then decide whether to
// re-enqueue the stream or retire it from the active set.
func (d *Dispatcher) Decode() {
	d.mu.Lock()
	if d.queue.Length() == 0 {
		d.mu.Unlock()
		return
	}
	raw := d.queue.Peek()
	d.queue.Remove()
	it := raw.(item)
	depth := d.queue.Length()
	d.mu.Unlock()
	metrics.ReadyQueueDepth.Set(float64(depth))

	start := time.Now()
	err := d.rec.DecodeStream(it.stream)
	metrics.DecodeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		d.log.Error("decode step failed", zap.String("handle", it.handle.String()), zap.Error(err))
		d.postErr(it.handle, err)
		d.retire(it.stream)
		return
	}

	if result, rerr := d.rec.Result(it.stream); rerr == nil {
		if text, jerr := result.AsJSON(); jerr == nil {
			d.postSend(it.handle, text)
		}
	}

	stillOpen := d.reg.Contains(it.handle)
	d.mu.Lock()
	ready := d.rec.IsReady(it.stream)
	if stillOpen && ready {
		d.queue.Add(it)
		depth = d.queue.Length()
		d.mu.Unlock()
		metrics.ReadyQueueDepth.Set(float64(depth))
		d.PostDecode()
		return
	}
	delete(d.active, it.stream)
	activeLen := len(d.active)
	d.mu.Unlock()
	metrics.ActiveSetSize.Set(float64(activeLen))

	if it.stream.IsLastFrame(it.stream.NumFramesReady() - 1) {
		d.postSend(it.handle, "Done")
	}
}

func (d *Dispatcher) retire(s recognizer.Stream) {
	d.mu.Lock()
	delete(d.active, s)
	activeLen := len(d.active)
	d.mu.Unlock()
	metrics.ActiveSetSize.Set(float64(activeLen))
}

// postSend hands a hypothesis to the registry for delivery. Registry.Send
// resolves h to its Sender and calls SendText, which the wsserver
// implementation posts to that connection's own single-worker send loop —
// so the actual write never runs on this (Compute Executor) goroutine and
// never races another send for the same handle.
func (d *Dispatcher) postSend(h registry.Handle, text string) {
	d.reg.Send(h, text)
}

func (d *Dispatcher) postErr(h registry.Handle, err error) {
	payload, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
	d.postSend(h, string(payload))
}
