// Package registry implements the Connection Registry: the authoritative,
// single-mutex map from connection handle to the stream it owns. It is the
// sole place a handle's liveness is decided — everything else (the
// dispatcher, the send path) asks the registry rather than keeping its own
// notion of "is this connection still open".
package registry

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/misaka00251/sherpa/internal/metrics"
	"github.com/misaka00251/sherpa/internal/recognizer"
)

// Handle is an opaque, hashable, copy-cheap session identifier minted on
// accept and invalidated the instant OnClose returns.
type Handle = uuid.UUID

// Sender forwards a text frame to a specific handle. It is implemented by
// the WebSocket front-end and must only be invoked from, or posted to, that
// connection's dedicated send loop (the Connection Executor).
type Sender interface {
	SendText(h Handle, text string) error
}

// entry pairs a Stream with the Sender used to reach its connection. Go's
// GC is the reference count: the registry, any queued dispatcher entry, and
// any in-flight decode closure each hold their own reference to stream, and
// it is reclaimed only once all three have let go — OnClose merely drops
// the registry's share.
type entry struct {
	stream recognizer.Stream
	sender Sender
}

// Registry maps Handle -> Stream under a single mutex, per the
// specification's registry-lock invariant.
type Registry struct {
	mu      sync.Mutex
	entries map[Handle]*entry
	log     *zap.Logger
}

// New builds an empty Registry.
func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{entries: make(map[Handle]*entry), log: log}
}

// OnOpen creates a new Stream via the recognizer, inserts (H, S) under the
// registry lock, and returns both the handle and the stream for the caller
// to start feeding audio into.
func (r *Registry) OnOpen(rec recognizer.Recognizer, sender Sender) (Handle, recognizer.Stream, error) {
	stream, err := rec.CreateStream()
	if err != nil {
		return Handle{}, nil, err
	}
	h := uuid.New()

	r.mu.Lock()
	r.entries[h] = &entry{stream: stream, sender: sender}
	active := len(r.entries)
	r.mu.Unlock()

	metrics.ActiveConnections.Set(float64(active))
	r.log.Info("connection opened", zap.String("handle", h.String()), zap.Int("active_connections", active))
	return h, stream, nil
}

// OnClose removes H under the registry lock. Any reference the dispatcher
// holds on the stream remains valid — it was taken out of the map, not
// destroyed — but further Send calls to H become no-ops.
func (r *Registry) OnClose(h Handle) {
	r.mu.Lock()
	_, ok := r.entries[h]
	delete(r.entries, h)
	active := len(r.entries)
	r.mu.Unlock()

	if ok {
		metrics.ActiveConnections.Set(float64(active))
		r.log.Info("connection closed", zap.String("handle", h.String()), zap.Int("active_connections", active))
	}
}

// Contains reports whether h is still an open connection.
func (r *Registry) Contains(h Handle) bool {
	r.mu.Lock()
	_, ok := r.entries[h]
	r.mu.Unlock()
	return ok
}

// Send forwards text to h's connection iff it is still open. Transport
// errors are logged, never propagated — callers cannot distinguish "no
// such connection" from "send failed", by design: both are terminal for
// this one message and nothing else.
func (r *Registry) Send(h Handle, text string) {
	r.mu.Lock()
	e, ok := r.entries[h]
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := e.sender.SendText(h, text); err != nil {
		r.log.Warn("send failed", zap.String("handle", h.String()), zap.Error(err))
	}
}

// Len reports the number of open connections, for metrics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
