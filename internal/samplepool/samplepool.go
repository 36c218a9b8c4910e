// Package samplepool reduces allocation churn from copying binary audio
// payloads into stream-owned storage: a single sync.Pool of float32
// slices, not the NUMA-aware buffer machinery this server's domain has no
// use for.
package samplepool

import "sync"

// Pool hands out []float32 buffers of the requested length and
// accepts them back for reuse. It is safe for concurrent use.
type Pool struct {
	pool sync.Pool
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{
		pool: sync.Pool{New: func() any { return make([]float32, 0) }},
	}
}

// Get returns a []float32 of length n, reused from the pool when a
// sufficiently large backing array is available.
func (p *Pool) Get(n int) []float32 {
	buf := p.pool.Get().([]float32)
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}

// Put returns buf to the pool for reuse. Callers must not touch buf again
// after calling Put.
func (p *Pool) Put(buf []float32) {
	p.pool.Put(buf[:0])
}
