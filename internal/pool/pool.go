// Package pool provides object pooling for message rendering
// Used by iochan to reuse render buffers across writes and reduce GC pressure
package pool

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// Pool provides a generic, type-safe object pool
type Pool[T any] struct {
	pool    sync.Pool
	reset   func(*T) // Optional reset function called before reuse
	accept  func(*T) bool
	maxSize int64
	count   atomic.Int64
}

// NewPool creates a new generic pool with the given factory function
func NewPool[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return factory()
			},
		},
	}
}

// NewPoolWithReset creates a pool with a reset function called before reuse
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Get retrieves an object from the pool or creates a new one
func (p *Pool[T]) Get() *T {
	obj := p.pool.Get().(*T)
	if p.maxSize > 0 && p.count.Load() > 0 {
		p.count.Add(-1)
	}
	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Put returns an object to the pool for reuse. Objects rejected by the
// accept filter or over the size limit are dropped.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	if p.accept != nil && !p.accept(obj) {
		return
	}
	if p.maxSize > 0 {
		if p.count.Load() >= p.maxSize {
			return
		}
		p.count.Add(1)
	}
	p.pool.Put(obj)
}

// SetMaxSize sets the maximum number of idle objects to track (0 = unlimited)
func (p *Pool[T]) SetMaxSize(size int) {
	p.maxSize = int64(size)
}

// Stats returns approximate pool statistics
func (p *Pool[T]) Stats() (idle int64, maxSize int) {
	return p.count.Load(), int(p.maxSize)
}

// maxPooledBuffer keeps one huge message from pinning memory in the pool.
const maxPooledBuffer = 64 << 10

var buffers = func() *Pool[bytes.Buffer] {
	p := NewPoolWithReset(
		func() *bytes.Buffer {
			b := new(bytes.Buffer)
			b.Grow(256)
			return b
		},
		func(b *bytes.Buffer) { b.Reset() },
	)
	p.accept = func(b *bytes.Buffer) bool { return b.Cap() <= maxPooledBuffer }
	return p
}()

// GetBuffer retrieves an empty render buffer
func GetBuffer() *bytes.Buffer {
	return buffers.Get()
}

// PutBuffer returns a render buffer to the shared pool
func PutBuffer(b *bytes.Buffer) {
	buffers.Put(b)
}
