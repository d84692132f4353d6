// Package pool provides typed object pools for zero-allocation query
// iteration. Uses sync.Pool for automatic memory reuse.
package pool

import "sync"

// DefaultBondCapacity is the initial capacity of pooled bond buffers,
// sized for typical per-query neighbor counts.
const DefaultBondCapacity = 64

// Slice is a typed pool of reusable slices.
type Slice[T any] struct {
	p sync.Pool
}

// NewSlice creates a slice pool whose buffers start with the given capacity.
func NewSlice[T any](capacity int) *Slice[T] {
	return &Slice[T]{
		p: sync.Pool{
			New: func() any {
				s := make([]T, 0, capacity)
				return &s
			},
		},
	}
}

// Get retrieves an empty buffer from the pool.
func (sp *Slice[T]) Get() *[]T {
	buf := sp.p.Get().(*[]T)
	*buf = (*buf)[:0]
	return buf
}

// Put returns a buffer to the pool for reuse.
func (sp *Slice[T]) Put(buf *[]T) {
	sp.p.Put(buf)
}
