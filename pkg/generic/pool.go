package generic

import "sync"

type Pool[T any] struct {
	pool sync.Pool
}

func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

func NewHotPool[T any](generate func() T, hotSize int) *Pool[T] {
	p := NewPool[T](generate)
	for i := 0; i < hotSize; i++ {
		p.pool.Put(generate())
	}
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// SlicePool recycles backing arrays for variable length buffers.
// Buffers are handed out as pointers so Put does not allocate.
type SlicePool[T any] struct {
	pool *Pool[*[]T]
	// maxCap bounds what is returned to the pool; larger buffers are dropped.
	maxCap int
}

// NewSlicePool builds a pool whose fresh buffers have initialCap capacity.
// warm buffers are allocated up front.
func NewSlicePool[T any](initialCap, maxCap, warm int) *SlicePool[T] {
	return &SlicePool[T]{
		pool: NewHotPool(func() *[]T {
			buf := make([]T, 0, initialCap)
			return &buf
		}, warm),
		maxCap: maxCap,
	}
}

// Get returns a zeroed buffer of length n.
func (p *SlicePool[T]) Get(n int) *[]T {
	buf := p.pool.Get()
	if cap(*buf) < n {
		*buf = make([]T, n)
		return buf
	}
	*buf = (*buf)[:n]
	clear(*buf)
	return buf
}

func (p *SlicePool[T]) Put(buf *[]T) {
	if buf == nil || (p.maxCap > 0 && cap(*buf) > p.maxCap) {
		return
	}
	*buf = (*buf)[:0]
	p.pool.Put(buf)
}
