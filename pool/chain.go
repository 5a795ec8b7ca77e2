package pool

import "sync/atomic"

// chainNode links one RingPool into a PoolChain. Both fields are atomic
// pointers so the chain can be traversed lock-free while addPool appends a
// new tail.
type chainNode[T any] struct {
	pool atomic.Pointer[RingPool[T]]
	next atomic.Pointer[chainNode[T]]
}

// PoolChain is a growable, lock-free linked list of RingPools. It starts
// with one pool and appends another whenever Pop finds every existing pool
// empty, so a consumer never has to block waiting for the producer to
// catch up. Growth only ever happens inside Pop, on the consumer side, so
// no two goroutines race to append: addPool is single-writer by
// construction, not by locking.
type PoolChain[T any] struct {
	head atomic.Pointer[chainNode[T]]
	tail atomic.Pointer[chainNode[T]]

	factory func() *RingPool[T]
}

// NewPoolChain constructs a chain with one full-mode RingPool of the given
// logical queue_size, rounded up to the next power of two. alignment,
// dynamic, and newValue are forwarded to every pool the chain ever builds
// (the initial one and every one addPool appends later), the same way the
// original forwards its variadic buffer_args to every RingPool it
// constructs.
func NewPoolChain[T any](queueSize int, alignment int, dynamic bool, newValue func() T) *PoolChain[T] {
	qs := int(nextPowerOfTwo(queueSize))

	pc := &PoolChain[T]{
		factory: func() *RingPool[T] {
			return NewRingPool[T](false, qs, alignment, dynamic, newValue)
		},
	}

	node := &chainNode[T]{}
	node.pool.Store(pc.factory())
	pc.head.Store(node)
	pc.tail.Store(node)
	return pc
}

func (pc *PoolChain[T]) addPool() {
	node := &chainNode[T]{}
	node.pool.Store(pc.factory())

	tail := pc.tail.Load()
	tail.next.Store(node)
	pc.tail.Store(node)
}

// Push walks the chain from head to tail and hands the buffer to the
// first pool with free space. Returns false if every pool is full.
func (pc *PoolChain[T]) Push(buffer *Buffer[T]) bool {
	for current := pc.head.Load(); current != nil; current = current.next.Load() {
		if current.pool.Load().Push(buffer) {
			return true
		}
	}
	return false
}

// Pop walks the chain from head to tail looking for a pool with an
// available buffer. If none has one, Pop grows the chain with a fresh pool
// and pops from that.
func (pc *PoolChain[T]) Pop() *Buffer[T] {
	for current := pc.head.Load(); current != nil; current = current.next.Load() {
		if buf := current.pool.Load().Pop(); buf != nil {
			return buf
		}
	}

	pc.addPool()
	return pc.tail.Load().pool.Load().Pop()
}

// Close releases every pool in the chain. Not safe to call concurrently
// with Push/Pop/addPool; it assumes exclusive access, mirroring the
// original implementation's destructor.
func (pc *PoolChain[T]) Close() {
	for current := pc.head.Load(); current != nil; {
		next := current.next.Load()
		if pool := current.pool.Load(); pool != nil {
			pool.Close()
		}
		current = next
	}
	pc.head.Store(nil)
	pc.tail.Store(nil)
}
