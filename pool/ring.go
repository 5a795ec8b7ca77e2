package pool

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// paddedCounter isolates a single atomic counter on its own cache line so
// the producer writing writeIndex and the consumer writing readIndex never
// invalidate each other's line.
type paddedCounter struct {
	_ cpu.CacheLinePad
	v atomic.Uint64
	_ cpu.CacheLinePad
}

// RingPool is a lock-free, waste-one-slot SPSC ring of *Buffer[T]
// pointers. One physical slot is always left empty so full and empty
// states can be told apart without a shared flag; usable capacity is
// QueueSize()-1.
//
// In "full" mode (empty == false at construction) the pool pre-allocates
// QueueSize()-1 buffers and owns them for its lifetime. In "empty" mode
// the pool starts with no buffers; the caller pushes buffers it owns and
// Close never frees them.
//
// writeIndex must only be written by the producer, readIndex only by the
// consumer. All other fields are read-only after construction.
type RingPool[T any] struct {
	writeIndex paddedCounter
	readIndex  paddedCounter

	queue      []*Buffer[T]
	queueSize  uint64
	mask       uint64
	valid      bool
	emptyQueue bool
}

func nextPowerOfTwo(n int) uint64 {
	if n <= 1 {
		return 1
	}
	v := uint64(n) - 1
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return v + 1
}

// NewRingPool constructs a RingPool of the given logical queue_size,
// rounded up to the next power of two. When empty is false, the pool
// pre-allocates its buffers: dynamic selects a heap-allocated, alignment-
// respecting Buffer (NewBuffer) per slot, otherwise each slot stores its T
// inline (NewInlineBuffer). newValue, if non-nil, is called once per slot
// to construct that slot's T; it is the Go substitute for the original's
// variadic buffer_args forwarded to every Buffer constructor call. When
// empty is true the pool starts with no buffers and the caller is expected
// to Push its own.
//
// If a buffer allocation fails partway through full-mode construction,
// the pool releases whatever it already built and returns with
// IsValid() == false, mirroring the original's allocBuffers/cleanup
// behavior on partial failure.
func NewRingPool[T any](empty bool, queueSize int, alignment int, dynamic bool, newValue func() T) *RingPool[T] {
	qs := nextPowerOfTwo(queueSize)
	if qs < 2 {
		qs = 2
	}

	rp := &RingPool[T]{
		queue:     make([]*Buffer[T], qs),
		queueSize: qs,
		mask:      qs - 1,
	}

	if empty {
		rp.valid = true
		rp.emptyQueue = true
		rp.writeIndex.v.Store(0)
		return rp
	}

	rp.writeIndex.v.Store(qs - 1)
	rp.allocBuffers(alignment, dynamic, newValue)
	return rp
}

func (rp *RingPool[T]) allocBuffers(alignment int, dynamic bool, newValue func() T) {
	for i := uint64(0); i < rp.queueSize-1; i++ {
		var buf *Buffer[T]
		if dynamic {
			buf = NewBuffer[T](alignment, newValue)
		} else {
			buf = newInlineBuffer(newValue)
		}
		if buf == nil {
			rp.cleanup()
			return
		}
		rp.queue[i] = buf
	}
	rp.valid = true
}

func newInlineBuffer[T any](newValue func() T) *Buffer[T] {
	var v T
	if newValue != nil {
		v = newValue()
	}
	return NewInlineBuffer(v)
}

// IsValid reports whether the pool finished construction successfully.
func (rp *RingPool[T]) IsValid() bool {
	return rp.valid
}

func (rp *RingPool[T]) getAvailableBuffers(currentWrite, currentRead uint64) uint64 {
	return (currentWrite - currentRead) & rp.mask
}

func (rp *RingPool[T]) getFreeSpace(currentWrite uint64) uint64 {
	currentRead := rp.readIndex.v.Load()
	return rp.queueSize - rp.getAvailableBuffers(currentWrite, currentRead) - 1
}

// Push hands a buffer to the ring. Must only be called by the producer.
// Returns false if the ring is full or buffer is nil.
func (rp *RingPool[T]) Push(buffer *Buffer[T]) bool {
	if buffer == nil {
		return false
	}

	currentWrite := rp.writeIndex.v.Load()
	if rp.getFreeSpace(currentWrite) == 0 {
		return false
	}

	rp.queue[currentWrite] = buffer
	rp.writeIndex.v.Store((currentWrite + 1) & rp.mask)
	return true
}

// Pop takes a buffer from the ring. Must only be called by the consumer.
// Returns nil if the ring is currently empty.
func (rp *RingPool[T]) Pop() *Buffer[T] {
	currentWrite := rp.writeIndex.v.Load()
	currentRead := rp.readIndex.v.Load()

	if rp.getAvailableBuffers(currentWrite, currentRead) == 0 {
		return nil
	}

	buffer := rp.queue[currentRead]
	rp.queue[currentRead] = nil
	rp.readIndex.v.Store((currentRead + 1) & rp.mask)
	return buffer
}

// QueueSize returns the ring's total capacity, including the always-empty
// slot.
func (rp *RingPool[T]) QueueSize() uint64 {
	return rp.queueSize
}

// CurrentSize returns the number of buffers currently available for Pop.
func (rp *RingPool[T]) CurrentSize() uint64 {
	currentRead := rp.readIndex.v.Load()
	currentWrite := rp.writeIndex.v.Load()
	return rp.getAvailableBuffers(currentWrite, currentRead)
}

// Close releases every buffer still held by the ring, if the ring owns
// them (full mode). In empty mode the caller owns the buffers and Close
// leaves them untouched; the caller is responsible for reclaiming them
// through whatever handoff protocol pushed them in.
func (rp *RingPool[T]) Close() {
	rp.cleanup()
}

func (rp *RingPool[T]) cleanup() {
	if !rp.emptyQueue {
		for i, buf := range rp.queue {
			if buf != nil {
				buf.Release()
				rp.queue[i] = nil
			}
		}
	}
	rp.valid = false
	rp.writeIndex.v.Store(0)
	rp.readIndex.v.Store(0)
	rp.queueSize = 0
	rp.mask = 0
	rp.queue = nil
}
