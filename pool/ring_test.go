package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]uint64{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 8: 8, 9: 16}
	for in, want := range cases {
		require.Equal(t, want, nextPowerOfTwo(in))
	}
}

func TestRingPoolFullModeStartsPreAllocated(t *testing.T) {
	rp := NewRingPool[int](false, 4, 0, true, nil)
	defer rp.Close()

	require.True(t, rp.IsValid())
	require.EqualValues(t, 4, rp.QueueSize())
	require.EqualValues(t, 3, rp.CurrentSize())
}

func TestRingPoolFullModeForwardsInitialValue(t *testing.T) {
	rp := NewRingPool[int](false, 4, 0, true, func() int { return 10 })
	defer rp.Close()

	for i := 0; i < 3; i++ {
		b := rp.Pop()
		require.NotNil(t, b)
		require.Equal(t, 10, *b.Value())
	}
}

func TestRingPoolFullModeInlineForwardsInitialValue(t *testing.T) {
	rp := NewRingPool[int](false, 4, 0, false, func() int { return 7 })
	defer rp.Close()

	b := rp.Pop()
	require.NotNil(t, b)
	require.Equal(t, 7, *b.Value())
}

func TestRingPoolEmptyModeStartsEmpty(t *testing.T) {
	rp := NewRingPool[int](true, 4, 0, true, nil)
	defer rp.Close()

	require.True(t, rp.IsValid())
	require.EqualValues(t, 0, rp.CurrentSize())
}

func TestRingPoolPushPopPreservesOrder(t *testing.T) {
	rp := NewRingPool[int](true, 4, 0, true, nil)
	defer rp.Close()

	b1 := NewInlineBuffer(1)
	b2 := NewInlineBuffer(2)
	b3 := NewInlineBuffer(3)

	require.True(t, rp.Push(b1))
	require.True(t, rp.Push(b2))
	require.True(t, rp.Push(b3))

	require.Equal(t, b1, rp.Pop())
	require.Equal(t, b2, rp.Pop())
	require.Equal(t, b3, rp.Pop())
	require.Nil(t, rp.Pop())
}

func TestRingPoolPushFailsWhenFull(t *testing.T) {
	rp := NewRingPool[int](true, 2, 0, true, nil)
	defer rp.Close()

	require.True(t, rp.Push(NewInlineBuffer(1)))
	require.False(t, rp.Push(NewInlineBuffer(2)), "waste-one-slot ring of size 2 holds only 1 buffer")
}

func TestRingPoolPushNilReturnsFalse(t *testing.T) {
	rp := NewRingPool[int](true, 4, 0, true, nil)
	defer rp.Close()
	require.False(t, rp.Push(nil))
}

func TestRingPoolUsableCapacityIsQueueSizeMinusOne(t *testing.T) {
	rp := NewRingPool[int](true, 8, 0, true, nil)
	defer rp.Close()

	for i := 0; i < 7; i++ {
		require.True(t, rp.Push(NewInlineBuffer(i)), "push %d", i)
	}
	require.False(t, rp.Push(NewInlineBuffer(99)))
}

func TestRingPoolCloseReleasesOwnedBuffers(t *testing.T) {
	rp := NewRingPool[int](false, 4, 0, true, nil)
	require.EqualValues(t, 3, rp.CurrentSize())
	owned := append([]*Buffer[int](nil), rp.queue[:3]...)

	rp.Close()
	require.False(t, rp.IsValid())
	for _, b := range owned {
		require.Nil(t, b.Value(), "full-mode ring must release the buffers it owns")
	}
}

func TestRingPoolCloseLeavesEmptyModeBuffersUntouched(t *testing.T) {
	rp := NewRingPool[int](true, 4, 0, true, nil)

	b := NewBuffer[int](0, nil)
	rp.Push(b)
	require.EqualValues(t, 1, rp.CurrentSize())

	rp.Close()
	require.NotNil(t, b.Value(), "empty-mode ring must not release buffers it does not own")
	b.Release()
}

func TestRingPoolFullModeInitFailureLeavesInvalidEmptyPool(t *testing.T) {
	// A builder that always returns nil simulates the allocation-failure
	// path the original's allocBuffers checks for on every slot.
	rp := newRingPoolWithBuilder[int](4, func() *Buffer[int] { return nil })
	require.False(t, rp.IsValid())
	require.EqualValues(t, 0, rp.QueueSize())
	require.Nil(t, rp.Pop())
}

// newRingPoolWithBuilder constructs a full-mode ring pool whose buffer
// builder is entirely controlled by the caller, letting tests simulate an
// allocation failure without depending on actually exhausting memory.
func newRingPoolWithBuilder[T any](queueSize int, build func() *Buffer[T]) *RingPool[T] {
	qs := nextPowerOfTwo(queueSize)
	if qs < 2 {
		qs = 2
	}
	rp := &RingPool[T]{
		queue:     make([]*Buffer[T], qs),
		queueSize: qs,
		mask:      qs - 1,
	}
	rp.writeIndex.v.Store(qs - 1)

	for i := uint64(0); i < rp.queueSize-1; i++ {
		buf := build()
		if buf == nil {
			rp.cleanup()
			return rp
		}
		rp.queue[i] = buf
	}
	rp.valid = true
	return rp
}

// TestRingPoolConcurrentProducerConsumerPreservesOrder runs a single
// producer and single consumer on separate goroutines, the SPSC usage the
// ring documents (Push by the producer only, Pop by the consumer only). Run with
// -race to exercise the happens-before edge between a slot's write and
// its read.
func TestRingPoolConcurrentProducerConsumerPreservesOrder(t *testing.T) {
	const n = 1000
	rp := NewRingPool[int](true, 64, 0, true, nil)
	defer rp.Close()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			b := NewInlineBuffer(i)
			for !rp.Push(b) {
				// ring momentarily full; spin until the consumer drains it
			}
		}
	}()

	got := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(got) < n {
			b := rp.Pop()
			if b == nil {
				continue
			}
			got = append(got, *b.Value())
		}
	}()

	wg.Wait()

	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	require.Equal(t, want, got)
}
