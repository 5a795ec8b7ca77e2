// Package pool implements fixed-capacity, lock-free buffer pools for
// single-producer/single-consumer handoff. It has no dependency on
// memsentry at all: a pool's buffers never appear in any arena's Count()
// or TotalBytes().
//
// A Buffer wraps exactly one T, either heap-allocated with its own
// untracked aligned allocation (NewBuffer) or stored inline with no
// allocation of its own beyond the Buffer struct (NewInlineBuffer). A
// RingPool is a waste-one-slot SPSC ring of *Buffer[T] pointers; it can
// either pre-own a fixed set of buffers ("full" mode) or hold buffers
// pushed in by a caller that owns them ("empty" mode). A PoolChain grows a
// linked list of RingPools on demand so a consumer never blocks on an
// exhausted pool: it just appends another one.
package pool
