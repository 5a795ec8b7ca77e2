// Package memsentry implements a debug-oriented memory tracking substrate for
// systems code written in Go.
//
// # Overview
//
// Every tracked allocation is tagged with an owning [Arena]: a named
// accounting bucket that keeps a running byte total, a monotonic allocation
// id, and an intrusive list of its live blocks. Arenas can be wired into a
// directed graph ([Connect], [Arena.AddNeighbour]) so that diagnostics can
// ask for the total memory of every arena reachable from a given arena
// along those directed edges, cycles included.
//
// # Basic Usage
//
//	a := memsentry.NewArena("requests")
//
//	p := memsentry.New[MyStruct](a)
//	memsentry.Delete(p)
//
//	fmt.Println(a.Count(), a.TotalBytes())
//
// # Tracking Discipline
//
// Unlike a bump allocator, every block returned by [Allocate] or [New] is
// individually freed with [Deallocate] or [Delete]. Each block has a header
// recovered at delete time through a process-wide lookup table keyed by the
// user pointer (see Deallocate), not by subtracting a fixed offset from it:
// Go's garbage collector does not scan memory it classifies as pointerless,
// so an intrusive list built by hiding real pointers inside a manually laid
// out []byte would risk collecting live nodes out from under itself. The
// header carries an integrity signature and the payload is followed by a
// 4-byte footer sentinel; both are checked at delete time to catch
// double-frees, wild pointers, and buffer overruns.
//
// # Thread Safety
//
// Arena accounting is protected by the arena's own lock; hierarchical graph
// queries are protected by one process-wide topology lock, always acquired
// before any arena's list lock, never the other way around.
//
// # Scope
//
// This package does not implement a general-purpose allocator: there is no
// free-list, no slab reuse, and no fragmentation management. Tracked blocks
// are backed directly by the Go runtime's own allocator; memsentry only adds
// bookkeeping on top of it.
package memsentry
