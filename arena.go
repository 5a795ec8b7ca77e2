package memsentry

import (
	"sync"
	"sync/atomic"
)

// maxArenaName is the maximum number of bytes kept from a name passed to
// NewArena; anything past this is truncated, matching the 99-byte limit the
// original implementation truncates Heap names to.
const maxArenaName = 99

// Arena is a named accounting bucket that owns an intrusive list of live
// tracked blocks, a running byte total, and a monotonic allocation id
// counter. Arenas do not own each other: AddNeighbour and Connect only
// link them into a graph for hierarchical reporting (see graph.go).
type Arena struct {
	name string

	mu         sync.Mutex
	head, tail *header
	total      int64

	nextAllocID atomic.Uint64

	reporter Reporter

	// neighbours is only ever read or mutated under the package-level
	// topologyMu (see graph.go), never under mu.
	neighbours []*Arena
}

// NewArena creates a named arena. Names longer than 99 bytes are truncated.
func NewArena(name string) *Arena {
	if len(name) > maxArenaName {
		name = name[:maxArenaName]
	}
	return &Arena{name: name}
}

var (
	defaultArenaOnce sync.Once
	defaultArenaPtr  *Arena
)

// DefaultArena returns the process-wide arena used for any allocation that
// does not name an explicit arena. It is lazily constructed on first use
// and lives for the remainder of the process, so tests that rely on it may
// observe state left behind by earlier tests.
func DefaultArena() *Arena {
	defaultArenaOnce.Do(func() {
		defaultArenaPtr = NewArena("default")
	})
	return defaultArenaPtr
}

func resolveArena(a *Arena) *Arena {
	if a == nil {
		return DefaultArena()
	}
	return a
}

// Name returns the arena's (possibly truncated) name.
func (a *Arena) Name() string {
	return a.name
}

// SetReporter attaches a reporter whose callbacks are invoked on every
// register/unregister/report_range. Callers must not call SetReporter
// concurrently with allocations on this arena.
func (a *Arena) SetReporter(r Reporter) {
	a.reporter = r
}

// nextID returns the next monotonic allocation id for this arena, starting
// at 1.
func (a *Arena) nextID() uint64 {
	return a.nextAllocID.Add(1)
}

// NextID returns the next allocation id for this arena, starting at 1. It
// draws from the same counter that Allocate uses, so each call consumes an
// id.
func (a *Arena) NextID() uint64 {
	return a.nextID()
}

// register links h at the tail of the arena's block list, adds its charged
// bytes to the running total, and notifies the reporter.
func (a *Arena) register(h *header) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total += int64(h.size + h.alignment)

	h.prev = a.tail
	h.next = nil
	if a.tail != nil {
		a.tail.next = h
	} else {
		a.head = h
	}
	a.tail = h

	if a.reporter != nil {
		a.reporter.OnAlloc(h.info())
	}
}

// unregister unlinks h from the arena's block list, subtracts its charged
// bytes from the running total, and notifies the reporter. If h cannot be
// found in the list this logs and continues rather than panicking: per
// SPEC_FULL.md §7 this represents a tracking bug, not a user error.
func (a *Arena) unregister(h *header) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total -= int64(h.size + h.alignment)
	if a.total < 0 {
		a.total = 0
	}

	if !a.unlinkLocked(h) {
		logInternalError("memsentry: unregister could not find alloc id %d in arena %q", h.allocID, a.name)
	}

	if a.reporter != nil {
		a.reporter.OnDealloc(h.info())
	}
}

func (a *Arena) unlinkLocked(h *header) bool {
	node := a.head
	for node != nil {
		if node == h {
			if node.prev != nil {
				node.prev.next = node.next
			} else {
				a.head = node.next
			}
			if node.next != nil {
				node.next.prev = node.prev
			} else {
				a.tail = node.prev
			}
			node.next, node.prev = nil, nil
			return true
		}
		node = node.next
	}
	return false
}

// Count walks the block list under the arena's lock and returns its
// length. O(n), matching SPEC_FULL.md §4.2.
func (a *Arena) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for node := a.head; node != nil; node = node.next {
		n++
	}
	return n
}

// TotalBytes returns the running byte total. Not strictly consistent with
// Count() under concurrent mutation; that is an accepted tradeoff for a
// counter that must be O(1) on the hot path.
func (a *Arena) TotalBytes() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// ReportRange walks every block in the list and invokes the reporter's
// ReportBlock for each whose allocation id falls within [lo, hi],
// inclusive. Every node is inspected regardless of id ordering, because
// ids increase roughly but not strictly in append order under concurrent
// registration.
func (a *Arena) ReportRange(lo, hi uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reporter == nil {
		return
	}
	for node := a.head; node != nil; node = node.next {
		if node.allocID >= lo && node.allocID <= hi {
			a.reporter.ReportBlock(node.info())
		}
	}
}
