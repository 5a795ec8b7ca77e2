package memsentry

import (
	"sync"
	"unsafe"
)

// pointerTable recovers the header for a user pointer in O(1) without
// reading bytes before the pointer. See header.go and SPEC_FULL.md §3 for
// why the header is not laid out immediately before the payload the way
// the original C++ implementation does it.
var pointerTable sync.Map // map[uintptr]*header

func clampSize(size int) int {
	if size < 1 {
		return 1
	}
	return size
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Allocate reserves size tracked bytes charged to a (the process-wide
// default arena if a is nil) and returns the user pointer. Panics if the
// underlying allocation fails.
func Allocate(size int, a *Arena) unsafe.Pointer {
	p, ok := allocate(size, 0, resolveArena(a))
	if !ok {
		panic("memsentry: allocation failed")
	}
	return p
}

// AllocateNothrow is Allocate but returns nil instead of panicking on
// failure.
func AllocateNothrow(size int, a *Arena) unsafe.Pointer {
	p, _ := allocate(size, 0, resolveArena(a))
	return p
}

// AllocateAligned is Allocate for a block whose user pointer must be
// congruent to 0 modulo alignment. alignment must be a power of two and at
// least the machine pointer size, or the call panics.
func AllocateAligned(size, alignment int, a *Arena) unsafe.Pointer {
	checkAlignment(alignment)
	p, ok := allocate(size, alignment, resolveArena(a))
	if !ok {
		panic("memsentry: aligned allocation failed")
	}
	return p
}

// AllocateAlignedNothrow is AllocateAligned but returns nil instead of
// panicking when the underlying allocation fails. An invalid alignment is
// still a programmer error and still panics.
func AllocateAlignedNothrow(size, alignment int, a *Arena) unsafe.Pointer {
	checkAlignment(alignment)
	p, _ := allocate(size, alignment, resolveArena(a))
	return p
}

func checkAlignment(alignment int) {
	if !isPowerOfTwo(alignment) || alignment < int(unsafe.Sizeof(uintptr(0))) {
		panic("memsentry: alignment must be a power of two and at least the pointer size")
	}
}

func allocate(size, alignment int, a *Arena) (unsafe.Pointer, bool) {
	size = clampSize(size)

	var raw []byte
	var user unsafe.Pointer
	ok := func() (ok bool) {
		defer func() {
			if recover() != nil {
				ok = false
			}
		}()
		if alignment == 0 {
			raw = make([]byte, size+4)
			user = unsafe.Pointer(&raw[0])
		} else {
			raw = make([]byte, size+alignment+4)
			// The uintptr arithmetic and the conversion back to Pointer
			// must stay in one expression: unsafe.Pointer forbids holding
			// the intermediate uintptr across statements.
			user = unsafe.Pointer((uintptr(unsafe.Pointer(&raw[0])) + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1))
		}
		return true
	}()
	if !ok {
		return nil, false
	}

	h := &header{
		arena:     a,
		raw:       raw,
		user:      user,
		size:      size,
		alignment: alignment,
		allocID:   a.nextID(),
		sig:       Active,
	}
	*h.footer() = Footer

	a.register(h)
	pointerTable.Store(uintptr(user), h)

	return user, true
}

// Deallocate frees a block previously returned by Allocate or
// AllocateAligned. ptr == nil is a no-op. Panics on a wild pointer, a
// double free, or a corrupted footer sentinel.
func Deallocate(ptr unsafe.Pointer) {
	deallocate(ptr, nil, nil)
}

// DeallocateSized is Deallocate for callers that know the requested size.
// The header's own recorded size is authoritative; a mismatch panics
// rather than being silently ignored (see SPEC_FULL.md §4.1, Open Question
// (a)).
func DeallocateSized(ptr unsafe.Pointer, size int) {
	deallocate(ptr, &size, nil)
}

// DeallocateAligned is Deallocate for callers that know the alignment used
// at allocation time. A mismatch against the header's recorded alignment
// panics.
func DeallocateAligned(ptr unsafe.Pointer, alignment int) {
	deallocate(ptr, nil, &alignment)
}

func deallocate(ptr unsafe.Pointer, wantSize, wantAlignment *int) {
	if ptr == nil {
		return
	}

	v, ok := pointerTable.Load(uintptr(ptr))
	if !ok {
		panic("memsentry: delete of a pointer memsentry never allocated")
	}
	h := v.(*header)

	switch h.sig {
	case Freed:
		panic("memsentry: double free detected")
	case Active:
		// fall through
	default:
		panic("memsentry: corrupt allocation header")
	}

	if *h.footer() != Footer {
		panic("memsentry: heap overrun detected (footer sentinel corrupted)")
	}
	if wantSize != nil && *wantSize != h.size {
		panic("memsentry: sized free does not match the recorded allocation size")
	}
	if wantAlignment != nil && *wantAlignment != h.alignment {
		panic("memsentry: aligned free does not match the recorded alignment")
	}

	h.sig = Freed
	h.arena.unregister(h)
	// Release the (potentially large) payload for collection; the small
	// header record stays reachable through pointerTable so a second
	// delete of the same user pointer still observes sig == Freed.
	h.raw = nil
}

// New allocates a zeroed T tracked by a (or the default arena if a is nil)
// and returns a pointer to it. Mirrors the teacher package's Alloc[T],
// backed by the tracked allocator instead of a bump arena.
func New[T any](a *Arena) *T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	p := Allocate(size, a)
	return (*T)(p)
}

// NewSlice allocates n tracked, zeroed T values and returns them as a
// slice. Returns nil if n <= 0.
func NewSlice[T any](n int, a *Arena) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	p := Allocate(elemSize*n, a)
	return unsafe.Slice((*T)(p), n)
}

// Delete frees a value returned by New.
func Delete[T any](p *T) {
	Deallocate(unsafe.Pointer(p))
}

// DeleteSlice frees a slice returned by NewSlice.
func DeleteSlice[T any](s []T) {
	if len(s) == 0 {
		return
	}
	Deallocate(unsafe.Pointer(&s[0]))
}

// PlacementNew casts caller-owned storage to *T without allocating or
// tracking anything. It is the pass-through analogue of C++'s placement
// new: memsentry never registers or frees memory it did not allocate
// itself.
func PlacementNew[T any](storage unsafe.Pointer) *T {
	return (*T)(storage)
}
