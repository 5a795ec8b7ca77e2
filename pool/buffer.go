package pool

import "unsafe"

// Buffer wraps exactly one T. A dynamic buffer performs its own aligned
// heap allocation, independent of any allocator or arena; an inline buffer
// stores its T directly, trading that independence for zero allocation
// overhead. Buffer is not copyable: copying the struct would duplicate the
// pointer a RingPool hands between producer and consumer.
type Buffer[T any] struct {
	ptr     *T
	dynamic bool
	raw     []byte // backing storage for a dynamic buffer; nil for inline
}

// NewBuffer performs an aligned heap allocation for T and constructs it by
// calling newValue (or leaves it zeroed if newValue is nil), entirely on
// its own: it does not route through any tracked allocator. This mirrors
// the dynamic Buffer variant's raw, untracked
// `::operator new(sizeof(T), std::align_val_t{alignment})`, never anything
// from the Heap/tracking side of the system. alignment of 0 means "use T's
// natural alignment". Returns nil if the allocation itself fails.
func NewBuffer[T any](alignment int, newValue func() T) *Buffer[T] {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if alignment == 0 {
		alignment = int(unsafe.Alignof(zero))
	}

	var raw []byte
	ok := func() (ok bool) {
		defer func() {
			if recover() != nil {
				ok = false
			}
		}()
		raw = make([]byte, size+alignment)
		return true
	}()
	if !ok {
		return nil
	}

	// Single expression: the uintptr arithmetic and the conversion back to
	// Pointer must not be split across statements.
	ptr := (*T)(unsafe.Pointer((uintptr(unsafe.Pointer(&raw[0])) + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)))
	if newValue != nil {
		*ptr = newValue()
	}

	return &Buffer[T]{ptr: ptr, dynamic: true, raw: raw}
}

// NewInlineBuffer wraps an already-constructed T with no heap allocation
// of its own beyond the Buffer struct, mirroring the original
// implementation's non-dynamic, inline-storage Buffer specialization.
func NewInlineBuffer[T any](value T) *Buffer[T] {
	return &Buffer[T]{ptr: &value, dynamic: false}
}

// Value returns a pointer to the wrapped T.
func (b *Buffer[T]) Value() *T {
	return b.ptr
}

// Release drops the buffer's reference to its own storage so a dynamic
// buffer's backing array becomes collectible. Calling Release on an
// inline buffer is a no-op: it owns nothing beyond the struct itself.
func (b *Buffer[T]) Release() {
	if b.dynamic {
		b.ptr = nil
		b.raw = nil
	}
}
