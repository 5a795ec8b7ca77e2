package memsentry

import "unsafe"

// Signature tags the integrity state of a tracked block. The exact values
// are kept stable for ABI compatibility with existing traces.
type signature uint32

const (
	// Active marks a block that is live and owned by its arena.
	Active signature = 0xDEADC0DE
	// Freed marks a block that has already been deallocated; seeing it
	// again at delete time means the caller double-freed.
	Freed signature = 0x0FEDC0DE
	// Footer is the sentinel written immediately after every payload to
	// detect writes past the end of the requested size.
	Footer uint32 = 0x0EEDC0DE
)

// header is the metadata node for one tracked block. It is a normal,
// garbage-collected Go struct rather than bytes laid out by hand: its arena
// pointer and intrusive list links must remain visible to the GC's pointer
// scan, which a manually computed byte offset into a []byte would hide.
//
// header.raw is the backing allocation for the payload and its trailing
// footer sentinel; header.user is the address handed back to the caller,
// i.e. &raw[0] for a default-aligned block or an aligned offset into raw
// for an aligned one.
type header struct {
	arena     *Arena
	next      *header
	prev      *header
	raw       []byte
	user      unsafe.Pointer
	size      int
	alignment int
	allocID   uint64
	sig       signature
}

func (h *header) footer() *uint32 {
	off := uintptr(h.user) - uintptr(unsafe.Pointer(&h.raw[0])) + uintptr(h.size)
	return (*uint32)(unsafe.Pointer(&h.raw[off]))
}

// info builds the public snapshot passed to a Reporter.
func (h *header) info() BlockInfo {
	name := ""
	if h.arena != nil {
		name = h.arena.name
	}
	return BlockInfo{
		ArenaName: name,
		AllocID:   h.allocID,
		Size:      h.size,
		Alignment: h.alignment,
	}
}
