package gcobj

// AllocatorTLS mirrors the per-thread allocator TLS layout declared in spec
// §6.3: a cursor/limit pair for each of the tiny and normal Immix
// allocators, followed by a pointer to the owning mutator. The offsets are
// exposed as compile-time constants that instruction selection embeds as
// immediates in the bump-pointer fast path (spec §4.1.3).
type AllocatorTLS struct {
	TinyCursor   uintptr
	TinyLimit    uintptr
	NormalCursor uintptr
	NormalLimit  uintptr
	Mutator      uintptr
}

// Field offsets within AllocatorTLS, computed once and consumed by
// instruction selection as immediate operands of the bump-pointer load
// (spec §6.3 "exposed as compile-time constants").
const (
	OffsetTinyCursor   = 0 * 8
	OffsetTinyLimit    = 1 * 8
	OffsetNormalCursor = 2 * 8
	OffsetNormalLimit  = 3 * 8
	OffsetMutator      = 4 * 8
)

// BumpAllocator is a software model of one Immix cursor/limit pair, used by
// the instruction-selection fast-path lowering described in spec §4.1.3 and
// exercised directly (without a real heap) by the GC-encoding test scenarios
// in spec §8 scenario 6.
type BumpAllocator struct {
	Cursor, Limit uintptr
}

// AllocUp64 implements `start = align_up(cursor, align); end = start + size;
// if end <= limit { cursor = end; return start, true }` (spec §4.1.3 fast
// path). align must be a power of two.
func (a *BumpAllocator) AllocUp64(size, align uintptr) (start uintptr, ok bool) {
	start = alignUpPtr(a.Cursor, align)
	end := start + size
	if end > a.Limit {
		return 0, false
	}
	a.Cursor = end
	return start, true
}

func alignUpPtr(v, align uintptr) uintptr {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
