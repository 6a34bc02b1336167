// Arena allocator: an append-only bump allocator for transient per-query
// and per-index-build byte records. The arena owns a set of growable
// slabs; individual allocations are never freed, only the whole arena is
// released at once when a query completes or a build flushes.
//
// Grounded on original_source/src/utils/alloc.c's pool-allocator pattern:
// allocate from the tail of the current block, grab a new block from the
// OS once the current one is exhausted, and free every block in one pass
// when the pool is released.

package ferret

const defaultSlabSize = 64 * 1024

// Arena is a bump allocator. It is not safe for concurrent use from
// multiple goroutines; callers share one arena per query or per build
// pipeline, matching §5's "thread-local" resource policy.
type Arena struct {
	slabSize int
	slabs    [][]byte
	cur      []byte
}

// NewArena creates an arena whose slabs grow in slabSize increments.
// slabSize <= 0 selects a sane default.
func NewArena(slabSize int) *Arena {
	if slabSize <= 0 {
		slabSize = defaultSlabSize
	}
	return &Arena{slabSize: slabSize}
}

// Alloc returns n zeroed bytes owned by the arena. The returned slice is
// valid until Release is called.
func (a *Arena) Alloc(n int) []byte {
	if n == 0 {
		return nil
	}
	if cap(a.cur)-len(a.cur) < n {
		size := a.slabSize
		if n > size {
			size = n
		}
		a.cur = make([]byte, 0, size)
		a.slabs = append(a.slabs, a.cur)
	}
	slab := a.slabs[len(a.slabs)-1]
	start := len(slab)
	slab = slab[:start+n]
	a.slabs[len(a.slabs)-1] = slab
	a.cur = slab
	return slab[start : start+n]
}

// CopyBytes copies src into a fresh arena allocation and returns it.
func (a *Arena) CopyBytes(src []byte) []byte {
	dst := a.Alloc(len(src))
	copy(dst, src)
	return dst
}

// CopyString copies s into a fresh arena allocation and returns it as
// bytes (the arena never stores Go strings directly, so conversions at
// the boundary stay explicit).
func (a *Arena) CopyString(s string) []byte {
	dst := a.Alloc(len(s))
	copy(dst, s)
	return dst
}

// Release drops every slab at once. The arena may be reused after Release;
// new allocations start a fresh slab.
func (a *Arena) Release() {
	a.slabs = nil
	a.cur = nil
}

// Size reports the total bytes currently held across all slabs, useful
// for IndexOptions.IndexerMemorySizeMaximum enforcement during a build.
func (a *Arena) Size() int {
	total := 0
	for _, s := range a.slabs {
		total += cap(s)
	}
	return total
}
