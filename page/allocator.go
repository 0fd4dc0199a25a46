package page

import (
	"github.com/kahanikaar/root/internal/mmap"
	"github.com/kahanikaar/root/resource"
)

// Allocator produces and destroys page buffers. NewPage returns a
// zero-initialized page of the requested capacity with element count
// zero, or a nil page if the allocation is denied. The page owns its
// buffer until it is destroyed with DeletePage or handed to a pool.
type Allocator interface {
	NewPage(elementSize, capacity int) *Page
	DeletePage(p *Page)
}

// HeapAllocator allocates page buffers on the Go heap.
type HeapAllocator struct{}

// NewHeapAllocator creates a heap-backed allocator.
func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{}
}

// NewPage returns a zeroed page of the given capacity and element size.
func (a *HeapAllocator) NewPage(elementSize, capacity int) *Page {
	return &Page{
		elementSize: elementSize,
		capacity:    capacity,
		buf:         make([]byte, elementSize*capacity),
	}
}

// DeletePage drops the page's buffer.
func (a *HeapAllocator) DeletePage(p *Page) {
	p.release()
}

// MmapAllocator allocates page buffers in anonymous memory mappings
// outside the Go heap, optionally accounted against a resource
// controller's memory budget.
type MmapAllocator struct {
	rc *resource.Controller
}

// NewMmapAllocator creates an mmap-backed allocator. rc may be nil.
func NewMmapAllocator(rc *resource.Controller) *MmapAllocator {
	return &MmapAllocator{rc: rc}
}

// NewPage returns a zeroed page backed by an anonymous mapping, or a nil
// page if the mapping fails or the memory budget denies the allocation.
func (a *MmapAllocator) NewPage(elementSize, capacity int) *Page {
	size := elementSize * capacity
	if !a.rc.TryAcquireMemory(int64(size)) {
		return nil
	}
	m, err := mmap.MapAnon(size)
	if err != nil {
		a.rc.ReleaseMemory(int64(size))
		return nil
	}
	rc := a.rc
	return &Page{
		elementSize: elementSize,
		capacity:    capacity,
		buf:         m.Bytes(),
		free: func(p *Page) {
			_ = m.Close()
			rc.ReleaseMemory(int64(size))
		},
	}
}

// DeletePage unmaps the page's buffer and returns its bytes to the
// memory budget.
func (a *MmapAllocator) DeletePage(p *Page) {
	p.release()
}
