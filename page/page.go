package page

// ClusterInfo locates a cluster in the global row space.
type ClusterInfo struct {
	// ID identifies the cluster.
	ID uint64
	// FirstEntry is the global index of the cluster's first row.
	FirstEntry uint64
}

// Page is a fixed-capacity buffer of serialized elements for one column
// within one cluster. A Page with no backing buffer is the valid "not
// found" sentinel and must never be read.
type Page struct {
	elementSize int
	capacity    int
	n           int
	buf         []byte
	free        func(*Page)

	clusterID    uint64
	clusterFirst uint64
	globalFirst  uint64
}

// IsNull reports whether the page has no backing buffer.
func (p *Page) IsNull() bool { return p == nil || p.buf == nil }

// ElementSize returns the size of one element in bytes.
func (p *Page) ElementSize() int { return p.elementSize }

// Capacity returns the maximum number of elements the page can hold.
func (p *Page) Capacity() int { return p.capacity }

// NElements returns the current element count.
func (p *Page) NElements() int { return p.n }

// NBytes returns the size of the filled part of the buffer.
func (p *Page) NBytes() int { return p.n * p.elementSize }

// Buffer returns the full backing buffer.
func (p *Page) Buffer() []byte { return p.buf }

// Grow increases the element count by n without bounds checking; the
// allocator contract guarantees capacity. Used for sequential fill.
func (p *Page) Grow(n int) {
	p.n += n
}

// SetWindow fixes the page's position in both coordinate systems:
// globalOffset is the global index of the page's first element, and
// clusterInfo identifies the owning cluster and its starting row.
func (p *Page) SetWindow(globalOffset uint64, clusterInfo ClusterInfo) {
	p.globalFirst = globalOffset
	p.clusterID = clusterInfo.ID
	p.clusterFirst = globalOffset - clusterInfo.FirstEntry
}

// ClusterID returns the owning cluster's identifier.
func (p *Page) ClusterID() uint64 { return p.clusterID }

// GlobalRangeFirst returns the global index of the first element.
func (p *Page) GlobalRangeFirst() uint64 { return p.globalFirst }

// GlobalRangeLast returns the global index of the last element.
func (p *Page) GlobalRangeLast() uint64 { return p.globalFirst + uint64(p.n) - 1 }

// ClusterRangeFirst returns the cluster-local index of the first element.
func (p *Page) ClusterRangeFirst() uint64 { return p.clusterFirst }

// ClusterRangeLast returns the cluster-local index of the last element.
func (p *Page) ClusterRangeLast() uint64 { return p.clusterFirst + uint64(p.n) - 1 }

// Contains reports whether the page covers the given global row index.
func (p *Page) Contains(globalIndex uint64) bool {
	if p.IsNull() || p.n == 0 {
		return false
	}
	return globalIndex >= p.globalFirst && globalIndex <= p.GlobalRangeLast()
}

// ContainsInCluster reports whether the page covers the given
// cluster-local index within the given cluster.
func (p *Page) ContainsInCluster(clusterID, clusterIndex uint64) bool {
	if p.IsNull() || p.n == 0 || clusterID != p.clusterID {
		return false
	}
	return clusterIndex >= p.clusterFirst && clusterIndex <= p.ClusterRangeLast()
}

// sameWindow reports whether two pages cover the identical global range.
func (p *Page) sameWindow(other *Page) bool {
	return p.globalFirst == other.globalFirst && p.n == other.n
}

func (p *Page) release() {
	if p == nil || p.buf == nil {
		return
	}
	if p.free != nil {
		p.free(p)
	}
	p.buf = nil
}
