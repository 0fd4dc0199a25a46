package page

import "reflect"

// Key identifies the pages of one column: the column identifier plus the
// identity of the in-memory element type.
type Key struct {
	ColumnID    uint64
	ElementType reflect.Type
}

type poolEntry struct {
	key  Key
	page *Page
	refs int
}

// Pool caches filled pages by key with reference-counted leases. Lookup
// is a linear scan; the number of concurrently resident pages per column
// is small. The pool never allocates pages itself. Entries are kept in
// registration order, oldest first.
//
// The pool is not synchronized internally. Register, Preload, Evict, and
// the bookkeeping inside GetPage require external exclusion.
type Pool struct {
	entries []*poolEntry
}

// NewPool creates an empty page pool.
func NewPool() *Pool {
	return &Pool{}
}

// Ref is a lease on a pooled page. The zero Ref is the null lease. A Ref
// must be released exactly once on every exit path; releasing the last
// lease removes the page from the pool and frees its buffer.
type Ref struct {
	pool  *Pool
	entry *poolEntry
}

// Page returns the leased page, or nil for the null lease.
func (r Ref) Page() *Page {
	if r.entry == nil {
		return nil
	}
	return r.entry.page
}

// Release gives up the lease. A released or null Ref is a no-op, so
// Release is safe to defer on every path.
func (r *Ref) Release() {
	if r.entry == nil {
		return
	}
	r.entry.refs--
	if r.entry.refs == 0 {
		r.pool.remove(r.entry)
	}
	r.entry = nil
	r.pool = nil
}

func (p *Pool) remove(e *poolEntry) {
	for i, cand := range p.entries {
		if cand == e {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			e.page.release()
			return
		}
	}
}

func (p *Pool) lease(e *poolEntry) Ref {
	e.refs++
	return Ref{pool: p, entry: e}
}

// GetPage returns a lease on the resident page of the given column that
// covers the global row index, or the null lease if no such page is
// resident. It never allocates.
func (p *Pool) GetPage(key Key, globalIndex uint64) Ref {
	for _, e := range p.entries {
		if e.key == key && e.page.Contains(globalIndex) {
			return p.lease(e)
		}
	}
	return Ref{}
}

// GetPageInCluster is GetPage in cluster-local coordinates.
func (p *Pool) GetPageInCluster(key Key, clusterID, clusterIndex uint64) Ref {
	for _, e := range p.entries {
		if e.key == key && e.page.ContainsInCluster(clusterID, clusterIndex) {
			return p.lease(e)
		}
	}
	return Ref{}
}

// RegisterPage moves an already-filled page into the pool and returns the
// caller's lease on it. If a page with the same key and window is already
// resident, the new buffer is freed and the resident page is leased
// instead.
func (p *Pool) RegisterPage(pg *Page, key Key) Ref {
	if e := p.findSameWindow(pg, key); e != nil {
		pg.release()
		return p.lease(e)
	}
	return p.lease(p.add(pg, key))
}

// PreloadPage moves an already-filled page into the pool without taking a
// lease, for read-ahead before any consumer requests it. The page stays
// eligible for eviction until a consumer picks it up via GetPage.
func (p *Pool) PreloadPage(pg *Page, key Key) {
	if e := p.findSameWindow(pg, key); e != nil {
		pg.release()
		return
	}
	p.add(pg, key)
}

func (p *Pool) findSameWindow(pg *Page, key Key) *poolEntry {
	for _, e := range p.entries {
		if e.key == key && e.page.sameWindow(pg) {
			return e
		}
	}
	return nil
}

func (p *Pool) add(pg *Page, key Key) *poolEntry {
	e := &poolEntry{key: key, page: pg}
	p.entries = append(p.entries, e)
	return e
}

// Evict reclaims up to n pages without outstanding leases, oldest first.
// Leased pages are never evicted regardless of age.
func (p *Pool) Evict(n int) {
	kept := p.entries[:0]
	for _, e := range p.entries {
		if n > 0 && e.refs == 0 {
			e.page.release()
			n--
			continue
		}
		kept = append(kept, e)
	}
	// Zero the tail so evicted entries do not linger in the backing array.
	for i := len(kept); i < len(p.entries); i++ {
		p.entries[i] = nil
	}
	p.entries = kept
}

// Len returns the number of resident pages.
func (p *Pool) Len() int { return len(p.entries) }
