// Package page implements fixed-capacity column page buffers, their
// allocators, and a reference-counted page pool.
//
// A page holds the serialized elements of one column for one cluster (a
// contiguous run of rows written together) and is addressable both in
// global row coordinates and in cluster-local coordinates. Pages are
// produced empty by an Allocator, filled sequentially with Grow, and
// placed into a Pool, which hands out leased references. A leased page is
// pinned: it cannot be evicted until every lease is released.
//
// The pool is a single-owner resource. Its mutating operations are not
// synchronized internally; callers provide external exclusion, typically
// one pool per reading goroutine. Leases themselves may be held for
// arbitrary durations.
package page
