// Package root implements the schema and page-caching core of a columnar
// on-disk storage format for large structured datasets.
//
// The module is organized around two subsystems:
//
//   - schema: a tree of typed fields, entries holding per-row values,
//     transactional schema evolution through Updater/Changeset, and
//     projected (virtual) fields validated by a structural-compatibility
//     rule.
//
//   - page: fixed-capacity column page buffers, heap- and mmap-backed
//     allocators, and a pool that caches pages under reference-counted
//     leases with explicit eviction.
//
// Supporting packages: codec (page block compression), source (a
// reference page source with on-disk feature-flag validation), and
// resource (shared memory/IO budgeting).
//
// # Example
//
//	model := schema.NewModel()
//	_ = model.AddField(schema.NewLeafField("pt", "float32"))
//	model.Freeze()
//
//	pool := page.NewPool()
//	alloc := page.NewHeapAllocator()
//	pg := alloc.NewPage(4, 1024)
//	// ... fill pg, then:
//	ref := pool.RegisterPage(pg, page.Key{ColumnID: 0, ElementType: reflect.TypeOf(float32(0))})
//	defer ref.Release()
package root
