// Package source provides a reference page source: the collaborator that
// fills the page pool on the read path and receives committed schema
// changesets on the write path.
//
// The source in this package keeps its column data in memory as
// compressed blocks, one block per (column, cluster). Attach validates
// the dataset descriptor's declared feature flags before any data is
// interpreted; a descriptor requiring an unknown feature is rejected with
// FormatError. ReadPage consults the pool first and only decodes a block
// on a miss, registering the freshly decoded page so later reads hit.
//
// The source serializes all pool access internally, satisfying the
// pool's single-owner contract, so PreloadCluster may decompress blocks
// concurrently.
package source
