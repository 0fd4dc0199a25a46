package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	root "github.com/kahanikaar/root"
	"github.com/kahanikaar/root/codec"
	"github.com/kahanikaar/root/page"
	"github.com/kahanikaar/root/resource"
	"github.com/kahanikaar/root/schema"
)

// Options configures a Source.
type Options struct {
	// Compression is the codec applied to stored page blocks.
	Compression codec.Type

	// Controller accounts decompression throughput against an IO budget.
	// May be nil.
	Controller *resource.Controller

	// Logger receives debug logging. Nil means no logging.
	Logger *root.Logger

	// PreloadConcurrency bounds the number of blocks decompressed in
	// parallel by PreloadCluster. Zero or negative means 4.
	PreloadConcurrency int
}

// Source is an in-memory page source. It stores one compressed block per
// (column, cluster), fills pages through its allocator, and registers
// them with its pool. It also implements schema.Sink, so a writer's
// Updater can commit schema changesets directly to it.
type Source struct {
	alloc page.Allocator
	comp  codec.Type
	rc    *resource.Controller
	log   *root.Logger

	preloadConcurrency int

	// mu serializes pool access and descriptor bookkeeping; the pool
	// itself is a single-owner resource.
	mu   sync.Mutex
	pool *page.Pool
	desc *Descriptor
	// blocks[columnID][clusterID] holds the compressed page block.
	blocks map[uint64]map[uint64][]byte
	// populated[columnID] is the set of cluster ids with data, so reads
	// of clusters predating a late-added column fail fast.
	populated map[uint64]*roaring64.Bitmap
}

// New creates a Source filling pages with alloc and caching them in pool.
func New(alloc page.Allocator, pool *page.Pool, opts Options) *Source {
	logger := opts.Logger
	if logger == nil {
		logger = root.NoopLogger()
	}
	concurrency := opts.PreloadConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Source{
		alloc:              alloc,
		comp:               opts.Compression,
		rc:                 opts.Controller,
		log:                logger,
		preloadConcurrency: concurrency,
		pool:               pool,
		blocks:             make(map[uint64]map[uint64][]byte),
		populated:          make(map[uint64]*roaring64.Bitmap),
	}
}

// Attach validates the descriptor's declared feature flags and binds it
// to the source. An unsupported flag aborts the attach before any data is
// interpreted.
func (s *Source) Attach(desc *Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.desc != nil {
		return ErrAlreadyAttached
	}
	if err := desc.EnsureFeatureFlags(); err != nil {
		return err
	}
	s.desc = desc
	s.log.Debug("attached dataset", "name", desc.Name,
		"columns", len(desc.Columns), "clusters", len(desc.Clusters))
	return nil
}

// Descriptor returns the attached descriptor, or nil.
func (s *Source) Descriptor() *Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc
}

// PutPageData compresses and stores the serialized elements of one
// column for one cluster. It is the seeding path a writer uses to hand
// finished cluster data to the source.
func (s *Source) PutPageData(columnID, clusterID uint64, elements []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.desc == nil {
		return ErrNotAttached
	}
	if _, ok := s.desc.Column(columnID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownColumn, columnID)
	}
	if _, ok := s.desc.Cluster(clusterID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCluster, clusterID)
	}
	block, err := codec.Compress(elements, s.comp)
	if err != nil {
		return err
	}
	if s.blocks[columnID] == nil {
		s.blocks[columnID] = make(map[uint64][]byte)
	}
	s.blocks[columnID][clusterID] = block
	bitmap := s.populated[columnID]
	if bitmap == nil {
		bitmap = roaring64.New()
		s.populated[columnID] = bitmap
	}
	bitmap.Add(clusterID)
	return nil
}

// ReadPage returns a lease on the page of the given column covering the
// global row index. A resident page is leased from the pool without any
// decoding; on a miss the block is decompressed into a fresh page, which
// is registered so subsequent reads hit.
func (s *Source) ReadPage(ctx context.Context, columnID, globalIndex uint64) (page.Ref, error) {
	s.mu.Lock()
	if s.desc == nil {
		s.mu.Unlock()
		return page.Ref{}, ErrNotAttached
	}
	col, ok := s.desc.Column(columnID)
	if !ok {
		s.mu.Unlock()
		return page.Ref{}, fmt.Errorf("%w: %d", ErrUnknownColumn, columnID)
	}
	key := s.keyOf(col)
	if ref := s.pool.GetPage(key, globalIndex); ref.Page() != nil {
		s.mu.Unlock()
		return ref, nil
	}
	cluster, ok := s.desc.ClusterContaining(globalIndex)
	if !ok {
		s.mu.Unlock()
		return page.Ref{}, fmt.Errorf("%w: row %d", ErrUnknownCluster, globalIndex)
	}
	bitmap := s.populated[columnID]
	if bitmap == nil || !bitmap.Contains(cluster.ID) {
		s.mu.Unlock()
		return page.Ref{}, fmt.Errorf("%w: column %d, cluster %d", ErrNoPageData, columnID, cluster.ID)
	}
	block := s.blocks[columnID][cluster.ID]
	s.mu.Unlock()

	pg, err := s.decodeBlock(ctx, col, cluster, block)
	if err != nil {
		return page.Ref{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.RegisterPage(pg, key), nil
}

// PreloadCluster decodes every populated column block of a cluster and
// preloads the pages into the pool ahead of any consumer. Blocks are
// decompressed concurrently; pool registration stays serialized.
func (s *Source) PreloadCluster(ctx context.Context, clusterID uint64) error {
	s.mu.Lock()
	if s.desc == nil {
		s.mu.Unlock()
		return ErrNotAttached
	}
	cluster, ok := s.desc.Cluster(clusterID)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownCluster, clusterID)
	}
	type pending struct {
		col   ColumnDescriptor
		block []byte
	}
	var work []pending
	for _, col := range s.desc.Columns {
		if bitmap := s.populated[col.ID]; bitmap != nil && bitmap.Contains(clusterID) {
			work = append(work, pending{col: col, block: s.blocks[col.ID][clusterID]})
		}
	}
	s.mu.Unlock()

	pages := make([]*page.Page, len(work))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.preloadConcurrency)
	for i, w := range work {
		i, w := i, w
		g.Go(func() error {
			pg, err := s.decodeBlock(ctx, w.col, cluster, w.block)
			if err != nil {
				return err
			}
			pages[i] = pg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, pg := range pages {
			if pg != nil {
				s.alloc.DeletePage(pg)
			}
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, pg := range pages {
		s.pool.PreloadPage(pg, s.keyOf(work[i].col))
	}
	s.log.WithCluster(clusterID).Debug("preloaded cluster", "pages", len(pages))
	return nil
}

// decodeBlock decompresses a block into a freshly allocated page covering
// the cluster.
func (s *Source) decodeBlock(ctx context.Context, col ColumnDescriptor, cluster ClusterDescriptor, block []byte) (*page.Page, error) {
	if err := s.rc.AcquireIO(ctx, len(block)); err != nil {
		return nil, err
	}
	size, err := codec.DecompressedSize(block)
	if err != nil {
		return nil, err
	}
	n := size / col.ElementSize
	pg := s.alloc.NewPage(col.ElementSize, n)
	if pg.IsNull() {
		return nil, fmt.Errorf("source: page allocation denied for column %d", col.ID)
	}
	if err := codec.DecompressInto(pg.Buffer(), block, s.comp); err != nil {
		s.alloc.DeletePage(pg)
		return nil, err
	}
	pg.Grow(n)
	pg.SetWindow(cluster.FirstEntry, page.ClusterInfo{ID: cluster.ID, FirstEntry: cluster.FirstEntry})
	return pg, nil
}

func (s *Source) keyOf(col ColumnDescriptor) page.Key {
	return page.Key{ColumnID: col.ID, ElementType: elementTypeOf(col.ElementTypeName)}
}

// Evict asks the pool to reclaim up to n unleased pages, oldest first.
func (s *Source) Evict(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool.Evict(n)
}

// UpdateSchema incorporates a committed changeset: each added top-level
// field becomes a column valid from firstEntry onward. This makes Source
// a schema.Sink.
func (s *Source) UpdateSchema(changeset *schema.Changeset, firstEntry uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.desc == nil {
		return ErrNotAttached
	}
	next := uint64(0)
	for _, col := range s.desc.Columns {
		if col.ID >= next {
			next = col.ID + 1
		}
	}
	for _, f := range changeset.AddedFields {
		s.desc.Columns = append(s.desc.Columns, ColumnDescriptor{
			ID:              next,
			FieldName:       f.Name(),
			ElementTypeName: f.TypeName(),
			ElementSize:     elementSizeOf(f.TypeName()),
			FirstEntry:      firstEntry,
		})
		next++
	}
	// Projected fields carry no columns of their own.
	s.log.Debug("schema updated", "added", len(changeset.AddedFields),
		"projected", len(changeset.AddedProjectedFields), "firstEntry", firstEntry)
	return nil
}

// EntryCount returns the number of rows across all clusters of the
// attached dataset.
func (s *Source) EntryCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.desc == nil {
		return 0
	}
	return s.desc.EntryCount()
}

var _ schema.Sink = (*Source)(nil)
