package source

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kahanikaar/root/codec"
	"github.com/kahanikaar/root/page"
	"github.com/kahanikaar/root/schema"
)

func testDescriptor() *Descriptor {
	return &Descriptor{
		Name: "events",
		Columns: []ColumnDescriptor{
			{ID: 0, FieldName: "pt", ElementTypeName: "float64", ElementSize: 8},
			{ID: 1, FieldName: "charge", ElementTypeName: "int32", ElementSize: 4},
		},
		Clusters: []ClusterDescriptor{
			{ID: 0, FirstEntry: 0, NEntries: 10},
			{ID: 1, FirstEntry: 10, NEntries: 10},
		},
	}
}

func float64Elements(values ...float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func seq(n int, base float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = base + float64(i)
	}
	return values
}

func newTestSource(t *testing.T) *Source {
	t.Helper()
	src := New(page.NewHeapAllocator(), page.NewPool(), Options{Compression: codec.ZSTD})
	require.NoError(t, src.Attach(testDescriptor()))
	return src
}

func TestSource_AttachRejectsUnknownFeatureFlag(t *testing.T) {
	src := New(page.NewHeapAllocator(), page.NewPool(), Options{})
	desc := testDescriptor()
	desc.FeatureFlags = []uint64{FeatureFlagTest}

	err := src.Attach(desc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format feature: 137")

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, FeatureFlagTest, formatErr.Feature)

	// The failed attach must not bind the descriptor.
	assert.Nil(t, src.Descriptor())
	_, err = src.ReadPage(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNotAttached)
}

func TestSource_AttachTwice(t *testing.T) {
	src := newTestSource(t)
	assert.ErrorIs(t, src.Attach(testDescriptor()), ErrAlreadyAttached)
}

func TestSource_ReadPage(t *testing.T) {
	src := newTestSource(t)
	require.NoError(t, src.PutPageData(0, 0, float64Elements(seq(10, 0)...)))

	ref, err := src.ReadPage(context.Background(), 0, 3)
	require.NoError(t, err)
	defer ref.Release()

	pg := ref.Page()
	require.NotNil(t, pg)
	assert.Equal(t, 10, pg.NElements())
	assert.True(t, pg.Contains(3))
	assert.Equal(t, uint64(0), pg.ClusterID())
	assert.Equal(t, 80, pg.NBytes())
}

func TestSource_ReadPageHitsPool(t *testing.T) {
	src := newTestSource(t)
	require.NoError(t, src.PutPageData(0, 0, float64Elements(seq(10, 0)...)))

	first, err := src.ReadPage(context.Background(), 0, 0)
	require.NoError(t, err)
	second, err := src.ReadPage(context.Background(), 0, 9)
	require.NoError(t, err)

	// Both reads fall into the same cluster, so they lease the same page.
	assert.Same(t, first.Page(), second.Page())
	first.Release()
	second.Release()
}

func TestSource_ReadPageErrors(t *testing.T) {
	src := newTestSource(t)
	ctx := context.Background()

	_, err := src.ReadPage(ctx, 99, 0)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = src.ReadPage(ctx, 0, 1000)
	assert.ErrorIs(t, err, ErrUnknownCluster)

	// The column exists but holds no data for cluster 0.
	_, err = src.ReadPage(ctx, 0, 0)
	assert.ErrorIs(t, err, ErrNoPageData)
}

func TestSource_PutPageDataErrors(t *testing.T) {
	src := newTestSource(t)
	assert.ErrorIs(t, src.PutPageData(99, 0, nil), ErrUnknownColumn)
	assert.ErrorIs(t, src.PutPageData(0, 99, nil), ErrUnknownCluster)

	detached := New(page.NewHeapAllocator(), page.NewPool(), Options{})
	assert.ErrorIs(t, detached.PutPageData(0, 0, nil), ErrNotAttached)
}

func TestSource_PreloadClusterAndEvict(t *testing.T) {
	pool := page.NewPool()
	src := New(page.NewHeapAllocator(), pool, Options{Compression: codec.LZ4})
	require.NoError(t, src.Attach(testDescriptor()))

	require.NoError(t, src.PutPageData(0, 1, float64Elements(seq(10, 100)...)))
	charges := make([]byte, 4*10)
	require.NoError(t, src.PutPageData(1, 1, charges))

	require.NoError(t, src.PreloadCluster(context.Background(), 1))
	assert.Equal(t, 2, pool.Len())

	// A preloaded page is served without decoding; leasing it pins it
	// against eviction.
	ref, err := src.ReadPage(context.Background(), 0, 15)
	require.NoError(t, err)

	src.Evict(10)
	assert.Equal(t, 1, pool.Len())

	ref.Release()
	src.Evict(10)
	assert.Equal(t, 0, pool.Len())
}

func TestSource_PreloadUnknownCluster(t *testing.T) {
	src := newTestSource(t)
	assert.ErrorIs(t, src.PreloadCluster(context.Background(), 99), ErrUnknownCluster)
}

func TestSource_EntryCount(t *testing.T) {
	src := newTestSource(t)
	assert.Equal(t, uint64(20), src.EntryCount())

	detached := New(page.NewHeapAllocator(), page.NewPool(), Options{})
	assert.Equal(t, uint64(0), detached.EntryCount())
}

type sourceWriter struct {
	model *schema.Model
	src   *Source
}

func (w *sourceWriter) UpdatableModel() *schema.Model { return w.model }
func (w *sourceWriter) Sink() schema.Sink             { return w.src }
func (w *sourceWriter) EntryCount() uint64            { return w.src.EntryCount() }

func TestSource_UpdateSchemaThroughUpdater(t *testing.T) {
	src := newTestSource(t)

	model := schema.NewModel()
	require.NoError(t, model.AddField(schema.NewLeafField("pt", "float64")))
	model.Freeze()

	updater := schema.NewUpdater(&sourceWriter{model: model, src: src})
	updater.BeginUpdate()
	require.NoError(t, updater.AddField(schema.NewLeafField("eta", "float32")))
	require.NoError(t, updater.CommitUpdate())

	desc := src.Descriptor()
	require.Len(t, desc.Columns, 3)
	added := desc.Columns[2]
	assert.Equal(t, uint64(2), added.ID)
	assert.Equal(t, "eta", added.FieldName)
	assert.Equal(t, "float32", added.ElementTypeName)
	assert.Equal(t, 4, added.ElementSize)
	// The new column starts at the current end of the dataset.
	assert.Equal(t, uint64(20), added.FirstEntry)

	// Rows before the column's first entry have no page data.
	_, err := src.ReadPage(context.Background(), 2, 0)
	assert.ErrorIs(t, err, ErrNoPageData)
}

func TestSource_UpdateSchemaAssignsFreshIDs(t *testing.T) {
	src := newTestSource(t)
	cs := &schema.Changeset{
		AddedFields: []*schema.Field{
			schema.NewLeafField("mass", "float64"),
			schema.NewLeafField("flag", "bool"),
		},
	}
	require.NoError(t, src.UpdateSchema(cs, 20))

	desc := src.Descriptor()
	require.Len(t, desc.Columns, 4)
	assert.Equal(t, uint64(2), desc.Columns[2].ID)
	assert.Equal(t, uint64(3), desc.Columns[3].ID)
	assert.Equal(t, 1, desc.Columns[3].ElementSize)
}
