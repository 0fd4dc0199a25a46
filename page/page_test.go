package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAllocator_NewPage(t *testing.T) {
	alloc := NewHeapAllocator()

	pg := alloc.NewPage(4, 16)
	require.False(t, pg.IsNull())
	assert.Equal(t, 16, pg.Capacity())
	assert.Equal(t, 0, pg.NElements())
	assert.Equal(t, 0, pg.NBytes())
	assert.Len(t, pg.Buffer(), 64)

	alloc.DeletePage(pg)
	assert.True(t, pg.IsNull())
}

func TestPage_GrowAndWindow(t *testing.T) {
	alloc := NewHeapAllocator()
	pg := alloc.NewPage(1, 10)

	pg.Grow(10)
	assert.Equal(t, pg.Capacity(), pg.NElements())
	assert.Equal(t, 10, pg.NBytes())

	// Cluster 2 starts at global row 40; the page begins at row 50.
	pg.SetWindow(50, ClusterInfo{ID: 2, FirstEntry: 40})
	assert.Equal(t, uint64(50), pg.GlobalRangeFirst())
	assert.Equal(t, uint64(59), pg.GlobalRangeLast())
	assert.Equal(t, uint64(10), pg.ClusterRangeFirst())
	assert.Equal(t, uint64(19), pg.ClusterRangeLast())
	assert.Equal(t, uint64(2), pg.ClusterID())

	assert.True(t, pg.Contains(50))
	assert.True(t, pg.Contains(59))
	assert.False(t, pg.Contains(49))
	assert.False(t, pg.Contains(60))

	assert.True(t, pg.ContainsInCluster(2, 15))
	assert.False(t, pg.ContainsInCluster(2, 9))
	assert.False(t, pg.ContainsInCluster(0, 15))
}

func TestPage_NullSentinel(t *testing.T) {
	var pg *Page
	assert.True(t, pg.IsNull())
	assert.False(t, pg.Contains(0))

	empty := &Page{}
	assert.True(t, empty.IsNull())
}
