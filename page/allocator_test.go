package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kahanikaar/root/resource"
)

func TestMmapAllocator_NewPage(t *testing.T) {
	alloc := NewMmapAllocator(nil)

	pg := alloc.NewPage(8, 128)
	require.False(t, pg.IsNull())
	assert.Equal(t, 128, pg.Capacity())
	assert.Equal(t, 0, pg.NElements())
	require.Len(t, pg.Buffer(), 1024)

	// The mapping is zeroed and writable.
	buf := pg.Buffer()
	assert.Zero(t, buf[0])
	buf[0] = 0xAB
	assert.Equal(t, byte(0xAB), pg.Buffer()[0])

	alloc.DeletePage(pg)
	assert.True(t, pg.IsNull())
}

func TestMmapAllocator_MemoryBudget(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
	alloc := NewMmapAllocator(rc)

	pg := alloc.NewPage(8, 128) // exactly the budget
	require.False(t, pg.IsNull())
	assert.Equal(t, int64(1024), rc.MemoryUsage())

	// The budget is exhausted: the allocation is denied.
	denied := alloc.NewPage(8, 1)
	assert.True(t, denied.IsNull())

	alloc.DeletePage(pg)
	assert.Zero(t, rc.MemoryUsage())

	pg = alloc.NewPage(8, 64)
	require.False(t, pg.IsNull())
	alloc.DeletePage(pg)
}

func TestMmapAllocator_PooledPageReturnsBudgetOnRelease(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
	alloc := NewMmapAllocator(rc)
	pool := NewPool()

	pg := alloc.NewPage(1, 10)
	require.False(t, pg.IsNull())
	pg.Grow(10)
	pg.SetWindow(0, ClusterInfo{ID: 0, FirstEntry: 0})

	ref := pool.RegisterPage(pg, Key{ColumnID: 1, ElementType: typeNone})
	assert.Equal(t, int64(10), rc.MemoryUsage())

	ref.Release()
	assert.Zero(t, rc.MemoryUsage())
}
