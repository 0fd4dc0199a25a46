package mmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAnon(t *testing.T) {
	m, err := MapAnon(4096)
	require.NoError(t, err)

	data := m.Bytes()
	require.Len(t, data, 4096)

	// Anonymous mappings are zero-filled and writable.
	assert.Equal(t, byte(0), data[0])
	data[0] = 0xAB
	data[4095] = 0xCD
	assert.Equal(t, byte(0xAB), m.Bytes()[0])

	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	require.NoError(t, m.Close())
}

func TestMapAnon_InvalidSize(t *testing.T) {
	_, err := MapAnon(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = MapAnon(-1)
	assert.ErrorIs(t, err, ErrInvalidSize)
}
