package codec

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressible(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i / 64)
	}
	return data
}

func incompressible(n int) []byte {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, n)
	rng.Read(data)
	return data
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, typ := range []Type{None, LZ4, ZSTD} {
		t.Run(typ.String(), func(t *testing.T) {
			data := compressible(4096)
			block, err := Compress(data, typ)
			require.NoError(t, err)

			size, err := DecompressedSize(block)
			require.NoError(t, err)
			assert.Equal(t, len(data), size)

			out, err := Decompress(block, typ)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, out))
		})
	}
}

func TestCodec_CompressibleDataShrinks(t *testing.T) {
	data := compressible(64 * 1024)
	for _, typ := range []Type{LZ4, ZSTD} {
		block, err := Compress(data, typ)
		require.NoError(t, err)
		assert.Less(t, len(block), len(data), typ.String())
	}
}

func TestCodec_IncompressibleStoredVerbatim(t *testing.T) {
	data := incompressible(4096)
	block, err := Compress(data, LZ4)
	require.NoError(t, err)
	// Header plus payload, stored uncompressed.
	assert.Equal(t, headerSize+len(data), len(block))

	out, err := Decompress(block, LZ4)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, out))
}

func TestCodec_DecompressInto(t *testing.T) {
	data := compressible(1024)
	block, err := Compress(data, ZSTD)
	require.NoError(t, err)

	dst := make([]byte, len(data))
	require.NoError(t, DecompressInto(dst, block, ZSTD))
	assert.True(t, bytes.Equal(data, dst))

	wrong := make([]byte, len(data)-1)
	assert.ErrorIs(t, DecompressInto(wrong, block, ZSTD), ErrSizeMismatch)
}

func TestCodec_TruncatedBlock(t *testing.T) {
	_, err := DecompressedSize([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Decompress([]byte{1, 2, 3}, LZ4)
	assert.ErrorIs(t, err, ErrTruncated)

	block, err := Compress(compressible(1024), LZ4)
	require.NoError(t, err)
	_, err = Decompress(block[:len(block)-4], LZ4)
	assert.Error(t, err)
}

func TestCodec_EmptyInput(t *testing.T) {
	block, err := Compress(nil, ZSTD)
	require.NoError(t, err)
	out, err := Decompress(block, ZSTD)
	require.NoError(t, err)
	assert.Empty(t, out)
}
