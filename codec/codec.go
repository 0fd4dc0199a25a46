// Package codec implements the block compression used for column page
// data. Each compressed block carries an 8-byte header with the
// uncompressed and compressed sizes; blocks that do not compress well are
// stored verbatim, flagged by a compressed size of zero.
package codec

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type selects the compression algorithm.
type Type uint8

const (
	// None stores blocks uncompressed.
	None Type = iota
	// LZ4 is fast block compression, suited for hot data.
	LZ4
	// ZSTD trades speed for a better ratio, suited for cold data.
	ZSTD
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

var (
	// ErrTruncated is returned when a block is too small for its header
	// or its declared payload.
	ErrTruncated = errors.New("codec: truncated block")
	// ErrSizeMismatch is returned when decompression does not produce the
	// size declared in the block header.
	ErrSizeMismatch = errors.New("codec: decompressed size mismatch")
)

const headerSize = 8

// zstd encoders and decoders are expensive to create; pool them.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compress compresses data into a self-describing block. If the ratio is
// poor (above 0.9), the block stores the data verbatim.
func Compress(data []byte, t Type) ([]byte, error) {
	var compressed []byte
	var err error

	switch t {
	case LZ4:
		compressed, err = compressLZ4(data)
	case ZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		block := make([]byte, headerSize+len(data))
		binary.LittleEndian.PutUint32(block[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(block[4:], 0) // stored verbatim
		copy(block[headerSize:], data)
		return block, nil
	}

	block := make([]byte, headerSize+len(compressed))
	binary.LittleEndian.PutUint32(block[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(block[4:], uint32(len(compressed)))
	copy(block[headerSize:], compressed)
	return block, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return compressed[:n], nil
}

// DecompressedSize returns the uncompressed payload size declared in the
// block header.
func DecompressedSize(block []byte) (int, error) {
	if len(block) < headerSize {
		return 0, ErrTruncated
	}
	return int(binary.LittleEndian.Uint32(block[0:])), nil
}

// Decompress expands a block produced by Compress.
func Decompress(block []byte, t Type) ([]byte, error) {
	size, err := DecompressedSize(block)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, size)
	if err := DecompressInto(dst, block, t); err != nil {
		return nil, err
	}
	return dst, nil
}

// DecompressInto expands a block into dst, which must have exactly the
// declared uncompressed size. This lets callers fill pre-allocated page
// buffers without an intermediate copy.
func DecompressInto(dst, block []byte, t Type) error {
	if len(block) < headerSize {
		return ErrTruncated
	}
	uncompressedSize := binary.LittleEndian.Uint32(block[0:])
	compressedSize := binary.LittleEndian.Uint32(block[4:])
	if len(dst) != int(uncompressedSize) {
		return ErrSizeMismatch
	}

	if compressedSize == 0 {
		if uint32(len(block)) < headerSize+uncompressedSize {
			return ErrTruncated
		}
		copy(dst, block[headerSize:headerSize+uncompressedSize])
		return nil
	}

	if uint32(len(block)) < headerSize+compressedSize {
		return ErrTruncated
	}
	payload := block[headerSize : headerSize+compressedSize]

	switch t {
	case ZSTD:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(payload, dst[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return err
		}
		if len(decoded) != int(uncompressedSize) {
			return ErrSizeMismatch
		}
		return nil
	default:
		// LZ4, and the fallback for blocks of unknown provenance.
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return err
		}
		if n != int(uncompressedSize) {
			return ErrSizeMismatch
		}
		return nil
	}
}
