// Package mmap provides anonymous read-write memory mappings used to back
// page buffers outside the Go heap.
package mmap

import (
	"errors"
	"sync/atomic"
)

// ErrInvalidSize is returned for non-positive mapping sizes.
var ErrInvalidSize = errors.New("mmap: invalid mapping size")

// Mapping is an anonymous memory mapping. It owns the underlying bytes
// and is responsible for unmapping them.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// MapAnon creates an anonymous read-write mapping of the given size.
func MapAnon(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	data, unmap, err := osMapAnon(size)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Bytes returns the mapped memory. It returns nil after Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	data := m.data
	m.data = nil
	if m.unmap != nil {
		return m.unmap(data)
	}
	return nil
}
