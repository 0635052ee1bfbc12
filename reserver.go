// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"fmt"

	"github.com/wundergraph/go-malloc/internal/mmap"
)

// Reserver obtains the contiguous region a Heap carves blocks from.
// release is called at most once, by Heap.Release.
type Reserver interface {
	Reserve(size int) (mem []byte, release func() error, err error)
}

// ReserverFunc adapts a function to the Reserver interface.
type ReserverFunc func(size int) ([]byte, func() error, error)

// Reserve satisfies the Reserver interface.
func (f ReserverFunc) Reserve(size int) ([]byte, func() error, error) {
	return f(size)
}

// MmapReserver reserves anonymous, process-private read/write memory from the
// operating system. Pages are only backed once touched.
var MmapReserver Reserver = ReserverFunc(func(size int) ([]byte, func() error, error) {
	m, err := mmap.MapAnon(size)
	if err != nil {
		return nil, nil, err
	}
	return m.Bytes(), m.Close, nil
})

// GoReserver backs the arena with a Go byte slice. The whole region is
// committed up front, so it suits small arenas and platforms without mmap.
var GoReserver Reserver = ReserverFunc(func(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("malloc: invalid arena size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
})
