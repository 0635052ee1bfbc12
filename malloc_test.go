// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestDefaultHeap(t *testing.T) {
	require.Same(t, Default(), Default())

	p := Malloc(100)
	require.NotNil(t, p)
	require.True(t, Default().Owns(p))
	require.Equal(t, uintptr(112), UsableSize(p))

	p = Realloc(p, 500)
	require.NotNil(t, p)
	require.Equal(t, uintptr(512), UsableSize(p))
	Free(p)

	q := Calloc(10, 10)
	require.NotNil(t, q)
	require.Equal(t, make([]byte, 100), unsafe.Slice((*byte)(q), 100))
	Free(q)

	Free(nil)
	require.Nil(t, Malloc(0))
	require.Zero(t, UsableSize(nil))
	require.NoError(t, Default().Check())
}

type point struct {
	X, Y int64
	Tag  [20]byte
}

func TestAllocateValue(t *testing.T) {
	h := newTestHeap(t, 4096)

	p := Allocate[point](h)
	require.True(t, h.Owns(unsafe.Pointer(p)))
	require.Equal(t, point{}, *p)
	require.Zero(t, uintptr(unsafe.Pointer(p))%Alignment)

	p.X, p.Y = 3, 4
	q := Allocate[point](h)
	require.NotEqual(t, unsafe.Pointer(p), unsafe.Pointer(q))
	require.Equal(t, int64(3), p.X)

	FreeValue(h, p)
	require.Equal(t, 1, h.Stats().FreeBlocks)

	// The released block comes back zeroed.
	r := Allocate[point](h)
	require.Equal(t, unsafe.Pointer(p), unsafe.Pointer(r))
	require.Equal(t, point{}, *r)
}

func TestAllocateValueFallback(t *testing.T) {
	v := Allocate[point](nil)
	require.NotNil(t, v)
	FreeValue(nil, v)

	// An exhausted heap falls back to Go allocation.
	h := newTestHeap(t, 64)
	w := Allocate[[128]byte](h)
	require.NotNil(t, w)
	require.False(t, h.Owns(unsafe.Pointer(w)))
	FreeValue(h, w)
	require.Zero(t, h.Stats().Frees)

	// Zero-sized types never touch the heap.
	e := Allocate[struct{}](h)
	require.NotNil(t, e)
}
