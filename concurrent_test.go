// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestConcurrentLenCap(t *testing.T) {
	h := newTestHeap(t, 4096)
	a := NewConcurrent(h)

	require.Equal(t, 0, a.Len())
	require.Equal(t, 4096, a.Cap())

	p := a.Malloc(100)
	require.NotNil(t, p)
	require.True(t, a.Owns(p))
	require.Equal(t, 112, a.Len())

	q := a.Calloc(2, 100)
	require.NotNil(t, q)
	require.Equal(t, 112+208, a.Len())
	require.Equal(t, int(2*headerSize+112+208), a.Peak())

	p = a.Realloc(p, 300)
	require.NotNil(t, p)
	a.Free(p)
	a.Free(q)
	require.Equal(t, 0, a.Len())
	require.NoError(t, h.Check())
}

func TestConcurrentNilAllocator(t *testing.T) {
	a := NewConcurrent(nil)

	require.Nil(t, a.Malloc(10))
	require.Nil(t, a.Calloc(1, 10))
	require.Nil(t, a.Realloc(nil, 10))
	require.False(t, a.Owns(nil))
	a.Free(nil)
	require.Equal(t, 0, a.Len())
	require.Equal(t, 0, a.Cap())
	require.Equal(t, 0, a.Peak())
}

func TestConcurrentAccess(t *testing.T) {
	h := newTestHeap(t, 4<<20)
	a := NewConcurrent(h)

	const numGoroutines = 10
	const allocationsPerGoroutine = 200

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for g := range numGoroutines {
		go func() {
			defer wg.Done()
			tag := byte(g + 1)
			var mine []unsafe.Pointer
			for i := range allocationsPerGoroutine {
				size := uintptr(16 + (i%8)*16)
				p := a.Malloc(size)
				if p == nil {
					continue
				}
				fill(p, size, tag)
				mine = append(mine, p)
				if i%3 == 2 {
					a.Free(mine[0])
					mine = mine[1:]
				}
			}
			for _, p := range mine {
				if *(*byte)(p) != tag {
					t.Errorf("goroutine %d: block %p overwritten", g, p)
				}
				a.Free(p)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 0, a.Len())
	require.NoError(t, h.Check())
}

func TestConcurrentSliceAppend(t *testing.T) {
	h := newTestHeap(t, 1<<20)
	a := NewConcurrent(h)

	var wg sync.WaitGroup
	results := make([][]int, 4)
	for g := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var s []int
			for i := range 100 {
				s = SliceAppend(a, s, g*1000+i)
			}
			results[g] = s
		}()
	}
	wg.Wait()

	for g, s := range results {
		require.Len(t, s, 100)
		for i, v := range s {
			require.Equal(t, g*1000+i, v)
		}
		FreeSlice(a, s)
	}
	require.Equal(t, 0, h.Len())
	require.NoError(t, h.Check())
}
