// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"fmt"
	"log/slog"
	"math/bits"
	"unsafe"
)

// Heap is a best-fit allocator over a single arena that is reserved on first use.
//
// Released blocks go to a free list and are reused whole by later requests of equal
// or smaller size; when no free block fits, a new block is carved by advancing a
// bump cursor. Blocks are never split or coalesced and the arena never shrinks.
//
// A Heap is not safe for concurrent use. Wrap it with NewConcurrent to share it.
type Heap struct {
	arenaSize int
	reserver  Reserver
	logger    *slog.Logger

	mem     []byte // keeps Go-backed reservations reachable
	release func() error
	base    unsafe.Pointer
	end     uintptr // usable bytes from base
	bump    uintptr // offset of the first untouched byte
	peak    uintptr

	free blockList
	used blockList

	stats counters
}

type counters struct {
	mallocs uint64
	frees   uint64
	reused  uint64
	bumped  uint64
	failed  uint64
}

// New creates a Heap. No memory is reserved until the first allocation.
func New(opts ...Option) *Heap {
	h := &Heap{
		arenaSize: DefaultArenaSize,
		reserver:  MmapReserver,
		logger:    slog.New(slog.DiscardHandler),
		free:      newBlockList(),
		used:      newBlockList(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// init reserves the arena once. Failure is fatal.
func (h *Heap) init() {
	if h.base != nil {
		return
	}
	mem, release, err := h.reserver.Reserve(h.arenaSize)
	if err != nil {
		h.fatal("init", 0, fmt.Errorf("%w: %w", ErrArenaReserve, err))
		return
	}
	start := unsafe.Pointer(unsafe.SliceData(mem))
	skip := (Alignment - uintptr(start)%Alignment) % Alignment
	if uintptr(len(mem)) <= skip {
		h.fatal("init", 0, fmt.Errorf("%w: region of %d bytes is too small", ErrArenaReserve, len(mem)))
		return
	}

	h.mem = mem
	h.release = release
	h.base = unsafe.Add(start, skip)
	h.end = uintptr(len(mem)) - skip
	h.bump = 0
	h.free = newBlockList()
	h.used = newBlockList()

	h.logger.Debug("arena reserved",
		"base", fmt.Sprintf("%#x", uintptr(h.base)),
		"size", h.end,
	)
}

// fatal reports an unrecoverable condition and panics with a *FatalError.
func (h *Heap) fatal(op string, addr uintptr, err error) {
	h.logger.Error("unrecoverable allocator state",
		"op", op,
		"addr", fmt.Sprintf("%#x", addr),
		"error", err,
	)
	panic(&FatalError{Op: op, Addr: addr, Err: err})
}

// Malloc returns a 16-byte aligned block of at least size usable bytes, or nil
// if size is zero or the arena is exhausted. The block is not zeroed.
func (h *Heap) Malloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	h.init()
	h.stats.mallocs++

	if off, ok := h.bestFit(size); ok {
		h.move(off, &h.free, &h.used, true)
		h.stats.reused++
		return h.payloadOf(off)
	}
	return h.carve(size)
}

// bestFit returns the smallest free block holding at least size bytes.
func (h *Heap) bestFit(size uintptr) (uintptr, bool) {
	best, bestSize := nilOffset, uintptr(0)
	for off := h.free.head; off != nilOffset; {
		hdr := h.headerAt(off)
		if hdr.allocated {
			h.fatal("malloc", h.addrOf(off), ErrCorruptFreeList)
			return nilOffset, false
		}
		if hdr.size >= size && (best == nilOffset || hdr.size < bestSize) {
			best, bestSize = off, hdr.size
			if bestSize == size {
				break
			}
		}
		off = hdr.next
	}
	return best, best != nilOffset
}

// carve creates a new block at the bump cursor. On exhaustion nothing changes.
func (h *Heap) carve(size uintptr) unsafe.Pointer {
	padded, ok := alignUp(size)
	remaining := h.end - h.bump
	if !ok || padded > remaining || headerSize > remaining-padded {
		h.stats.failed++
		h.logger.Debug("arena exhausted",
			"request", size,
			"carved", h.bump,
			"capacity", h.end,
		)
		return nil
	}

	off := h.bump
	*h.headerAt(off) = header{next: nilOffset, prev: nilOffset, size: padded, allocated: true}
	h.pushFront(&h.used, off)
	h.bump += headerSize + padded
	h.peak = max(h.peak, h.bump)
	h.stats.bumped++
	return h.payloadOf(off)
}

// Free returns the block at p to the free list. Free(nil) is a no-op.
// Freeing a block twice, or a pointer this heap did not return, panics with a *FatalError.
func (h *Heap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	off, hdr := h.lookup("free", p)
	if !hdr.allocated {
		h.fatal("free", h.addrOf(off), ErrDoubleFree)
		return
	}
	h.move(off, &h.used, &h.free, false)
	h.stats.frees++
}

// Calloc allocates count*size bytes and zeroes the whole block. It returns nil
// if the product overflows, is zero, or cannot be satisfied.
func (h *Heap) Calloc(count, size uintptr) unsafe.Pointer {
	hi, n := bits.Mul(uint(count), uint(size))
	if hi != 0 {
		h.stats.failed++
		h.logger.Debug("calloc size overflow", "count", count, "size", size)
		return nil
	}
	p := h.Malloc(uintptr(n))
	if p == nil {
		return nil
	}
	clear(unsafe.Slice((*byte)(p), h.headerAt(h.offsetOf(p)).size))
	return p
}

// Realloc resizes the block at p to hold size bytes.
//
// A nil p behaves like Malloc(size); a zero size frees p and returns nil. If size
// fits in the block's capacity p is returned unchanged. Otherwise the contents move
// to a new block and p is freed; if that allocation fails, nil is returned and p is
// left intact.
func (h *Heap) Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	if p == nil {
		return h.Malloc(size)
	}
	if size == 0 {
		h.Free(p)
		return nil
	}
	off, hdr := h.lookup("realloc", p)
	if !hdr.allocated {
		h.fatal("realloc", h.addrOf(off), ErrUseAfterFree)
		return nil
	}
	if size <= hdr.size {
		return p
	}

	np := h.Malloc(size)
	if np == nil {
		return nil
	}
	copy(unsafe.Slice((*byte)(np), hdr.size), unsafe.Slice((*byte)(p), hdr.size))
	h.Free(p)
	return np
}

// UsableSize returns the capacity of the live block at p, which may exceed the
// size originally requested. UsableSize(nil) is 0.
func (h *Heap) UsableSize(p unsafe.Pointer) uintptr {
	if p == nil {
		return 0
	}
	off, hdr := h.lookup("usable_size", p)
	if !hdr.allocated {
		h.fatal("usable_size", h.addrOf(off), ErrUseAfterFree)
		return 0
	}
	return hdr.size
}

// Owns reports whether p lies inside the carved part of this heap's arena.
func (h *Heap) Owns(p unsafe.Pointer) bool {
	if h.base == nil || p == nil {
		return false
	}
	addr, start := uintptr(p), uintptr(h.base)
	return addr >= start+headerSize && addr < start+h.bump
}

// lookup resolves the header of payload p, rejecting pointers that cannot be
// the start of a block carved by h.
func (h *Heap) lookup(op string, p unsafe.Pointer) (uintptr, *header) {
	if !h.Owns(p) || (uintptr(p)-uintptr(h.base))%Alignment != 0 {
		h.fatal(op, uintptr(p), ErrInvalidPointer)
		return 0, nil
	}
	off := h.offsetOf(p)
	hdr := h.headerAt(off)
	if hdr.size == 0 || hdr.size%Alignment != 0 || hdr.size > h.bump-off-headerSize {
		h.fatal(op, uintptr(p), ErrInvalidPointer)
		return 0, nil
	}
	return off, hdr
}

// Len returns the usable bytes held by live blocks.
func (h *Heap) Len() int {
	return int(h.used.bytes)
}

// Cap returns the arena capacity in bytes. Before the first allocation it
// reports the configured reservation size.
func (h *Heap) Cap() int {
	if h.base == nil {
		return h.arenaSize
	}
	return int(h.end)
}

// Peak returns the highest number of arena bytes ever carved, headers included.
// It is not lowered by Reset.
func (h *Heap) Peak() int {
	return int(h.peak)
}

// Reset forgets every block and rewinds the bump cursor, keeping the reservation.
// Every pointer previously returned by h becomes invalid.
func (h *Heap) Reset() {
	if h.base == nil {
		return
	}
	h.bump = 0
	h.free = newBlockList()
	h.used = newBlockList()
}

// Release returns the arena to the operating system. Every pointer previously
// returned by h becomes invalid; the next allocation reserves a new arena.
func (h *Heap) Release() error {
	if h.base == nil {
		return nil
	}
	release := h.release
	h.mem, h.release, h.base = nil, nil, nil
	h.end, h.bump = 0, 0
	h.free = newBlockList()
	h.used = newBlockList()

	if release == nil {
		return nil
	}
	if err := release(); err != nil {
		return fmt.Errorf("malloc: release arena: %w", err)
	}
	return nil
}
