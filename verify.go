// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"fmt"
	"iter"
	"unsafe"
)

// Block describes one carved block.
type Block struct {
	Addr      unsafe.Pointer // payload address
	Size      uintptr        // usable capacity
	Allocated bool
}

// Blocks walks every carved block in address order, live and free alike.
// The heap must not be modified during the walk.
func (h *Heap) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		if h.base == nil {
			return
		}
		for off := uintptr(0); off < h.bump; {
			hdr := h.headerAt(off)
			if hdr.size == 0 {
				return
			}
			if !yield(Block{Addr: h.payloadOf(off), Size: hdr.size, Allocated: hdr.allocated}) {
				return
			}
			off += headerSize + hdr.size
		}
	}
}

// Check verifies the heap's structural invariants: headers tile the carved
// space, every header sits on exactly the list matching its state, and list
// links and counters agree. Errors wrap ErrHeapCorrupted.
func (h *Heap) Check() error {
	if h.base == nil {
		if h.free.head != nilOffset || h.used.head != nilOffset {
			return fmt.Errorf("%w: lists populated before arena reservation", ErrHeapCorrupted)
		}
		return nil
	}
	if h.bump > h.end || h.bump%Alignment != 0 {
		return fmt.Errorf("%w: cursor %d outside arena of %d bytes", ErrHeapCorrupted, h.bump, h.end)
	}

	// Physical walk: every header ever carved, in address order.
	state := make(map[uintptr]bool)
	var liveBytes, freeBytes uintptr
	var live, free int
	for off := uintptr(0); off < h.bump; {
		hdr := h.headerAt(off)
		if hdr.size == 0 || hdr.size%Alignment != 0 || hdr.size > h.bump-off-headerSize {
			return fmt.Errorf("%w: header at offset %d has size %d", ErrHeapCorrupted, off, hdr.size)
		}
		state[off] = hdr.allocated
		if hdr.allocated {
			live++
			liveBytes += hdr.size
		} else {
			free++
			freeBytes += hdr.size
		}
		off += headerSize + hdr.size
	}

	if err := h.checkList("free", &h.free, false, state, free, freeBytes); err != nil {
		return err
	}
	return h.checkList("allocated", &h.used, true, state, live, liveBytes)
}

func (h *Heap) checkList(name string, l *blockList, allocated bool, state map[uintptr]bool, want int, wantBytes uintptr) error {
	prev := nilOffset
	n := 0
	var bytes uintptr
	for off := l.head; off != nilOffset; off = h.headerAt(off).next {
		if n == want {
			return fmt.Errorf("%w: %s list longer than %d blocks", ErrHeapCorrupted, name, want)
		}
		tag, ok := state[off]
		if !ok {
			return fmt.Errorf("%w: %s list links offset %d, which is not a block", ErrHeapCorrupted, name, off)
		}
		if tag != allocated {
			return fmt.Errorf("%w: %s list holds block at offset %d with allocated=%t", ErrHeapCorrupted, name, off, tag)
		}
		hdr := h.headerAt(off)
		if hdr.prev != prev {
			return fmt.Errorf("%w: %s list back-link of offset %d is %d, want %d", ErrHeapCorrupted, name, off, hdr.prev, prev)
		}
		n++
		bytes += hdr.size
		prev = off
	}
	if n != want || n != l.count {
		return fmt.Errorf("%w: %s list has %d blocks, arena has %d, counter says %d", ErrHeapCorrupted, name, n, want, l.count)
	}
	if bytes != wantBytes || bytes != l.bytes {
		return fmt.Errorf("%w: %s list holds %d bytes, arena has %d, counter says %d", ErrHeapCorrupted, name, bytes, wantBytes, l.bytes)
	}
	return nil
}
