// SPDX-License-Identifier: Apache-2.0

package malloc

// blockList is an intrusive, unordered, doubly-linked list of headers.
type blockList struct {
	head  uintptr
	count int
	bytes uintptr // sum of payload sizes
}

func newBlockList() blockList {
	return blockList{head: nilOffset}
}

// pushFront links the detached header at off in front of l.
func (h *Heap) pushFront(l *blockList, off uintptr) {
	hdr := h.headerAt(off)
	hdr.prev = nilOffset
	hdr.next = l.head
	if l.head != nilOffset {
		h.headerAt(l.head).prev = off
	}
	l.head = off
	l.count++
	l.bytes += hdr.size
}

// unlink detaches the header at off from l, whether it is first, last or interior.
func (h *Heap) unlink(l *blockList, off uintptr) {
	hdr := h.headerAt(off)
	if hdr.prev == nilOffset {
		l.head = hdr.next
	} else {
		h.headerAt(hdr.prev).next = hdr.next
	}
	if hdr.next != nilOffset {
		h.headerAt(hdr.next).prev = hdr.prev
	}
	hdr.next = nilOffset
	hdr.prev = nilOffset
	l.count--
	l.bytes -= hdr.size
}

// move transfers the header at off from one list to the other and sets its
// state tag. It is the only place a header changes lists.
func (h *Heap) move(off uintptr, from, to *blockList, allocated bool) {
	h.unlink(from, off)
	h.headerAt(off).allocated = allocated
	h.pushFront(to, off)
}
