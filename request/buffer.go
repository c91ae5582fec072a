package request

import "container/list"

// Buffer is a bounded FIFO of in-flight requests, backed by container/list
// for O(1) removal of an arbitrary element (needed when a request
// completes or is promoted out of order). Grounded on the reference's
// ReqBuffer, itself a std::list-backed deque; it lives here rather than in
// the controller package so both controller and scheduler can depend on it
// without an import cycle (the reference's header-only C++ layering has no
// equivalent constraint).
type Buffer struct {
	cap int
	l   *list.List
}

// NewBuffer creates a Buffer. cap <= 0 means unbounded.
func NewBuffer(cap int) *Buffer {
	return &Buffer{cap: cap, l: list.New()}
}

// Len returns the number of requests currently queued.
func (b *Buffer) Len() int { return b.l.Len() }

// Cap returns the buffer's capacity, 0 if unbounded.
func (b *Buffer) Cap() int { return b.cap }

// Full reports whether the buffer is at capacity.
func (b *Buffer) Full() bool {
	return b.cap > 0 && b.l.Len() >= b.cap
}

// PushBack enqueues req, returning false if the buffer is full.
func (b *Buffer) PushBack(req *Request) bool {
	if b.Full() {
		return false
	}
	b.l.PushBack(req)
	return true
}

// Front returns the oldest queued request, nil if empty.
func (b *Buffer) Front() *Request {
	if e := b.l.Front(); e != nil {
		return e.Value.(*Request)
	}
	return nil
}

// RemoveFront removes and returns the oldest queued request, nil if empty.
func (b *Buffer) RemoveFront() *Request {
	e := b.l.Front()
	if e == nil {
		return nil
	}
	b.l.Remove(e)
	return e.Value.(*Request)
}

// Remove removes req from the buffer by identity, reporting whether it was
// found.
func (b *Buffer) Remove(req *Request) bool {
	for e := b.l.Front(); e != nil; e = e.Next() {
		if e.Value.(*Request) == req {
			b.l.Remove(e)
			return true
		}
	}
	return false
}

// All returns every queued request in FIFO order. The returned slice is a
// snapshot; mutating the buffer afterward does not affect it.
func (b *Buffer) All() []*Request {
	out := make([]*Request, 0, b.l.Len())
	for e := b.l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Request))
	}
	return out
}
