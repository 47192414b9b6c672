package mqtt

// message is a serialized publish kept for replay after a reconnect.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ring is a fixed-capacity FIFO that overwrites its oldest entry when full.
// Callers synchronize.
type ring[T any] struct {
	items    []T
	next     int
	n        int
	dropping bool
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{items: make([]T, capacity)}
}

// push appends v. It reports true on the first overwrite since the last
// drain, so overflow is logged once per outage.
func (r *ring[T]) push(v T) bool {
	r.items[r.next] = v
	r.next = (r.next + 1) % len(r.items)
	if r.n < len(r.items) {
		r.n++
		return false
	}
	first := !r.dropping
	r.dropping = true
	return first
}

// drain returns the entries oldest first and empties the ring.
func (r *ring[T]) drain() []T {
	if r.n == 0 {
		return nil
	}
	out := make([]T, 0, r.n)
	for i := r.n; i > 0; i-- {
		out = append(out, r.items[(r.next-i+len(r.items))%len(r.items)])
	}

	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.next, r.n, r.dropping = 0, 0, false
	return out
}

func (r *ring[T]) len() int { return r.n }

func (r *ring[T]) cap() int { return len(r.items) }
