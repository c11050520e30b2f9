package instrument

import "github.com/zappabad/marketsim/internal/market"

// History is a fixed-capacity FIFO of bars kept in chronological order.
type History struct {
	buf   []market.Bar
	start int
	count int
}

// NewHistory creates a History holding at most capacity bars.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultConfig().HistoryCapacity
	}
	return &History{buf: make([]market.Bar, capacity)}
}

// Append adds a bar, evicting the oldest when full.
func (h *History) Append(b market.Bar) {
	size := len(h.buf)
	if h.count < size {
		h.buf[(h.start+h.count)%size] = b
		h.count++
		return
	}
	h.buf[h.start] = b
	h.start = (h.start + 1) % size
}

// Entries returns a chronological copy of the stored bars.
func (h *History) Entries() []market.Bar {
	out := make([]market.Bar, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Tail returns up to n of the most recent bars in chronological order.
func (h *History) Tail(n int) []market.Bar {
	if n > h.count {
		n = h.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]market.Bar, n)
	first := h.start + h.count - n
	for i := 0; i < n; i++ {
		out[i] = h.buf[(first+i)%len(h.buf)]
	}
	return out
}

// Last returns the most recent bar.
func (h *History) Last() (market.Bar, bool) {
	if h.count == 0 {
		return market.Bar{}, false
	}
	return h.buf[(h.start+h.count-1)%len(h.buf)], true
}

// setLast overwrites the most recent bar.
func (h *History) setLast(b market.Bar) {
	if h.count == 0 {
		return
	}
	h.buf[(h.start+h.count-1)%len(h.buf)] = b
}

// Len returns the number of stored bars.
func (h *History) Len() int { return h.count }

// Cap returns the capacity.
func (h *History) Cap() int { return len(h.buf) }
