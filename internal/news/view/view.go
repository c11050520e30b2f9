package view

import (
	"sync"

	"github.com/zappabad/marketsim/internal/news"
)

// NewsEvent is emitted when a news item is published.
type NewsEvent struct {
	Item news.NewsItem
}

// ring is a fixed-capacity FIFO of news items in chronological order.
type ring struct {
	buf   []news.NewsItem
	start int
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]news.NewsItem, capacity)}
}

func (r *ring) push(item news.NewsItem) {
	size := len(r.buf)
	if r.count < size {
		r.buf[(r.start+r.count)%size] = item
		r.count++
		return
	}
	// overwrite oldest
	r.buf[r.start] = item
	r.start = (r.start + 1) % size
}

// latest returns up to n items, most recent first.
func (r *ring) latest(n int) []news.NewsItem {
	if n <= 0 || r.count == 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}
	size := len(r.buf)
	out := make([]news.NewsItem, n)
	newest := r.start + r.count - 1
	for i := 0; i < n; i++ {
		out[i] = r.buf[(newest-i)%size]
	}
	return out
}

// NewsView keeps a bounded global log plus a bounded cache per symbol.
type NewsView struct {
	mu        sync.RWMutex
	global    *ring
	perSymbol map[string]*ring
	symbolCap int
}

// NewNewsView creates a NewsView. Non-positive capacities fall back to 50
// global and 20 per symbol.
func NewNewsView(globalCap, symbolCap int) *NewsView {
	if globalCap <= 0 {
		globalCap = 50
	}
	if symbolCap <= 0 {
		symbolCap = 20
	}
	return &NewsView{
		global:    newRing(globalCap),
		perSymbol: make(map[string]*ring),
		symbolCap: symbolCap,
	}
}

// Apply adds a news item to the view.
func (v *NewsView) Apply(ev NewsEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.global.push(ev.Item)
	if ev.Item.Symbol == "" {
		return
	}
	r, ok := v.perSymbol[ev.Item.Symbol]
	if !ok {
		r = newRing(v.symbolCap)
		v.perSymbol[ev.Item.Symbol] = r
	}
	r.push(ev.Item)
}

// Latest returns up to n items from the global log, most recent first.
// Returns a copy (not internal references).
func (v *NewsView) Latest(n int) []news.NewsItem {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.global.latest(n)
}

// LatestFor returns up to n items cached for symbol, most recent first.
func (v *NewsView) LatestFor(symbol string, n int) []news.NewsItem {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r, ok := v.perSymbol[symbol]
	if !ok {
		return nil
	}
	return r.latest(n)
}

// Count returns the number of items in the global log.
func (v *NewsView) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.global.count
}

// CountFor returns the number of items cached for symbol.
func (v *NewsView) CountFor(symbol string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if r, ok := v.perSymbol[symbol]; ok {
		return r.count
	}
	return 0
}
