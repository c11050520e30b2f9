package service

import (
	"sync"
	"sync/atomic"

	"github.com/zappabad/marketsim/internal/news"
	newsview "github.com/zappabad/marketsim/internal/news/view"
)

// NewsService stores published news and fans it out to subscribers.
type NewsService struct {
	cfg  Config
	view *newsview.NewsView

	idGen atomic.Int64

	externalEvents chan newsview.NewsEvent
	droppedEvents  atomic.Int64

	closeOnce sync.Once
	closeMu   sync.RWMutex
	closed    bool
}

// NewNewsService creates a new NewsService.
func NewNewsService(cfg Config) *NewsService {
	def := DefaultConfig()
	if cfg.GlobalCapacity <= 0 {
		cfg.GlobalCapacity = def.GlobalCapacity
	}
	if cfg.SymbolCapacity <= 0 {
		cfg.SymbolCapacity = def.SymbolCapacity
	}
	if cfg.ExternalEventBuffer <= 0 {
		cfg.ExternalEventBuffer = def.ExternalEventBuffer
	}

	return &NewsService{
		cfg:            cfg,
		view:           newsview.NewNewsView(cfg.GlobalCapacity, cfg.SymbolCapacity),
		externalEvents: make(chan newsview.NewsEvent, cfg.ExternalEventBuffer),
	}
}

func (s *NewsService) nextID() news.NewsID {
	return news.NewsID(s.idGen.Add(1))
}

// Publish stores a news item and returns it with its ID assigned. The view
// is updated before Publish returns; subscribers that fall behind miss
// events rather than slowing the caller.
func (s *NewsService) Publish(item news.NewsItem) news.NewsItem {
	if item.ID == 0 {
		item.ID = s.nextID()
	}

	ev := newsview.NewsEvent{Item: item}
	s.view.Apply(ev)

	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return item
	}
	select {
	case s.externalEvents <- ev:
	default:
		s.droppedEvents.Add(1)
	}
	return item
}

// Latest returns the last n items of the global log, most recent first.
func (s *NewsService) Latest(n int) []news.NewsItem {
	return s.view.Latest(n)
}

// LatestFor returns the last n items cached for symbol, most recent first.
func (s *NewsService) LatestFor(symbol string, n int) []news.NewsItem {
	return s.view.LatestFor(symbol, n)
}

// Events returns the external events channel for subscribers.
func (s *NewsService) Events() <-chan newsview.NewsEvent {
	return s.externalEvents
}

// DroppedEvents returns the count of dropped external events.
func (s *NewsService) DroppedEvents() int64 {
	return s.droppedEvents.Load()
}

// Close closes the events channel. Publishing after Close still updates
// the view.
func (s *NewsService) Close() {
	s.closeOnce.Do(func() {
		s.closeMu.Lock()
		s.closed = true
		close(s.externalEvents)
		s.closeMu.Unlock()
	})
}
