package view

import (
	"fmt"
	"testing"

	"github.com/zappabad/marketsim/internal/news"
)

func item(id int, symbol string) NewsEvent {
	return NewsEvent{Item: news.NewsItem{ID: news.NewsID(id), Symbol: symbol, Headline: fmt.Sprintf("h%d", id)}}
}

func TestNewsViewEvictsOldest(t *testing.T) {
	v := NewNewsView(3, 2)
	for i := 1; i <= 5; i++ {
		v.Apply(item(i, "AAPL"))
	}

	if v.Count() != 3 {
		t.Fatalf("expected 3 global items, got %d", v.Count())
	}
	got := v.Latest(10)
	if len(got) != 3 || got[0].ID != 5 || got[2].ID != 3 {
		t.Fatalf("expected ids 5,4,3, got %+v", got)
	}

	sym := v.LatestFor("AAPL", 10)
	if len(sym) != 2 || sym[0].ID != 5 || sym[1].ID != 4 {
		t.Fatalf("expected symbol ids 5,4, got %+v", sym)
	}
}

func TestNewsViewMarketWideNotCachedPerSymbol(t *testing.T) {
	v := NewNewsView(10, 10)
	v.Apply(item(1, ""))
	v.Apply(item(2, "MSFT"))

	if v.Count() != 2 {
		t.Errorf("expected 2 global items, got %d", v.Count())
	}
	if v.CountFor("") != 0 {
		t.Errorf("expected no per-symbol entry for market-wide news, got %d", v.CountFor(""))
	}
	if v.CountFor("MSFT") != 1 {
		t.Errorf("expected 1 MSFT item, got %d", v.CountFor("MSFT"))
	}
	if got := v.LatestFor("TSLA", 5); got != nil {
		t.Errorf("expected nil for unknown symbol, got %+v", got)
	}
}

func TestNewsViewLatestLimits(t *testing.T) {
	v := NewNewsView(5, 5)
	if got := v.Latest(3); got != nil {
		t.Fatalf("expected nil from empty view, got %+v", got)
	}
	v.Apply(item(1, "A"))
	v.Apply(item(2, "A"))
	if got := v.Latest(0); got != nil {
		t.Errorf("expected nil for n=0, got %+v", got)
	}
	if got := v.Latest(1); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("expected newest item only, got %+v", got)
	}
}
