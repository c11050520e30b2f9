package sentiment

import (
	"strings"
	"testing"
	"time"

	"github.com/zappabad/marketsim/internal/news"
	"github.com/zappabad/marketsim/internal/randsrc"
)

type stubFeed map[string][]news.NewsItem

func (f stubFeed) LatestFor(symbol string, n int) []news.NewsItem {
	items := f[symbol]
	if len(items) > n {
		items = items[:n]
	}
	return items
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want news.Sentiment
	}{
		{"Shares SURGE to record profit", news.Positive},
		{"Stock crash deepens loss concern", news.Negative},
		{"Company announces new CEO", news.Neutral},
		{"Strong quarter but weak guidance", news.Neutral},
		{"", news.Neutral},
	}
	for _, tt := range tests {
		if got := Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q): expected %v, got %v", tt.text, tt.want, got)
		}
	}
}

func TestEngineClassifyBands(t *testing.T) {
	e := NewEngine(DefaultConfig(), randsrc.New(1), nil)
	tests := []struct {
		pct  float64
		want Class
	}{
		{3, ClassStrongPositive},
		{12, ClassStrongPositive},
		{-3, ClassStrongNegative},
		{1.2, ClassMildPositive},
		{-0.5, ClassMildNegative},
		{0.49, ClassNeutral},
		{0, ClassNeutral},
	}
	for _, tt := range tests {
		if got := e.Classify(tt.pct); got != tt.want {
			t.Errorf("Classify(%v): expected %v, got %v", tt.pct, tt.want, got)
		}
	}
}

func TestSynthesize(t *testing.T) {
	e := NewEngine(DefaultConfig(), randsrc.New(7), nil)
	at := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	item := e.Synthesize("NVDA", 5.2, at)
	if item.Symbol != "NVDA" {
		t.Errorf("expected symbol NVDA, got %q", item.Symbol)
	}
	if item.Sentiment != news.Positive {
		t.Errorf("expected positive sentiment, got %v", item.Sentiment)
	}
	if !strings.Contains(item.Headline, "NVDA") {
		t.Errorf("expected headline to name the symbol, got %q", item.Headline)
	}
	if !item.Time.Equal(at) {
		t.Errorf("expected time %v, got %v", at, item.Time)
	}

	if got := e.Synthesize("NVDA", -4, at).Sentiment; got != news.Negative {
		t.Errorf("expected negative sentiment, got %v", got)
	}
	if got := e.Synthesize("NVDA", 0.1, at).Sentiment; got != news.Neutral {
		t.Errorf("expected neutral sentiment, got %v", got)
	}
}

func TestMarketWide(t *testing.T) {
	e := NewEngine(DefaultConfig(), randsrc.New(3), nil)
	item := e.MarketWide(-12, time.Now())
	if !item.MarketWide() {
		t.Errorf("expected market-wide item, got symbol %q", item.Symbol)
	}
	if item.Sentiment != news.Negative {
		t.Errorf("expected negative sentiment, got %v", item.Sentiment)
	}
}

func TestMarketImpactNoNews(t *testing.T) {
	e := NewEngine(DefaultConfig(), randsrc.New(1), stubFeed{})
	if got := e.MarketImpact("AAPL"); got != 0 {
		t.Errorf("expected 0 impact without news, got %v", got)
	}
	if got := NewEngine(DefaultConfig(), randsrc.New(1), nil).MarketImpact("AAPL"); got != 0 {
		t.Errorf("expected 0 impact without feed, got %v", got)
	}
}

func TestMarketImpactClamped(t *testing.T) {
	var pos []news.NewsItem
	for i := 0; i < 10; i++ {
		pos = append(pos, news.NewsItem{Symbol: "AAPL", Sentiment: news.Positive})
	}
	// every draw hits the top of the range: 5 items x 1.5 = 7.5 before clamp
	rng := &randsrc.Scripted{Floats: []float64{0.999999}}
	e := NewEngine(DefaultConfig(), rng, stubFeed{"AAPL": pos})

	if got := e.MarketImpact("AAPL"); got != 5 {
		t.Errorf("expected impact clamped to 5, got %v", got)
	}
}

func TestMarketImpactMixed(t *testing.T) {
	items := []news.NewsItem{
		{Sentiment: news.Positive},
		{Sentiment: news.Negative},
		{Sentiment: news.Neutral},
	}
	rng := &randsrc.Scripted{Floats: []float64{0.5, 0.0}}
	e := NewEngine(DefaultConfig(), rng, stubFeed{"TSLA": items})

	// +1.0 from the positive item, -0.5 from the negative one
	got := e.MarketImpact("TSLA")
	if got < 0.4999 || got > 0.5001 {
		t.Errorf("expected impact 0.5, got %v", got)
	}
}
