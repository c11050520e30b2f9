package sentiment

import (
	"fmt"
	"math"
	"time"

	"github.com/zappabad/marketsim/internal/news"
	"github.com/zappabad/marketsim/internal/randsrc"
)

// Feed exposes the cached news the impact score is computed from.
type Feed interface {
	LatestFor(symbol string, n int) []news.NewsItem
}

// Config holds the thresholds used to classify moves and score news.
type Config struct {
	// StrongMovePct is the absolute change at or beyond which a move gets a
	// strong headline.
	StrongMovePct float64
	// MildMovePct is the smallest absolute change that is not neutral.
	MildMovePct float64
	// Lookback is the number of recent items MarketImpact averages over.
	Lookback int
	// ImpactMin and ImpactMax bound the per-item contribution.
	ImpactMin float64
	ImpactMax float64
	// ImpactClamp bounds the final score to [-ImpactClamp, +ImpactClamp].
	ImpactClamp float64
	// SourceName is stamped on synthesized items.
	SourceName string
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		StrongMovePct: 3,
		MildMovePct:   0.5,
		Lookback:      5,
		ImpactMin:     0.5,
		ImpactMax:     1.5,
		ImpactClamp:   5,
		SourceName:    "Market Wire",
	}
}

// Engine synthesizes news for price moves and scores cached news.
type Engine struct {
	cfg  Config
	rng  randsrc.Source
	feed Feed
}

// NewEngine creates an Engine. feed may be nil, in which case MarketImpact
// is always zero.
func NewEngine(cfg Config, rng randsrc.Source, feed Feed) *Engine {
	def := DefaultConfig()
	if cfg.StrongMovePct <= 0 {
		cfg.StrongMovePct = def.StrongMovePct
	}
	if cfg.MildMovePct <= 0 {
		cfg.MildMovePct = def.MildMovePct
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = def.Lookback
	}
	if cfg.ImpactMax <= 0 {
		cfg.ImpactMin, cfg.ImpactMax = def.ImpactMin, def.ImpactMax
	}
	if cfg.ImpactClamp <= 0 {
		cfg.ImpactClamp = def.ImpactClamp
	}
	if cfg.SourceName == "" {
		cfg.SourceName = def.SourceName
	}
	return &Engine{cfg: cfg, rng: rng, feed: feed}
}

// Class buckets a percent move.
type Class int

const (
	ClassNeutral Class = iota
	ClassMildPositive
	ClassStrongPositive
	ClassMildNegative
	ClassStrongNegative
)

// Sentiment returns the news tone of the class.
func (c Class) Sentiment() news.Sentiment {
	switch c {
	case ClassMildPositive, ClassStrongPositive:
		return news.Positive
	case ClassMildNegative, ClassStrongNegative:
		return news.Negative
	default:
		return news.Neutral
	}
}

// Classify buckets changePct.
func (e *Engine) Classify(changePct float64) Class {
	switch {
	case changePct >= e.cfg.StrongMovePct:
		return ClassStrongPositive
	case changePct <= -e.cfg.StrongMovePct:
		return ClassStrongNegative
	case changePct >= e.cfg.MildMovePct:
		return ClassMildPositive
	case changePct <= -e.cfg.MildMovePct:
		return ClassMildNegative
	default:
		return ClassNeutral
	}
}

// Synthesize builds a news item describing a move of changePct for symbol.
// The class is deterministic; the wording is drawn at random within it.
func (e *Engine) Synthesize(symbol string, changePct float64, at time.Time) news.NewsItem {
	class := e.Classify(changePct)
	tpl := randsrc.Pick(e.rng, symbolHeadlines[class])
	return news.NewsItem{
		Time:      at,
		Symbol:    symbol,
		Headline:  fmt.Sprintf(tpl, symbol),
		Summary:   fmt.Sprintf("%s moved %+.2f%% in the latest session.", symbol, changePct),
		Source:    e.cfg.SourceName,
		Sentiment: class.Sentiment(),
	}
}

// MarketWide builds a market-wide item describing the tick's bias.
func (e *Engine) MarketWide(bias float64, at time.Time) news.NewsItem {
	class := e.Classify(bias)
	return news.NewsItem{
		Time:      at,
		Headline:  randsrc.Pick(e.rng, marketHeadlines[class]),
		Summary:   fmt.Sprintf("Broad market moved %+.2f%%.", bias),
		Source:    e.cfg.SourceName,
		Sentiment: class.Sentiment(),
	}
}

// Event builds a market-wide item for a named macro event.
func (e *Engine) Event(headline string, shockPct float64, at time.Time) news.NewsItem {
	s := news.Neutral
	switch {
	case shockPct > 0:
		s = news.Positive
	case shockPct < 0:
		s = news.Negative
	}
	return news.NewsItem{
		Time:      at,
		Headline:  headline,
		Summary:   fmt.Sprintf("Affected stocks moved %+.1f%%.", shockPct),
		Source:    e.cfg.SourceName,
		Sentiment: s,
	}
}

// MarketImpact scores the most recent cached items for symbol as a percent
// nudge in [-ImpactClamp, +ImpactClamp]. It returns 0 when there is no
// news for the symbol.
func (e *Engine) MarketImpact(symbol string) float64 {
	if e.feed == nil {
		return 0
	}
	items := e.feed.LatestFor(symbol, e.cfg.Lookback)
	if len(items) == 0 {
		return 0
	}

	var score float64
	for _, it := range items {
		switch it.Sentiment {
		case news.Positive:
			score += randsrc.Uniform(e.rng, e.cfg.ImpactMin, e.cfg.ImpactMax)
		case news.Negative:
			score -= randsrc.Uniform(e.rng, e.cfg.ImpactMin, e.cfg.ImpactMax)
		}
	}
	return math.Max(-e.cfg.ImpactClamp, math.Min(e.cfg.ImpactClamp, score))
}
