package market

// Recommendation is a coarse analyst-style tag for an instrument.
type Recommendation int

const (
	RecommendationNA Recommendation = iota
	RecommendationStrongBuy
	RecommendationBuy
	RecommendationHold
	RecommendationSell
)

func (r Recommendation) String() string {
	switch r {
	case RecommendationStrongBuy:
		return "Strong Buy"
	case RecommendationBuy:
		return "Buy"
	case RecommendationHold:
		return "Hold"
	case RecommendationSell:
		return "Sell"
	default:
		return "N/A"
	}
}

// AnalystCounts tallies votes per rating bucket.
type AnalystCounts struct {
	StrongBuy  int
	Buy        int
	Hold       int
	Sell       int
	StrongSell int
}

// Recommend collapses vote counts into a single tag.
func Recommend(c AnalystCounts) Recommendation {
	total := c.StrongBuy + c.Buy + c.Hold + c.Sell
	if total == 0 {
		return RecommendationNA
	}
	bullish := c.StrongBuy + c.Buy
	switch {
	case bullish > c.Sell*2:
		return RecommendationStrongBuy
	case bullish > c.Sell:
		return RecommendationBuy
	case c.Sell > c.Buy*2:
		return RecommendationSell
	default:
		return RecommendationHold
	}
}

const (
	strongMovePct = 3.0
	movePct       = 0.5
)

// CountsFromBars turns recent bar moves into votes: a move of at least 3%
// is a strong vote, at least 0.5% a normal vote, anything smaller a hold.
// Strong down moves count as sell votes too, since Recommend does not weigh
// StrongSell on its own.
func CountsFromBars(bars []Bar) AnalystCounts {
	var c AnalystCounts
	for _, b := range bars {
		pct := b.ChangePct()
		switch {
		case pct >= strongMovePct:
			c.StrongBuy++
		case pct >= movePct:
			c.Buy++
		case pct <= -strongMovePct:
			c.StrongSell++
			c.Sell++
		case pct <= -movePct:
			c.Sell++
		default:
			c.Hold++
		}
	}
	return c
}
