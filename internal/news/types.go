package news

import "time"

// NewsID uniquely identifies a news item.
type NewsID int64

// Sentiment is the tone of a news item.
type Sentiment int

const (
	Neutral Sentiment = iota
	Positive
	Negative
)

func (s Sentiment) String() string {
	switch s {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "neutral"
	}
}

// ParseSentiment maps a stored label back to a Sentiment. Unknown labels
// are neutral.
func ParseSentiment(label string) Sentiment {
	switch label {
	case "positive":
		return Positive
	case "negative":
		return Negative
	default:
		return Neutral
	}
}

// NewsItem represents a news event.
type NewsItem struct {
	ID        NewsID
	Time      time.Time
	Symbol    string // empty means market-wide news
	Headline  string
	Summary   string
	Source    string
	Sentiment Sentiment
}

// MarketWide reports whether the item is not tied to a single symbol.
func (n NewsItem) MarketWide() bool {
	return n.Symbol == ""
}
