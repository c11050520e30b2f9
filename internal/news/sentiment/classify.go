// Package sentiment turns price moves into news and news back into price
// pressure.
package sentiment

import (
	"strings"

	"github.com/zappabad/marketsim/internal/news"
)

var positiveWords = []string{
	"surge", "gain", "rise", "up", "growth", "profit", "beat",
	"success", "bullish", "positive", "strong", "high", "record",
}

var negativeWords = []string{
	"fall", "drop", "decline", "loss", "miss", "concern", "bearish",
	"negative", "weak", "low", "crash", "sell-off",
}

// Classify scores free text by how many distinct positive and negative
// keywords it contains. The strictly larger side wins; a tie is neutral.
func Classify(text string) news.Sentiment {
	lower := strings.ToLower(text)
	pos := countPresent(lower, positiveWords)
	neg := countPresent(lower, negativeWords)
	switch {
	case pos > neg:
		return news.Positive
	case neg > pos:
		return news.Negative
	default:
		return news.Neutral
	}
}

func countPresent(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}
