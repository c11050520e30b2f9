package game

import (
	"sort"
	"time"
)

// Score is one leaderboard entry.
type Score struct {
	Name      string    `yaml:"name"`
	ProfitPct float64   `yaml:"profit_pct"`
	Outcome   string    `yaml:"outcome"`
	Time      time.Time `yaml:"time"`
}

// Leaderboard keeps the best scores, highest profit first.
type Leaderboard struct {
	size   int
	scores []Score
}

// NewLeaderboard creates a Leaderboard keeping at most size scores.
func NewLeaderboard(size int) *Leaderboard {
	if size <= 0 {
		size = 10
	}
	return &Leaderboard{size: size}
}

// Add inserts s and drops whatever falls off the bottom. It reports
// whether s made the board.
func (l *Leaderboard) Add(s Score) bool {
	l.scores = append(l.scores, s)
	sort.SliceStable(l.scores, func(i, j int) bool { return l.scores[i].ProfitPct > l.scores[j].ProfitPct })
	kept := true
	if len(l.scores) > l.size {
		kept = l.scores[l.size] != s
		l.scores = l.scores[:l.size]
	}
	return kept
}

// Scores returns a copy of the board.
func (l *Leaderboard) Scores() []Score {
	out := make([]Score, len(l.scores))
	copy(out, l.scores)
	return out
}

func (l *Leaderboard) load(scores []Score) {
	l.scores = l.scores[:0]
	for _, s := range scores {
		l.Add(s)
	}
}
