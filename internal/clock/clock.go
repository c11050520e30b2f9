// Package clock tracks simulated market time.
package clock

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrDataExhausted is returned when a historical clock has no later date.
var ErrDataExhausted = errors.New("historical data exhausted")

// Mode names a clock implementation in saved state.
type Mode string

const (
	ModeSession    Mode = "session"
	ModeHistorical Mode = "historical"
)

// State is the persisted form of a clock.
type State struct {
	Mode  Mode      `yaml:"mode" json:"mode"`
	Now   time.Time `yaml:"now" json:"now"`
	Index int       `yaml:"index" json:"index"`
}

// Clock is the simulated time source. Time never moves backwards.
type Clock interface {
	Now() time.Time
	// Advance moves to the next tick and returns the new time. A clock
	// that cannot advance returns ErrDataExhausted and keeps its time.
	Advance() (time.Time, error)
	Exhausted() bool
	State() State
	Restore(State) error
}

// SessionConfig configures a SessionClock.
type SessionConfig struct {
	Start        time.Time
	HoursPerTick int
	MarketOpen   int
	MarketClose  int
}

// DefaultSessionConfig returns the 2024-01-01 09:00 start with 3-hour ticks
// and 09:00-16:00 market hours.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Start:        time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		HoursPerTick: 3,
		MarketOpen:   9,
		MarketClose:  16,
	}
}

// SessionClock steps through market hours, rolling over to the next day's
// open once the close is reached. It never runs out.
type SessionClock struct {
	cfg SessionConfig
	now time.Time
}

// NewSession creates a SessionClock.
func NewSession(cfg SessionConfig) *SessionClock {
	def := DefaultSessionConfig()
	if cfg.Start.IsZero() {
		cfg.Start = def.Start
	}
	if cfg.HoursPerTick <= 0 {
		cfg.HoursPerTick = def.HoursPerTick
	}
	if cfg.MarketClose <= cfg.MarketOpen || cfg.MarketOpen < 0 || cfg.MarketClose > 24 {
		cfg.MarketOpen, cfg.MarketClose = def.MarketOpen, def.MarketClose
	}
	return &SessionClock{cfg: cfg, now: cfg.Start}
}

func (c *SessionClock) Now() time.Time { return c.now }

func (c *SessionClock) Advance() (time.Time, error) {
	next := c.now.Add(time.Duration(c.cfg.HoursPerTick) * time.Hour)
	if next.Hour() >= c.cfg.MarketClose || next.YearDay() != c.now.YearDay() {
		y, m, d := c.now.Date()
		next = time.Date(y, m, d+1, c.cfg.MarketOpen, 0, 0, 0, c.now.Location())
	}
	c.now = next
	return c.now, nil
}

func (c *SessionClock) Exhausted() bool { return false }

func (c *SessionClock) State() State {
	return State{Mode: ModeSession, Now: c.now}
}

func (c *SessionClock) Restore(s State) error {
	if s.Mode != ModeSession {
		return fmt.Errorf("clock: cannot restore %q state into session clock", s.Mode)
	}
	if s.Now.IsZero() {
		return errors.New("clock: missing session time")
	}
	c.now = s.Now
	return nil
}

// HistoricalClock walks the trading dates of a pre-fetched series.
type HistoricalClock struct {
	dates []time.Time
	idx   int
}

// NewHistorical creates a HistoricalClock positioned on the first date.
// Dates are sorted and de-duplicated.
func NewHistorical(dates []time.Time) *HistoricalClock {
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	uniq := sorted[:0]
	for i, d := range sorted {
		if i > 0 && d.Equal(uniq[len(uniq)-1]) {
			continue
		}
		uniq = append(uniq, d)
	}
	return &HistoricalClock{dates: uniq}
}

func (c *HistoricalClock) Now() time.Time {
	if len(c.dates) == 0 {
		return time.Time{}
	}
	return c.dates[c.idx]
}

func (c *HistoricalClock) Advance() (time.Time, error) {
	if c.Exhausted() {
		return c.Now(), ErrDataExhausted
	}
	c.idx++
	return c.dates[c.idx], nil
}

func (c *HistoricalClock) Exhausted() bool {
	return c.idx >= len(c.dates)-1
}

// Remaining returns how many more times Advance can succeed.
func (c *HistoricalClock) Remaining() int {
	if len(c.dates) == 0 {
		return 0
	}
	return len(c.dates) - 1 - c.idx
}

func (c *HistoricalClock) State() State {
	return State{Mode: ModeHistorical, Now: c.Now(), Index: c.idx}
}

func (c *HistoricalClock) Restore(s State) error {
	if s.Mode != ModeHistorical {
		return fmt.Errorf("clock: cannot restore %q state into historical clock", s.Mode)
	}
	if s.Index < 0 || s.Index >= len(c.dates) {
		return fmt.Errorf("clock: index %d outside %d available dates", s.Index, len(c.dates))
	}
	c.idx = s.Index
	return nil
}
