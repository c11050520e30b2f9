package engine

// Regime is one row of the market-wide bias table. A tick lands in a
// regime with Probability and draws its bias uniformly from [Min, Max].
type Regime struct {
	Name        string
	Probability float64
	Min         float64
	Max         float64
}

// MacroEvent is a discrete market event that shocks every instrument, or
// only those in Sector when it is set.
type MacroEvent struct {
	Name     string
	Headline string
	ShockPct float64
	Sector   string
}

// Config holds engine thresholds and tables.
type Config struct {
	// Regimes are sampled by cumulative probability in order; the last row
	// absorbs any remaining probability mass.
	Regimes []Regime
	// NewsThresholdPct is the absolute move above which symbol news is
	// published.
	NewsThresholdPct float64
	// ExtremeBiasPct is the absolute bias above which market-wide news is
	// published.
	ExtremeBiasPct float64
	// NewsImpactProbability is the per-instrument chance of a sentiment
	// nudge each tick.
	NewsImpactProbability float64
	// MacroEventProbability is the per-tick chance of one macro event.
	MacroEventProbability float64
	MacroEvents           []MacroEvent
	// BankruptcyRatio is the fraction of initial cash at or below which the
	// player is bankrupt.
	BankruptcyRatio float64
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Regimes: []Regime{
			{Name: "crash", Probability: 0.02, Min: -15, Max: -10},
			{Name: "bear", Probability: 0.15, Min: -5, Max: -2},
			{Name: "bull", Probability: 0.15, Min: 3, Max: 8},
			{Name: "normal", Probability: 0.68, Min: -1, Max: 1},
		},
		NewsThresholdPct:      3,
		ExtremeBiasPct:        5,
		NewsImpactProbability: 0.3,
		MacroEventProbability: 0.1,
		MacroEvents: []MacroEvent{
			{Name: "rally", Headline: "Market rally: investors pour money into stocks", ShockPct: 5},
			{Name: "crash", Headline: "Flash crash rattles the market", ShockPct: -5},
			{Name: "tech_surge", Headline: "Tech stocks surge on breakthrough AI announcement", ShockPct: 8, Sector: "Technology"},
			{Name: "crisis", Headline: "Economic crisis deepens, markets tumble", ShockPct: -7},
			{Name: "good_news", Headline: "Strong jobs report lifts market sentiment", ShockPct: 7},
		},
		BankruptcyRatio: 0.3,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.Regimes) == 0 {
		c.Regimes = def.Regimes
	}
	if c.NewsThresholdPct <= 0 {
		c.NewsThresholdPct = def.NewsThresholdPct
	}
	if c.ExtremeBiasPct <= 0 {
		c.ExtremeBiasPct = def.ExtremeBiasPct
	}
	if c.NewsImpactProbability < 0 {
		c.NewsImpactProbability = 0
	}
	if c.MacroEventProbability < 0 {
		c.MacroEventProbability = 0
	}
	if c.BankruptcyRatio <= 0 {
		c.BankruptcyRatio = def.BankruptcyRatio
	}
	return c
}
