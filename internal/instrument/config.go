package instrument

// Config holds per-instrument price model settings.
type Config struct {
	// HistoryCapacity bounds the number of bars kept (100 or 365 typical).
	HistoryCapacity int
	// MinPrice is the floor every price is clamped to.
	MinPrice float64
	// NoiseSigma is the stddev, in percent, of the idiosyncratic noise the
	// seeded model adds to every move.
	NoiseSigma float64
	// RecommendationWindow is the number of recent bars the tag is
	// derived from.
	RecommendationWindow int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		HistoryCapacity:      365,
		MinPrice:             0.01,
		NoiseSigma:           1.5,
		RecommendationWindow: 20,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = def.HistoryCapacity
	}
	if c.MinPrice <= 0 {
		c.MinPrice = def.MinPrice
	}
	if c.NoiseSigma < 0 {
		c.NoiseSigma = def.NoiseSigma
	}
	if c.RecommendationWindow <= 0 {
		c.RecommendationWindow = def.RecommendationWindow
	}
	return c
}
