package refresh

import "time"

// Config holds configuration for the refresh runner.
type Config struct {
	// Interval is the time between refresh rounds.
	Interval time.Duration
	// Timeout bounds one refresh round.
	Timeout time.Duration
	// Concurrency caps in-flight quote requests.
	Concurrency int
	// News turns on company news fetching.
	News bool
	// NewsLookback is how far back the first news fetch reaches.
	NewsLookback time.Duration
	// EventBuffer is the size of the refresh events channel.
	EventBuffer int
	// DropEvents determines whether the events channel drops on overflow.
	DropEvents bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Minute,
		Timeout:      10 * time.Second,
		Concurrency:  4,
		News:         true,
		NewsLookback: 24 * time.Hour,
		EventBuffer:  256,
		DropEvents:   true,
	}
}
