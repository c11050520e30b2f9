package service

// Config holds configuration for the news service.
type Config struct {
	// GlobalCapacity bounds the market-wide news log.
	GlobalCapacity int
	// SymbolCapacity bounds each per-symbol news cache.
	SymbolCapacity int
	// ExternalEventBuffer is the size of the external events channel.
	ExternalEventBuffer int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		GlobalCapacity:      50,
		SymbolCapacity:      20,
		ExternalEventBuffer: 256,
	}
}
