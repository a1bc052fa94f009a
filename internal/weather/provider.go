package weather

import (
	"context"
	"encoding/json"
)

// Provider abstracts a current-conditions weather source (e.g. Weatherstack, WeatherAPI).
// Current returns the provider response body verbatim. Failures are *ProviderError values.
type Provider interface {
	Name() string
	Current(ctx context.Context, location string) (json.RawMessage, error)
}

// BreakerReporter is implemented by providers guarded by a circuit breaker.
type BreakerReporter interface {
	BreakerState() string
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
// Insert and Lookup must be safe for concurrent use.
type Store interface {
	Insert(id string, record WeatherRecord) error
	Lookup(id string) (WeatherRecord, error)
	Len() int
}
