package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service validates submissions, enriches them through a provider and stores the result.
type Service struct {
	store    Store
	provider Provider

	now   func() time.Time
	newID func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used for date validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		provider: provider,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates q, fetches current conditions for its location and stores the
// combined record. It returns the new record's identifier. Nothing is stored on error.
func (s *Service) Submit(ctx context.Context, q WeatherQuery) (string, error) {
	valid, err := Validate(q, s.now())
	if err != nil {
		slog.DebugContext(ctx, "weather query rejected", "error", err)
		return "", err
	}

	if s.provider == nil {
		return "", Unavailable("none", "no weather provider configured", nil)
	}

	payload, err := s.provider.Current(ctx, valid.Location)
	if err != nil {
		var perr *ProviderError
		if !errors.As(err, &perr) {
			perr = Unavailable(s.provider.Name(), "failed to fetch weather data", err)
		}
		slog.WarnContext(ctx, "provider call failed",
			"provider", perr.Provider,
			"location", valid.Location,
			"kind", Kind(perr),
			"error", perr)
		return "", perr
	}

	record := WeatherRecord{
		ID:          s.newID(),
		Date:        valid.Date.Format(DateLayout),
		Location:    valid.Location,
		Notes:       valid.Notes,
		WeatherData: payload,
	}
	if err := s.store.Insert(record.ID, record); err != nil {
		return "", fmt.Errorf("store record: %w", err)
	}

	slog.InfoContext(ctx, "weather record created", "id", record.ID, "location", record.Location, "date", record.Date)
	return record.ID, nil
}

// Fetch returns the stored record for id, or an error matching ErrNotFound.
func (s *Service) Fetch(id string) (WeatherRecord, error) {
	return s.store.Lookup(id)
}

// Stats reports the number of stored records and the provider's state.
func (s *Service) Stats() Stats {
	st := Stats{Records: s.store.Len()}
	if s.provider != nil {
		st.Provider = s.provider.Name()
		if br, ok := s.provider.(BreakerReporter); ok {
			st.Breaker = br.BreakerState()
		}
	}
	return st
}
