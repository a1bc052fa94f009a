package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/i474232898/weather-records/internal/weather"
)

var (
	// ErrNotFound is returned when no record exists for an identifier.
	ErrNotFound = fmt.Errorf("store: %w", weather.ErrNotFound)

	// ErrDuplicateID is returned when an identifier is inserted twice.
	ErrDuplicateID = errors.New("store: identifier already in use")
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
// Records live for the lifetime of the process; nothing is ever removed.
type MemoryStore struct {
	mu sync.RWMutex

	// key: record identifier
	data map[string]weather.WeatherRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]weather.WeatherRecord),
	}
}

// Insert stores record under id. An existing id is never overwritten.
func (s *MemoryStore) Insert(id string, record weather.WeatherRecord) error {
	if id == "" {
		return errors.New("store: empty identifier")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	record.ID = id
	record.WeatherData = append([]byte(nil), record.WeatherData...)
	s.data[id] = record
	return nil
}

// Lookup returns the record stored under id.
func (s *MemoryStore) Lookup(id string) (weather.WeatherRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[id]
	if !ok {
		return weather.WeatherRecord{}, ErrNotFound
	}
	record.WeatherData = append([]byte(nil), record.WeatherData...)
	return record, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
