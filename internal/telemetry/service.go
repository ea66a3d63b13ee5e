package telemetry

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoData is returned when no stored records match a query.
	ErrNoData = errors.New("no telemetry data matched")

	// ErrUnknownCity is returned when a city name cannot be resolved.
	ErrUnknownCity = errors.New("unknown city")
)

// Store is the contract the in-memory telemetry store must satisfy.
type Store interface {
	Append(Record)
	All() []Record
	ByCity(cityID string) []Record
	BySensor(sensorID string) []Record
	Len() int
}

// Resolver maps city names to city identifiers and exposes the size of its
// resolution cache.
type Resolver interface {
	ResolveByCityName(ctx context.Context, name string) *string
	CacheLen() int
}

// CityDirectory lists the cities known to the lookup service.
type CityDirectory interface {
	CityNames(ctx context.Context) ([]string, error)
}

// HealthStatus summarizes the runtime state of the pipeline.
type HealthStatus struct {
	IngestionAlive bool `json:"ingestion_alive"`
	RecordCount    int  `json:"record_count"`
	CacheSize      int  `json:"cache_size"`
}

// Service answers queries over the telemetry window.
type Service struct {
	store    Store
	resolver Resolver
	cities   CityDirectory
	alive    func() bool
}

// NewService creates a new Service. alive reports whether the ingestion
// worker is running; nil is treated as never alive.
func NewService(store Store, resolver Resolver, cities CityDirectory, alive func() bool) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		cities:   cities,
		alive:    alive,
	}
}

// GetAll returns a snapshot of every record in the window.
func (s *Service) GetAll() []Record {
	return s.store.All()
}

// GetByCityID returns the records enriched with the given city id.
func (s *Service) GetByCityID(cityID string) []Record {
	return s.store.ByCity(cityID)
}

// GetByCityName resolves a city name and returns its records.
// ErrUnknownCity and ErrNoData are distinct outcomes.
func (s *Service) GetByCityName(ctx context.Context, name string) ([]Record, error) {
	cityID := s.resolver.ResolveByCityName(ctx, name)
	if cityID == nil {
		return nil, ErrUnknownCity
	}

	records := s.store.ByCity(*cityID)
	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

// GetBySensor returns the records produced by the given sensor.
func (s *Service) GetBySensor(sensorID string) ([]Record, error) {
	records := s.store.BySensor(sensorID)
	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

// Cities lists the city names that have sensors assigned.
func (s *Service) Cities(ctx context.Context) ([]string, error) {
	return s.cities.CityNames(ctx)
}

// Aggregate computes per-metric aggregates over the city's records for one
// calendar day.
func (s *Service) Aggregate(op Operation, cityID string, st SensorType, day time.Time) (AggregateResult, error) {
	return AggregateRecords(s.store.ByCity(cityID), op, cityID, st, day)
}

// Health reports whether ingestion is running and the current window and
// cache sizes.
func (s *Service) Health() HealthStatus {
	return HealthStatus{
		IngestionAlive: s.alive != nil && s.alive(),
		RecordCount:    s.store.Len(),
		CacheSize:      s.resolver.CacheLen(),
	}
}
