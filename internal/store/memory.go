package store

import (
	"sync"

	"github.com/i474232898/sensor-data-aggregation/internal/telemetry"
)

// defaultCapacity bounds the window when no capacity is configured.
const defaultCapacity = 100000

// MemoryStore is a concurrency-safe, fixed-capacity ring buffer of telemetry
// records. Once full, each append evicts the oldest record. All reads return
// independent snapshot copies in insertion order.
type MemoryStore struct {
	mu sync.RWMutex

	data    []telemetry.Record
	tail    int // oldest record position
	count   int
	evicted int64
}

// NewMemoryStore creates a MemoryStore holding at most capacity records.
// If capacity is <= 0, a default capacity is used.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryStore{
		data: make([]telemetry.Record, capacity),
	}
}

// Append inserts a record at the tail of the window, evicting the oldest
// record when at capacity. It never fails.
func (s *MemoryStore) Append(rec telemetry.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	capacity := len(s.data)
	if s.count == capacity {
		s.tail = (s.tail + 1) % capacity
		s.count--
		s.evicted++
	}

	s.data[(s.tail+s.count)%capacity] = rec
	s.count++
}

// All returns a snapshot of every record, in insertion order.
func (s *MemoryStore) All() []telemetry.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]telemetry.Record, 0, s.count)
	for i := 0; i < s.count; i++ {
		out = append(out, s.data[(s.tail+i)%len(s.data)])
	}
	return out
}

// ByCity returns a snapshot of the records enriched with the given city id.
func (s *MemoryStore) ByCity(cityID string) []telemetry.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []telemetry.Record
	for i := 0; i < s.count; i++ {
		rec := s.data[(s.tail+i)%len(s.data)]
		if rec.CityID != nil && *rec.CityID == cityID {
			out = append(out, rec)
		}
	}
	return out
}

// BySensor returns a snapshot of the records produced by the given sensor.
func (s *MemoryStore) BySensor(sensorID string) []telemetry.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []telemetry.Record
	for i := 0; i < s.count; i++ {
		rec := s.data[(s.tail+i)%len(s.data)]
		if rec.SensorID == sensorID {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records currently retained.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Evicted returns the total number of records evicted since creation.
func (s *MemoryStore) Evicted() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}
