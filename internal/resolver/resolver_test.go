package resolver

import (
	"context"
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }

// fakeLookup is an in-memory Lookup with call counters.
type fakeLookup struct {
	sensors map[string]struct {
		cityID *string
		roadID *string
	}
	roads  map[string]*string
	cities map[string]*string

	err error

	sensorCalls int
	roadCalls   int
	cityCalls   int
}

func (f *fakeLookup) CityBySensor(_ context.Context, sensorID string) (*string, *string, bool, error) {
	f.sensorCalls++
	if f.err != nil {
		return nil, nil, false, f.err
	}
	row, ok := f.sensors[sensorID]
	if !ok {
		return nil, nil, false, nil
	}
	return row.cityID, row.roadID, true, nil
}

func (f *fakeLookup) OriginCityByRoad(_ context.Context, roadID string) (*string, error) {
	f.roadCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.roads[roadID], nil
}

func (f *fakeLookup) CityByName(_ context.Context, name string) (*string, error) {
	f.cityCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.cities[name], nil
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		sensors: make(map[string]struct {
			cityID *string
			roadID *string
		}),
		roads:  make(map[string]*string),
		cities: make(map[string]*string),
	}
}

func TestResolveBySensorDirectAssignment(t *testing.T) {
	lookup := newFakeLookup()
	lookup.sensors["sensor-1"] = struct {
		cityID *string
		roadID *string
	}{cityID: strPtr("10")}

	r := New(lookup)

	got := r.ResolveBySensor(context.Background(), "sensor-1")
	if got == nil || *got != "10" {
		t.Fatalf("expected city 10, got %v", got)
	}

	// Second resolution must be served from the cache.
	got = r.ResolveBySensor(context.Background(), "sensor-1")
	if got == nil || *got != "10" {
		t.Fatalf("expected cached city 10, got %v", got)
	}
	if lookup.sensorCalls != 1 {
		t.Fatalf("expected 1 lookup call, got %d", lookup.sensorCalls)
	}
	if r.CacheLen() != 1 {
		t.Fatalf("expected 1 cache entry, got %d", r.CacheLen())
	}
}

// TestResolveBySensorRoadFallback verifies that a sensor with no direct city
// assignment resolves through its road's origin city and that the result is
// cached under the sensor id.
func TestResolveBySensorRoadFallback(t *testing.T) {
	lookup := newFakeLookup()
	lookup.sensors["sensor-2"] = struct {
		cityID *string
		roadID *string
	}{roadID: strPtr("road-7")}
	lookup.roads["road-7"] = strPtr("42")

	r := New(lookup)

	got := r.ResolveBySensor(context.Background(), "sensor-2")
	if got == nil || *got != "42" {
		t.Fatalf("expected origin city 42, got %v", got)
	}

	got = r.ResolveBySensor(context.Background(), "sensor-2")
	if got == nil || *got != "42" {
		t.Fatalf("expected cached origin city 42, got %v", got)
	}
	if lookup.sensorCalls != 1 || lookup.roadCalls != 1 {
		t.Fatalf("expected single sensor and road lookups, got %d and %d",
			lookup.sensorCalls, lookup.roadCalls)
	}
}

func TestResolveBySensorNoCity(t *testing.T) {
	lookup := newFakeLookup()
	// Sensor exists but has neither a city nor a road.
	lookup.sensors["sensor-3"] = struct {
		cityID *string
		roadID *string
	}{}

	r := New(lookup)

	if got := r.ResolveBySensor(context.Background(), "sensor-3"); got != nil {
		t.Fatalf("expected nil resolution, got %v", *got)
	}
	if r.CacheLen() != 0 {
		t.Fatalf("unresolvable sensor must not be cached, cache has %d entries", r.CacheLen())
	}

	// Unknown sensor also resolves to nil, uncached.
	if got := r.ResolveBySensor(context.Background(), "missing"); got != nil {
		t.Fatalf("expected nil resolution for unknown sensor, got %v", *got)
	}
	if r.CacheLen() != 0 {
		t.Fatalf("unknown sensor must not be cached, cache has %d entries", r.CacheLen())
	}
}

// TestFailedResolutionRetried verifies that a lookup failure is never cached:
// every retry issues a fresh lookup call, and resolution succeeds once the
// lookup service recovers.
func TestFailedResolutionRetried(t *testing.T) {
	lookup := newFakeLookup()
	lookup.sensors["sensor-4"] = struct {
		cityID *string
		roadID *string
	}{cityID: strPtr("5")}
	lookup.err = errors.New("connection refused")

	r := New(lookup)

	if got := r.ResolveBySensor(context.Background(), "sensor-4"); got != nil {
		t.Fatalf("expected nil while lookup is failing, got %v", *got)
	}
	if got := r.ResolveBySensor(context.Background(), "sensor-4"); got != nil {
		t.Fatalf("expected nil while lookup is failing, got %v", *got)
	}
	if lookup.sensorCalls != 2 {
		t.Fatalf("expected a fresh lookup per retry, got %d calls", lookup.sensorCalls)
	}

	lookup.err = nil
	got := r.ResolveBySensor(context.Background(), "sensor-4")
	if got == nil || *got != "5" {
		t.Fatalf("expected city 5 after recovery, got %v", got)
	}
}

func TestResolveByCityName(t *testing.T) {
	lookup := newFakeLookup()
	lookup.cities["Lisbon"] = strPtr("3")

	r := New(lookup)

	got := r.ResolveByCityName(context.Background(), "Lisbon")
	if got == nil || *got != "3" {
		t.Fatalf("expected city 3, got %v", got)
	}

	r.ResolveByCityName(context.Background(), "Lisbon")
	if lookup.cityCalls != 1 {
		t.Fatalf("expected 1 lookup call, got %d", lookup.cityCalls)
	}

	if got := r.ResolveByCityName(context.Background(), "Atlantis"); got != nil {
		t.Fatalf("expected nil for unknown city, got %v", *got)
	}
}
