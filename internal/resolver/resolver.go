package resolver

import (
	"context"
	"log"
)

// Lookup abstracts the relational lookup service that maps sensors, roads
// and city names to city ids. A nil result pointer means "no assignment".
type Lookup interface {
	// CityBySensor returns the sensor's direct city assignment and its road
	// assignment. found is false when the sensor does not exist.
	CityBySensor(ctx context.Context, sensorID string) (cityID, roadID *string, found bool, err error)

	// OriginCityByRoad returns the origin city of a road, if any.
	OriginCityByRoad(ctx context.Context, roadID string) (*string, error)

	// CityByName returns the id of the city with the given name, if any.
	CityByName(ctx context.Context, name string) (*string, error)
}

// Resolver maps sensor ids and city names to city ids, consulting its cache
// before the lookup service. Lookup failures are treated as "not found" and
// are never cached, so they are retried on the next call.
type Resolver struct {
	cache  *Cache
	lookup Lookup
}

// New creates a Resolver backed by the given lookup service.
func New(lookup Lookup) *Resolver {
	return &Resolver{
		cache:  NewCache(),
		lookup: lookup,
	}
}

// ResolveBySensor returns the city id for a sensor, or nil when the sensor
// has neither a direct city assignment nor a road with a resolvable origin
// city. Successful resolutions are cached under the sensor id.
func (r *Resolver) ResolveBySensor(ctx context.Context, sensorID string) *string {
	if cityID, ok := r.cache.Get(sensorID); ok {
		return &cityID
	}

	cityID, roadID, found, err := r.lookup.CityBySensor(ctx, sensorID)
	if err != nil {
		log.Printf("resolver: lookup failed for sensor %s: %v", sensorID, err)
		return nil
	}
	if !found {
		log.Printf("resolver: no sensor found with id %s", sensorID)
		return nil
	}

	if cityID != nil {
		r.cache.Put(sensorID, *cityID)
		return cityID
	}

	// No direct assignment; fall back to the road's origin city.
	if roadID != nil {
		originID, err := r.lookup.OriginCityByRoad(ctx, *roadID)
		if err != nil {
			log.Printf("resolver: road lookup failed for sensor %s: %v", sensorID, err)
			return nil
		}
		if originID != nil {
			r.cache.Put(sensorID, *originID)
			return originID
		}
	}

	log.Printf("resolver: no city for sensor %s (neither direct nor via road)", sensorID)
	return nil
}

// ResolveByCityName returns the id of the city with the given name, or nil
// when no such city exists. Successful resolutions are cached under the name.
func (r *Resolver) ResolveByCityName(ctx context.Context, name string) *string {
	if cityID, ok := r.cache.Get(name); ok {
		return &cityID
	}

	cityID, err := r.lookup.CityByName(ctx, name)
	if err != nil {
		log.Printf("resolver: lookup failed for city %s: %v", name, err)
		return nil
	}
	if cityID == nil {
		return nil
	}

	r.cache.Put(name, *cityID)
	return cityID
}

// CacheLen returns the number of cached resolutions.
func (r *Resolver) CacheLen() int {
	return r.cache.Len()
}
