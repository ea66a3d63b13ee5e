package lookup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// Postgres resolves sensors, roads and city names against the relational
// lookup database. Every query runs through a shared circuit breaker so that
// an unreachable database fails fast instead of stalling ingestion; failures
// stay uncached upstream and are retried once the breaker half-opens.
type Postgres struct {
	db *sql.DB
	cb *gobreaker.CircuitBreaker
}

// NewPostgres creates a Postgres lookup over an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "lookup-db",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Postgres{db: db, cb: cb}
}

type sensorRow struct {
	cityID *string
	roadID *string
	found  bool
}

// CityBySensor returns the sensor's direct city assignment and road
// assignment. A missing sensor is not an error and does not trip the breaker.
func (p *Postgres) CityBySensor(ctx context.Context, sensorID string) (*string, *string, bool, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		var cityID, roadID sql.NullString
		err := p.db.QueryRowContext(ctx,
			`SELECT city_id::text, road_id::text FROM sensors WHERE id = $1`,
			sensorID,
		).Scan(&cityID, &roadID)
		if errors.Is(err, sql.ErrNoRows) {
			return sensorRow{}, nil
		}
		if err != nil {
			return nil, err
		}
		return sensorRow{
			cityID: nullable(cityID),
			roadID: nullable(roadID),
			found:  true,
		}, nil
	})
	if err != nil {
		return nil, nil, false, fmt.Errorf("lookup sensor %s: %w", sensorID, err)
	}

	row := result.(sensorRow)
	return row.cityID, row.roadID, row.found, nil
}

// OriginCityByRoad returns the origin city of a road, if any.
func (p *Postgres) OriginCityByRoad(ctx context.Context, roadID string) (*string, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		var cityID sql.NullString
		err := p.db.QueryRowContext(ctx,
			`SELECT origin_city_id::text FROM roads WHERE id = $1`,
			roadID,
		).Scan(&cityID)
		if errors.Is(err, sql.ErrNoRows) {
			return (*string)(nil), nil
		}
		if err != nil {
			return nil, err
		}
		return nullable(cityID), nil
	})
	if err != nil {
		return nil, fmt.Errorf("lookup road %s: %w", roadID, err)
	}
	return result.(*string), nil
}

// CityByName returns the id of the city with the given name, if any.
func (p *Postgres) CityByName(ctx context.Context, name string) (*string, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		var cityID sql.NullString
		err := p.db.QueryRowContext(ctx,
			`SELECT id::text FROM cities WHERE name = $1`,
			name,
		).Scan(&cityID)
		if errors.Is(err, sql.ErrNoRows) {
			return (*string)(nil), nil
		}
		if err != nil {
			return nil, err
		}
		return nullable(cityID), nil
	})
	if err != nil {
		return nil, fmt.Errorf("lookup city %s: %w", name, err)
	}
	return result.(*string), nil
}

// CityNames lists the names of cities that have at least one sensor assigned.
func (p *Postgres) CityNames(ctx context.Context) ([]string, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		rows, err := p.db.QueryContext(ctx,
			`SELECT DISTINCT name FROM cities
			 WHERE id IN (SELECT DISTINCT city_id FROM sensors WHERE city_id IS NOT NULL)`,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var names []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return names, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return result.([]string), nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
