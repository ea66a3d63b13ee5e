package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/i474232898/sensor-data-aggregation/internal/bus"
	"github.com/i474232898/sensor-data-aggregation/internal/telemetry"
)

// CityResolver maps a sensor id to a city id, nil when resolution fails.
type CityResolver interface {
	ResolveBySensor(ctx context.Context, sensorID string) *string
}

// Store receives enriched records.
type Store interface {
	Append(telemetry.Record)
}

// Worker is the single background task that pulls raw messages from the bus,
// enriches them and appends them to the store. Processing failures are
// isolated per message; the loop only stops when its context is cancelled.
type Worker struct {
	consumer    bus.Consumer
	resolver    CityResolver
	store       Store
	pollTimeout time.Duration
	alive       atomic.Bool
}

// New creates a Worker.
func New(consumer bus.Consumer, resolver CityResolver, store Store, pollTimeout time.Duration) *Worker {
	if pollTimeout <= 0 {
		pollTimeout = time.Second
	}
	return &Worker{
		consumer:    consumer,
		resolver:    resolver,
		store:       store,
		pollTimeout: pollTimeout,
	}
}

// Run consumes messages until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.alive.Store(true)
	defer w.alive.Store(false)

	log.Println("ingest: worker started")

	for {
		if ctx.Err() != nil {
			log.Println("ingest: worker stopping")
			return
		}

		msg, ok, err := w.consumer.Poll(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("ingest: worker stopping")
				return
			}
			log.Printf("ERROR: ingest: bus delivery failed: %v", err)
			continue
		}
		if !ok {
			// No message within the poll timeout.
			continue
		}

		rec, err := buildRecord(msg)
		if err != nil {
			log.Printf("ingest: dropping message from %s: %v", msg.Topic, err)
			continue
		}

		if rec.SensorID != "" {
			rec.CityID = w.resolver.ResolveBySensor(ctx, rec.SensorID)
		}

		w.store.Append(rec)
	}
}

// Alive reports whether the worker loop is currently running.
func (w *Worker) Alive() bool {
	return w.alive.Load()
}

// buildRecord parses a raw payload and classifies it by topic. Unrecognized
// topics are accepted and leave the sensor type unset.
func buildRecord(msg bus.Message) (telemetry.Record, error) {
	var payload map[string]any
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return telemetry.Record{}, fmt.Errorf("parse payload: %w", err)
	}

	rec := telemetry.Record{
		SourceTopic: msg.Topic,
		SensorType:  telemetry.SensorTypeForTopic(msg.Topic),
		Metrics:     make(map[string]float64),
	}

	if id, ok := payload["sensor_id"].(string); ok {
		rec.SensorID = id
	}
	if raw, ok := payload["event_time"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			rec.EventTime = ts
		}
	}

	if rec.SensorType != "" {
		for _, name := range telemetry.MetricsFor(rec.SensorType) {
			if v, ok := numeric(payload[name]); ok {
				rec.Metrics[name] = v
			}
		}
	} else {
		// Unclassified records keep every numeric field.
		for k, v := range payload {
			if k == "sensor_id" || k == "event_time" {
				continue
			}
			if f, ok := numeric(v); ok {
				rec.Metrics[k] = f
			}
		}
	}

	return rec, nil
}

func numeric(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
