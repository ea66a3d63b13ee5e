package telemetry

import (
	"fmt"
	"math"
	"time"
)

// Operation selects the aggregate computed over each metric.
type Operation string

const (
	OpAverage Operation = "average"
	OpMin     Operation = "min"
	OpMax     Operation = "max"
)

// AggregateEntry is the aggregate of a single metric, annotated with its unit.
type AggregateEntry struct {
	Metric string  `json:"metric"`
	Unit   string  `json:"unit"`
	Value  float64 `json:"value"`
}

// AggregateMetadata describes the outcome of an aggregation call.
type AggregateMetadata struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// AggregateResult is the full response of an aggregation call.
type AggregateResult struct {
	Metadata AggregateMetadata `json:"metadata"`
	Results  []AggregateEntry  `json:"results"`
}

// AggregateRecords filters records to those of the given city, sensor type
// and calendar day (UTC), then computes the requested operation for every
// recognized metric of that type. Records without a usable event time are
// skipped. Metrics with no values present are omitted from the result.
//
// For water_usage a derived total_daily_usage entry (the sum of all
// usage_liters values) is appended regardless of the requested operation.
func AggregateRecords(records []Record, op Operation, cityID string, st SensorType, day time.Time) (AggregateResult, error) {
	day = day.UTC()

	var filtered []Record
	for _, r := range records {
		if r.CityID == nil || *r.CityID != cityID {
			continue
		}
		if r.SensorType != st {
			continue
		}
		if r.EventTime.IsZero() {
			continue
		}
		et := r.EventTime.UTC()
		if et.Year() != day.Year() || et.Month() != day.Month() || et.Day() != day.Day() {
			continue
		}
		filtered = append(filtered, r)
	}

	if len(filtered) == 0 {
		return AggregateResult{}, ErrNoData
	}

	var entries []AggregateEntry
	for _, metric := range MetricsFor(st) {
		var values []float64
		for _, r := range filtered {
			if v, ok := r.Metrics[metric]; ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}

		value, err := apply(op, values)
		if err != nil {
			return AggregateResult{}, err
		}
		entries = append(entries, AggregateEntry{
			Metric: metric,
			Unit:   UnitFor(st, metric),
			Value:  round2(value),
		})

		// Daily water consumption is always reported as a sum, on top of
		// whatever operation the caller asked for.
		if st == SensorWaterUsage && metric == "usage_liters" {
			var total float64
			for _, v := range values {
				total += v
			}
			entries = append(entries, AggregateEntry{
				Metric: "total_daily_usage",
				Unit:   UnitFor(st, "total_daily_usage"),
				Value:  round2(total),
			})
		}
	}

	return AggregateResult{
		Metadata: AggregateMetadata{
			Status:    "success",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Results: entries,
	}, nil
}

func apply(op Operation, values []float64) (float64, error) {
	switch op {
	case OpAverage:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), nil
	case OpMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min, nil
	case OpMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max, nil
	default:
		return 0, fmt.Errorf("unsupported operation %q", op)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
