package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/sensor-data-aggregation/internal/store"
	"github.com/i474232898/sensor-data-aggregation/internal/telemetry"
)

type fakeResolver struct {
	cities map[string]string
}

func (f *fakeResolver) ResolveByCityName(_ context.Context, name string) *string {
	if cityID, ok := f.cities[name]; ok {
		return &cityID
	}
	return nil
}

func (f *fakeResolver) CacheLen() int { return len(f.cities) }

type fakeDirectory struct {
	names []string
}

func (f *fakeDirectory) CityNames(context.Context) ([]string, error) {
	return f.names, nil
}

func strPtr(s string) *string { return &s }

func newTestApp(records ...telemetry.Record) *fiber.App {
	app := fiber.New()

	memStore := store.NewMemoryStore(100)
	for _, rec := range records {
		memStore.Append(rec)
	}

	resolver := &fakeResolver{cities: map[string]string{"Lisbon": "1"}}
	directory := &fakeDirectory{names: []string{"Lisbon"}}
	svc := telemetry.NewService(memStore, resolver, directory, func() bool { return true })
	RegisterRoutes(app, svc)

	return app
}

func doRequest(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

// TestAggregateValidation verifies that malformed aggregation requests are
// rejected with 400, distinct from the 404 returned when no data matches.
func TestAggregateValidation(t *testing.T) {
	app := newTestApp()

	cases := []struct {
		name string
		path string
		want int
	}{
		{"unknown operation", "/api/v1/sensors/median?city_id=1&sensor_type=air&date=2026-03-14", http.StatusBadRequest},
		{"unknown sensor type", "/api/v1/sensors/average?city_id=1&sensor_type=noise&date=2026-03-14", http.StatusBadRequest},
		{"malformed date", "/api/v1/sensors/average?city_id=1&sensor_type=air&date=14-03-2026", http.StatusBadRequest},
		{"missing city id", "/api/v1/sensors/average?sensor_type=air&date=2026-03-14", http.StatusBadRequest},
		{"no matching data", "/api/v1/sensors/average?city_id=1&sensor_type=air&date=2026-03-14", http.StatusNotFound},
	}

	for _, tc := range cases {
		resp := doRequest(t, app, tc.path)
		if resp.StatusCode != tc.want {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.want, resp.StatusCode)
		}
	}
}

func TestAggregateSuccess(t *testing.T) {
	day := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	app := newTestApp(
		telemetry.Record{
			SourceTopic: "sensor_metrics_air",
			SensorType:  telemetry.SensorAir,
			SensorID:    "sensor-1",
			CityID:      strPtr("1"),
			EventTime:   day,
			Metrics:     map[string]float64{"co2": 10},
		},
		telemetry.Record{
			SourceTopic: "sensor_metrics_air",
			SensorType:  telemetry.SensorAir,
			SensorID:    "sensor-1",
			CityID:      strPtr("1"),
			EventTime:   day.Add(time.Hour),
			Metrics:     map[string]float64{"co2": 30},
		},
	)

	resp := doRequest(t, app, "/api/v1/sensors/average?city_id=1&sensor_type=air&date=2026-03-14")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var result telemetry.AggregateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Metadata.Status != "success" {
		t.Fatalf("expected success status, got %q", result.Metadata.Status)
	}
	if len(result.Results) != 1 || result.Results[0].Metric != "co2" {
		t.Fatalf("unexpected results: %+v", result.Results)
	}
	if result.Results[0].Value != 20.0 {
		t.Fatalf("expected average 20.0, got %v", result.Results[0].Value)
	}
}

func TestDataByCityName(t *testing.T) {
	day := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	app := newTestApp(
		telemetry.Record{
			SourceTopic: "sensor_metrics_ambient",
			SensorType:  telemetry.SensorAmbient,
			SensorID:    "sensor-2",
			CityID:      strPtr("1"),
			EventTime:   day,
			Metrics:     map[string]float64{"temperature": 21.5},
		},
	)

	resp := doRequest(t, app, "/api/v1/sensors/data/Lisbon")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	// Unknown city name is a 404, not a validation failure.
	resp = doRequest(t, app, "/api/v1/sensors/data/Atlantis")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown city, got %d", resp.StatusCode)
	}
}

func TestSensorDataValidation(t *testing.T) {
	app := newTestApp()

	resp := doRequest(t, app, "/api/v1/sensors/sensor-data")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 without sensor_id, got %d", resp.StatusCode)
	}

	resp = doRequest(t, app, "/api/v1/sensors/sensor-data?sensor_id=missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown sensor, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp()

	resp := doRequest(t, app, "/api/v1/sensors/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status          string `json:"status"`
		ConsumerRunning bool   `json:"consumer_running"`
		MessageCount    int    `json:"message_count"`
		CacheSize       int    `json:"cache_size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "ok" || !body.ConsumerRunning {
		t.Fatalf("unexpected health payload: %+v", body)
	}
}
