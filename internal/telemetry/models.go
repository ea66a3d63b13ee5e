package telemetry

import (
	"time"
)

// SensorType classifies a record by the kind of sensor that produced it.
// The empty value means the source topic was not recognized and the record
// is unclassified.
type SensorType string

const (
	SensorAir          SensorType = "air"
	SensorAmbient      SensorType = "ambient"
	SensorTraffic      SensorType = "traffic"
	SensorWaterQuality SensorType = "water_quality"
	SensorWaterUsage   SensorType = "water_usage"
)

// Record is one enriched telemetry message. It is immutable once appended
// to the store.
type Record struct {
	SourceTopic string             `json:"source_topic"`
	SensorType  SensorType         `json:"sensor_type,omitempty"`
	SensorID    string             `json:"sensor_id"`
	CityID      *string            `json:"city_id"`
	EventTime   time.Time          `json:"event_time,omitzero"`
	Metrics     map[string]float64 `json:"metrics"`
}

// topicSensorTypes maps a source topic to its sensor type.
var topicSensorTypes = map[string]SensorType{
	"sensor_metrics_air":           SensorAir,
	"sensor_metrics_ambient":       SensorAmbient,
	"sensor_metrics_traffic":       SensorTraffic,
	"sensor_metrics_water_quality": SensorWaterQuality,
	"sensor_metrics_water_usage":   SensorWaterUsage,
}

// sensorTypeMetrics lists, in output order, the metric names recognized for
// each sensor type.
var sensorTypeMetrics = map[SensorType][]string{
	SensorAir:          {"pm10", "co", "co2", "no2", "o3", "so2"},
	SensorAmbient:      {"humidity", "temperature", "solar_radiation"},
	SensorTraffic:      {"avg_speed", "flow_rate", "occupancy", "vehicle_density", "congestion_index"},
	SensorWaterQuality: {"ph_level", "turbidity", "conductivity", "dissolved_oxygen", "water_temperature"},
	SensorWaterUsage:   {"usage_liters"},
}

// metricUnits maps a metric name to its unit of measure, per sensor type.
var metricUnits = map[SensorType]map[string]string{
	SensorAir: {
		"pm10": "µg/m³",
		"co":   "ppm",
		"co2":  "ppm",
		"no2":  "ppb",
		"o3":   "ppb",
		"so2":  "ppb",
	},
	SensorAmbient: {
		"humidity":        "%",
		"temperature":     "°C",
		"solar_radiation": "W/m²",
	},
	SensorTraffic: {
		"avg_speed":        "km/h",
		"flow_rate":        "vehicles/hour",
		"occupancy":        "%",
		"vehicle_density":  "vehicles/km",
		"congestion_index": "index",
	},
	SensorWaterQuality: {
		"ph_level":          "pH",
		"turbidity":         "NTU",
		"conductivity":      "µS/cm",
		"dissolved_oxygen":  "mg/L",
		"water_temperature": "°C",
	},
	SensorWaterUsage: {
		"usage_liters":      "L",
		"total_daily_usage": "L",
	},
}

// Topics returns the full list of source topics the service consumes.
func Topics() []string {
	topics := make([]string, 0, len(topicSensorTypes))
	for t := range topicSensorTypes {
		topics = append(topics, t)
	}
	return topics
}

// SensorTypeForTopic returns the sensor type derived from a source topic,
// or the empty type when the topic is not recognized.
func SensorTypeForTopic(topic string) SensorType {
	return topicSensorTypes[topic]
}

// MetricsFor returns the ordered metric names recognized for a sensor type.
func MetricsFor(st SensorType) []string {
	return sensorTypeMetrics[st]
}

// UnitFor returns the unit of measure for a metric of the given sensor type.
func UnitFor(st SensorType, metric string) string {
	return metricUnits[st][metric]
}
