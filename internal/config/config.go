package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// KafkaBrokers is the bootstrap broker list for the sensor topics.
	KafkaBrokers []string

	// PostgresDSN points at the lookup database (cities/roads/sensors).
	PostgresDSN string

	// StoreCapacity bounds the in-memory telemetry window.
	StoreCapacity int

	// PollTimeout is how long one bus poll waits for a message.
	PollTimeout time.Duration

	// StatsInterval controls how often runtime stats are logged.
	StatsInterval time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	brokers := getenvDefault("KAFKA_BROKERS", "localhost:9092")
	cfg.KafkaBrokers = strings.Split(brokers, ",")

	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}

	cfg.StoreCapacity = getenvInt("STORE_CAPACITY", 100000)

	pollTimeoutStr := getenvDefault("POLL_TIMEOUT", "1s")
	pollTimeout, err := time.ParseDuration(pollTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_TIMEOUT: %w", err)
	}
	cfg.PollTimeout = pollTimeout

	statsIntervalStr := getenvDefault("STATS_INTERVAL", "1m")
	statsInterval, err := time.ParseDuration(statsIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_INTERVAL: %w", err)
	}
	cfg.StatsInterval = statsInterval

	readTimeoutStr := getenvDefault("HTTP_READ_TIMEOUT", "10s")
	readTimeout, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPReadTimeout = readTimeout

	writeTimeoutStr := getenvDefault("HTTP_WRITE_TIMEOUT", "10s")
	writeTimeout, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout = writeTimeout

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
