package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers    []string
	KafkaEventTopic string
	KafkaGroupID    string

	HTTPAddr  string
	LogLevel  string
	LogFormat string

	GeometryPath    string
	RefreshInterval time.Duration
	LearningWindow  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "60s")
	if err != nil {
		return nil, err
	}
	learningWindow, err := parseDuration("LEARNING_WINDOW", "15m")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:    parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaEventTopic: envOrDefault("KAFKA_EVENT_TOPIC", "risk-events"),
		KafkaGroupID:    envOrDefault("KAFKA_GROUP_ID", "instability-core"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		GeometryPath:    os.Getenv("GEOMETRY_PATH"),
		RefreshInterval: refreshInterval,
		LearningWindow:  learningWindow,
		ShutdownTimeout: shutdownTimeout,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaEventTopic == "" {
		return nil, errors.New("KAFKA_EVENT_TOPIC is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}
