package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultDataSource is the Our World in Data COVID-19 dataset.
const DefaultDataSource = "https://covid.ourworldindata.org/data/owid-covid-data.csv"

// Config holds all job settings, populated from environment variables.
type Config struct {
	DataSource      string
	FetchTimeout    time.Duration
	OutputDir       string
	RollingWindow   int
	WorkbookEnabled bool

	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	PushgatewayURL  string
	ShutdownTimeout time.Duration

	// Kafka snapshot feed configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "60s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	window, err := strconv.Atoi(sharedcfg.EnvOrDefault("ROLLING_WINDOW", "7"))
	if err != nil || window < 1 {
		return nil, errors.New("invalid ROLLING_WINDOW: must be a positive integer")
	}

	cfg := &Config{
		DataSource:      sharedcfg.EnvOrDefault("DATA_SOURCE", DefaultDataSource),
		FetchTimeout:    fetchTimeout,
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "."),
		RollingWindow:   window,
		WorkbookEnabled: parseBool("WORKBOOK_ENABLED", true),

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:       parseBool("KAFKA_ENABLED", false),
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "covid-latest-snapshot"),
	}

	if cfg.DataSource == "" {
		return nil, errors.New("DATA_SOURCE is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}
