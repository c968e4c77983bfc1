package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Config carries everything the composition root needs to wire the service:
// transport endpoints, storage credentials, the Kafka event log, the
// dispatch tunables and the collaborator base URLs.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	KafkaBrokers        []string
	KafkaLifecycleTopic string
	KafkaConsumerGroup  string

	OfferTTL              time.Duration
	MaxAssignmentAttempts int
	SearchRadiusKm        float64
	LocationFreshness     time.Duration
	ScanCronSpec          string

	RoutingBaseURL  string
	PricingBaseURL  string
	PushBaseURL     string
	ScheduleBaseURL string
}

// ConfigFromEnv builds a Config from the process environment, applying the
// documented defaults for the dispatch tunables.
func ConfigFromEnv() Config {
	return Config{
		HTTPPort:   envOr("HTTP_PORT", "8080"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     envOr("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSslMode:  envOr("DB_SSLMODE", "disable"),

		KafkaBrokers:        strings.Split(envOr("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaLifecycleTopic: envOr("KAFKA_LIFECYCLE_TOPIC", "order.lifecycle"),
		KafkaConsumerGroup:  envOr("KAFKA_CONSUMER_GROUP", "dispatch"),

		OfferTTL:              time.Duration(cast.ToInt(envOr("OFFER_TTL_SECONDS", "60"))) * time.Second,
		MaxAssignmentAttempts: cast.ToInt(envOr("MAX_ASSIGNMENT_ATTEMPTS", "5")),
		SearchRadiusKm:        cast.ToFloat64(envOr("SEARCH_RADIUS_KM", "5")),
		LocationFreshness:     time.Duration(cast.ToInt(envOr("LOCATION_FRESHNESS_SECONDS", "120"))) * time.Second,
		ScanCronSpec:          envOr("SCAN_CRON_SPEC", "* * * * * *"),

		RoutingBaseURL:  os.Getenv("ROUTING_BASE_URL"),
		PricingBaseURL:  os.Getenv("PRICING_BASE_URL"),
		PushBaseURL:     os.Getenv("PUSH_BASE_URL"),
		ScheduleBaseURL: os.Getenv("SCHEDULE_BASE_URL"),
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
