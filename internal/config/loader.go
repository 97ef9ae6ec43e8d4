package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "ROOMBOOKING_"

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	SessionTTL      time.Duration
	CatalogCacheTTL time.Duration
	LogLevel        string
	LogFormat       string

	RedisAddr  string
	RateLimit  int
	RateWindow time.Duration

	KafkaBrokers       []string
	KafkaTopic         string
	OutboxPollInterval time.Duration

	OTelEnabled       bool
	OTelEndpoint      string
	OTelSamplingRatio float64
	OTelServiceName   string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Missing and invalid entries are
// collected and reported together in a single localized error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:           8080,
		SQLiteDSN:          "roombooking.db",
		SessionTTL:         12 * time.Hour,
		CatalogCacheTTL:    30 * time.Second,
		LogLevel:           "info",
		LogFormat:          "json",
		RateLimit:          60,
		RateWindow:         time.Minute,
		KafkaTopic:         "room-booking.reservations",
		OutboxPollInterval: 2 * time.Second,
		OTelSamplingRatio:  1,
		OTelServiceName:    "room-booking",
	}

	r := &envReader{}

	r.positiveInt("HTTP_PORT", &cfg.HTTPPort)
	r.str("SQLITE_DSN", &cfg.SQLiteDSN)
	r.positiveDuration("SESSION_TTL", &cfg.SessionTTL)
	r.nonNegativeDuration("CATALOG_CACHE_TTL", &cfg.CatalogCacheTTL)
	r.oneOf("LOG_LEVEL", &cfg.LogLevel, "debug", "info", "warn", "error")
	r.oneOf("LOG_FORMAT", &cfg.LogFormat, "json", "text")

	r.str("REDIS_ADDR", &cfg.RedisAddr)
	r.positiveInt("RATE_LIMIT", &cfg.RateLimit)
	r.positiveDuration("RATE_WINDOW", &cfg.RateWindow)

	if brokers := r.get("KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	r.str("KAFKA_TOPIC", &cfg.KafkaTopic)
	r.positiveDuration("OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)

	r.boolean("OTEL_ENABLED", &cfg.OTelEnabled)
	r.str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OTelEndpoint)
	r.ratio("OTEL_SAMPLING_RATIO", &cfg.OTelSamplingRatio)
	r.str("OTEL_SERVICE_NAME", &cfg.OTelServiceName)
	if cfg.OTelEnabled && cfg.OTelEndpoint == "" {
		r.missing = append(r.missing, envPrefix+"OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	if len(r.missing) > 0 {
		return Config{}, fmt.Errorf("필수 환경 변수가 설정되지 않았습니다: %s", strings.Join(r.missing, ", "))
	}
	if len(r.invalid) > 0 {
		return Config{}, fmt.Errorf("환경 변수 값이 올바르지 않습니다: %s", strings.Join(r.invalid, ", "))
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

type envReader struct {
	missing []string
	invalid []string
}

func (r *envReader) get(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func (r *envReader) fail(key string) {
	r.invalid = append(r.invalid, envPrefix+key)
}

func (r *envReader) str(key string, dst *string) {
	if value := r.get(key); value != "" {
		*dst = value
	}
}

func (r *envReader) positiveInt(key string, dst *int) {
	value := r.get(key)
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		r.fail(key)
		return
	}
	*dst = n
}

func (r *envReader) positiveDuration(key string, dst *time.Duration) {
	value := r.get(key)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		r.fail(key)
		return
	}
	*dst = d
}

func (r *envReader) nonNegativeDuration(key string, dst *time.Duration) {
	value := r.get(key)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		r.fail(key)
		return
	}
	*dst = d
}

func (r *envReader) boolean(key string, dst *bool) {
	value := r.get(key)
	if value == "" {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key)
		return
	}
	*dst = b
}

func (r *envReader) ratio(key string, dst *float64) {
	value := r.get(key)
	if value == "" {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 || f > 1 {
		r.fail(key)
		return
	}
	*dst = f
}

func (r *envReader) oneOf(key string, dst *string, allowed ...string) {
	value := strings.ToLower(r.get(key))
	if value == "" {
		return
	}
	for _, candidate := range allowed {
		if value == candidate {
			*dst = value
			return
		}
	}
	r.fail(key)
}
