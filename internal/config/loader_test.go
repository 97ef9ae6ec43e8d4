package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, envPrefix) {
			t.Setenv(key, "")
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "roombooking.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("unexpected default session TTL: %s", cfg.SessionTTL)
		}
		if cfg.RedisAddr != "" || len(cfg.KafkaBrokers) != 0 || cfg.OTelEnabled {
			t.Fatalf("expected optional integrations to be disabled, got %+v", cfg)
		}
		if cfg.RateLimit != 60 || cfg.RateWindow != time.Minute {
			t.Fatalf("unexpected rate limit defaults: %d per %s", cfg.RateLimit, cfg.RateWindow)
		}
	})

	t.Run("errors when tracing is enabled without an endpoint", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMBOOKING_OTEL_ENABLED", "true")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "필수 환경 변수가 설정되지 않았습니다: ROOMBOOKING_OTEL_EXPORTER_OTLP_ENDPOINT"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMBOOKING_HTTP_PORT", "zero")
		t.Setenv("ROOMBOOKING_SESSION_TTL", "-1h")
		t.Setenv("ROOMBOOKING_OTEL_SAMPLING_RATIO", "1.5")
		t.Setenv("ROOMBOOKING_LOG_FORMAT", "xml")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{"ROOMBOOKING_HTTP_PORT", "ROOMBOOKING_SESSION_TTL", "ROOMBOOKING_OTEL_SAMPLING_RATIO", "ROOMBOOKING_LOG_FORMAT"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})

	t.Run("parses duration, list, and numeric fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMBOOKING_HTTP_PORT", "9090")
		t.Setenv("ROOMBOOKING_SQLITE_DSN", "/tmp/rooms.db")
		t.Setenv("ROOMBOOKING_SESSION_TTL", "24h")
		t.Setenv("ROOMBOOKING_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
		t.Setenv("ROOMBOOKING_OUTBOX_POLL_INTERVAL", "500ms")
		t.Setenv("ROOMBOOKING_REDIS_ADDR", "localhost:6379")
		t.Setenv("ROOMBOOKING_LOG_LEVEL", "DEBUG")
		t.Setenv("ROOMBOOKING_OTEL_ENABLED", "1")
		t.Setenv("ROOMBOOKING_OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
		t.Setenv("ROOMBOOKING_OTEL_SAMPLING_RATIO", "0.25")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.SessionTTL != 24*time.Hour {
			t.Fatalf("expected session TTL 24h, got %s", cfg.SessionTTL)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "/tmp/rooms.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
			t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
		}
		if cfg.OutboxPollInterval != 500*time.Millisecond {
			t.Fatalf("unexpected poll interval: %s", cfg.OutboxPollInterval)
		}
		if cfg.LogLevel != "debug" {
			t.Fatalf("expected lower-cased log level, got %q", cfg.LogLevel)
		}
		if !cfg.OTelEnabled || cfg.OTelSamplingRatio != 0.25 {
			t.Fatalf("unexpected tracing config: %+v", cfg)
		}
	})
}
