package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	// DatabaseURL is the Postgres DSN for alerts, recipients, and scored
	// assessment history.
	DatabaseURL string

	// ML scoring service configuration. Disabled when no base URL is set;
	// scoring then starts at the rule tier.
	ModelBaseURL string
	ModelEnabled bool
	ModelTimeout time.Duration

	// Proof anchoring ledger configuration.
	AnchorBaseURL string
	AnchorEnabled bool
	AnchorTimeout time.Duration

	// AutoAlertThreshold triggers alert creation from the scoring pipeline
	// when a category risk reaches it. Zero disables auto alerts.
	AutoAlertThreshold float64

	// Notification dispatch.
	DispatchMaxConcurrent int
	SendTimeout           time.Duration
	PushBaseURL           string
	EmailBaseURL          string
	SMSBaseURL            string
	WebhookTargets        []string

	// Background job runner.
	JobWorkers     int
	JobMaxAttempts int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	modelTimeout, err := parseDurationEnv("MODEL_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	anchorTimeout, err := parseDurationEnv("ANCHOR_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	sendTimeout, err := parseDurationEnv("SEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	threshold, err := parseThreshold()
	if err != nil {
		return nil, err
	}
	maxConcurrent, err := parsePositiveIntEnv("DISPATCH_MAX_CONCURRENT", 16, 1024)
	if err != nil {
		return nil, err
	}
	jobWorkers, err := parsePositiveIntEnv("JOB_WORKERS", 8, 256)
	if err != nil {
		return nil, err
	}
	jobMaxAttempts, err := parsePositiveIntEnv("JOB_MAX_ATTEMPTS", 5, 20)
	if err != nil {
		return nil, err
	}

	modelBaseURL := os.Getenv("MODEL_BASE_URL")
	modelEnabled := modelBaseURL != ""
	if v := os.Getenv("MODEL_ENABLED"); v != "" {
		modelEnabled = v == "true"
	}

	anchorBaseURL := os.Getenv("ANCHOR_BASE_URL")
	anchorEnabled := anchorBaseURL != ""
	if v := os.Getenv("ANCHOR_ENABLED"); v != "" {
		anchorEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:     splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "raw-observations"),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "risk-assessments"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "climate-alert-scorer"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,

		DatabaseURL: os.Getenv("DATABASE_URL"),

		ModelBaseURL: modelBaseURL,
		ModelEnabled: modelEnabled,
		ModelTimeout: modelTimeout,

		AnchorBaseURL: anchorBaseURL,
		AnchorEnabled: anchorEnabled,
		AnchorTimeout: anchorTimeout,

		AutoAlertThreshold: threshold,

		DispatchMaxConcurrent: maxConcurrent,
		SendTimeout:           sendTimeout,
		PushBaseURL:           os.Getenv("PUSH_BASE_URL"),
		EmailBaseURL:          os.Getenv("EMAIL_BASE_URL"),
		SMSBaseURL:            os.Getenv("SMS_BASE_URL"),
		WebhookTargets:        splitList(os.Getenv("WEBHOOK_TARGETS")),

		JobWorkers:     jobWorkers,
		JobMaxAttempts: jobMaxAttempts,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.ModelEnabled && cfg.ModelBaseURL == "" {
		return nil, errors.New("MODEL_ENABLED is true but MODEL_BASE_URL is not set")
	}
	if cfg.AnchorEnabled && cfg.AnchorBaseURL == "" {
		return nil, errors.New("ANCHOR_ENABLED is true but ANCHOR_BASE_URL is not set")
	}

	return cfg, nil
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDurationEnv(name string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return d, nil
}

func parsePositiveIntEnv(name string, def, max int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > max {
		return 0, fmt.Errorf("invalid %s: %q (must be 1..%d)", name, s, max)
	}
	return n, nil
}

func parseThreshold() (float64, error) {
	s := os.Getenv("AUTO_ALERT_THRESHOLD")
	if s == "" {
		return 0.8, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 1 {
		return 0, fmt.Errorf("invalid AUTO_ALERT_THRESHOLD: %q (must be 0..1)", s)
	}
	return f, nil
}
