package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/crimson-sun/vettriage/internal/model"
)

// Config holds all vettriage configuration.
type Config struct {
	Engine  EngineConfig
	Server  ServerConfig
	History HistoryConfig
	Output  OutputConfig
	Webhook WebhookConfig
	Log     LogConfig
}

// EngineConfig locates the model artifact and severity catalog.
type EngineConfig struct {
	ArtifactPath string
	CatalogPath  string
	TopK         int
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// HistoryConfig enables the SQLite prediction history when DSN is set.
type HistoryConfig struct {
	DSN string
}

// OutputConfig selects where prediction records are written.
type OutputConfig struct {
	Kind     string // "stdout", "file" or "none"
	FilePath string
	Pretty   bool
}

// WebhookConfig forwards urgent predictions to an HTTP endpoint when URL is set.
type WebhookConfig struct {
	URL        string
	MinUrgency model.Urgency
	Timeout    time.Duration
}

// LogConfig controls the default slog logger.
type LogConfig struct {
	Level string
	JSON  bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Engine: EngineConfig{
			ArtifactPath: getenv("VETTRIAGE_ARTIFACT_PATH", "models/disease_model.json"),
			CatalogPath:  getenv("VETTRIAGE_CATALOG_PATH", "models/severity_mapping.json"),
			TopK:         getenvInt("VETTRIAGE_TOP_K", 3),
		},
		Server: ServerConfig{
			Addr:            getenv("VETTRIAGE_ADDR", ":5000"),
			ShutdownTimeout: getenvDuration("VETTRIAGE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		History: HistoryConfig{
			DSN: os.Getenv("VETTRIAGE_HISTORY_DSN"),
		},
		Output: OutputConfig{
			Kind:     getenv("VETTRIAGE_OUTPUT", "stdout"),
			FilePath: os.Getenv("VETTRIAGE_OUTPUT_FILE"),
			Pretty:   getenvBool("VETTRIAGE_OUTPUT_PRETTY", false),
		},
		Webhook: WebhookConfig{
			URL:        os.Getenv("VETTRIAGE_WEBHOOK_URL"),
			MinUrgency: model.Urgency(getenv("VETTRIAGE_WEBHOOK_MIN_URGENCY", string(model.UrgencyEmergency))),
			Timeout:    getenvDuration("VETTRIAGE_WEBHOOK_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level: getenv("VETTRIAGE_LOG_LEVEL", "info"),
			JSON:  getenvBool("VETTRIAGE_LOG_JSON", false),
		},
	}
}

// Validate checks the configuration and reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Engine.ArtifactPath == "" {
		errs = append(errs, fmt.Errorf("artifact path is required (VETTRIAGE_ARTIFACT_PATH)"))
	}
	if c.Engine.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive, got %d", c.Engine.TopK))
	}
	switch c.Output.Kind {
	case "stdout", "none":
	case "file":
		if c.Output.FilePath == "" {
			errs = append(errs, fmt.Errorf("output file path is required when VETTRIAGE_OUTPUT=file (VETTRIAGE_OUTPUT_FILE)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown output kind %q (want stdout, file or none)", c.Output.Kind))
	}
	if c.Webhook.URL != "" {
		if u, ok := model.ParseUrgency(string(c.Webhook.MinUrgency)); !ok || u == model.UrgencyUnknown {
			errs = append(errs, fmt.Errorf("unknown webhook min urgency %q", c.Webhook.MinUrgency))
		}
		if c.Webhook.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("webhook timeout must be positive, got %v", c.Webhook.Timeout))
		}
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be non-negative, got %v", c.Server.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
