package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the service reads.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Store    StoreConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	up, err := loadUpstreamConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Upstream: up,
		Store:    StoreConfig{Path: getEnvOrDefault("STORE_PATH", "sessions.db")},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := []string{"*"}
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		origins = origins[:0]
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// UpstreamConfig holds the webhook and provider endpoints.
type UpstreamConfig struct {
	ModelsURL    string
	WebhookURL   string
	TestCasesURL string
	BatchURL     string
	EvaluatorURL string
	Timeout      time.Duration
}

func loadUpstreamConfig() (UpstreamConfig, error) {
	webhook := strings.TrimSpace(os.Getenv("WEBHOOK_URL"))
	if webhook == "" {
		return UpstreamConfig{}, fmt.Errorf("WEBHOOK_URL is required")
	}

	timeoutSeconds := 120
	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT_SECONDS")); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val < 1 {
			return UpstreamConfig{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT_SECONDS value %q", raw)
		}
		timeoutSeconds = val
	}

	return UpstreamConfig{
		ModelsURL:    strings.TrimSpace(os.Getenv("MODELS_API_URL")),
		WebhookURL:   webhook,
		TestCasesURL: strings.TrimSpace(os.Getenv("TESTCASES_API_URL")),
		BatchURL:     strings.TrimSpace(os.Getenv("BATCH_WEBHOOK_URL")),
		EvaluatorURL: strings.TrimSpace(os.Getenv("EVALUATOR_WEBHOOK_URL")),
		Timeout:      time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// StoreConfig describes the session persistence backend.
type StoreConfig struct {
	Path string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
