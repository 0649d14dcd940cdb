package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type Config struct {
	InputFile       string
	PubsubTopic     string
	GoogleProjectID string
	MetricsPort     int
	LogLevel        string
	CredentialsFile string
	ExitAfterRun    bool
}

func Load() *Config {
	cfg := &Config{
		InputFile:       strings.TrimSpace(getEnv("ALLOCATOR_INPUT_FILE", "")),
		PubsubTopic:     strings.TrimSpace(getEnv("ALLOCATION_RESULT_TOPIC", os.Getenv("ALLOCATOR_PUBSUB_TOPIC"))),
		MetricsPort:     getEnvInt("ALLOCATOR_METRICS_PORT", 8080),
		LogLevel:        strings.TrimSpace(getEnv("ALLOCATOR_LOG_LEVEL", "info")),
		CredentialsFile: strings.TrimSpace(firstNonEmpty(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), os.Getenv("ALLOCATOR_GSA_CREDENTIALS"))),
		ExitAfterRun:    getEnvBool("ALLOCATOR_EXIT_AFTER_RUN", false),
	}

	if cfg.InputFile == "" {
		log.Warn().Msg("batch input file not set; set ALLOCATOR_INPUT_FILE")
	}
	if cfg.PubsubTopic == "" {
		log.Info().Msg("Pub/Sub result topic not set; results will not be published")
		return cfg
	}
	cfg.GoogleProjectID = getGoogleProjectID(cfg.CredentialsFile, strings.TrimSpace(getEnv("ALLOCATOR_PUBSUB_PROJECT_ID", "")))
	if cfg.GoogleProjectID == "" {
		log.Warn().Msg("Google project ID not resolved; set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_PROJECT_ID or ALLOCATOR_PUBSUB_PROJECT_ID")
	}
	return cfg
}

// PublishEnabled reports whether results should be sent to Pub/Sub.
func (c *Config) PublishEnabled() bool {
	return c.PubsubTopic != "" && c.GoogleProjectID != ""
}

func (c *Config) HTTPAddr() string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(c.MetricsPort))
}

// Redacted returns a view safe for logging
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"inputFile":           c.InputFile,
		"projectID":           c.GoogleProjectID,
		"resultTopic":         c.PubsubTopic,
		"metricsPort":         c.MetricsPort,
		"logLevel":            c.LogLevel,
		"exitAfterRun":        c.ExitAfterRun,
		"credentialsProvided": c.CredentialsFile != "",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		iv, err := strconv.Atoi(v)
		if err == nil {
			return iv
		}
		fmt.Printf("invalid int for %s: %s\n", key, v)
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		bv, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return bv
		}
		fmt.Printf("invalid bool for %s: %s\n", key, v)
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func projectIDFromCredentials(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	var x struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(b, &x); err != nil {
		return "", err
	}
	return x.ProjectID, nil
}

func getGoogleProjectID(credsFile string, explicit string) string {
	// 1) Prefer GOOGLE_APPLICATION_CREDENTIALS if set
	if p := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); p != "" {
		log.Info().Str("credsFile", p).Msg("GOOGLE_APPLICATION_CREDENTIALS is set; extracting project_id from credentials file")
		if pid, err := projectIDFromCredentials(p); err == nil && pid != "" {
			return strings.TrimSpace(pid)
		}
		log.Warn().Str("credsFile", p).Msg("project_id not found in credentials file or unreadable")
	}

	// 2) Explicit override from allocator env
	if explicit := strings.TrimSpace(explicit); explicit != "" {
		log.Info().Str("projectID", explicit).Msg("using ALLOCATOR_PUBSUB_PROJECT_ID for Google project")
		return explicit
	}

	// 3) External override
	if v := strings.TrimSpace(os.Getenv("GOOGLE_PROJECT_ID")); v != "" {
		log.Info().Str("projectID", v).Msg("using GOOGLE_PROJECT_ID from environment")
		return v
	}

	// 4) Common Google envs
	if v := firstNonEmpty(os.Getenv("GOOGLE_CLOUD_PROJECT"), os.Getenv("GCLOUD_PROJECT"), os.Getenv("GCP_PROJECT")); strings.TrimSpace(v) != "" {
		v = strings.TrimSpace(v)
		log.Info().Str("projectID", v).Msg("using Google project from common environment variables")
		return v
	}

	// 5) Fallback to provided credentials file path (ALLOCATOR_GSA_CREDENTIALS)
	if p := strings.TrimSpace(credsFile); p != "" {
		if pid, err := projectIDFromCredentials(p); err == nil && pid != "" {
			log.Info().Str("credsFile", p).Msg("using project_id from provided credentials file")
			return strings.TrimSpace(pid)
		}
	}
	return ""
}
