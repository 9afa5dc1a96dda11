// Package config loads the per-process environment configuration shared by
// every PIXL binary, in the same os.Getenv-direct style as
// apps/privacy-service/cmd/api/main.go rather than through a config-file
// library.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// App holds the environment-sourced settings common to all four PIXL
// binaries: where the broker and registry live, how Vault is reached, and
// where traces go.
type App struct {
	BrokerURL        string
	DatabaseDSN      string
	VaultAddr        string
	VaultToken       string
	VaultSecretPath  string
	OTELEndpoint     string // empty disables tracing
	ServiceName      string
	ImageStoreURL    string
	HasherURL        string
	ProjectConfigDir string

	// ImagingStudyQueue is the queue name the imaging worker's Control API
	// serves its token-bucket routes under (/<name>/token-bucket-refresh-rate).
	// ExportPatientQueue is read but not used by any binary. The broker
	// subjects, durable names and stream names the consumers use are
	// constants in internal/coordinator, internal/exporter and internal/queue,
	// not read from these fields.
	ImagingStudyQueue string
	ExportPatientQueue string
}

// Load reads App from the process environment. serviceName identifies this
// binary in trace resource attributes.
func Load(serviceName string) (App, error) {
	cfg := App{
		BrokerURL:          os.Getenv("PIXL_BROKER_URL"),
		DatabaseDSN:        os.Getenv("PIXL_DATABASE_DSN"),
		VaultAddr:          os.Getenv("VAULT_ADDR"),
		VaultToken:         os.Getenv("VAULT_TOKEN"),
		VaultSecretPath:    os.Getenv("VAULT_SECRET_PATH"),
		OTELEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:        serviceName,
		ImageStoreURL:      os.Getenv("PIXL_IMAGE_STORE_URL"),
		HasherURL:          os.Getenv("PIXL_HASHER_URL"),
		ProjectConfigDir:   envDefault("PIXL_PROJECT_CONFIG_DIR", "/etc/pixl/projects"),
		ImagingStudyQueue:  envDefault("PIXL_IMAGING_STUDY_QUEUE", "imaging.study"),
		ExportPatientQueue: envDefault("PIXL_EXPORT_QUEUE", "export.patient-data"),
	}

	if cfg.BrokerURL == "" {
		return App{}, fmt.Errorf("config: PIXL_BROKER_URL is required")
	}
	if cfg.DatabaseDSN == "" {
		return App{}, fmt.Errorf("config: PIXL_DATABASE_DSN is required")
	}
	return cfg, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses a duration-valued environment variable, falling back
// to def on absence or malformed input.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// envInt parses an int-valued environment variable, falling back to def.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
