package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Credentials identifies this application to the Trading API. Loaded once
// at startup and never mutated afterwards.
type Credentials struct {
	AppID              string
	DevID              string
	CertID             string
	AuthToken          string
	SiteID             string
	CompatibilityLevel string
	Sandbox            bool
}

// Config is the full runtime configuration for the connector.
type Config struct {
	Credentials Credentials

	DatabaseURL   string
	ClassifierURL string

	LogLevel         string
	MetricsNamespace string

	ConfidenceThreshold float64
	BatchConcurrency    int
	ChunkDelay          time.Duration
}

// Error reports the required environment variables that were absent.
type Error struct {
	Missing []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: missing required variables: %s", strings.Join(e.Missing, ", "))
}

const (
	defaultSiteID        = "0"
	defaultCompatibility = "967"
	defaultThreshold     = 70.0
	defaultConcurrency   = 5
	defaultChunkDelay    = 500 * time.Millisecond
)

// Load reads configuration from the environment. Any missing credential is
// startup-fatal: the returned *Error names every absent variable so the
// operator can fix them in one pass. There are no placeholder defaults for
// credentials.
func Load() (*Config, error) {
	var missing []string
	require := func(name string) string {
		v := os.Getenv(name)
		if v == "" {
			missing = append(missing, name)
		}
		return v
	}

	cfg := &Config{
		Credentials: Credentials{
			AppID:              require("EBAY_APP_ID"),
			DevID:              require("EBAY_DEV_ID"),
			CertID:             require("EBAY_CERT_ID"),
			AuthToken:          require("EBAY_AUTH_TOKEN"),
			SiteID:             getenv("EBAY_SITE_ID", defaultSiteID),
			CompatibilityLevel: getenv("EBAY_COMPATIBILITY_LEVEL", defaultCompatibility),
			Sandbox:            boolenv("EBAY_SANDBOX"),
		},
		DatabaseURL:      require("DATABASE_URL"),
		ClassifierURL:    os.Getenv("CLASSIFIER_URL"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		MetricsNamespace: getenv("METRICS_NAMESPACE", "ebay_connector"),
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &Error{Missing: missing}
	}

	var err error
	cfg.ConfidenceThreshold, err = floatenv("CONFIDENCE_THRESHOLD", defaultThreshold)
	if err != nil {
		return nil, err
	}
	cfg.BatchConcurrency, err = intenv("BATCH_CONCURRENCY", defaultConcurrency)
	if err != nil {
		return nil, err
	}
	delayMS, err := intenv("CHUNK_DELAY_MS", int(defaultChunkDelay/time.Millisecond))
	if err != nil {
		return nil, err
	}
	cfg.ChunkDelay = time.Duration(delayMS) * time.Millisecond

	return cfg, nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func boolenv(name string) bool {
	v, _ := strconv.ParseBool(os.Getenv(name))
	return v
}

func intenv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", name, err)
	}
	return v, nil
}

func floatenv(name string, fallback float64) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", name, err)
	}
	return v, nil
}
