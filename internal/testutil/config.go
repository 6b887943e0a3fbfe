package testutil

import (
	"os"

	"github.com/AKI-NANA/ebay-connector/internal/config"
)

const (
	// Environment variables consulted by integration-style tests.
	TestAuthToken = "TEST_EBAY_AUTH_TOKEN"
	TestAppID     = "TEST_EBAY_APP_ID"

	DefaultTestToken = "test-token"
	DefaultTestKey   = "test-key"
)

// GetTestValue returns the environment value or the provided default.
func GetTestValue(envVar, defaultValue string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultValue
}

// TestCredentials builds a full credential set suitable for offline tests.
func TestCredentials() config.Credentials {
	return config.Credentials{
		AppID:              GetTestValue(TestAppID, DefaultTestKey),
		DevID:              "test-dev",
		CertID:             "test-cert",
		AuthToken:          GetTestValue(TestAuthToken, DefaultTestToken),
		SiteID:             "0",
		CompatibilityLevel: "967",
		Sandbox:            true,
	}
}
