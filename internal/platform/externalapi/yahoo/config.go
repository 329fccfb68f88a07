// Package yahoo provides a client for the Yahoo Finance chart API.
// It is the alternate price source; values arrive as JSON floats.
package yahoo

import (
	"os"
	"time"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Config holds configuration for the Yahoo Finance client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// LoadConfig loads Yahoo Finance configuration from environment variables.
func LoadConfig() Config {
	baseURL := os.Getenv("YAHOO_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return Config{
		BaseURL:   baseURL,
		UserAgent: "Mozilla/5.0 (compatible; stockpulse/1.0)",
		Timeout:   10 * time.Second,
	}
}
