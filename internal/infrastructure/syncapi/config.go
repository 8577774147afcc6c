package syncapi

import (
	"errors"
	"strings"
)

// Configuration validation errors
var (
	ErrConfigMissingBaseURL = errors.New("syncapi: base URL is required")
)

// Config holds the cart-sync endpoint settings
type Config struct {
	// BaseURL is the root of the shop API, e.g. "https://shop.example.com"
	BaseURL string

	// TimeoutSeconds is the per-request timeout (default: 10)
	TimeoutSeconds int
}

// Validate checks the configuration and sets defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}
